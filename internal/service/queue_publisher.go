// Package service holds long-running background services of the web server.
package service

import (
    "context"
    "encoding/json"
    "log/slog"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/carshare-web/internal/config"
    "github.com/iliyamo/carshare-web/internal/metrics"
    "github.com/iliyamo/carshare-web/internal/notify"
    "github.com/iliyamo/carshare-web/internal/queue"
)

// publishBuffer is how many notifications may wait for the broker before new
// ones are dropped.
const publishBuffer = 256

// Publisher forwards notifications to RabbitMQ.  Notify never blocks the
// request: events are buffered and sent by Run over one long-lived channel,
// which is re-opened after a broker failure.  Events that arrive while the
// buffer is full are dropped and counted.
type Publisher struct {
    cfg    config.QueueConfig
    log    *slog.Logger
    events chan queue.NotificationEvent

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(cfg config.QueueConfig, log *slog.Logger) *Publisher {
    if log == nil {
        log = slog.Default()
    }
    return &Publisher{cfg: cfg, log: log, events: make(chan queue.NotificationEvent, publishBuffer)}
}

// Notify implements notify.Notifier.
func (p *Publisher) Notify(_ context.Context, n notify.Notification) {
    select {
    case p.events <- queue.EventFrom(n):
    default:
        metrics.NotificationsPublished.WithLabelValues("dropped").Inc()
    }
}

// Run publishes buffered events until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
    defer p.close()
    for {
        select {
        case <-ctx.Done():
            return
        case ev := <-p.events:
            if err := p.publish(ctx, ev); err != nil {
                metrics.NotificationsPublished.WithLabelValues("error").Inc()
                p.log.Warn("rabbitmq: publish failed", slog.String("id", ev.ID), slog.Any("err", err))
                p.close() // next publish redials
                continue
            }
            metrics.NotificationsPublished.WithLabelValues("ok").Inc()
        }
    }
}

func (p *Publisher) publish(ctx context.Context, ev queue.NotificationEvent) error {
    ch, err := p.channel()
    if err != nil {
        return err
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    return ch.PublishWithContext(pctx,
        "",           // default exchange
        p.cfg.Queue,  // routing key = queue name
        false,        // mandatory
        false,        // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent, // store on disk
            MessageId:    ev.ID,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
}

// channel returns the open channel, dialing and declaring the queue
// (idempotent, durable) when there is none.
func (p *Publisher) channel() (*amqp.Channel, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    conn, err := amqp.Dial(p.cfg.URL)
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Pending reports how many events are waiting to be published.
func (p *Publisher) Pending() int { return len(p.events) }
