package config

// QueueConfig configures the RabbitMQ notification fan-out.  An empty URL
// disables publishing; notifications are then only logged.
type QueueConfig struct {
    URL             string
    Queue           string
    ConsumerEnabled bool
    LogPath         string
}

// LoadQueueConfig reads RABBITMQ_URL and the NOTIFY_* variables.
func LoadQueueConfig() QueueConfig {
    return QueueConfig{
        URL:             envStr("RABBITMQ_URL", ""),
        Queue:           envStr("NOTIFY_QUEUE", "carshare.notifications"),
        ConsumerEnabled: envBool("NOTIFY_CONSUMER", true),
        LogPath:         envStr("NOTIFY_LOG_PATH", "logs/notifications.log"),
    }
}
