package query

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares the query cache between BFF instances. Entries live
// under <prefix>:q:<resource>:<hash> and every key is indexed in the set
// <prefix>:idx:<resource> so a resource can be dropped in one script call.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store. ttl bounds how long an entry can outlive
// its stale time; a zero ttl defaults to ten minutes.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "cache"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) entryKey(key Key) string {
	return s.prefix + ":q:" + key.Resource + ":" + key.Hash()
}

func (s *RedisStore) indexKey(resource string) string {
	return s.prefix + ":idx:" + resource
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	bs, err := s.rdb.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(bs, &e); err != nil {
		// Treat a corrupt payload as a miss; the next Set overwrites it.
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ek := s.entryKey(key)
	ik := s.indexKey(key.Resource)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, ek, payload, s.ttl)
		p.SAdd(ctx, ik, ek)
		p.Expire(ctx, ik, s.ttl)
		return nil
	})
	return err
}

// invalidateScript deletes every indexed entry and the index itself atomically.
var invalidateScript = redis.NewScript(`
	local members = redis.call('SMEMBERS', KEYS[1])
	for i = 1, #members do
		redis.call('DEL', members[i])
	end
	redis.call('DEL', KEYS[1])
	return #members
`)

func (s *RedisStore) Invalidate(ctx context.Context, resource string) error {
	return invalidateScript.Run(ctx, s.rdb, []string{s.indexKey(resource)}).Err()
}
