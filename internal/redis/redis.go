package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	json "github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
)

// Key prefixes used across repositories.
const (
	PrefixISS      = "iss"
	PrefixWeather  = "weather"
	PrefixSun      = "sun"
	PrefixLocation = "location"
)

var (
	client *redisv9.Client
	once   sync.Once
)

func GetClient() *redisv9.Client {
	once.Do(func() {
		client = redisv9.NewClient(&redisv9.Options{
			Addr: config.GetRedisAddr(),
		})
	})
	return client
}

func GetContext() context.Context {
	return context.Background()
}

// Key joins parts with ':' into a cache key, e.g. Key("sun", "-27.41", "152.92").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetJSON loads key into dst. A missing key returns redisv9.Nil.
func GetJSON(ctx context.Context, rdb *redisv9.Client, key string, dst interface{}) error {
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dst)
}

// SetJSON stores v under key. A zero ttl keeps the key until overwritten.
func SetJSON(ctx context.Context, rdb *redisv9.Client, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// ResetClientForTest resets the Redis client singleton. Use only in tests.
func ResetClientForTest() {
	once = sync.Once{}
	client = nil
}
