package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/iss-finder/internal/redis"
	"github.com/spf13/viper"
)

// setupRedis points the shared Redis client at a fresh in-memory server.
func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	viper.Set("redis.addr", mr.Addr())
	redis.ResetClientForTest()
	t.Cleanup(func() {
		redis.ResetClientForTest()
	})
	return mr
}

// setConfig overrides a viper key for the duration of the test.
func setConfig(t *testing.T, key string, value interface{}) {
	t.Helper()
	prev := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, prev) })
}
