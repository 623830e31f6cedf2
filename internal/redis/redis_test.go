package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClient(t *testing.T) {
	client := GetClient()
	if client == nil {
		t.Error("Expected Redis client to be created")
	}

	// Test that we can get the same client multiple times (singleton pattern)
	client2 := GetClient()
	if client != client2 {
		t.Error("Expected same client instance (singleton pattern)")
	}
}

func TestGetContext(t *testing.T) {
	ctx := GetContext()
	if ctx == nil {
		t.Error("Expected context to be created")
	}

	select {
	case <-ctx.Done():
		t.Error("Expected context to not be cancelled")
	default:
	}
}

func TestResetClientForTest(t *testing.T) {
	client1 := GetClient()
	ResetClientForTest()
	client2 := GetClient()
	if client1 == client2 {
		t.Error("Expected a new client instance after reset")
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "sun:-27.41:152.92:2024-06-01", Key(PrefixSun, "-27.41", "152.92", "2024-06-01"))
	assert.Equal(t, "location", Key(PrefixLocation))
}

func TestJSONRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := GetContext()

	type point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	require.NoError(t, SetJSON(ctx, rdb, "p", point{Lat: 1.5, Lon: -2.25}, time.Minute))

	var got point
	require.NoError(t, GetJSON(ctx, rdb, "p", &got))
	assert.Equal(t, point{Lat: 1.5, Lon: -2.25}, got)
	assert.True(t, mr.TTL("p") > 0)

	mr.FastForward(2 * time.Minute)
	err := GetJSON(ctx, rdb, "p", &got)
	assert.ErrorIs(t, err, redisv9.Nil)
}

func TestSetJSON_NoTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, SetJSON(GetContext(), rdb, "k", map[string]int{"a": 1}, 0))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func BenchmarkGetClient(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetClient()
	}
}
