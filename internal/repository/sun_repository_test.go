package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Brisbane, 2024-06-01: sunrise 06:33 AEST, sunset 17:00 AEST.
const sunBody = `{"results": {"sunrise": "2024-05-31T20:33:12+00:00", "sunset": "2024-06-01T07:00:41+00:00"}, "status": "OK"}`

func TestSunRepository_GetSunTimes(t *testing.T) {
	mr := setupRedis(t)
	setConfig(t, "location.timezone", "Australia/Brisbane")

	var calls int32
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(sunBody))
	}))
	defer srv.Close()
	setConfig(t, "sun.api_url", srv.URL)

	repo := NewSunRepository()
	day := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	times, err := repo.GetSunTimes(context.Background(), brisbane, day)
	require.NoError(t, err)
	assert.Equal(t, 6, times.SunriseHour)
	assert.Equal(t, 17, times.SunsetHour)
	assert.Equal(t, 0, times.SunsetMinute)
	assert.Equal(t, model.SourceAPI, times.Source)
	assert.Contains(t, query, "formatted=0")
	assert.Contains(t, query, "date=2024-06-01")
	assert.Contains(t, query, "lng=152.919906")
	assert.True(t, mr.Exists("sun:-27.41:152.92:2024-06-01"))

	cached, err := repo.GetSunTimes(context.Background(), brisbane, day)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, 17, cached.SunsetHour)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSunRepository_FallbackToComputed(t *testing.T) {
	setupRedis(t)
	setConfig(t, "location.timezone", "Australia/Brisbane")

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api down", http.StatusInternalServerError, ``},
		{"api invalid request", http.StatusOK, `{"results": "", "status": "INVALID_REQUEST"}`},
		{"bad timestamp", http.StatusOK, `{"results": {"sunrise": "6am", "sunset": "5pm"}, "status": "OK"}`},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewSunRepository(StaticClient(tt.status, tt.body))
			day := time.Date(2024, 6, 1+i, 3, 0, 0, 0, time.UTC)
			times, err := repo.GetSunTimes(context.Background(), brisbane, day)
			require.NoError(t, err)
			assert.Equal(t, model.SourceComputed, times.Source)
			// Brisbane winter: sunrise around 06:30, sunset close to 17:00.
			assert.Equal(t, 6, times.SunriseHour)
			assert.Contains(t, []int{16, 17}, times.SunsetHour)
		})
	}
}

func TestNewSunTimesConvertsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	rise := time.Date(2024, 5, 31, 20, 33, 0, 0, time.UTC)
	set := time.Date(2024, 6, 1, 7, 45, 0, 0, time.UTC)

	times := model.NewSunTimes(rise, set, loc, model.SourceAPI)
	assert.Equal(t, 6, times.SunriseHour)
	assert.Equal(t, 17, times.SunsetHour)
	assert.Equal(t, 45, times.SunsetMinute)
}
