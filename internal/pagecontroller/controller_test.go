package pagecontroller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu        sync.Mutex
	posts     []model.Coordinates
	types     []string
	issCalls  int32
	issStatus int32
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/update_location", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var coords model.Coordinates
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &coords))
		f.mu.Lock()
		f.posts = append(f.posts, coords)
		f.types = append(f.types, r.Header.Get("Content-Type"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/refresh_iss_position", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.issCalls, 1)
		if code := atomic.LoadInt32(&f.issStatus); code != 0 {
			w.WriteHeader(int(code))
			_, _ = io.WriteString(w, `{"error":"Failed to fetch ISS position","message":"Error"}`)
			return
		}
		_, _ = io.WriteString(w, `{"iss_latitude": -30.5, "iss_longitude": 150.25}`)
	})
	mux.HandleFunc("/page_data", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.PageData{
			ISS:       model.ISSPosition{Latitude: -31, Longitude: 151},
			Weather:   model.Weather{ID: 800, Description: "clear sky"},
			Sun:       model.SunTimes{SunriseHour: 6, SunsetHour: 17, SunsetMinute: 2},
			Tolerance: 5,
			Timezone:  "UTC",
		})
	})
	return mux
}

func (f *fakeServer) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *TerminalDisplay, *fakeServer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	display := NewTerminalDisplay(io.Discard)
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	return New(display, NewClient(srv.URL+"/", srv.Client()), opts...), display, fake
}

func TestUpdateDateTime(t *testing.T) {
	c, display, _ := newTestController(t)
	c.UpdateDateTime(time.Date(2024, 6, 1, 21, 5, 9, 0, time.UTC))
	assert.Equal(t, "06/01/2024, 21:05:09", display.Text(ElementDateTime))

	brisbane := time.FixedZone("AEST", 10*3600)
	c = New(display, nil, WithLocation(brisbane))
	c.UpdateDateTime(time.Date(2024, 6, 1, 21, 5, 9, 0, time.UTC))
	assert.Equal(t, "06/02/2024, 07:05:09", display.Text(ElementDateTime))
}

func TestRunClock_StartsOnce(t *testing.T) {
	c, display, _ := newTestController(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.RunClock(ctx)
	assert.NotEmpty(t, display.Text(ElementDateTime))

	done := make(chan struct{})
	go func() {
		c.RunClock(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second RunClock call started another clock")
	}
}

func TestGetLocation_Unsupported(t *testing.T) {
	c, display, fake := newTestController(t)

	err := c.GetLocation(context.Background())
	assert.ErrorIs(t, err, ErrGeolocationUnsupported)
	assert.Equal(t, "Geolocation is not supported by this browser.", display.Text(ElementYourPos))
	assert.Equal(t, 0, fake.postCount())
	_, ok := c.Visitor()
	assert.False(t, ok)
}

func TestGetLocation_SendsOnePost(t *testing.T) {
	coords := model.Coordinates{Lat: -33.8688, Lon: 151.2093}
	c, display, fake := newTestController(t, WithGeolocator(StaticGeolocator{Coords: coords}))

	require.NoError(t, c.GetLocation(context.Background()))

	assert.Equal(t, "Your Position is LAT: -33.8688  LONG: 151.2093", display.Text(ElementYourPos))
	require.Equal(t, 1, fake.postCount())
	assert.Equal(t, coords, fake.posts[0])
	assert.Equal(t, "application/json", fake.types[0])

	visitor, ok := c.Visitor()
	assert.True(t, ok)
	assert.Equal(t, coords, visitor)
}

func TestGetLocation_GeolocatorError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _, fake := newTestController(t, WithGeolocator(StaticGeolocator{}))

	err := c.GetLocation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fake.postCount())
}

func TestSendLocationToServer_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to update location","message":"Error"}`)
	}))
	defer srv.Close()
	display := NewTerminalDisplay(io.Discard)
	c := New(display, NewClient(srv.URL))

	err := c.SendLocationToServer(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "Failed to update location")
	assert.NotEmpty(t, display.Text(ElementFetchStatus))
}

func TestRefreshISSPosition(t *testing.T) {
	c, display, fake := newTestController(t)

	require.NoError(t, c.RefreshISSPosition(context.Background()))
	assert.Equal(t, "ISS Position is LAT: -30.5   LONG: 150.25", display.Text(ElementISSPos))
	assert.Equal(t, -30.5, c.Environment().ISS.Latitude)
	assert.Equal(t, 150.25, c.Environment().ISS.Longitude)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.issCalls))
	assert.Empty(t, display.Text(ElementFetchStatus))
}

func TestRefreshISSPosition_Failure(t *testing.T) {
	c, display, fake := newTestController(t)
	atomic.StoreInt32(&fake.issStatus, http.StatusBadGateway)
	c.SetEnvironment(Environment{ISS: model.ISSPosition{Latitude: 1, Longitude: 2}})

	err := c.RefreshISSPosition(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, 1.0, c.Environment().ISS.Latitude)
	assert.Equal(t, "Could not refresh the ISS position.", display.Text(ElementFetchStatus))
	assert.Empty(t, display.Text(ElementISSPos))
}

func TestLoadPageData(t *testing.T) {
	c, display, _ := newTestController(t)

	require.NoError(t, c.LoadPageData(context.Background()))
	env := c.Environment()
	assert.Equal(t, 800, env.Weather.ID)
	assert.Equal(t, 17, env.Sun.SunsetHour)
	assert.Equal(t, 5.0, env.Tolerance)
	assert.Equal(t, "ISS Position is LAT: -31   LONG: 151", display.Text(ElementISSPos))
}

func TestUpdateGoLookStatus(t *testing.T) {
	night := time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC)
	env := Environment{
		Weather:   model.Weather{ID: 800, Description: "clear sky"},
		Sun:       model.SunTimes{SunriseHour: 6, SunsetHour: 17},
		ISS:       model.ISSPosition{Latitude: -30, Longitude: 150},
		Tolerance: 5,
	}

	t.Run("no position reported", func(t *testing.T) {
		c, display, _ := newTestController(t, WithEnvironment(env))
		status := c.UpdateGoLookStatus(night)
		assert.Equal(t, model.StatusCheckBackLater, status.Kind)
		assert.Equal(t, "ISS is not overhead but the weather is clear sky, at least. Check Back Later!", display.Text(ElementGoLookStatus))
	})

	t.Run("overhead after a fix", func(t *testing.T) {
		c, display, _ := newTestController(t,
			WithEnvironment(env),
			WithGeolocator(StaticGeolocator{Coords: model.Coordinates{Lat: -27.5, Lon: 152.5}}))
		require.NoError(t, c.GetLocation(context.Background()))

		status := c.UpdateGoLookStatus(night)
		assert.Equal(t, model.StatusGoLookUp, status.Kind)
		assert.Equal(t, "ISS is overhead and the weather is clear sky. Go Look Up!", display.Text(ElementGoLookStatus))
	})

	t.Run("daytime", func(t *testing.T) {
		c, _, _ := newTestController(t, WithEnvironment(env))
		status := c.UpdateGoLookStatus(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, model.StatusWaitForNight, status.Kind)
	})
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	display := NewTerminalDisplay(&out, ElementDateTime)
	c := New(display, NewClient(srv.URL), WithGeolocator(StaticGeolocator{Coords: model.Coordinates{Lat: -27.5, Lon: 152.5}}))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx, 100*time.Millisecond))

	assert.Equal(t, 1, fake.postCount())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fake.issCalls), int32(1))
	assert.NotEmpty(t, display.Text(ElementDateTime))
	assert.NotEmpty(t, display.Text(ElementGoLookStatus))
}
