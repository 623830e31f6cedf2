package web

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePage() *model.PageData {
	loc := time.FixedZone("AEST", 10*3600)
	return &model.PageData{
		Visitor: model.Coordinates{Lat: -27.40726, Lon: 152.919906},
		ISS:     model.ISSPosition{Latitude: -23.5, Longitude: 150.25},
		Weather: model.Weather{ID: 800, Description: "clear sky"},
		Sun: model.SunTimes{
			SunriseHour: 6, SunsetHour: 17, SunsetMinute: 2,
			Sunrise: time.Date(2024, 6, 1, 6, 33, 0, 0, loc),
			Sunset:  time.Date(2024, 6, 1, 17, 2, 0, 0, loc),
		},
		Status: model.GoLookStatus{
			Kind:    model.StatusGoLookUp,
			Message: "ISS is overhead and the weather is <i>clear sky</i>. Go Look Up!",
		},
		Timezone: "Australia/Brisbane",
	}
}

func TestRenderIndex(t *testing.T) {
	require.NoError(t, LoadTemplates())

	var buf bytes.Buffer
	require.NoError(t, RenderIndex(&buf, samplePage()))
	html := buf.String()

	assert.Contains(t, html, `id="datetime"`)
	assert.Contains(t, html, "Your Position is LAT: -27.40726  LONG: 152.919906")
	assert.Contains(t, html, "ISS Position is LAT: -23.5   LONG: 150.25")
	assert.Contains(t, html, "<i>clear sky</i>. Go Look Up!")
	assert.Contains(t, html, "Sunset 17:02")
	assert.Contains(t, html, `<script src="/static/script.js"></script>`)
	assert.NotContains(t, html, "window.")
}

func TestRenderIndex_NotLoaded(t *testing.T) {
	prev := indexTmpl
	indexTmpl = nil
	defer func() { indexTmpl = prev }()

	err := RenderIndex(io.Discard, samplePage())
	assert.ErrorContains(t, err, "not loaded")
}

func TestLoadTemplatesFromFS_Failures(t *testing.T) {
	prev := indexTmpl
	defer func() { indexTmpl = prev }()

	empty := fstest.MapFS{"templates/readme.txt": {Data: []byte("x")}}
	assert.Error(t, loadTemplatesFromFS(empty, "templates"))

	broken := fstest.MapFS{"templates/index.html": {Data: []byte("{{.Page")}}
	assert.Error(t, loadTemplatesFromFS(broken, "templates"))
}

func TestStaticHandler(t *testing.T) {
	h := StaticHandler()
	for _, path := range []string{"/static/script.js", "/static/style.css"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/script.js", nil))
	assert.Contains(t, rr.Body.String(), "/update_location")
	assert.Contains(t, rr.Body.String(), "/refresh_iss_position")
}
