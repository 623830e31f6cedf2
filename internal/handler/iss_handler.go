package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/repository"
	"github.com/fakhrymubarak/iss-finder/internal/service"
	"github.com/fakhrymubarak/iss-finder/internal/web"
	json "github.com/goccy/go-json"
)

const maxLocationBody = 1 << 10

type ISSFinderHandler struct {
	Service service.ISSFinderServiceInterface
}

func NewISSFinderHandler(svc ...service.ISSFinderServiceInterface) *ISSFinderHandler {
	var finderService service.ISSFinderServiceInterface
	if len(svc) > 0 && svc[0] != nil {
		finderService = svc[0]
	} else {
		finderService = service.NewISSFinderService(nil)
	}
	return &ISSFinderHandler{
		Service: finderService,
	}
}

func (h *ISSFinderHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func (h *ISSFinderHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

func (h *ISSFinderHandler) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrISSUnavailable), errors.Is(err, repository.ErrExternalAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleIndex renders the page with freshly gathered data.
func (h *ISSFinderHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	data, err := h.Service.PageData(r.Context())
	if err != nil {
		config.GetLogger().Errorw("Building page data failed", "error", err)
		http.Error(w, "The ISS position is unavailable right now. Please try again shortly.", statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := web.RenderIndex(&buf, data); err != nil {
		config.GetLogger().Errorw("Rendering index failed", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// HandleUpdateLocation stores the position posted by the page as {"lat": .., "lon": ..}.
func (h *ISSFinderHandler) HandleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}

	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLocationBody)).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.Lat == nil || body.Lon == nil {
		h.writeError(w, http.StatusBadRequest, "Both 'lat' and 'lon' are required")
		return
	}

	coords := model.Coordinates{Lat: *body.Lat, Lon: *body.Lon}
	if err := h.Service.UpdateLocation(r.Context(), coords); err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			h.writeError(w, status, "Coordinates out of range")
			return
		}
		config.GetLogger().Errorw("Updating location failed", "error", err)
		h.writeError(w, status, "Failed to update location")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, model.StatusResponse{Status: "success"})
}

// HandleRefreshISSPosition returns {"iss_latitude": .., "iss_longitude": ..}.
func (h *ISSFinderHandler) HandleRefreshISSPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	pos, err := h.Service.RefreshISSPosition(r.Context())
	if err != nil {
		config.GetLogger().Errorw("Refreshing ISS position failed", "error", err)
		h.writeError(w, statusFor(err), "Failed to fetch ISS position")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, struct {
		Latitude  float64 `json:"iss_latitude"`
		Longitude float64 `json:"iss_longitude"`
	}{pos.Latitude, pos.Longitude})
}

func (h *ISSFinderHandler) HandleGoLookStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	status, err := h.Service.GoLookStatus(r.Context())
	if err != nil {
		config.GetLogger().Errorw("Evaluating go-look status failed", "error", err)
		h.writeError(w, statusFor(err), "Failed to evaluate status")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, status)
}

func (h *ISSFinderHandler) HandlePageData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	data, err := h.Service.PageData(r.Context())
	if err != nil {
		config.GetLogger().Errorw("Building page data failed", "error", err)
		h.writeError(w, statusFor(err), "Failed to build page data")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, data)
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
