package handlers

import (
	"TrackingCar/internal/config"
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LocationHandler — места хранения автомобилей.
type LocationHandler struct {
	LocationService *service.LocationService
	Logger          *zap.SugaredLogger
	Config          *config.Config
}

func NewLocationHandler(locations *service.LocationService, logger *zap.SugaredLogger, cfg *config.Config) *LocationHandler {
	return &LocationHandler{LocationService: locations, Logger: logger, Config: cfg}
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, search, err := pageParams(r, h.Config.DefaultPageSize)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.LocationService.List(r.Context(), page, size, search)
	if err != nil {
		writeError(w, h.Logger, "ListLocations", err)
		return
	}
	response.OK(http.StatusOK, p).Write(w)
}

func (h *LocationHandler) ListRemoved(w http.ResponseWriter, r *http.Request) {
	locs, err := h.LocationService.ListRemoved(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListRemovedLocations", err)
		return
	}
	response.OK(http.StatusOK, locs).Write(w)
}

// Get локация вместе с автомобилями и вложениями
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	loc, err := h.LocationService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetLocation", err)
		return
	}
	response.OK(http.StatusOK, loc).Write(w)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.LocationInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	loc, err := h.LocationService.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, "CreateLocation", err)
		return
	}
	response.OK(http.StatusCreated, loc).Write(w)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.LocationInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	loc, err := h.LocationService.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.Logger, "UpdateLocation", err)
		return
	}
	response.OK(http.StatusOK, loc).Write(w)
}

// Delete отклоняется с 409, пока на локацию ссылается живой автомобиль.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.LocationService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "DeleteLocation", err)
		return
	}
	response.OK(http.StatusOK, nil).Write(w)
}
