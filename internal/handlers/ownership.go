package handlers

import (
	"TrackingCar/internal/config"
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OwnershipHandler — владельцы автомобилей.
type OwnershipHandler struct {
	OwnershipService *service.OwnershipService
	Logger           *zap.SugaredLogger
	Config           *config.Config
}

func NewOwnershipHandler(ownerships *service.OwnershipService, logger *zap.SugaredLogger, cfg *config.Config) *OwnershipHandler {
	return &OwnershipHandler{OwnershipService: ownerships, Logger: logger, Config: cfg}
}

func (h *OwnershipHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, search, err := pageParams(r, h.Config.DefaultPageSize)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.OwnershipService.List(r.Context(), page, size, search)
	if err != nil {
		writeError(w, h.Logger, "ListOwnerships", err)
		return
	}
	response.OK(http.StatusOK, p).Write(w)
}

func (h *OwnershipHandler) ListRemoved(w http.ResponseWriter, r *http.Request) {
	owners, err := h.OwnershipService.ListRemoved(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListRemovedOwnerships", err)
		return
	}
	response.OK(http.StatusOK, owners).Write(w)
}

// Get владелец вместе с автомобилями
func (h *OwnershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	own, err := h.OwnershipService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetOwnership", err)
		return
	}
	response.OK(http.StatusOK, own).Write(w)
}

func (h *OwnershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.OwnershipInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	own, err := h.OwnershipService.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, "CreateOwnership", err)
		return
	}
	response.OK(http.StatusCreated, own).Write(w)
}

func (h *OwnershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.OwnershipInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	own, err := h.OwnershipService.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.Logger, "UpdateOwnership", err)
		return
	}
	response.OK(http.StatusOK, own).Write(w)
}

// Delete отклоняется с 409, пока на владельца ссылается живой автомобиль.
func (h *OwnershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.OwnershipService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "DeleteOwnership", err)
		return
	}
	response.OK(http.StatusOK, nil).Write(w)
}
