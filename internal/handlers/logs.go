package handlers

import (
	"TrackingCar/internal/config"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// LogHandler — чтение журнала аудита.
type LogHandler struct {
	Log    AuditLog
	Logger *zap.SugaredLogger
	Config *config.Config
}

func NewLogHandler(log AuditLog, logger *zap.SugaredLogger, cfg *config.Config) *LogHandler {
	return &LogHandler{Log: log, Logger: logger, Config: cfg}
}

// List страница журнала, новые записи первыми; ?user= фильтрует по автору.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, _, err := pageParams(r, h.Config.DefaultPageSize)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, total, err := h.Log.ListPage(r.Context(), page, size, r.URL.Query().Get("user"))
	if err != nil {
		if errors.Is(err, repo.ErrInvalidPage) {
			badRequest(w, err.Error())
			return
		}
		writeError(w, h.Logger, "ListLogs", err)
		return
	}
	response.OK(http.StatusOK, service.NewPage(entries, total, page, size)).Write(w)
}
