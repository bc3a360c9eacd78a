package handlers

import (
	"TrackingCar/internal/audit"
	"TrackingCar/internal/config"
	"TrackingCar/internal/middleware"
	"TrackingCar/internal/model"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// AuditLog — журнал аудита: запись и чтение.
type AuditLog interface {
	audit.Sink
	ListPage(ctx context.Context, page, pageSize int, userName string) ([]model.LogEntry, int64, error)
}

// Services — зависимости REST-слоя.
type Services struct {
	Users      *service.UserService
	Tokens     *service.TokenService
	Cars       *service.CarService
	Locations  *service.LocationService
	Ownerships *service.OwnershipService
	Files      storage.FileStore
	Audit      AuditLog
}

// NewHandler разводящий для хендлеров
func NewHandler(svc Services, logger *zap.SugaredLogger, config *config.Config) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithTimeout(config.RequestTimeout))
	r.Use(middleware.WithAuth(svc.Tokens))
	r.Use(middleware.WithAudit(svc.Audit))

	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	// Handlers
	userHandler := NewUserHandler(svc.Users, svc.Tokens, logger, config)
	carHandler := NewCarHandler(svc.Cars, logger, config)
	locationHandler := NewLocationHandler(svc.Locations, logger, config)
	ownershipHandler := NewOwnershipHandler(svc.Ownerships, logger, config)
	logHandler := NewLogHandler(svc.Audit, logger, config)
	fileHandler := NewFileHandler(svc.Files, logger)

	// Auth routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/refresh", userHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/api/user/logout", userHandler.Logout)

		// Users
		r.Get("/api/users", userHandler.List)
		r.With(admin).Get("/api/users/removed", userHandler.ListRemoved)
		r.Get("/api/users/{id}", userHandler.Get)
		r.Put("/api/users/{id}", userHandler.Update)
		r.With(admin).Delete("/api/users/{id}", userHandler.Delete)
		r.With(admin).Put("/api/users/{id}/status", userHandler.SetStatus)

		// Cars
		r.Get("/api/cars", carHandler.List)
		r.With(staff).Get("/api/cars/removed", carHandler.ListRemoved)
		r.Get("/api/cars/{id}", carHandler.Get)
		r.With(staff).Post("/api/cars", carHandler.Create)
		r.With(staff).Put("/api/cars/{id}", carHandler.Update)
		r.With(staff).Delete("/api/cars/{id}", carHandler.Delete)

		// Locations
		r.Get("/api/locations", locationHandler.List)
		r.With(staff).Get("/api/locations/removed", locationHandler.ListRemoved)
		r.Get("/api/locations/{id}", locationHandler.Get)
		r.With(staff).Post("/api/locations", locationHandler.Create)
		r.With(staff).Put("/api/locations/{id}", locationHandler.Update)
		r.With(staff).Delete("/api/locations/{id}", locationHandler.Delete)

		// Ownerships
		r.Get("/api/ownerships", ownershipHandler.List)
		r.With(staff).Get("/api/ownerships/removed", ownershipHandler.ListRemoved)
		r.Get("/api/ownerships/{id}", ownershipHandler.Get)
		r.With(staff).Post("/api/ownerships", ownershipHandler.Create)
		r.With(staff).Put("/api/ownerships/{id}", ownershipHandler.Update)
		r.With(staff).Delete("/api/ownerships/{id}", ownershipHandler.Delete)

		// Audit log
		r.With(admin).Get("/api/logs", logHandler.List)

		// Files
		r.Get("/api/files/{folder}/{name}", fileHandler.Serve)
	})

	return &Handler{Router: r}
}
