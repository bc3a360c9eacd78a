package main

import (
	"TrackingCar/internal/audit"
	"TrackingCar/internal/auth"
	"TrackingCar/internal/config"
	"TrackingCar/internal/handlers"
	"TrackingCar/internal/middleware"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize file storage", "backend", cfg.StorageBackend, "error", err)
	}

	sink := audit.NewGormSink(gormDB, sugar, cfg.AuditBuffer, cfg.MaxPageSize)

	userRepo := repo.NewUserRepository(gormDB, cfg.MaxPageSize)
	carRepo := repo.NewCarRepository(gormDB, cfg.MaxPageSize)
	signer := auth.NewSigner(
		cfg.AuthSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLHours)*time.Hour,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)

	userService := service.NewUserService(userRepo, files, sugar)
	tokenService := service.NewTokenService(userRepo, signer, sugar)

	created, err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		sugar.Fatalw("failed to create admin account", "error", err)
	}
	if created {
		sugar.Infow("admin account created", "username", cfg.AdminUsername)
	}

	h := handlers.NewHandler(handlers.Services{
		Users:      userService,
		Tokens:     tokenService,
		Cars:       service.NewCarService(carRepo, files, sugar),
		Locations:  service.NewLocationService(carRepo, sugar),
		Ownerships: service.NewOwnershipService(carRepo, sugar),
		Files:      files,
		Audit:      sink,
	}, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"StorageBackend", cfg.StorageBackend,
		"RequestTimeout", cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("Server failed", "error", err)
		}
	case <-ctx.Done():
		sugar.Infow("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	// журнал закрывается после сервера, чтобы записать последние запросы
	if err := sink.Close(shutdownCtx); err != nil {
		sugar.Warnw("audit log not fully flushed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageBackend == config.StorageMinio {
		return storage.NewMinioStore(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	}
	return storage.NewLocalStore(cfg.UploadDir)
}
