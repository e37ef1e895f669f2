package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	appcfg "github.com/Skotchmaster/easystore/internal/config"
	"github.com/Skotchmaster/easystore/internal/events"
	"github.com/Skotchmaster/easystore/internal/httpserver"
	"github.com/Skotchmaster/easystore/internal/receipts"
	"github.com/Skotchmaster/easystore/internal/search"
	"github.com/Skotchmaster/easystore/internal/service"
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/pkg/logging"
	loggingmw "github.com/Skotchmaster/easystore/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := appcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if missing := cfg.MissingOptional(); len(missing) > 0 {
		logger.Warn("optional_env_missing", "vars", missing)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	stores, err := store.Open(ctx, cfg.StoreOptions())
	cancel()
	if err != nil {
		log.Fatalf("store open: %v", err)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
	}

	var index search.Index
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		es, err := search.NewElastic(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		cancel()
		if err != nil {
			logger.Warn("search_unavailable", "reason", "falling back to store scan", "error", err)
		} else {
			index = es
		}
	}

	var uploader receipts.Uploader = &receipts.Local{Dir: cfg.ReceiptsDir, BaseURL: cfg.ReceiptsBaseURL}
	uploadsDir := cfg.ReceiptsDir
	if cfg.S3Bucket != "" {
		s3u, err := receipts.NewS3(context.Background(), receipts.S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatalf("receipts storage: %v", err)
		}
		uploader = s3u
		uploadsDir = ""
	}

	authSvc := &service.AuthService{
		Users:         stores.Users,
		Tokens:        stores.Tokens,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}
	catalogSvc := &service.CatalogService{Products: stores.Products, Index: index, Events: publisher}
	orderSvc := &service.OrderService{Orders: stores.Orders, Products: stores.Products, Events: publisher}

	bootCtx, bootCancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
	if err := authSvc.EnsureAdmin(bootCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("admin_bootstrap_failed", "error", err)
	}
	bootCancel()

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: len(cfg.CORSOrigins) > 0 && cfg.CORSOrigins[0] != "*",
	}))

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc, Receipts: uploader},
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		JWTSecret:      cfg.JWTAccessSecret,
		Refresher:      authSvc,
		Ready:          stores.Ping,
		UploadsDir:     uploadsDir,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error("store_close_error", "error", err)
	}

	logger.Info("shutdown complete")
}
