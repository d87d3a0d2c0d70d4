package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/goredirect/internal/app"
	"github.com/tempizhere/goredirect/internal/config"
	internalgrpc "github.com/tempizhere/goredirect/internal/grpc"
	"github.com/tempizhere/goredirect/internal/grpc/proto"
	"github.com/tempizhere/goredirect/internal/log"
	"github.com/tempizhere/goredirect/internal/middleware"
	"github.com/tempizhere/goredirect/internal/repository"
	"github.com/tempizhere/goredirect/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	logger := log.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	db, err := app.NewDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Хранилища: PostgreSQL при наличии DSN, иначе память плюс файловый
	// журнал событий
	var links repository.LinkRepository
	var events repository.ClickEventRepository
	var counters repository.CounterRepository
	if db != nil {
		store, err := repository.NewPostgresStore(db, logger)
		if err != nil {
			logger.Fatal("Failed to create postgres store", zap.Error(err))
		}
		links, events, counters = store, store, store
	} else {
		memory := repository.NewMemoryStore()
		journal, err := repository.NewFileEventJournal(cfg.EventFilePath, logger)
		if err != nil {
			logger.Fatal("Failed to open click event journal", zap.Error(err))
		}
		links, events, counters = memory, journal, memory
	}

	// Агрегатные счётчики можно вынести в Redis независимо от
	// основного хранилища
	if cfg.RedisAddr != "" {
		redisCounters, err := repository.NewRedisCounterStore(cfg.RedisAddr, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCounters.Close()
		counters = redisCounters
	}

	svc := service.NewService(links, counters, events, cfg.BaseURL, cfg.JWTSecret, logger)
	resolver := service.NewResolver(links, logger)
	recorder := service.NewRecorder(events, counters, links, logger, cfg.ClickWorkers, cfg.ClickQueue)

	appInstance := app.NewApp(svc, resolver, recorder, db, logger, cfg.GeoHeader)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Get("/ping", appInstance.HandlePing)
	r.Get("/", appInstance.HandleRedirect)
	r.Get("/{slug}", appInstance.HandleRedirect)
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.GzipMiddleware)
		api.Route("/links", func(linksRouter chi.Router) {
			linksRouter.Use(middleware.AuthMiddleware(svc, cfg, logger))
			linksRouter.Post("/", appInstance.HandleCreateLink)
			linksRouter.Get("/", appInstance.HandleListLinks)
			linksRouter.Delete("/", appInstance.HandleBatchDelete)
			linksRouter.Get("/{slug}/stats", appInstance.HandleLinkStats)
		})
		api.With(middleware.TrustedSubnetMiddleware(cfg.TrustedSubnet, logger)).
			Get("/internal/stats", appInstance.HandleInternalStats)
	})

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		internalgrpc.LoggingInterceptor(logger),
		internalgrpc.TrustedSubnetInterceptor(cfg.TrustedSubnet, logger),
	))
	proto.RegisterRedirectServiceServer(grpcServer, internalgrpc.NewServer(svc, resolver, db, logger))
	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Error("Failed to listen gRPC address", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
			return
		}
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:    cfg.RunAddr,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	logger.Info("Server started",
		zap.String("http_addr", cfg.RunAddr),
		zap.String("grpc_addr", cfg.GRPCAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	// Останавливаемся в порядке: HTTP, gRPC, очередь кликов, база.
	// Очередь закрывается после серверов, чтобы дописать клики
	// уже принятых редиректов.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	recorder.Close()
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
	}
	logger.Info("Server stopped")
}
