package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apiHttp "github.com/plantdoctor/identity/internal/api/http"
	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/db"
	"github.com/plantdoctor/identity/internal/queue/asynqserver"
	"github.com/plantdoctor/identity/internal/queue/client"
	"github.com/plantdoctor/identity/internal/repository"
	"github.com/plantdoctor/identity/internal/server"
	"github.com/plantdoctor/identity/internal/service"
	"github.com/plantdoctor/identity/internal/worker"
	"github.com/plantdoctor/identity/pkg/auth"
	"github.com/plantdoctor/identity/pkg/hash"
	"github.com/plantdoctor/identity/pkg/logger"
	"github.com/plantdoctor/identity/pkg/otp"
	"github.com/plantdoctor/identity/pkg/sms"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	logger.SetupLogger(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting identity api", zap.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	// Storage
	repos, closeDB, err := newRepositories(cfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		os.Exit(1)
	}
	defer closeDB()

	var rdb redis.UniversalClient
	if cfg.Cache.Type != cache.TypeMemory {
		rdb, err = cache.NewRedis(cfg.Cache)
		if err != nil {
			logger.Error("redis connect problem", zap.Error(err))
			os.Exit(1)
		}
		defer rdb.Close()
		logger.Info("redis connection done")
	}

	otpStore, err := cache.NewOTPStore(cfg.Cache.Type, rdb)
	if err != nil {
		logger.Error("otp store creation failed", zap.Error(err))
		os.Exit(1)
	}

	smsSender, err := newSMSSender(cfg.SMS)
	if err != nil {
		logger.Error("sms sender creation failed", zap.Error(err))
		os.Exit(1)
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		logger.Error("auth manager creation err", zap.Error(err))
		os.Exit(1)
	}

	workers := worker.NewWorkers(worker.Deps{SMSSender: smsSender, Config: cfg})

	// OTP delivery
	dispatcher := service.NewDirectDispatcher(workers)
	var queueServer *asynq.Server
	if cfg.Queue.Enabled {
		asynqClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
		defer asynqClient.Close()
		restore := client.SetClient(asynqClient)
		defer restore()

		var mux *asynq.ServeMux
		queueServer, mux = asynqserver.New(cfg, workers)
		go func() {
			if err := queueServer.Run(mux); err != nil {
				logger.Error("asynq server stopped", zap.Error(err))
			}
		}()
		dispatcher = service.NewQueueDispatcher()
		logger.Info("otp queue started")
	}

	// Services & API Handlers
	services := service.NewServices(service.Deps{
		Config:       cfg,
		Hasher:       hash.NewBcryptHasher(cfg.Auth.PinHashCost),
		TokenManager: tokenManager,
		OtpGenerator: otp.NewGOTPGenerator(),
		OTPStore:     otpStore,
		Dispatcher:   dispatcher,
		Repos:        repos,
	})
	handlers := apiHttp.NewHandlers(services, cfg)

	// HTTP Server
	srv := server.NewServer(cfg.HttpServer, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", srv.Addr()))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}

	if queueServer != nil {
		queueServer.Shutdown()
	}

	logger.Info("app stopped")
}

func newRepositories(cfg *config.Config) (*repository.Repositories, func(), error) {
	switch cfg.Storage.Type {
	case config.StorageTypeMemory:
		logger.Warn("using in-memory user storage, accounts are lost on restart")
		return repository.NewMemoryRepositories(), func() {}, nil
	case config.StorageTypeMySQL:
		dbMySQL, err := db.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("mysql connection done")
		return repository.NewRepositories(dbMySQL), closeDB(dbMySQL), nil
	}

	return nil, nil, errors.New("unknown storage type " + cfg.Storage.Type)
}

func closeDB(conn *sqlx.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			logger.Error("error when closing", zap.Error(err))
		}
	}
}

func newSMSSender(cfg config.SMSConfig) (sms.Sender, error) {
	switch cfg.Provider {
	case config.SMSProviderLog:
		return sms.NewLogSender(), nil
	case config.SMSProviderGateway:
		sender, err := sms.NewGatewaySender(cfg.Host, cfg.Port, cfg.From, cfg.Pass, cfg.GatewayDomain)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}

	return nil, errors.New("unknown sms provider " + cfg.Provider)
}
