package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/identity"
	"github.com/plantdoctor/identity/internal/session"
	"github.com/plantdoctor/identity/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so main can exit with its status.
func run() int {
	cfg := config.MustLoadClient()

	logger.SetupLogger(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	var rdb redis.UniversalClient
	if cfg.Session.Type == session.TypeRedis {
		var err error
		rdb, err = cache.NewRedis(cfg.Cache)
		if err != nil {
			logger.Error("redis connect problem", zap.Error(err))
			return 1
		}
		defer rdb.Close()
	}

	sessions, err := session.NewStore(cfg.Session, rdb)
	if err != nil {
		logger.Error("session store creation failed", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(identity.NewClient(cfg.Identity), sessions, os.Stdin, os.Stdout)
	return app.run(ctx, os.Args[1:])
}
