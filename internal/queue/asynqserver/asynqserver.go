package asynqserver

import (
	"github.com/hibiken/asynq"

	"github.com/plantdoctor/identity/internal/cache"
	"github.com/plantdoctor/identity/internal/config"
	"github.com/plantdoctor/identity/internal/queue/processor"
	"github.com/plantdoctor/identity/internal/queue/task"
	"github.com/plantdoctor/identity/internal/worker"
)

func New(cfg *config.Config, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg.Cache),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	if cfg.Type == cache.RedisTypeCluster {
		return asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	}
	return asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.SendOTPTaskName, processor.NewSendOTPProcessor(workers))
	queues := map[string]int{
		task.SendOTPQueueName: 1,
	}
	return mux, queues
}
