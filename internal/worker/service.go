package worker

import (
	"context"
	"errors"

	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

// EventService 账本事件消费服务（签收入账 / 取消冲正）
type EventService struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建事件消费服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*EventService, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(logTaskFailure)

	mux := asynq.NewServeMux()
	consumer.Register(mux)
	logger.Infow("worker_event_service_ready",
		"concurrency", serverCfg.Concurrency,
		"queues", serverCfg.Queues,
	)
	return &EventService{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// logTaskFailure 记录任务失败；重试耗尽的事件需要人工补偿
func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	kv := []interface{}{
		"task_type", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	}
	if errors.Is(err, asynq.SkipRetry) || retried >= maxRetry {
		logger.Errorw("worker_task_dead", kv...)
		return
	}
	logger.Warnw("worker_task_failed", kv...)
}

// Name 服务名称
func (s *EventService) Name() string {
	return "worker"
}

// Start 启动消费，阻塞直到 Shutdown
func (s *EventService) Start(_ context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 停止消费，等待处理中的任务结束
func (s *EventService) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
