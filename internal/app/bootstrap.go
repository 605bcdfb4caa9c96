package app

import (
	"errors"
	"time"

	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/provider"
	"github.com/courier-ledger/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 事件消费（签收入账 / 取消冲正）
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				container.Close()
				return nil, nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_worker_skip_queue_disabled", "mode", mode)
		}
	}

	// 定时结算
	if mode == ModeAll || mode == ModeClearance {
		interval := time.Duration(cfg.Ledger.ClearanceIntervalMinutes) * time.Minute
		services = append(services, worker.NewClearanceScheduler(container.EarningService, interval))
	}

	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	opts.Logger.Infow("app_start",
		"name", opts.Config.App.Name,
		"mode", opts.Mode,
		"platform_user_id", opts.Config.Ledger.PlatformUserID,
	)
	return RunWithOptions(runner, opts)
}
