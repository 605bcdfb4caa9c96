package worker

import (
	"context"
	"time"

	"github.com/courier-ledger/internal/cache"
	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/service"
)

const defaultClearanceInterval = 5 * time.Minute

// ClearanceScheduler 定时结算待结算收益
// 多实例部署时通过 Redis 锁保证同一时刻只有一个实例执行
type ClearanceScheduler struct {
	earnings *service.EarningService
	interval time.Duration
	lockTTL  time.Duration
	now      func() time.Time
}

// NewClearanceScheduler 创建结算调度器
func NewClearanceScheduler(earnings *service.EarningService, interval time.Duration) *ClearanceScheduler {
	if interval <= 0 {
		interval = defaultClearanceInterval
	}
	return &ClearanceScheduler{
		earnings: earnings,
		interval: interval,
		lockTTL:  interval,
		now:      time.Now,
	}
}

// Name 服务名称
func (s *ClearanceScheduler) Name() string {
	return "clearance"
}

// Start 启动结算循环，ctx 取消后退出
func (s *ClearanceScheduler) Start(ctx context.Context) error {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop 停止服务
func (s *ClearanceScheduler) Stop(_ context.Context) error {
	return nil
}

// RunOnce 执行一轮结算，返回是否拿到锁
func (s *ClearanceScheduler) RunOnce(ctx context.Context) (service.ClearanceResult, bool) {
	if s == nil || s.earnings == nil {
		return service.ClearanceResult{}, false
	}
	lock, acquired, err := cache.TryLock(ctx, constants.CacheKeyClearanceLock, s.lockTTL)
	if err != nil {
		logger.Warnw("worker_clearance_lock_failed", "error", err)
		return service.ClearanceResult{}, false
	}
	if !acquired {
		logger.Debugw("worker_clearance_skip_locked")
		return service.ClearanceResult{}, false
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			logger.Warnw("worker_clearance_unlock_failed", "error", err)
		}
	}()

	result, err := s.earnings.ClearDueEarnings(s.now())
	if err != nil {
		logger.Warnw("worker_clearance_due_failed", "error", err)
	}
	return result, true
}
