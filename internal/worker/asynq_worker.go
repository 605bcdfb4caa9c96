package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/provider"
	"github.com/courier-ledger/internal/queue"
	"github.com/courier-ledger/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDeliveryCompleted, c.handleDeliveryCompleted)
	mux.HandleFunc(queue.TaskOrderCancelled, c.handleOrderCancelled)
}

func (c *Consumer) handleDeliveryCompleted(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_completed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryCompletedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_completed_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ParcelID == 0 {
		logger.Debugw("worker_delivery_completed_skip_invalid_payload", "parcel_id", payload.ParcelID)
		return nil
	}
	parcel, err := c.ParcelRepo.GetByID(payload.ParcelID)
	if err != nil {
		logger.Warnw("worker_delivery_completed_fetch_parcel_failed", "parcel_id", payload.ParcelID, "error", err)
		return err
	}
	if parcel == nil {
		logger.Warnw("worker_delivery_completed_parcel_not_found", "parcel_id", payload.ParcelID)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, service.ErrParcelNotFound)
	}
	if parcel.Status != constants.ParcelStatusDelivered {
		logger.Debugw("worker_delivery_completed_skip_status", "parcel_id", parcel.ID, "status", parcel.Status)
		return nil
	}
	earning, err := c.EarningService.ProcessDeliveryEarnings(parcel)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrParcelInvalid), errors.Is(err, service.ErrCompanyNotFound):
			logger.Warnw("worker_delivery_completed_skip_unprocessable", "parcel_id", parcel.ID, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		default:
			logger.Warnw("worker_delivery_completed_failed", "parcel_id", parcel.ID, "error", err)
			return err
		}
	}
	logger.Debugw("worker_delivery_completed_done", "parcel_id", parcel.ID, "earning_id", earning.ID)
	return nil
}

func (c *Consumer) handleOrderCancelled(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_cancelled_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCancelledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_cancelled_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ParcelID == 0 {
		logger.Debugw("worker_order_cancelled_skip_invalid_payload", "parcel_id", payload.ParcelID)
		return nil
	}
	parcel, err := c.ParcelRepo.GetByID(payload.ParcelID)
	if err != nil {
		logger.Warnw("worker_order_cancelled_fetch_parcel_failed", "parcel_id", payload.ParcelID, "error", err)
		return err
	}
	if parcel == nil {
		logger.Warnw("worker_order_cancelled_parcel_not_found", "parcel_id", payload.ParcelID)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, service.ErrParcelNotFound)
	}
	if _, err := c.EarningService.ReverseEarningsForParcel(parcel, payload.Reason); err != nil {
		logger.Warnw("worker_order_cancelled_reverse_failed", "parcel_id", parcel.ID, "error", err)
		return err
	}
	return nil
}
