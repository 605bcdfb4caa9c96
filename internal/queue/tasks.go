package queue

import (
	"encoding/json"

	"github.com/courier-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDeliveryCompleted 包裹签收事件
	TaskDeliveryCompleted = constants.TaskLedgerDeliveryDone
	// TaskOrderCancelled 订单取消事件
	TaskOrderCancelled = constants.TaskLedgerOrderCancelled
)

// DeliveryCompletedPayload 签收事件载荷
type DeliveryCompletedPayload struct {
	ParcelID uint `json:"parcel_id"`
}

// OrderCancelledPayload 取消事件载荷
type OrderCancelledPayload struct {
	ParcelID uint   `json:"parcel_id"`
	Reason   string `json:"reason,omitempty"`
}

// NewDeliveryCompletedTask 创建签收入账任务
func NewDeliveryCompletedTask(payload DeliveryCompletedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryCompleted, body), nil
}

// NewOrderCancelledTask 创建取消冲正任务
func NewOrderCancelledTask(payload OrderCancelledPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCancelled, body), nil
}
