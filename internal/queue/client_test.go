package queue

import (
	"encoding/json"
	"testing"

	"github.com/courier-ledger/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueDeliveryCompleted(DeliveryCompletedPayload{ParcelID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNewOrderCancelledTaskPayload(t *testing.T) {
	task, err := NewOrderCancelledTask(OrderCancelledPayload{ParcelID: 42, Reason: "customer request"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderCancelled {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var payload OrderCancelledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload failed: %v", err)
	}
	if payload.ParcelID != 42 || payload.Reason != "customer request" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] {
		t.Fatalf("expected critical queue weighted above default: %v", cfg.Queues)
	}
}
