package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 账本事件队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client   *asynq.Client
	enabled  bool
	queue    string
	maxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, queue: CriticalQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	return &Client{
		client:   asynq.NewClient(opt),
		enabled:  true,
		queue:    CriticalQueue,
		maxRetry: 25,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueDeliveryCompleted 推送签收入账任务
// 同一包裹的任务以 TaskID 去重，重复投递由入账幂等兜底
func (c *Client) EnqueueDeliveryCompleted(payload DeliveryCompletedPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDeliveryCompletedTask(payload)
	if err != nil {
		return err
	}
	options := append(c.baseOptions(fmt.Sprintf("delivered:%d", payload.ParcelID)), opts...)
	_, err = c.client.Enqueue(task, options...)
	return ignoreDuplicate(err)
}

// EnqueueOrderCancelled 推送取消冲正任务
func (c *Client) EnqueueOrderCancelled(payload OrderCancelledPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderCancelledTask(payload)
	if err != nil {
		return err
	}
	options := append(c.baseOptions(fmt.Sprintf("cancelled:%d", payload.ParcelID)), opts...)
	_, err = c.client.Enqueue(task, options...)
	return ignoreDuplicate(err)
}

func (c *Client) baseOptions(taskID string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxRetry),
		asynq.TaskID(taskID),
	}
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
