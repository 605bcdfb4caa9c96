package config

import (
	"fmt"
	"strings"

	"github.com/courier-ledger/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
}

// AppConfig 进程配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置（结算锁）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// LedgerConfig 账本配置
type LedgerConfig struct {
	Currency                      string  `mapstructure:"currency"`
	ClearanceWindowHours          int     `mapstructure:"clearance_window_hours"`
	ClearanceIntervalMinutes      int     `mapstructure:"clearance_interval_minutes"`
	ClearanceBatchSize            int     `mapstructure:"clearance_batch_size"`
	ClearanceRetryMinutes         int     `mapstructure:"clearance_retry_minutes"`          // 单笔结算失败后的冷却时间
	MinPayoutAmount               float64 `mapstructure:"min_payout_amount"`
	DefaultPlatformCommissionRate float64 `mapstructure:"default_platform_commission_rate"`
	DefaultAgentCommissionRate    float64 `mapstructure:"default_agent_commission_rate"`
	PlatformUserID                uint    `mapstructure:"platform_user_id"`                 // 为 0 时按 platform_email 自动创建
	PlatformEmail                 string  `mapstructure:"platform_email"`
}

// MinPayout 最低提现金额
func (c LedgerConfig) MinPayout() decimal.Decimal {
	return decimal.NewFromFloat(c.MinPayoutAmount).Round(2)
}

// DefaultPlatformRate 默认平台抽佣比例（百分比）
func (c LedgerConfig) DefaultPlatformRate() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultPlatformCommissionRate).Round(2)
}

// DefaultAgentRate 默认配送员分成比例（百分比）
func (c LedgerConfig) DefaultAgentRate() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultAgentCommissionRate).Round(2)
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/ledger 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持（例如 ledger.min_payout_amount -> LEDGER_MIN_PAYOUT_AMOUNT）
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "courier-ledger")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "ledger.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/ledger.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cl")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("ledger.currency", "INR")
	v.SetDefault("ledger.clearance_window_hours", 24)
	v.SetDefault("ledger.clearance_interval_minutes", 5)
	v.SetDefault("ledger.clearance_batch_size", 200)
	v.SetDefault("ledger.clearance_retry_minutes", 30)
	v.SetDefault("ledger.min_payout_amount", 100)
	v.SetDefault("ledger.default_platform_commission_rate", 10)
	v.SetDefault("ledger.default_agent_commission_rate", 20)
	v.SetDefault("ledger.platform_user_id", 0)
	v.SetDefault("ledger.platform_email", "platform@ledger.local")
}
