package provider

import (
	"time"

	"github.com/courier-ledger/internal/authz"
	"github.com/courier-ledger/internal/cache"
	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/queue"
	"github.com/courier-ledger/internal/repository"
	"github.com/courier-ledger/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	CompanyRepo     repository.CompanyRepository
	ParcelRepo      repository.ParcelRepository
	WalletRepo      repository.WalletRepository
	EarningRepo     repository.EarningRepository
	LedgerTxnRepo   repository.LedgerTransactionRepository
	PayoutRepo      repository.PayoutRepository
	BankAccountRepo repository.BankAccountRepository

	// Services
	AuthzService       *authz.Service
	WalletService      *service.WalletService
	EarningService     *service.EarningService
	PayoutService      *service.PayoutService
	BankAccountService *service.BankAccountService
	TransactionService *service.TransactionService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 平台收佣账户
	c.bootstrapPlatformAccount()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CompanyRepo = repository.NewCompanyRepository(db)
	c.ParcelRepo = repository.NewParcelRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.EarningRepo = repository.NewEarningRepository(db)
	c.LedgerTxnRepo = repository.NewLedgerTransactionRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.BankAccountRepo = repository.NewBankAccountRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	ledgerCfg := c.Config.Ledger
	c.WalletService = service.NewWalletService(c.WalletRepo, c.UserRepo, ledgerCfg.Currency)
	c.EarningService = service.NewEarningService(
		c.EarningRepo,
		c.LedgerTxnRepo,
		c.CompanyRepo,
		c.UserRepo,
		c.WalletRepo,
		c.PayoutRepo,
		c.WalletService,
		service.EarningOptions{
			ClearanceWindow:     time.Duration(ledgerCfg.ClearanceWindowHours) * time.Hour,
			ClearanceBatchSize:  ledgerCfg.ClearanceBatchSize,
			ClearanceRetryDelay: time.Duration(ledgerCfg.ClearanceRetryMinutes) * time.Minute,
			DefaultPlatformRate: ledgerCfg.DefaultPlatformRate(),
			DefaultAgentRate:    ledgerCfg.DefaultAgentRate(),
			PlatformUserID:      ledgerCfg.PlatformUserID,
		},
	)
	c.PayoutService = service.NewPayoutService(
		c.PayoutRepo,
		c.BankAccountRepo,
		c.LedgerTxnRepo,
		c.WalletRepo,
		c.WalletService,
		c.AuthzService,
		ledgerCfg.MinPayout(),
	)
	c.BankAccountService = service.NewBankAccountService(c.BankAccountRepo)
	c.TransactionService = service.NewTransactionService(c.LedgerTxnRepo)
}

// bootstrapPlatformAccount 未显式配置平台账户时按邮箱创建或查找
func (c *Container) bootstrapPlatformAccount() {
	if c.Config.Ledger.PlatformUserID != 0 {
		return
	}
	user, err := models.EnsurePlatformAccount(models.DB, c.Config.Ledger.PlatformEmail, c.Config.Ledger.Currency)
	if err != nil {
		// 平台分成会被跳过，公司与配送员入账不受影响
		logger.Errorw("provider_bootstrap_platform_account_failed", "email", c.Config.Ledger.PlatformEmail, "error", err)
		return
	}
	c.Config.Ledger.PlatformUserID = user.ID
	c.EarningService.SetPlatformUserID(user.ID)
	logger.Infow("provider_platform_account_ready", "user_id", user.ID)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
