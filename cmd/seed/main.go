package main

import (
	"fmt"
	"time"

	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/provider"
	"github.com/courier-ledger/internal/queue"
	"github.com/courier-ledger/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.App.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()

	// 公司账号与配送员
	owner := ensureUser(container, "owner@swift.example", "Swift Couriers", constants.UserRoleCompany, nil)
	company, err := container.CompanyRepo.GetByOwnerUserID(owner.ID)
	if err != nil {
		stdLog.Fatalf("Failed to load company: %v", err)
	}
	if company == nil {
		company = &models.Company{
			OwnerUserID:            owner.ID,
			Name:                   "Swift Couriers",
			PlatformCommissionRate: models.NewMoneyPtr(decimal.NewFromInt(10)),
			AgentCommissionRate:    models.NewMoneyPtr(decimal.NewFromInt(20)),
			Status:                 constants.CompanyStatusActive,
		}
		if err := container.CompanyRepo.Create(company); err != nil {
			stdLog.Fatalf("Failed to create company: %v", err)
		}
		stdLog.Printf("Created company: %s", company.Name)
	} else {
		stdLog.Printf("Company already exists: %s", company.Name)
	}

	agents := []*models.User{
		ensureUser(container, "ravi@swift.example", "Ravi", constants.UserRoleAgent, &company.ID),
		ensureUser(container, "meera@swift.example", "Meera", constants.UserRoleAgent, &company.ID),
	}

	// 财务审核账号
	finance := ensureUser(container, "finance@ledger.local", "Finance", constants.UserRoleAdmin, nil)
	if err := container.AuthzService.SetUserRoles(finance.ID, []string{constants.AuthzRoleFinance}); err != nil {
		stdLog.Printf("Failed to grant finance role: %v", err)
	} else if actions, err := container.AuthzService.AllowedPayoutActions(finance.ID); err == nil {
		stdLog.Printf("Finance user %s can: %v", finance.Email, actions)
	}

	// 收款账户
	for _, user := range append([]*models.User{owner}, agents...) {
		accounts, err := container.BankAccountService.ListBankAccounts(user.ID)
		if err != nil {
			stdLog.Printf("Failed to list bank accounts for %s: %v", user.Email, err)
			continue
		}
		if len(accounts) > 0 {
			continue
		}
		if _, err := container.BankAccountService.AddBankAccount(service.AddBankAccountInput{
			UserID:      user.ID,
			AccountType: constants.PayoutMethodUPI,
			UPIID:       fmt.Sprintf("user%d@okbank", user.ID),
			IsPrimary:   true,
		}); err != nil {
			stdLog.Printf("Failed to add bank account for %s: %v", user.Email, err)
		}
	}

	// 已签收包裹
	type parcelSeed struct {
		trackingNo string
		amount     int64
		agent      *models.User
		bonus      int64
		tip        int64
		cancelled  bool
	}
	seeds := []parcelSeed{
		{trackingNo: "SWIFT-0001", amount: 1000, agent: agents[0]},
		{trackingNo: "SWIFT-0002", amount: 450, agent: agents[0], tip: 30},
		{trackingNo: "SWIFT-0003", amount: 2200, agent: agents[1], bonus: 50},
		{trackingNo: "SWIFT-0004", amount: 800, agent: nil},
		{trackingNo: "SWIFT-0005", amount: 600, agent: agents[1], cancelled: true},
	}

	for _, item := range seeds {
		parcel, err := container.ParcelRepo.GetByTrackingNo(item.trackingNo)
		if err != nil {
			stdLog.Printf("Failed to load parcel %s: %v", item.trackingNo, err)
			continue
		}
		if parcel == nil {
			now := time.Now()
			parcel = &models.Parcel{
				TrackingNo:  item.trackingNo,
				CompanyID:   company.ID,
				CustomerID:  owner.ID,
				OrderAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(item.amount)),
				AgentBonus:  models.NewMoneyFromDecimal(decimal.NewFromInt(item.bonus)),
				CustomerTip: models.NewMoneyFromDecimal(decimal.NewFromInt(item.tip)),
				Status:      constants.ParcelStatusDelivered,
				DeliveredAt: &now,
			}
			if item.agent != nil {
				parcel.AgentID = &item.agent.ID
			}
			if err := container.ParcelRepo.Create(parcel); err != nil {
				stdLog.Printf("Failed to create parcel %s: %v", item.trackingNo, err)
				continue
			}
			stdLog.Printf("Created parcel: %s", item.trackingNo)
		}

		if err := publishDelivered(container, parcel); err != nil {
			stdLog.Printf("Failed to process parcel %s: %v", item.trackingNo, err)
			continue
		}
		if item.cancelled && parcel.Status != constants.ParcelStatusCancelled {
			cancelledAt := time.Now()
			if err := models.DB.Model(parcel).Updates(map[string]interface{}{
				"status":       constants.ParcelStatusCancelled,
				"cancelled_at": cancelledAt,
			}).Error; err != nil {
				stdLog.Printf("Failed to mark parcel %s cancelled: %v", item.trackingNo, err)
				continue
			}
			if err := publishCancelled(container, parcel, "customer cancelled after pickup"); err != nil {
				stdLog.Printf("Failed to cancel parcel %s: %v", item.trackingNo, err)
			}
		}
	}

	stdLog.Println("Seed data created successfully!")
}

func ensureUser(container *provider.Container, email, name, role string, companyID *uint) *models.User {
	stdLog := logger.StdLogger()
	user, err := container.UserRepo.GetByEmail(email)
	if err != nil {
		stdLog.Fatalf("Failed to load user %s: %v", email, err)
	}
	if user != nil {
		return user
	}
	user = &models.User{
		Email:       email,
		DisplayName: name,
		Role:        role,
		CompanyID:   companyID,
		Status:      constants.UserStatusActive,
	}
	if err := container.UserRepo.Create(user); err != nil {
		stdLog.Fatalf("Failed to create user %s: %v", email, err)
	}
	stdLog.Printf("Created user: %s (%s)", email, role)
	return user
}

// publishDelivered 队列可用时投递事件，否则同步入账
func publishDelivered(container *provider.Container, parcel *models.Parcel) error {
	if container.QueueClient.Enabled() {
		return container.QueueClient.EnqueueDeliveryCompleted(queue.DeliveryCompletedPayload{ParcelID: parcel.ID})
	}
	_, err := container.EarningService.ProcessDeliveryEarnings(parcel)
	return err
}

func publishCancelled(container *provider.Container, parcel *models.Parcel, reason string) error {
	if container.QueueClient.Enabled() {
		return container.QueueClient.EnqueueOrderCancelled(queue.OrderCancelledPayload{ParcelID: parcel.ID, Reason: reason})
	}
	_, err := container.EarningService.ReverseEarningsForParcel(parcel, reason)
	return err
}
