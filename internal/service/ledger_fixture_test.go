package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	testPlatformUserID uint = 1
	testOwnerUserID    uint = 2
	testAgentUserID    uint = 3
	testFinanceUserID  uint = 9
)

type stubPayoutAuthorizer struct {
	allowed map[uint]bool
}

func (s stubPayoutAuthorizer) CanProcessPayout(actorID uint, action string) (bool, error) {
	return s.allowed[actorID], nil
}

type ledgerFixture struct {
	db         *gorm.DB
	walletSvc  *WalletService
	earningSvc *EarningService
	payoutSvc  *PayoutService
	bankSvc    *BankAccountService
	txnSvc     *TransactionService
	company    *models.Company
}

func setupLedgerTest(t *testing.T) *ledgerFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	return newLedgerFixture(t, db)
}

// newLedgerFixture 在已打开的数据库上迁移表结构并装配服务
func newLedgerFixture(t *testing.T, db *gorm.DB) *ledgerFixture {
	t.Helper()
	if err := models.MigrateLedger(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	txnRepo := repository.NewLedgerTransactionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	bankRepo := repository.NewBankAccountRepository(db)
	companyRepo := repository.NewCompanyRepository(db)

	walletSvc := NewWalletService(walletRepo, userRepo, "INR")
	earningSvc := NewEarningService(earningRepo, txnRepo, companyRepo, userRepo, walletRepo, payoutRepo, walletSvc, defaultTestEarningOptions())
	authorizer := stubPayoutAuthorizer{allowed: map[uint]bool{testFinanceUserID: true}}
	payoutSvc := NewPayoutService(payoutRepo, bankRepo, txnRepo, walletRepo, walletSvc, authorizer, decimal.NewFromInt(100))

	f := &ledgerFixture{
		db:         db,
		walletSvc:  walletSvc,
		earningSvc: earningSvc,
		payoutSvc:  payoutSvc,
		bankSvc:    NewBankAccountService(bankRepo),
		txnSvc:     NewTransactionService(txnRepo),
	}
	f.createUser(t, testPlatformUserID, constants.UserRolePlatformAdmin)
	f.createUser(t, testOwnerUserID, constants.UserRoleCompany)
	f.createUser(t, testAgentUserID, constants.UserRoleAgent)
	f.createUser(t, testFinanceUserID, constants.UserRoleAdmin)

	f.company = &models.Company{
		OwnerUserID: testOwnerUserID,
		Name:        "Swift Couriers",
		Status:      constants.CompanyStatusActive,
	}
	if err := db.Create(f.company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	return f
}

func defaultTestEarningOptions() EarningOptions {
	return EarningOptions{
		ClearanceWindow:     24 * time.Hour,
		ClearanceBatchSize:  50,
		DefaultPlatformRate: decimal.NewFromInt(10),
		DefaultAgentRate:    decimal.NewFromInt(20),
		PlatformUserID:      testPlatformUserID,
	}
}

// earningServiceWith 使用自定义参数创建共享同一数据库的收益服务
func (f *ledgerFixture) earningServiceWith(opts EarningOptions) *EarningService {
	return NewEarningService(
		repository.NewEarningRepository(f.db),
		repository.NewLedgerTransactionRepository(f.db),
		repository.NewCompanyRepository(f.db),
		repository.NewUserRepository(f.db),
		repository.NewWalletRepository(f.db),
		repository.NewPayoutRepository(f.db),
		f.walletSvc,
		opts,
	)
}

func (f *ledgerFixture) createUser(t *testing.T, id uint, role string) {
	t.Helper()
	user := models.User{
		ID:     id,
		Email:  fmt.Sprintf("ledger_user_%d@example.com", id),
		Role:   role,
		Status: constants.UserStatusActive,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func (f *ledgerFixture) createParcel(t *testing.T, trackingNo string, amount int64, agentID *uint, bonus, tip int64) *models.Parcel {
	t.Helper()
	now := time.Now()
	parcel := &models.Parcel{
		TrackingNo:  trackingNo,
		CompanyID:   f.company.ID,
		AgentID:     agentID,
		CustomerID:  100,
		OrderAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		AgentBonus:  models.NewMoneyFromDecimal(decimal.NewFromInt(bonus)),
		CustomerTip: models.NewMoneyFromDecimal(decimal.NewFromInt(tip)),
		Status:      constants.ParcelStatusDelivered,
		DeliveredAt: &now,
	}
	if err := f.db.Create(parcel).Error; err != nil {
		t.Fatalf("create parcel failed: %v", err)
	}
	return parcel
}

// deliver 签收并入账一个 1000 金额、带配送员的包裹
func (f *ledgerFixture) deliver(t *testing.T, trackingNo string) (*models.Parcel, *models.Earning) {
	t.Helper()
	agentID := testAgentUserID
	parcel := f.createParcel(t, trackingNo, 1000, &agentID, 0, 0)
	earning, err := f.earningSvc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("process delivery earnings failed: %v", err)
	}
	return parcel, earning
}

// deliverAndClear 入账并越过结算窗口
func (f *ledgerFixture) deliverAndClear(t *testing.T, trackingNo string) (*models.Parcel, *models.Earning) {
	t.Helper()
	parcel, earning := f.deliver(t, trackingNo)
	cleared, err := f.earningSvc.ClearEarning(earning.ID, time.Now())
	if err != nil {
		t.Fatalf("clear earning failed: %v", err)
	}
	if !cleared {
		t.Fatalf("expected earning %d cleared", earning.ID)
	}
	return parcel, earning
}

func (f *ledgerFixture) addBankAccount(t *testing.T, userID uint, number string) *models.BankAccount {
	t.Helper()
	account, err := f.bankSvc.AddBankAccount(AddBankAccountInput{
		UserID:            userID,
		AccountType:       constants.PayoutMethodBank,
		AccountHolderName: "Ravi Kumar",
		AccountNumber:     number,
		IFSCCode:          "hdfc0001234",
		BankName:          "HDFC",
	})
	if err != nil {
		t.Fatalf("add bank account failed: %v", err)
	}
	return account
}

func (f *ledgerFixture) wallet(t *testing.T, userID uint) models.Wallet {
	t.Helper()
	var wallet models.Wallet
	if err := f.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("load wallet failed: %v", err)
	}
	return wallet
}

func (f *ledgerFixture) parcelTxns(t *testing.T, parcelID uint) []models.LedgerTransaction {
	t.Helper()
	txns, err := f.txnSvc.ListByParcel(parcelID)
	if err != nil {
		t.Fatalf("list parcel transactions failed: %v", err)
	}
	return txns
}

func assertMoney(t *testing.T, field string, got models.Money, want string) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	if !got.Decimal.Equal(expected) {
		t.Fatalf("%s want %s got %s", field, expected.StringFixed(2), got.String())
	}
}
