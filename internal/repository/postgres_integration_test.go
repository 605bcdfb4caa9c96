//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.BankAccount{},
		&models.Payout{},
		&models.LedgerTransaction{},
		&models.Earning{},
		&models.Wallet{},
		&models.Parcel{},
		&models.Company{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.MigrateLedger(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresWalletRowLockSerializesUpdates(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewWalletRepository(db)

	wallet := &models.Wallet{
		UserID:           7,
		WalletType:       constants.WalletTypeAgent,
		AvailableBalance: models.ZeroMoney(),
		Currency:         "INR",
		IsActive:         true,
	}
	if err := repo.Create(wallet); err != nil {
		t.Fatalf("create wallet failed: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Transaction(func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				locked, err := txRepo.GetByUserIDForUpdate(7)
				if err != nil {
					return err
				}
				locked.AvailableBalance = models.NewMoneyFromDecimal(locked.AvailableBalance.Decimal.Add(decimal.NewFromInt(10)))
				time.Sleep(5 * time.Millisecond)
				return txRepo.Update(locked)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("locked update failed: %v", err)
		}
	}

	stored, err := repo.GetByUserID(7)
	if err != nil {
		t.Fatalf("reload wallet failed: %v", err)
	}
	if !stored.AvailableBalance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected serialized balance 100, got %s", stored.AvailableBalance.String())
	}
}

func TestPostgresPayoutSearchAndOutstandingKey(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPayoutRepository(db)

	key := "user:3"
	payout := &models.Payout{
		PayoutNo:          "PO-PG-1",
		UserID:            3,
		WalletID:          1,
		Amount:            models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
		Currency:          "INR",
		Status:            constants.PayoutStatusRequested,
		OutstandingKey:    &key,
		PayoutMethod:      constants.PayoutMethodBank,
		AccountHolderName: "Ravi Kumar",
	}
	if err := repo.Create(payout); err != nil {
		t.Fatalf("create payout failed: %v", err)
	}
	again := "user:3"
	if err := repo.Create(&models.Payout{
		PayoutNo:       "PO-PG-2",
		UserID:         3,
		WalletID:       1,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Status:         constants.PayoutStatusRequested,
		OutstandingKey: &again,
		PayoutMethod:   constants.PayoutMethodBank,
	}); err == nil {
		t.Fatalf("expected unique outstanding key violation")
	}

	found, total, err := repo.List(PayoutListFilter{Page: 1, PageSize: 10, Search: "RAVI"})
	if err != nil {
		t.Fatalf("search payouts failed: %v", err)
	}
	if total != 1 || len(found) != 1 {
		t.Fatalf("expected case-insensitive match, got %d", total)
	}

	sum, err := repo.SumAmountByUser(3, []string{constants.PayoutStatusRequested})
	if err != nil {
		t.Fatalf("sum payouts failed: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("sum want 150 got %s", sum)
	}
}
