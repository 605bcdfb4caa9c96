package service

import (
	"errors"
	"testing"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestComputeEarningSplit(t *testing.T) {
	split := ComputeEarningSplit(
		decimal.NewFromInt(1000),
		decimal.NewFromInt(10),
		decimal.NewFromInt(20),
		decimal.NewFromInt(30),
		decimal.NewFromInt(20),
		true,
	)
	if !split.PlatformCommission.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("platform commission want 100 got %s", split.PlatformCommission)
	}
	if !split.CompanyNetEarning.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("company net want 700 got %s", split.CompanyNetEarning)
	}
	if !split.TotalAgentEarning.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("total agent want 250 got %s", split.TotalAgentEarning)
	}
	sum := split.PlatformCommission.Add(split.CompanyNetEarning).Add(split.AgentEarning)
	if !sum.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("split does not conserve order amount: %s", sum)
	}

	odd := ComputeEarningSplit(decimal.RequireFromString("333.33"), decimal.RequireFromString("12.5"), decimal.RequireFromString("17.5"), decimal.Zero, decimal.Zero, true)
	oddSum := odd.PlatformCommission.Add(odd.CompanyNetEarning).Add(odd.AgentEarning)
	if !oddSum.Equal(decimal.RequireFromString("333.33")) {
		t.Fatalf("rounded split does not conserve order amount: %s", oddSum)
	}
}

func TestProcessDeliveryEarningsSplitsThreeWays(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, earning := f.deliver(t, "TRK-1001")

	if earning.Status != constants.EarningStatusPending {
		t.Fatalf("expected pending earning, got %s", earning.Status)
	}
	assertMoney(t, "platform_commission", earning.PlatformCommission, "100")
	assertMoney(t, "company_earning", earning.CompanyEarning, "900")
	assertMoney(t, "company_net_earning", earning.CompanyNetEarning, "700")
	assertMoney(t, "agent_earning", earning.AgentEarning, "200")
	assertMoney(t, "total_agent_earning", earning.TotalAgentEarning, "200")
	if earning.PlatformUserID == nil || *earning.PlatformUserID != testPlatformUserID {
		t.Fatalf("expected platform user recorded, got %v", earning.PlatformUserID)
	}

	owner := f.wallet(t, testOwnerUserID)
	agent := f.wallet(t, testAgentUserID)
	platform := f.wallet(t, testPlatformUserID)
	assertMoney(t, "owner pending", owner.PendingBalance, "700")
	assertMoney(t, "agent pending", agent.PendingBalance, "200")
	assertMoney(t, "platform pending", platform.PendingBalance, "100")
	assertMoney(t, "agent available", agent.AvailableBalance, "0")
	assertMoney(t, "owner total earnings", owner.TotalEarnings, "700")
	if owner.WalletType != constants.WalletTypeCompany || platform.WalletType != constants.WalletTypePlatform {
		t.Fatalf("unexpected wallet types: %s %s", owner.WalletType, platform.WalletType)
	}

	txns := f.parcelTxns(t, parcel.ID)
	if len(txns) != 3 {
		t.Fatalf("expected 3 ledger transactions, got %d", len(txns))
	}
	for _, txn := range txns {
		if txn.Status != constants.LedgerTxnStatusPending || txn.Direction != constants.LedgerTxnDirectionIn {
			t.Fatalf("unexpected transaction state: %+v", txn)
		}
		if txn.UserID == testPlatformUserID && txn.Type != constants.LedgerTxnTypePlatformCommission {
			t.Fatalf("expected platform commission type, got %s", txn.Type)
		}
	}
}

func TestProcessDeliveryEarningsIsIdempotent(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, first := f.deliver(t, "TRK-1002")

	second, err := f.earningSvc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same earning, got %d and %d", first.ID, second.ID)
	}
	var count int64
	if err := f.db.Model(&models.Earning{}).Where("parcel_id = ?", parcel.ID).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one earning, got %d", count)
	}
	assertMoney(t, "agent pending", f.wallet(t, testAgentUserID).PendingBalance, "200")
	if txns := f.parcelTxns(t, parcel.ID); len(txns) != 3 {
		t.Fatalf("expected 3 ledger transactions, got %d", len(txns))
	}
}

func TestProcessDeliveryEarningsWithoutAgent(t *testing.T) {
	f := setupLedgerTest(t)
	parcel := f.createParcel(t, "TRK-1003", 1000, nil, 50, 10)

	earning, err := f.earningSvc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	assertMoney(t, "company_net_earning", earning.CompanyNetEarning, "900")
	assertMoney(t, "agent_earning", earning.AgentEarning, "0")
	assertMoney(t, "total_agent_earning", earning.TotalAgentEarning, "0")
	if earning.AgentID != nil {
		t.Fatalf("expected no agent on earning")
	}
	assertMoney(t, "owner pending", f.wallet(t, testOwnerUserID).PendingBalance, "900")
	if _, err := f.walletSvc.GetWalletByUserID(testAgentUserID); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected agent wallet untouched, got %v", err)
	}
}

func TestProcessDeliveryEarningsCreditsBonusAndTipToAgent(t *testing.T) {
	f := setupLedgerTest(t)
	agentID := testAgentUserID
	parcel := f.createParcel(t, "TRK-1004", 1000, &agentID, 30, 20)

	earning, err := f.earningSvc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	assertMoney(t, "total_agent_earning", earning.TotalAgentEarning, "250")
	assertMoney(t, "agent pending", f.wallet(t, testAgentUserID).PendingBalance, "250")
	assertMoney(t, "owner pending", f.wallet(t, testOwnerUserID).PendingBalance, "700")
}

func TestProcessDeliveryEarningsUsesCompanyRates(t *testing.T) {
	f := setupLedgerTest(t)
	f.company.PlatformCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(5))
	f.company.AgentCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(30))
	if err := f.db.Save(f.company).Error; err != nil {
		t.Fatalf("update company failed: %v", err)
	}
	_, earning := f.deliver(t, "TRK-1005")
	assertMoney(t, "platform_commission", earning.PlatformCommission, "50")
	assertMoney(t, "agent_earning", earning.AgentEarning, "300")
	assertMoney(t, "company_net_earning", earning.CompanyNetEarning, "650")
}

func TestProcessDeliveryEarningsRejectsInvalidCommissionRates(t *testing.T) {
	cases := []struct {
		name     string
		platform int64
		agent    int64
	}{
		{"total_over_hundred", 50, 60},
		{"negative_platform", -5, 20},
		{"agent_over_hundred", 0, 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupLedgerTest(t)
			f.company.PlatformCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(tc.platform))
			f.company.AgentCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(tc.agent))
			if err := f.db.Save(f.company).Error; err != nil {
				t.Fatalf("update company failed: %v", err)
			}
			agentID := testAgentUserID
			parcel := f.createParcel(t, "TRK-RATE-"+tc.name, 1000, &agentID, 0, 0)

			if _, err := f.earningSvc.ProcessDeliveryEarnings(parcel); !errors.Is(err, ErrCommissionRateInvalid) {
				t.Fatalf("expected ErrCommissionRateInvalid, got %v", err)
			}
			var earnings, wallets int64
			f.db.Model(&models.Earning{}).Count(&earnings)
			f.db.Model(&models.Wallet{}).Count(&wallets)
			if earnings != 0 || wallets != 0 {
				t.Fatalf("expected nothing persisted, got %d earnings %d wallets", earnings, wallets)
			}
			if txns := f.parcelTxns(t, parcel.ID); len(txns) != 0 {
				t.Fatalf("expected no ledger transactions, got %d", len(txns))
			}
		})
	}
}

func TestProcessDeliveryEarningsRejectsNegativeCompanyNet(t *testing.T) {
	f := setupLedgerTest(t)
	f.company.PlatformCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(50))
	f.company.AgentCommissionRate = models.NewMoneyPtr(decimal.NewFromInt(50))
	if err := f.db.Save(f.company).Error; err != nil {
		t.Fatalf("update company failed: %v", err)
	}
	agentID := testAgentUserID
	parcel := f.createParcel(t, "TRK-RATE-CENT", 0, &agentID, 0, 0)
	parcel.OrderAmount = models.NewMoneyFromDecimal(decimal.RequireFromString("0.01"))
	if err := f.db.Save(parcel).Error; err != nil {
		t.Fatalf("update parcel failed: %v", err)
	}

	// 两方各四舍五入到 0.01，合计超过订单金额
	if _, err := f.earningSvc.ProcessDeliveryEarnings(parcel); !errors.Is(err, ErrCommissionRateInvalid) {
		t.Fatalf("expected ErrCommissionRateInvalid, got %v", err)
	}
	var earnings int64
	f.db.Model(&models.Earning{}).Count(&earnings)
	if earnings != 0 {
		t.Fatalf("expected no earning persisted, got %d", earnings)
	}
}

func TestEarningOptionsZeroDefaultRateIsKept(t *testing.T) {
	f := setupLedgerTest(t)
	opts := defaultTestEarningOptions()
	opts.DefaultPlatformRate = decimal.Zero
	svc := f.earningServiceWith(opts)

	agentID := testAgentUserID
	parcel := f.createParcel(t, "TRK-ZERO-RATE", 1000, &agentID, 0, 0)
	earning, err := svc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("process delivery earnings failed: %v", err)
	}
	assertMoney(t, "platform_commission", earning.PlatformCommission, "0")
	assertMoney(t, "company_net_earning", earning.CompanyNetEarning, "800")
	if txns := f.parcelTxns(t, parcel.ID); len(txns) != 2 {
		t.Fatalf("expected 2 ledger transactions, got %d", len(txns))
	}

	opts.DefaultPlatformRate = decimal.NewFromInt(-1)
	opts.DefaultAgentRate = decimal.NewFromInt(-1)
	unset := f.earningServiceWith(opts)
	if !unset.opts.DefaultPlatformRate.Equal(decimal.NewFromInt(10)) || !unset.opts.DefaultAgentRate.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected negative rates to fall back, got %s %s", unset.opts.DefaultPlatformRate, unset.opts.DefaultAgentRate)
	}
}

func TestProcessDeliveryEarningsSkipsUnresolvedPlatform(t *testing.T) {
	f := setupLedgerTest(t)
	f.earningSvc.SetPlatformUserID(999)
	parcel, earning := f.deliver(t, "TRK-1006")

	if earning.PlatformUserID != nil {
		t.Fatalf("expected platform share skipped, got %v", *earning.PlatformUserID)
	}
	assertMoney(t, "platform_commission", earning.PlatformCommission, "100")
	assertMoney(t, "owner pending", f.wallet(t, testOwnerUserID).PendingBalance, "700")
	if txns := f.parcelTxns(t, parcel.ID); len(txns) != 2 {
		t.Fatalf("expected 2 ledger transactions, got %d", len(txns))
	}
}

func TestProcessDeliveryEarningsPlatformFailureKeepsOtherShares(t *testing.T) {
	f := setupLedgerTest(t)
	broken := models.Wallet{
		UserID:         testPlatformUserID,
		WalletType:     constants.WalletTypePlatform,
		PendingBalance: models.NewMoneyFromDecimal(decimal.NewFromInt(-500)),
		Currency:       "INR",
		IsActive:       true,
	}
	if err := f.db.Create(&broken).Error; err != nil {
		t.Fatalf("create broken wallet failed: %v", err)
	}

	parcel, earning := f.deliver(t, "TRK-1007")
	if earning.PlatformUserID != nil {
		t.Fatalf("expected platform share rolled back")
	}
	var stored models.Earning
	if err := f.db.First(&stored, earning.ID).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if stored.PlatformUserID != nil {
		t.Fatalf("expected stored platform user cleared")
	}
	assertMoney(t, "platform pending", f.wallet(t, testPlatformUserID).PendingBalance, "-500")
	assertMoney(t, "owner pending", f.wallet(t, testOwnerUserID).PendingBalance, "700")
	assertMoney(t, "agent pending", f.wallet(t, testAgentUserID).PendingBalance, "200")
	if txns := f.parcelTxns(t, parcel.ID); len(txns) != 2 {
		t.Fatalf("expected 2 ledger transactions, got %d", len(txns))
	}
}

func TestProcessDeliveryEarningsRejectsInvalidParcel(t *testing.T) {
	f := setupLedgerTest(t)
	if _, err := f.earningSvc.ProcessDeliveryEarnings(nil); !errors.Is(err, ErrParcelInvalid) {
		t.Fatalf("expected ErrParcelInvalid, got %v", err)
	}
	parcel := &models.Parcel{ID: 77, CompanyID: 404, OrderAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(10))}
	if _, err := f.earningSvc.ProcessDeliveryEarnings(parcel); !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestClearDueEarningsRespectsWindow(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, earning := f.deliver(t, "TRK-2001")

	result, err := f.earningSvc.ClearDueEarnings(time.Now())
	if err != nil {
		t.Fatalf("clear due failed: %v", err)
	}
	if result.Selected != 0 || result.Cleared != 0 {
		t.Fatalf("expected nothing due inside the window, got %+v", result)
	}

	later := time.Now().Add(25 * time.Hour)
	result, err = f.earningSvc.ClearDueEarnings(later)
	if err != nil {
		t.Fatalf("clear due failed: %v", err)
	}
	if result.Cleared != 1 || result.Failed != 0 {
		t.Fatalf("expected one cleared earning, got %+v", result)
	}

	agent := f.wallet(t, testAgentUserID)
	assertMoney(t, "agent pending", agent.PendingBalance, "0")
	assertMoney(t, "agent available", agent.AvailableBalance, "200")
	assertMoney(t, "owner available", f.wallet(t, testOwnerUserID).AvailableBalance, "700")
	assertMoney(t, "platform available", f.wallet(t, testPlatformUserID).AvailableBalance, "100")

	var stored models.Earning
	if err := f.db.First(&stored, earning.ID).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if stored.Status != constants.EarningStatusCleared || stored.ClearedAt == nil {
		t.Fatalf("expected cleared earning, got %s", stored.Status)
	}
	for _, txn := range f.parcelTxns(t, parcel.ID) {
		if txn.Status != constants.LedgerTxnStatusCompleted {
			t.Fatalf("expected completed transaction, got %s", txn.Status)
		}
	}

	result, err = f.earningSvc.ClearDueEarnings(later)
	if err != nil {
		t.Fatalf("clear due again failed: %v", err)
	}
	if result.Selected != 0 {
		t.Fatalf("expected no earning selected twice, got %+v", result)
	}
	assertMoney(t, "agent available", f.wallet(t, testAgentUserID).AvailableBalance, "200")
}

// deliverWithBrokenAgent 为新配送员入账后删除其钱包，使该收益无法结算
func (f *ledgerFixture) deliverWithBrokenAgent(t *testing.T, trackingNo string, agentID uint) *models.Earning {
	t.Helper()
	f.createUser(t, agentID, constants.UserRoleAgent)
	parcel := f.createParcel(t, trackingNo, 1000, &agentID, 0, 0)
	earning, err := f.earningSvc.ProcessDeliveryEarnings(parcel)
	if err != nil {
		t.Fatalf("process delivery earnings failed: %v", err)
	}
	if err := f.db.Where("user_id = ?", agentID).Delete(&models.Wallet{}).Error; err != nil {
		t.Fatalf("delete agent wallet failed: %v", err)
	}
	return earning
}

func TestClearDueEarningsIsolatesFailingEarning(t *testing.T) {
	f := setupLedgerTest(t)
	broken := f.deliverWithBrokenAgent(t, "TRK-2101", 4)
	_, healthy := f.deliver(t, "TRK-2102")

	result, err := f.earningSvc.ClearDueEarnings(time.Now().Add(25 * time.Hour))
	if err != nil {
		t.Fatalf("clear due failed: %v", err)
	}
	if result.Selected != 2 || result.Cleared != 1 || result.Failed != 1 {
		t.Fatalf("expected one cleared and one failed, got %+v", result)
	}
	assertMoney(t, "agent available", f.wallet(t, testAgentUserID).AvailableBalance, "200")
	assertMoney(t, "owner available", f.wallet(t, testOwnerUserID).AvailableBalance, "700")
	assertMoney(t, "owner pending", f.wallet(t, testOwnerUserID).PendingBalance, "700")

	var stored models.Earning
	if err := f.db.First(&stored, broken.ID).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if stored.Status != constants.EarningStatusPending {
		t.Fatalf("expected failing earning left pending, got %s", stored.Status)
	}
	if err := f.db.First(&stored, healthy.ID).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if stored.Status != constants.EarningStatusCleared {
		t.Fatalf("expected healthy earning cleared, got %s", stored.Status)
	}
}

func TestClearDueEarningsDefersRecentFailures(t *testing.T) {
	f := setupLedgerTest(t)
	opts := defaultTestEarningOptions()
	opts.ClearanceBatchSize = 1
	opts.ClearanceRetryDelay = 30 * time.Minute
	svc := f.earningServiceWith(opts)

	broken := f.deliverWithBrokenAgent(t, "TRK-2201", 4)
	_, healthy := f.deliver(t, "TRK-2202")
	if broken.ID > healthy.ID {
		t.Fatalf("expected failing earning to sort first")
	}
	now := time.Now().Add(25 * time.Hour)

	result, err := svc.ClearDueEarnings(now)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if result.Selected != 1 || result.Failed != 1 {
		t.Fatalf("expected the failing earning attempted first, got %+v", result)
	}

	result, err = svc.ClearDueEarnings(now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if result.Deferred != 1 || result.Selected != 1 || result.Cleared != 1 {
		t.Fatalf("expected failing earning deferred and next cleared, got %+v", result)
	}
	assertMoney(t, "agent available", f.wallet(t, testAgentUserID).AvailableBalance, "200")

	result, err = svc.ClearDueEarnings(now.Add(31 * time.Minute))
	if err != nil {
		t.Fatalf("third pass failed: %v", err)
	}
	if result.Deferred != 0 || result.Selected != 1 || result.Failed != 1 {
		t.Fatalf("expected failing earning retried after the delay, got %+v", result)
	}
}

func TestClearEarningSkipsNonPending(t *testing.T) {
	f := setupLedgerTest(t)
	_, earning := f.deliverAndClear(t, "TRK-2002")

	cleared, err := f.earningSvc.ClearEarning(earning.ID, time.Now())
	if err != nil {
		t.Fatalf("clear earning failed: %v", err)
	}
	if cleared {
		t.Fatalf("expected cleared earning to be skipped")
	}
	if _, err := f.earningSvc.ClearEarning(9999, time.Now()); !errors.Is(err, ErrEarningNotFound) {
		t.Fatalf("expected ErrEarningNotFound, got %v", err)
	}
}

func TestReverseEarningsForPendingParcel(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, _ := f.deliver(t, "TRK-3001")

	earning, err := f.earningSvc.ReverseEarningsForParcel(parcel, "")
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if earning.Status != constants.EarningStatusCancelled || earning.Notes != "order cancelled" {
		t.Fatalf("unexpected reversed earning: %s %q", earning.Status, earning.Notes)
	}
	for _, userID := range []uint{testOwnerUserID, testAgentUserID, testPlatformUserID} {
		wallet := f.wallet(t, userID)
		assertMoney(t, "pending", wallet.PendingBalance, "0")
		assertMoney(t, "total_earnings", wallet.TotalEarnings, "0")
	}
	for _, txn := range f.parcelTxns(t, parcel.ID) {
		if txn.Status != constants.LedgerTxnStatusReversed {
			t.Fatalf("expected reversed transaction, got %s", txn.Status)
		}
	}

	again, err := f.earningSvc.ReverseEarningsForParcel(parcel, "duplicate event")
	if err != nil {
		t.Fatalf("second reverse failed: %v", err)
	}
	if again.Notes != "order cancelled" {
		t.Fatalf("expected second reversal to be a no-op, got notes %q", again.Notes)
	}
	assertMoney(t, "total_earnings", f.wallet(t, testAgentUserID).TotalEarnings, "0")

	result, err := f.earningSvc.ClearDueEarnings(time.Now().Add(48 * time.Hour))
	if err != nil {
		t.Fatalf("clear due failed: %v", err)
	}
	if result.Selected != 0 {
		t.Fatalf("expected cancelled earning never cleared, got %+v", result)
	}
}

func TestReverseEarningsForClearedParcel(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, _ := f.deliverAndClear(t, "TRK-3002")

	if _, err := f.earningSvc.ReverseEarningsForParcel(parcel, "customer cancelled"); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	agent := f.wallet(t, testAgentUserID)
	assertMoney(t, "agent available", agent.AvailableBalance, "0")
	assertMoney(t, "agent debt", agent.ReversalDebt, "0")
	assertMoney(t, "owner available", f.wallet(t, testOwnerUserID).AvailableBalance, "0")
}

func TestReverseEarningsRecordsDebtAfterWithdrawal(t *testing.T) {
	f := setupLedgerTest(t)
	parcel, _ := f.deliverAndClear(t, "TRK-3003")
	f.addBankAccount(t, testAgentUserID, "50100012345678")
	if _, err := f.payoutSvc.RequestPayout(RequestPayoutInput{UserID: testAgentUserID, Amount: decimal.NewFromInt(150)}); err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if _, err := f.earningSvc.ReverseEarningsForParcel(parcel, "fraud"); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	agent := f.wallet(t, testAgentUserID)
	assertMoney(t, "agent available", agent.AvailableBalance, "0")
	assertMoney(t, "agent debt", agent.ReversalDebt, "150")
	assertMoney(t, "agent total_earnings", agent.TotalEarnings, "0")

	f.deliverAndClear(t, "TRK-3004")
	agent = f.wallet(t, testAgentUserID)
	assertMoney(t, "agent debt", agent.ReversalDebt, "0")
	assertMoney(t, "agent available", agent.AvailableBalance, "50")
}

func TestReverseEarningsWithoutEarningIsNoop(t *testing.T) {
	f := setupLedgerTest(t)
	parcel := f.createParcel(t, "TRK-3005", 500, nil, 0, 0)

	earning, err := f.earningSvc.ReverseEarningsForParcel(parcel, "")
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if earning != nil {
		t.Fatalf("expected nil earning, got %+v", earning)
	}
}

func TestEarningsSummaryAndLists(t *testing.T) {
	f := setupLedgerTest(t)
	f.deliverAndClear(t, "TRK-4001")
	cancelled, _ := f.deliver(t, "TRK-4002")
	if _, err := f.earningSvc.ReverseEarningsForParcel(cancelled, ""); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	f.deliver(t, "TRK-4003")

	summary, err := f.earningSvc.GetEarningsSummary(testAgentUserID, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	assertMoney(t, "today", summary.Today, "400")
	assertMoney(t, "last_seven_days", summary.LastSevenDays, "400")
	assertMoney(t, "this_month", summary.ThisMonth, "400")
	assertMoney(t, "available", summary.AvailableBalance, "200")
	assertMoney(t, "pending", summary.PendingBalance, "200")
	assertMoney(t, "pending_payouts", summary.PendingPayouts, "0")

	earnings, err := f.earningSvc.ListMyEarnings(testOwnerUserID, 0)
	if err != nil {
		t.Fatalf("list earnings failed: %v", err)
	}
	if len(earnings) != 3 {
		t.Fatalf("expected 3 owner earnings, got %d", len(earnings))
	}
	limited, err := f.earningSvc.ListMyEarnings(testOwnerUserID, 2)
	if err != nil {
		t.Fatalf("list earnings failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit applied, got %d", len(limited))
	}

	txns, err := f.txnSvc.ListMyTransactions(testAgentUserID, 10)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 agent transactions, got %d", len(txns))
	}
}
