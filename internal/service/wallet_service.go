package service

import (
	"strings"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 钱包服务
// 所有余额变动都在调用方事务内对单个钱包行加锁后读改写
type WalletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
	currency   string
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, userRepo repository.UserRepository, currency string) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		currency:   normalizeLedgerCurrency(currency),
	}
}

// GetWallet 获取用户钱包（不存在时按角色自动创建）
func (s *WalletService) GetWallet(userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, ErrWalletNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	profile, ok := roleProfile(user.Role)
	if !ok {
		return nil, ErrWalletNotFound
	}
	return s.getOrCreateWallet(userID, profile.WalletType)
}

// GetWalletByUserID 按用户ID查询钱包（不创建）
func (s *WalletService) GetWalletByUserID(userID uint) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

// ListWallets 后台钱包列表
func (s *WalletService) ListWallets(filter repository.WalletListFilter) ([]models.Wallet, int64, error) {
	filter.WalletType = strings.ToLower(strings.TrimSpace(filter.WalletType))
	return s.walletRepo.List(filter)
}

// CanWithdraw 判断钱包可提现余额是否足够
func (s *WalletService) CanWithdraw(wallet *models.Wallet, amount decimal.Decimal) bool {
	if wallet == nil || !wallet.IsActive {
		return false
	}
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return amount.LessThanOrEqual(wallet.AvailableBalance.Decimal.Round(2))
}

// AddPendingAmount 入账待结算余额
func (s *WalletService) AddPendingAmount(userID uint, walletType string, amount decimal.Decimal) (*models.Wallet, error) {
	var result *models.Wallet
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		wallet, err := s.AddPendingAmountTx(tx, userID, walletType, amount)
		result = wallet
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearPendingToAvailable 待结算转可提现
func (s *WalletService) ClearPendingToAvailable(userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	var result *models.Wallet
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		wallet, err := s.ClearPendingToAvailableTx(tx, userID, amount)
		result = wallet
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Withdraw 从可提现余额扣出到累计提现
func (s *WalletService) Withdraw(userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	var result *models.Wallet
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		wallet, err := s.WithdrawTx(tx, userID, amount)
		result = wallet
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddPendingAmountTx 在事务内增加待结算余额与累计收益
func (s *WalletService) AddPendingAmountTx(tx *gorm.DB, userID uint, walletType string, amount decimal.Decimal) (*models.Wallet, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	return s.mutate(tx, userID, walletType, true, func(w *models.Wallet) error {
		w.PendingBalance = models.NewMoneyFromDecimal(w.PendingBalance.Decimal.Add(amount))
		w.TotalEarnings = models.NewMoneyFromDecimal(w.TotalEarnings.Decimal.Add(amount))
		return nil
	})
}

// ClearPendingToAvailableTx 在事务内将待结算余额转为可提现
// 钱包存在冲正挂账时先用本次结算金额抵扣
func (s *WalletService) ClearPendingToAvailableTx(tx *gorm.DB, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	return s.mutate(tx, userID, "", false, func(w *models.Wallet) error {
		w.PendingBalance = models.NewMoneyFromDecimal(w.PendingBalance.Decimal.Sub(amount))
		creditAvailable(w, amount, "clearance")
		return nil
	})
}

// creditAvailable 入可提现余额前先抵扣冲正挂账
func creditAvailable(w *models.Wallet, amount decimal.Decimal, source string) {
	debt := w.ReversalDebt.Decimal.Round(2)
	settle := decimal.Min(debt, amount)
	w.ReversalDebt = models.NewMoneyFromDecimal(debt.Sub(settle))
	w.AvailableBalance = models.NewMoneyFromDecimal(w.AvailableBalance.Decimal.Add(amount.Sub(settle)))
	if settle.GreaterThan(decimal.Zero) {
		logger.Infow("wallet_reversal_debt_settled",
			"user_id", w.UserID,
			"wallet_id", w.ID,
			"source", source,
			"settled", settle.StringFixed(2),
		)
	}
}

// WithdrawTx 在事务内扣减可提现余额并累计提现
func (s *WalletService) WithdrawTx(tx *gorm.DB, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	return s.mutate(tx, userID, "", false, func(w *models.Wallet) error {
		if !w.IsActive {
			return ErrWalletInactive
		}
		if !s.CanWithdraw(w, amount) {
			return ErrWalletInsufficientBalance
		}
		w.AvailableBalance = models.NewMoneyFromDecimal(w.AvailableBalance.Decimal.Sub(amount))
		w.TotalWithdrawn = models.NewMoneyFromDecimal(w.TotalWithdrawn.Decimal.Add(amount))
		return nil
	})
}

// RefundWithdrawalTx 在事务内退回提现冻结金额（存在冲正挂账时先抵扣）
func (s *WalletService) RefundWithdrawalTx(tx *gorm.DB, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	return s.mutate(tx, userID, "", false, func(w *models.Wallet) error {
		w.TotalWithdrawn = models.NewMoneyFromDecimal(w.TotalWithdrawn.Decimal.Sub(amount))
		creditAvailable(w, amount, "withdrawal_refund")
		return nil
	})
}

// ReverseEarningTx 在事务内冲正一笔收益
// 未结算的从待结算余额扣回；已结算的从可提现余额扣回，不足部分记为冲正挂账
func (s *WalletService) ReverseEarningTx(tx *gorm.DB, userID uint, amount decimal.Decimal, cleared bool) (*models.Wallet, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	return s.mutate(tx, userID, "", false, func(w *models.Wallet) error {
		w.TotalEarnings = models.NewMoneyFromDecimal(w.TotalEarnings.Decimal.Sub(amount))
		if !cleared {
			w.PendingBalance = models.NewMoneyFromDecimal(w.PendingBalance.Decimal.Sub(amount))
			return nil
		}
		available := w.AvailableBalance.Decimal.Round(2)
		take := decimal.Min(available, amount)
		shortfall := amount.Sub(take)
		w.AvailableBalance = models.NewMoneyFromDecimal(available.Sub(take))
		if shortfall.GreaterThan(decimal.Zero) {
			w.ReversalDebt = models.NewMoneyFromDecimal(w.ReversalDebt.Decimal.Add(shortfall))
			logger.Warnw("wallet_reversal_debt_recorded",
				"user_id", userID,
				"wallet_id", w.ID,
				"shortfall", shortfall.StringFixed(2),
			)
		}
		return nil
	})
}

func (s *WalletService) mutate(tx *gorm.DB, userID uint, walletType string, create bool, apply func(w *models.Wallet) error) (*models.Wallet, error) {
	if tx == nil {
		return nil, ErrWalletUpdateFailed
	}
	if userID == 0 {
		return nil, ErrWalletNotFound
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	var wallet *models.Wallet
	var err error
	if create {
		wallet, err = s.ensureWalletForUpdate(tx, userID, walletType, now)
	} else {
		wallet, err = repo.GetByUserIDForUpdate(userID)
		if err == nil && wallet == nil {
			err = ErrWalletNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	if err := apply(wallet); err != nil {
		return nil, err
	}
	if err := checkWalletInvariant(wallet); err != nil {
		return nil, err
	}
	wallet.UpdatedAt = now
	if err := repo.Update(wallet); err != nil {
		return nil, ErrWalletUpdateFailed
	}
	return wallet, nil
}

func (s *WalletService) getOrCreateWallet(userID uint, walletType string) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	wallet = s.newWallet(userID, walletType, time.Now())
	if err := s.walletRepo.Create(wallet); err != nil {
		created, queryErr := s.walletRepo.GetByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletCreateFailed
	}
	return wallet, nil
}

// ensureWalletForUpdate 加锁读取钱包，不存在时在保存点内创建，并发创建冲突后重读
func (s *WalletService) ensureWalletForUpdate(tx *gorm.DB, userID uint, walletType string, now time.Time) (*models.Wallet, error) {
	repo := s.walletRepo.WithTx(tx)
	wallet, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	wallet = s.newWallet(userID, walletType, now)
	if err := tx.Transaction(func(sp *gorm.DB) error {
		return s.walletRepo.WithTx(sp).Create(wallet)
	}); err != nil {
		created, queryErr := repo.GetByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletCreateFailed
	}
	return wallet, nil
}

func (s *WalletService) newWallet(userID uint, walletType string, now time.Time) *models.Wallet {
	if walletType == "" {
		walletType = constants.WalletTypeAgent
	}
	return &models.Wallet{
		UserID:           userID,
		WalletType:       walletType,
		AvailableBalance: models.ZeroMoney(),
		PendingBalance:   models.ZeroMoney(),
		TotalEarnings:    models.ZeroMoney(),
		TotalWithdrawn:   models.ZeroMoney(),
		ReversalDebt:     models.ZeroMoney(),
		Currency:         s.currency,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func checkWalletInvariant(w *models.Wallet) error {
	negative := func(m models.Money) bool { return m.Decimal.LessThan(decimal.Zero) }
	if negative(w.AvailableBalance) || negative(w.PendingBalance) || negative(w.TotalWithdrawn) ||
		negative(w.TotalEarnings) || negative(w.ReversalDebt) {
		logger.Errorw("wallet_invariant_violated",
			"wallet_id", w.ID,
			"user_id", w.UserID,
			"available_balance", w.AvailableBalance.String(),
			"pending_balance", w.PendingBalance.String(),
			"total_earnings", w.TotalEarnings.String(),
			"total_withdrawn", w.TotalWithdrawn.String(),
			"reversal_debt", w.ReversalDebt.String(),
		)
		return ErrWalletInvariantViolated
	}
	return nil
}

func normalizeLedgerCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return constants.LedgerCurrencyDefault
	}
	return normalized
}
