package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var outstandingPayoutStatuses = []string{
	constants.PayoutStatusRequested,
	constants.PayoutStatusProcessing,
}

// PayoutAuthorizer 提现审核鉴权
type PayoutAuthorizer interface {
	CanProcessPayout(actorID uint, action string) (bool, error)
}

// PayoutService 提现服务
type PayoutService struct {
	payoutRepo repository.PayoutRepository
	bankRepo   repository.BankAccountRepository
	txnRepo    repository.LedgerTransactionRepository
	walletRepo repository.WalletRepository
	walletSvc  *WalletService
	authorizer PayoutAuthorizer
	minAmount  decimal.Decimal
	currency   string
	nowFunc     func() time.Time
	payoutNoGen func() string
}

// RequestPayoutInput 提现申请参数
type RequestPayoutInput struct {
	UserID        uint
	Amount        decimal.Decimal
	BankAccountID uint            // 0 表示使用默认收款账户
}

// ProcessPayoutInput 提现审核参数
type ProcessPayoutInput struct {
	PayoutID             uint
	ActorID              uint
	Action               string
	TransactionReference string
	Reason               string
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	bankRepo repository.BankAccountRepository,
	txnRepo repository.LedgerTransactionRepository,
	walletRepo repository.WalletRepository,
	walletSvc *WalletService,
	authorizer PayoutAuthorizer,
	minAmount decimal.Decimal,
) *PayoutService {
	return &PayoutService{
		payoutRepo:  payoutRepo,
		bankRepo:    bankRepo,
		txnRepo:     txnRepo,
		walletRepo:  walletRepo,
		walletSvc:   walletSvc,
		authorizer:  authorizer,
		minAmount:   minAmount.Round(2),
		currency:    walletSvc.currency,
		nowFunc:     time.Now,
		payoutNoGen: generatePayoutNo,
	}
}

func generatePayoutNo() string {
	return "PO" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RequestPayout 申请提现：校验后立即从可提现余额扣出
func (s *PayoutService) RequestPayout(input RequestPayoutInput) (*models.Payout, error) {
	if input.UserID == 0 {
		return nil, ErrWalletNotFound
	}
	amount := input.Amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	if amount.LessThan(s.minAmount) {
		return nil, ErrPayoutAmountBelowMinimum
	}
	account, err := s.resolveBankAccount(input.UserID, input.BankAccountID)
	if err != nil {
		return nil, err
	}

	var payout *models.Payout
	err = s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		now := s.nowFunc()
		wallet, err := s.walletRepo.WithTx(tx).GetByUserIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return ErrWalletNotFound
		}
		if !wallet.IsActive {
			return ErrWalletInactive
		}
		if !s.walletSvc.CanWithdraw(wallet, amount) {
			return ErrWalletInsufficientBalance
		}
		repo := s.payoutRepo.WithTx(tx)
		outstanding, err := repo.GetOutstandingByUser(input.UserID, outstandingPayoutStatuses)
		if err != nil {
			return err
		}
		if outstanding != nil {
			return ErrPayoutOutstandingExists
		}

		key := outstandingKey(input.UserID)
		accountID := account.ID
		payout = &models.Payout{
			PayoutNo:          s.payoutNoGen(),
			UserID:            input.UserID,
			WalletID:          wallet.ID,
			Amount:            models.NewMoneyFromDecimal(amount),
			Currency:          wallet.Currency,
			Status:            constants.PayoutStatusRequested,
			OutstandingKey:    &key,
			PayoutMethod:      account.AccountType,
			BankAccountID:     &accountID,
			AccountHolderName: account.AccountHolderName,
			AccountNumber:     account.AccountNumber,
			IFSCCode:          account.IFSCCode,
			BankName:          account.BankName,
			UPIID:             account.UPIID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repo.Create(payout); err != nil {
			if isUniqueViolation(err) {
				return ErrPayoutOutstandingExists
			}
			return ErrPayoutCreateFailed
		}

		updated, err := s.walletSvc.WithdrawTx(tx, input.UserID, amount)
		if err != nil {
			return err
		}
		txn := &models.LedgerTransaction{
			WalletID:      updated.ID,
			UserID:        input.UserID,
			Type:          constants.LedgerTxnTypeWithdrawal,
			Direction:     constants.LedgerTxnDirectionOut,
			BalanceBucket: constants.BalanceBucketAvailable,
			Amount:        models.NewMoneyFromDecimal(amount),
			BalanceAfter:  updated.AvailableBalance,
			Currency:      updated.Currency,
			ReferenceType: constants.LedgerRefTypePayout,
			ReferenceID:   payout.ID,
			Reference:     payoutReference(payout.PayoutNo),
			Status:        constants.LedgerTxnStatusPending,
			Description:   fmt.Sprintf("payout %s via %s", payout.PayoutNo, payout.PayoutMethod),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return ErrLedgerTransactionCreateFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateSummaries(input.UserID)
	logger.Infow("payout_requested",
		"payout_id", payout.ID,
		"payout_no", payout.PayoutNo,
		"user_id", payout.UserID,
		"amount", payout.Amount.String(),
	)
	return payout, nil
}

// ProcessPayout 审核提现（approve / complete / reject / fail）
func (s *PayoutService) ProcessPayout(input ProcessPayoutInput) (*models.Payout, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))
	switch action {
	case constants.PayoutActionApprove, constants.PayoutActionComplete,
		constants.PayoutActionReject, constants.PayoutActionFail:
	default:
		return nil, ErrPayoutActionInvalid
	}
	if err := s.authorize(input.ActorID, action); err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(input.TransactionReference)
	reason := strings.TrimSpace(input.Reason)
	if action == constants.PayoutActionComplete && reference == "" {
		return nil, ErrPayoutTransactionRefRequired
	}
	if action == constants.PayoutActionReject && reason == "" {
		return nil, ErrPayoutRejectReasonRequired
	}

	var payout *models.Payout
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.payoutRepo.WithTx(tx)
		current, err := repo.GetByIDForUpdate(input.PayoutID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrPayoutNotFound
		}
		payout = current
		now := s.nowFunc()

		switch action {
		case constants.PayoutActionApprove:
			if payout.Status != constants.PayoutStatusRequested {
				return ErrPayoutStatusInvalid
			}
			payout.Status = constants.PayoutStatusProcessing
			payout.ApprovedAt = &now
		case constants.PayoutActionComplete:
			if payout.Status != constants.PayoutStatusProcessing {
				return ErrPayoutStatusInvalid
			}
			payout.Status = constants.PayoutStatusCompleted
			payout.TransactionReference = reference
			payout.CompletedAt = &now
			payout.OutstandingKey = nil
			if err := s.settlePayoutTxn(tx, payout, constants.LedgerTxnStatusCompleted, now); err != nil {
				return err
			}
		case constants.PayoutActionReject:
			if payout.Status != constants.PayoutStatusRequested && payout.Status != constants.PayoutStatusProcessing {
				return ErrPayoutStatusInvalid
			}
			payout.Status = constants.PayoutStatusRejected
			payout.RejectionReason = reason
			payout.OutstandingKey = nil
			if err := s.refundPayout(tx, payout, constants.LedgerTxnStatusReversed, now); err != nil {
				return err
			}
		case constants.PayoutActionFail:
			if payout.Status != constants.PayoutStatusProcessing {
				return ErrPayoutStatusInvalid
			}
			payout.Status = constants.PayoutStatusFailed
			payout.FailureReason = reason
			payout.OutstandingKey = nil
			if err := s.refundPayout(tx, payout, constants.LedgerTxnStatusReversed, now); err != nil {
				return err
			}
		}

		actorID := input.ActorID
		payout.ProcessedBy = &actorID
		payout.ProcessedAt = &now
		payout.UpdatedAt = now
		return repo.Update(payout)
	})
	if err != nil {
		return nil, err
	}
	invalidateSummaries(payout.UserID)
	logger.Infow("payout_processed",
		"payout_id", payout.ID,
		"action", action,
		"status", payout.Status,
		"actor_id", input.ActorID,
	)
	return payout, nil
}

// CancelPayout 用户撤回尚未审核的提现
func (s *PayoutService) CancelPayout(userID, payoutID uint) (*models.Payout, error) {
	var payout *models.Payout
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.payoutRepo.WithTx(tx)
		current, err := repo.GetByIDForUpdate(payoutID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrPayoutNotFound
		}
		if current.UserID != userID {
			return ErrPayoutForbidden
		}
		if current.Status != constants.PayoutStatusRequested {
			return ErrPayoutStatusInvalid
		}
		payout = current
		now := s.nowFunc()
		payout.Status = constants.PayoutStatusCancelled
		payout.CancelledAt = &now
		payout.OutstandingKey = nil
		payout.UpdatedAt = now
		if err := s.refundPayout(tx, payout, constants.LedgerTxnStatusCancelled, now); err != nil {
			return err
		}
		return repo.Update(payout)
	})
	if err != nil {
		return nil, err
	}
	invalidateSummaries(userID)
	logger.Infow("payout_cancelled", "payout_id", payout.ID, "user_id", userID)
	return payout, nil
}

// GetPayout 查询用户自己的提现
func (s *PayoutService) GetPayout(userID, payoutID uint) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil || payout.UserID != userID {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// GetPayoutByNo 后台按提现单号查询（对账时银行回单只带单号）
func (s *PayoutService) GetPayoutByNo(payoutNo string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByPayoutNo(payoutNo)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ListPayouts 用户提现列表
func (s *PayoutService) ListPayouts(userID uint, limit int) ([]models.Payout, error) {
	payouts, _, err := s.payoutRepo.List(repository.PayoutListFilter{
		Page:     1,
		PageSize: normalizeListLimit(limit),
		UserID:   userID,
	})
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// ListPayoutsAdmin 后台提现列表
func (s *PayoutService) ListPayoutsAdmin(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}

func (s *PayoutService) authorize(actorID uint, action string) error {
	if s.authorizer == nil || actorID == 0 {
		return ErrPayoutForbidden
	}
	allowed, err := s.authorizer.CanProcessPayout(actorID, action)
	if err != nil {
		logger.Warnw("payout_authorize_failed", "actor_id", actorID, "action", action, "error", err)
		return ErrPayoutForbidden
	}
	if !allowed {
		return ErrPayoutForbidden
	}
	return nil
}

// refundPayout 退回提现金额并更新对应流水
func (s *PayoutService) refundPayout(tx *gorm.DB, payout *models.Payout, txnStatus string, now time.Time) error {
	if _, err := s.walletSvc.RefundWithdrawalTx(tx, payout.UserID, payout.Amount.Decimal); err != nil {
		return err
	}
	return s.settlePayoutTxn(tx, payout, txnStatus, now)
}

func (s *PayoutService) settlePayoutTxn(tx *gorm.DB, payout *models.Payout, txnStatus string, now time.Time) error {
	affected, err := s.txnRepo.WithTx(tx).UpdateStatusByReference(
		constants.LedgerRefTypePayout,
		payout.ID,
		[]string{constants.LedgerTxnStatusPending},
		txnStatus,
		now,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Warnw("payout_transaction_missing", "payout_id", payout.ID, "payout_no", payout.PayoutNo)
	}
	return nil
}

// resolveBankAccount 选择收款账户：指定ID优先，否则用默认账户
func (s *PayoutService) resolveBankAccount(userID, accountID uint) (*models.BankAccount, error) {
	var account *models.BankAccount
	var err error
	if accountID != 0 {
		account, err = s.bankRepo.GetActiveByID(userID, accountID)
	} else {
		account, err = s.bankRepo.GetPrimaryByUser(userID)
	}
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrBankAccountNotFound
	}
	return account, nil
}

func outstandingKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
