package service

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// EarningOptions 分账与结算参数
type EarningOptions struct {
	ClearanceWindow     time.Duration
	ClearanceBatchSize  int
	ClearanceRetryDelay time.Duration   // 结算失败后跳过该收益的时长
	DefaultPlatformRate decimal.Decimal // 百分比，负数表示未配置
	DefaultAgentRate    decimal.Decimal // 百分比，负数表示未配置
	PlatformUserID      uint            // 平台收佣账户，0 表示未配置
}

// EarningService 收益分账、结算与冲正
type EarningService struct {
	earningRepo repository.EarningRepository
	txnRepo     repository.LedgerTransactionRepository
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	walletRepo  repository.WalletRepository
	payoutRepo  repository.PayoutRepository
	walletSvc   *WalletService
	opts        EarningOptions

	failureMu   sync.Mutex
	failedUntil map[uint]time.Time // 结算失败的收益ID -> 下次重试时间
}

// ClearanceResult 一轮结算的统计
type ClearanceResult struct {
	Selected int `json:"selected"`
	Cleared  int `json:"cleared"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
}

// NewEarningService 创建收益服务
func NewEarningService(
	earningRepo repository.EarningRepository,
	txnRepo repository.LedgerTransactionRepository,
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	payoutRepo repository.PayoutRepository,
	walletSvc *WalletService,
	opts EarningOptions,
) *EarningService {
	if opts.ClearanceWindow <= 0 {
		opts.ClearanceWindow = 24 * time.Hour
	}
	if opts.ClearanceBatchSize <= 0 {
		opts.ClearanceBatchSize = 200
	}
	if opts.ClearanceRetryDelay <= 0 {
		opts.ClearanceRetryDelay = 30 * time.Minute
	}
	if opts.DefaultPlatformRate.LessThan(decimal.Zero) {
		opts.DefaultPlatformRate = decimal.NewFromInt(10)
	}
	if opts.DefaultAgentRate.LessThan(decimal.Zero) {
		opts.DefaultAgentRate = decimal.NewFromInt(20)
	}
	return &EarningService{
		earningRepo: earningRepo,
		txnRepo:     txnRepo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		payoutRepo:  payoutRepo,
		walletSvc:   walletSvc,
		opts:        opts,
		failedUntil: make(map[uint]time.Time),
	}
}

// SetPlatformUserID 设置平台收佣账户（启动引导后注入）
func (s *EarningService) SetPlatformUserID(userID uint) {
	s.opts.PlatformUserID = userID
}

// EarningSplit 单笔订单的三方分账结果
type EarningSplit struct {
	PlatformCommission decimal.Decimal
	CompanyEarning     decimal.Decimal
	AgentEarning       decimal.Decimal
	CompanyNetEarning  decimal.Decimal
	TotalAgentEarning  decimal.Decimal
}

// ComputeEarningSplit 计算分账（比例为百分比）
// 平台佣金 + 公司净收入 + 配送员分成 恒等于订单金额；奖励与小费在此之外额外计入配送员
func ComputeEarningSplit(orderAmount, platformRate, agentRate, agentBonus, customerTip decimal.Decimal, hasAgent bool) EarningSplit {
	orderAmount = orderAmount.Round(2)
	platformCommission := orderAmount.Mul(platformRate).Div(hundred).Round(2)
	companyEarning := orderAmount.Sub(platformCommission)
	split := EarningSplit{
		PlatformCommission: platformCommission,
		CompanyEarning:     companyEarning,
		AgentEarning:       decimal.Zero,
		CompanyNetEarning:  companyEarning,
		TotalAgentEarning:  decimal.Zero,
	}
	if !hasAgent {
		return split
	}
	split.AgentEarning = orderAmount.Mul(agentRate).Div(hundred).Round(2)
	split.CompanyNetEarning = companyEarning.Sub(split.AgentEarning)
	split.TotalAgentEarning = split.AgentEarning.Add(agentBonus.Round(2)).Add(customerTip.Round(2))
	return split
}

// validateCommissionRates 比例须在 0..100 之间，且平台与配送员合计不超过 100
func validateCommissionRates(platformRate, agentRate decimal.Decimal) error {
	if platformRate.LessThan(decimal.Zero) || platformRate.GreaterThan(hundred) {
		return ErrCommissionRateInvalid
	}
	if agentRate.LessThan(decimal.Zero) || agentRate.GreaterThan(hundred) {
		return ErrCommissionRateInvalid
	}
	if platformRate.Add(agentRate).GreaterThan(hundred) {
		return ErrCommissionRateInvalid
	}
	return nil
}

// earningShare 收益中某一方应得的金额
type earningShare struct {
	Party   string
	UserID  uint
	Amount  decimal.Decimal
	TxnType string
}

// shares 按用户ID升序返回需要入账的各方（加锁顺序一致）
func earningShares(earning *models.Earning) []earningShare {
	shares := make([]earningShare, 0, 3)
	add := func(party string, userID *uint, amount models.Money, txnType string) {
		if userID == nil || *userID == 0 || amount.Decimal.LessThanOrEqual(decimal.Zero) {
			return
		}
		shares = append(shares, earningShare{Party: party, UserID: *userID, Amount: amount.Decimal.Round(2), TxnType: txnType})
	}
	companyUserID := earning.CompanyUserID
	add(constants.EarningPartyCompany, &companyUserID, earning.CompanyNetEarning, constants.LedgerTxnTypeEarning)
	add(constants.EarningPartyAgent, earning.AgentID, earning.TotalAgentEarning, constants.LedgerTxnTypeEarning)
	add(constants.EarningPartyPlatform, earning.PlatformUserID, earning.PlatformCommission, constants.LedgerTxnTypePlatformCommission)
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].UserID < shares[j].UserID })
	return shares
}

func shareUserIDs(shares []earningShare) []uint {
	ids := make([]uint, 0, len(shares))
	for _, share := range shares {
		ids = append(ids, share.UserID)
	}
	return ids
}

// ProcessDeliveryEarnings 处理包裹签收后的分账入账（同一包裹只入账一次）
func (s *EarningService) ProcessDeliveryEarnings(parcel *models.Parcel) (*models.Earning, error) {
	if parcel == nil || parcel.ID == 0 {
		return nil, ErrParcelInvalid
	}
	orderAmount := parcel.OrderAmount.Decimal.Round(2)
	bonus := parcel.AgentBonus.Decimal.Round(2)
	tip := parcel.CustomerTip.Decimal.Round(2)
	if orderAmount.LessThan(decimal.Zero) || bonus.LessThan(decimal.Zero) || tip.LessThan(decimal.Zero) {
		return nil, ErrParcelInvalid
	}

	existing, err := s.earningRepo.GetByParcelID(parcel.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Infow("earning_already_processed", "parcel_id", parcel.ID, "earning_id", existing.ID, "status", existing.Status)
		return existing, nil
	}

	company, err := s.companyRepo.GetByID(parcel.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	platformRate := s.opts.DefaultPlatformRate
	if company.PlatformCommissionRate != nil {
		platformRate = company.PlatformCommissionRate.Decimal
	}
	agentRate := s.opts.DefaultAgentRate
	if company.AgentCommissionRate != nil {
		agentRate = company.AgentCommissionRate.Decimal
	}

	if err := validateCommissionRates(platformRate, agentRate); err != nil {
		logger.Warnw("earning_commission_rate_invalid",
			"parcel_id", parcel.ID,
			"company_id", company.ID,
			"platform_rate", platformRate.String(),
			"agent_rate", agentRate.String(),
		)
		return nil, err
	}

	var agentID *uint
	if parcel.AgentID != nil && *parcel.AgentID != 0 {
		id := *parcel.AgentID
		agentID = &id
	}
	split := ComputeEarningSplit(orderAmount, platformRate, agentRate, bonus, tip, agentID != nil)
	if split.CompanyNetEarning.LessThan(decimal.Zero) {
		logger.Warnw("earning_company_net_negative",
			"parcel_id", parcel.ID,
			"company_id", company.ID,
			"order_amount", orderAmount.StringFixed(2),
			"company_net_earning", split.CompanyNetEarning.StringFixed(2),
		)
		return nil, ErrCommissionRateInvalid
	}
	if agentID == nil && (bonus.GreaterThan(decimal.Zero) || tip.GreaterThan(decimal.Zero)) {
		logger.Warnw("earning_extras_without_agent", "parcel_id", parcel.ID, "agent_bonus", bonus.StringFixed(2), "customer_tip", tip.StringFixed(2))
	}

	earning := &models.Earning{
		ParcelID:               parcel.ID,
		CompanyID:              company.ID,
		CompanyUserID:          company.OwnerUserID,
		AgentID:                agentID,
		PlatformUserID:         s.resolvePlatformUserID(parcel.ID),
		OrderAmount:            models.NewMoneyFromDecimal(orderAmount),
		PlatformCommissionRate: models.NewMoneyFromDecimal(platformRate),
		AgentCommissionRate:    models.NewMoneyFromDecimal(agentRate),
		PlatformCommission:     models.NewMoneyFromDecimal(split.PlatformCommission),
		CompanyEarning:         models.NewMoneyFromDecimal(split.CompanyEarning),
		AgentEarning:           models.NewMoneyFromDecimal(split.AgentEarning),
		CompanyNetEarning:      models.NewMoneyFromDecimal(split.CompanyNetEarning),
		AgentBonus:             models.NewMoneyFromDecimal(bonus),
		CustomerTip:            models.NewMoneyFromDecimal(tip),
		TotalAgentEarning:      models.NewMoneyFromDecimal(split.TotalAgentEarning),
		Status:                 constants.EarningStatusPending,
	}

	err = s.earningRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.earningRepo.WithTx(tx)
		if err := repo.Create(earning); err != nil {
			return err
		}
		platformSkipped := false
		for _, share := range earningShares(earning) {
			if share.Party != constants.EarningPartyPlatform {
				if err := s.creditPendingShare(tx, earning, share); err != nil {
					return err
				}
				continue
			}
			// 平台分成失败只回滚到保存点，不影响公司与配送员入账
			if err := tx.Transaction(func(sp *gorm.DB) error {
				return s.creditPendingShare(sp, earning, share)
			}); err != nil {
				logger.Warnw("earning_platform_credit_failed",
					"parcel_id", parcel.ID,
					"platform_user_id", share.UserID,
					"error", err,
				)
				platformSkipped = true
			}
		}
		if platformSkipped {
			earning.PlatformUserID = nil
			return repo.Update(earning)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			// 并发签收事件：输掉竞争的一方返回已存在的记录
			winner, queryErr := s.earningRepo.GetByParcelID(parcel.ID)
			if queryErr == nil && winner != nil {
				logger.Infow("earning_already_processed", "parcel_id", parcel.ID, "earning_id", winner.ID, "race", true)
				return winner, nil
			}
		}
		if errors.Is(err, ErrWalletInvariantViolated) || errors.Is(err, ErrLedgerTransactionCreateFailed) ||
			errors.Is(err, ErrWalletUpdateFailed) || errors.Is(err, ErrWalletCreateFailed) {
			return nil, err
		}
		logger.Errorw("earning_process_failed", "parcel_id", parcel.ID, "error", err)
		return nil, ErrEarningCreateFailed
	}

	invalidateSummaries(shareUserIDs(earningShares(earning))...)
	logger.Infow("earning_processed",
		"parcel_id", parcel.ID,
		"earning_id", earning.ID,
		"order_amount", earning.OrderAmount.String(),
		"platform_commission", earning.PlatformCommission.String(),
		"company_net_earning", earning.CompanyNetEarning.String(),
		"total_agent_earning", earning.TotalAgentEarning.String(),
	)
	return earning, nil
}

// ClearDueEarnings 结算已过窗口期的待结算收益（单条失败不影响其他）
func (s *EarningService) ClearDueEarnings(now time.Time) (ClearanceResult, error) {
	result := ClearanceResult{}
	cutoff := now.Add(-s.opts.ClearanceWindow)
	deferred := s.deferredEarningIDs(now)
	result.Deferred = len(deferred)
	ids, err := s.earningRepo.ListDueIDs(cutoff, s.opts.ClearanceBatchSize, deferred)
	if err != nil {
		return result, err
	}
	result.Selected = len(ids)
	for _, id := range ids {
		cleared, err := s.ClearEarning(id, now)
		if err != nil {
			result.Failed++
			s.deferClearance(id, now)
			logger.Warnw("earning_clearance_failed", "earning_id", id, "retry_after", s.opts.ClearanceRetryDelay.String(), "error", err)
			continue
		}
		s.forgetClearanceFailure(id)
		if cleared {
			result.Cleared++
		} else {
			result.Skipped++
		}
	}
	if result.Selected > 0 {
		logger.Infow("earning_clearance_pass_done",
			"selected", result.Selected,
			"cleared", result.Cleared,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"deferred", result.Deferred,
		)
	}
	return result, nil
}

// deferredEarningIDs 返回仍处于失败冷却期的收益ID，并清理已到期的记录
func (s *EarningService) deferredEarningIDs(now time.Time) []uint {
	s.failureMu.Lock()
	defer s.failureMu.Unlock()
	ids := make([]uint, 0, len(s.failedUntil))
	for id, until := range s.failedUntil {
		if now.Before(until) {
			ids = append(ids, id)
			continue
		}
		delete(s.failedUntil, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *EarningService) deferClearance(id uint, now time.Time) {
	s.failureMu.Lock()
	s.failedUntil[id] = now.Add(s.opts.ClearanceRetryDelay)
	s.failureMu.Unlock()
}

func (s *EarningService) forgetClearanceFailure(id uint) {
	s.failureMu.Lock()
	delete(s.failedUntil, id)
	s.failureMu.Unlock()
}

// ClearEarning 结算单笔收益，返回是否实际发生结算
func (s *EarningService) ClearEarning(earningID uint, now time.Time) (bool, error) {
	var shares []earningShare
	cleared := false
	err := s.earningRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.earningRepo.WithTx(tx)
		earning, err := repo.GetByIDForUpdate(earningID)
		if err != nil {
			return err
		}
		if earning == nil {
			return ErrEarningNotFound
		}
		if earning.Status != constants.EarningStatusPending {
			return nil
		}
		shares = earningShares(earning)
		for _, share := range shares {
			if _, err := s.walletSvc.ClearPendingToAvailableTx(tx, share.UserID, share.Amount); err != nil {
				return err
			}
		}
		if _, err := s.txnRepo.WithTx(tx).UpdateStatusByReference(
			constants.LedgerRefTypeParcel,
			earning.ParcelID,
			[]string{constants.LedgerTxnStatusPending},
			constants.LedgerTxnStatusCompleted,
			now,
		); err != nil {
			return err
		}
		clearedAt := now
		earning.Status = constants.EarningStatusCleared
		earning.ClearedAt = &clearedAt
		earning.UpdatedAt = now
		if err := repo.Update(earning); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if cleared {
		invalidateSummaries(shareUserIDs(shares)...)
	}
	return cleared, nil
}

// ReverseEarningsForParcel 订单取消后冲正收益；无收益或已冲正时为空操作
func (s *EarningService) ReverseEarningsForParcel(parcel *models.Parcel, reason string) (*models.Earning, error) {
	if parcel == nil || parcel.ID == 0 {
		return nil, ErrParcelInvalid
	}
	existing, err := s.earningRepo.GetByParcelID(parcel.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		logger.Infow("earning_reversal_skipped", "parcel_id", parcel.ID, "reason", "earning_not_found")
		return nil, nil
	}
	if existing.Status == constants.EarningStatusCancelled {
		logger.Infow("earning_reversal_skipped", "parcel_id", parcel.ID, "reason", "already_cancelled")
		return existing, nil
	}

	note := strings.TrimSpace(reason)
	if note == "" {
		note = "order cancelled"
	}
	var result *models.Earning
	var shares []earningShare
	err = s.earningRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.earningRepo.WithTx(tx)
		earning, err := repo.GetByIDForUpdate(existing.ID)
		if err != nil {
			return err
		}
		if earning == nil {
			return ErrEarningNotFound
		}
		result = earning
		if earning.Status == constants.EarningStatusCancelled {
			return nil
		}

		now := time.Now()
		wasCleared := earning.Status == constants.EarningStatusCleared
		shares = earningShares(earning)
		for _, share := range shares {
			if _, err := s.walletSvc.ReverseEarningTx(tx, share.UserID, share.Amount, wasCleared); err != nil {
				if errors.Is(err, ErrWalletNotFound) {
					logger.Warnw("earning_reversal_wallet_missing",
						"parcel_id", earning.ParcelID,
						"party", share.Party,
						"user_id", share.UserID,
					)
					continue
				}
				return err
			}
		}
		if _, err := s.txnRepo.WithTx(tx).UpdateStatusByReference(
			constants.LedgerRefTypeParcel,
			earning.ParcelID,
			[]string{constants.LedgerTxnStatusPending, constants.LedgerTxnStatusCompleted},
			constants.LedgerTxnStatusReversed,
			now,
		); err != nil {
			return err
		}
		cancelledAt := now
		earning.Status = constants.EarningStatusCancelled
		earning.CancelledAt = &cancelledAt
		earning.Notes = note
		earning.UpdatedAt = now
		return repo.Update(earning)
	})
	if err != nil {
		return nil, err
	}
	invalidateSummaries(shareUserIDs(shares)...)
	logger.Infow("earning_reversed", "parcel_id", parcel.ID, "earning_id", result.ID, "reason", note)
	return result, nil
}

func (s *EarningService) creditPendingShare(tx *gorm.DB, earning *models.Earning, share earningShare) error {
	wallet, err := s.walletSvc.AddPendingAmountTx(tx, share.UserID, walletTypeForParty(share.Party), share.Amount)
	if err != nil {
		return err
	}
	txn := &models.LedgerTransaction{
		WalletID:      wallet.ID,
		UserID:        share.UserID,
		Type:          share.TxnType,
		Direction:     constants.LedgerTxnDirectionIn,
		BalanceBucket: constants.BalanceBucketPending,
		Amount:        models.NewMoneyFromDecimal(share.Amount),
		BalanceAfter:  wallet.PendingBalance,
		Currency:      wallet.Currency,
		ReferenceType: constants.LedgerRefTypeParcel,
		ReferenceID:   earning.ParcelID,
		Reference:     parcelReference(earning.ParcelID, share.Party),
		Status:        constants.LedgerTxnStatusPending,
		Description:   share.Party + " share for parcel delivery",
	}
	if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
		return ErrLedgerTransactionCreateFailed
	}
	return nil
}

// resolvePlatformUserID 解析平台收佣账户；解析失败时记录告警并跳过平台分成
func (s *EarningService) resolvePlatformUserID(parcelID uint) *uint {
	id := s.opts.PlatformUserID
	if id == 0 {
		logger.Warnw("earning_platform_wallet_unresolved", "parcel_id", parcelID, "reason", "platform_user_not_configured")
		return nil
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil || user == nil {
		logger.Warnw("earning_platform_wallet_unresolved",
			"parcel_id", parcelID,
			"platform_user_id", id,
			"error", err,
		)
		return nil
	}
	return &id
}
