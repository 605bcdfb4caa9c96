package service

import (
	"context"
	"time"

	"github.com/courier-ledger/internal/cache"
	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

const earningsSummaryTTL = 60 * time.Second

// EarningsSummary 收益汇总
type EarningsSummary struct {
	UserID           uint         `json:"user_id"`
	Role             string       `json:"role"`
	Today            models.Money `json:"today"`
	LastSevenDays    models.Money `json:"last_seven_days"`
	ThisMonth        models.Money `json:"this_month"`
	AvailableBalance models.Money `json:"available_balance"`
	PendingBalance   models.Money `json:"pending_balance"`
	TotalEarnings    models.Money `json:"total_earnings"`
	TotalWithdrawn   models.Money `json:"total_withdrawn"`
	ReversalDebt     models.Money `json:"reversal_debt"`
	PendingPayouts   models.Money `json:"pending_payouts"`
	Currency         string       `json:"currency"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// ListMyEarnings 查询当前用户参与分账的收益记录
func (s *EarningService) ListMyEarnings(userID uint, limit int) ([]models.Earning, error) {
	profile, err := s.profileForUser(userID)
	if err != nil {
		return nil, err
	}
	earnings, _, err := s.earningRepo.List(repository.EarningListFilter{
		Page:        1,
		PageSize:    normalizeListLimit(limit),
		OwnerColumn: profile.OwnerColumn,
		OwnerID:     userID,
	})
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

// GetEarningsSummary 汇总今日、近7日、本月收益及钱包余额
func (s *EarningService) GetEarningsSummary(userID uint, now time.Time) (*EarningsSummary, error) {
	ctx := context.Background()
	key := cache.WalletSummaryKey(userID)
	var cached EarningsSummary
	if hit, err := cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warnw("ledger_summary_cache_get_failed", "user_id", userID, "error", err)
	} else if hit {
		return &cached, nil
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

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	sumSince := func(from time.Time) (decimal.Decimal, error) {
		return s.earningRepo.SumShare(profile.ShareColumn, repository.EarningListFilter{
			OwnerColumn:      profile.OwnerColumn,
			OwnerID:          userID,
			ExcludeCancelled: true,
			CreatedFrom:      &from,
			CreatedTo:        &now,
		})
	}
	today, err := sumSince(todayStart)
	if err != nil {
		return nil, err
	}
	week, err := sumSince(weekStart)
	if err != nil {
		return nil, err
	}
	month, err := sumSince(monthStart)
	if err != nil {
		return nil, err
	}
	pendingPayouts, err := s.payoutRepo.SumAmountByUser(userID, []string{
		constants.PayoutStatusRequested,
		constants.PayoutStatusProcessing,
	})
	if err != nil {
		return nil, err
	}

	summary := &EarningsSummary{
		UserID:           userID,
		Role:             user.Role,
		Today:            models.NewMoneyFromDecimal(today),
		LastSevenDays:    models.NewMoneyFromDecimal(week),
		ThisMonth:        models.NewMoneyFromDecimal(month),
		AvailableBalance: models.ZeroMoney(),
		PendingBalance:   models.ZeroMoney(),
		TotalEarnings:    models.ZeroMoney(),
		TotalWithdrawn:   models.ZeroMoney(),
		ReversalDebt:     models.ZeroMoney(),
		PendingPayouts:   models.NewMoneyFromDecimal(pendingPayouts),
		Currency:         s.walletSvc.currency,
		GeneratedAt:      now,
	}
	wallet, err := s.walletRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		summary.AvailableBalance = wallet.AvailableBalance
		summary.PendingBalance = wallet.PendingBalance
		summary.TotalEarnings = wallet.TotalEarnings
		summary.TotalWithdrawn = wallet.TotalWithdrawn
		summary.ReversalDebt = wallet.ReversalDebt
		summary.Currency = wallet.Currency
	}

	if err := cache.SetJSON(ctx, key, summary, earningsSummaryTTL); err != nil {
		logger.Warnw("ledger_summary_cache_set_failed", "user_id", userID, "error", err)
	}
	return summary, nil
}

func (s *EarningService) profileForUser(userID uint) (walletRoleProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return walletRoleProfile{}, err
	}
	if user == nil {
		return walletRoleProfile{}, ErrUserNotFound
	}
	profile, ok := roleProfile(user.Role)
	if !ok {
		return walletRoleProfile{}, ErrWalletNotFound
	}
	return profile, nil
}
