package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/courier-ledger/internal/cache"
	"github.com/courier-ledger/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func normalizeListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func parcelReference(parcelID uint, party string) string {
	return fmt.Sprintf("parcel:%d:%s", parcelID, party)
}

func payoutReference(payoutNo string) string {
	return "payout:" + payoutNo
}

// invalidateSummaries 清除相关用户的收益汇总缓存
func invalidateSummaries(userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != 0 {
			keys = append(keys, cache.WalletSummaryKey(id))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := cache.Del(context.Background(), keys...); err != nil {
		logger.Warnw("ledger_summary_cache_invalidate_failed", "keys", keys, "error", err)
	}
}
