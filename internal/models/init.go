package models

import (
	"errors"
	"strings"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"

	"gorm.io/gorm"
)

// EnsurePlatformAccount 确保平台账户及其钱包存在
func EnsurePlatformAccount(db *gorm.DB, email, currency string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = constants.PlatformAccountEmailDefault
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = constants.LedgerCurrencyDefault
	}

	var user User
	err := db.Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{
			Email:       email,
			DisplayName: "Platform",
			Role:        constants.UserRolePlatformAdmin,
			Status:      constants.UserStatusActive,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Infow("platform_account_created", "user_id", user.ID, "email", email)
	}

	var count int64
	if err := db.Model(&Wallet{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		wallet := Wallet{
			UserID:           user.ID,
			WalletType:       constants.WalletTypePlatform,
			AvailableBalance: ZeroMoney(),
			PendingBalance:   ZeroMoney(),
			TotalEarnings:    ZeroMoney(),
			TotalWithdrawn:   ZeroMoney(),
			ReversalDebt:     ZeroMoney(),
			Currency:         currency,
			IsActive:         true,
		}
		if err := db.Create(&wallet).Error; err != nil {
			return nil, err
		}
		logger.Infow("platform_wallet_created", "user_id", user.ID, "wallet_id", wallet.ID)
	}
	return &user, nil
}
