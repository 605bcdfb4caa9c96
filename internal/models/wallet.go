package models

import "time"

// Wallet 用户钱包（每个用户一条，只停用不删除）
type Wallet struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	WalletType       string    `gorm:"type:varchar(20);not null;index" json:"wallet_type"`
	AvailableBalance Money     `gorm:"type:decimal(20,2);not null;default:0" json:"available_balance"` // 可提现余额
	PendingBalance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"pending_balance"`   // 待结算余额
	TotalEarnings    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`    // 累计收益
	TotalWithdrawn   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawn"`   // 累计提现
	ReversalDebt     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"reversal_debt"`     // 冲正时余额不足而挂账的金额
	Currency         string    `gorm:"type:varchar(16);not null;default:'INR'" json:"currency"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (Wallet) TableName() string {
	return "wallets"
}
