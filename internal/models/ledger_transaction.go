package models

import "time"

// LedgerTransaction 账本流水（写入后仅状态可变）
type LedgerTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                                     // 主键
	WalletID      uint      `gorm:"not null;index" json:"wallet_id"`                                          // 钱包ID
	UserID        uint      `gorm:"not null;index" json:"user_id"`                                            // 用户ID
	Type          string    `gorm:"type:varchar(40);not null;index" json:"transaction_type"`                  // 流水类型
	Direction     string    `gorm:"type:varchar(16);not null" json:"direction"`                               // 资金方向
	BalanceBucket string    `gorm:"type:varchar(16);not null" json:"balance_bucket"`                          // 变动的余额分桶
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                                // 金额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`               // 变动后分桶余额
	Currency      string    `gorm:"type:varchar(16);not null;default:'INR'" json:"currency"`                  // 币种
	ReferenceType string    `gorm:"type:varchar(20);not null;index:idx_ledger_txn_ref" json:"reference_type"` // 关联类型
	ReferenceID   uint      `gorm:"not null;index:idx_ledger_txn_ref" json:"reference_id"`                    // 关联ID
	Reference     string    `gorm:"type:varchar(120);uniqueIndex" json:"reference"`                           // 幂等参考号
	Status        string    `gorm:"type:varchar(20);not null;index" json:"status"`                            // 状态
	Description   string    `gorm:"type:varchar(255)" json:"description"`                                     // 描述
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                                  // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (LedgerTransaction) TableName() string {
	return "wallet_transactions"
}
