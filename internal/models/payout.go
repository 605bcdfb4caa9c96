package models

import "time"

// Payout 提现申请（收款信息为申请时快照）
type Payout struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                                    // 主键
	PayoutNo             string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"payout_no"`  // 提现单号
	UserID               uint       `gorm:"not null;index" json:"user_id"`                           // 申请用户
	WalletID             uint       `gorm:"not null;index" json:"wallet_id"`                         // 钱包ID
	Amount               Money      `gorm:"type:decimal(20,2);not null" json:"amount"`               // 提现金额
	Currency             string     `gorm:"type:varchar(16);not null;default:'INR'" json:"currency"` // 币种
	Status               string     `gorm:"type:varchar(20);not null;index" json:"status"`           // 状态
	OutstandingKey       *string    `gorm:"type:varchar(32);uniqueIndex" json:"-"`                   // 进行中占位键（保证每个用户至多一笔）
	PayoutMethod         string     `gorm:"type:varchar(16);not null" json:"payout_method"`          // 收款方式
	BankAccountID        *uint      `gorm:"index" json:"bank_account_id,omitempty"`                  // 申请时使用的收款账户（仅记录）
	AccountHolderName    string     `gorm:"type:varchar(120)" json:"account_holder_name"`            // 开户名快照
	AccountNumber        string     `gorm:"type:varchar(64)" json:"account_number"`                  // 账号快照
	IFSCCode             string     `gorm:"type:varchar(20)" json:"ifsc_code"`                       // IFSC 快照
	BankName             string     `gorm:"type:varchar(120)" json:"bank_name"`                      // 银行名快照
	UPIID                string     `gorm:"type:varchar(120)" json:"upi_id"`                         // UPI 快照
	TransactionReference string     `gorm:"type:varchar(120)" json:"transaction_reference"`          // 打款流水号
	RejectionReason      string     `gorm:"type:varchar(255)" json:"rejection_reason"`               // 驳回原因
	FailureReason        string     `gorm:"type:varchar(255)" json:"failure_reason"`                 // 失败原因
	ProcessedBy          *uint      `gorm:"index" json:"processed_by,omitempty"`                     // 处理人
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`                                   // 审核通过时间
	CompletedAt          *time.Time `json:"completed_at,omitempty"`                                  // 完成时间
	ProcessedAt          *time.Time `gorm:"index" json:"processed_at,omitempty"`                     // 最后处理时间
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`                                  // 取消时间
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
