package models

import "time"

// BankAccount 收款账户（仅软停用，不物理删除；同一用户的启用账户号唯一）
type BankAccount struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	UserID            uint      `gorm:"not null;index;uniqueIndex:idx_bank_account_active_number,where:is_active = true" json:"user_id"`
	AccountType       string    `gorm:"type:varchar(16);not null" json:"account_type"`
	AccountHolderName string    `gorm:"type:varchar(120);not null" json:"account_holder_name"`
	AccountNumber     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_bank_account_active_number,where:is_active = true" json:"account_number"`
	IFSCCode          string    `gorm:"type:varchar(20)" json:"ifsc_code"`
	BankName          string    `gorm:"type:varchar(120)" json:"bank_name"`
	UPIID             string    `gorm:"type:varchar(120)" json:"upi_id"`
	IsPrimary         bool      `gorm:"not null;default:false" json:"is_primary"`
	IsActive          bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (BankAccount) TableName() string {
	return "bank_accounts"
}
