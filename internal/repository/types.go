package repository

import "time"

// WalletListFilter 钱包列表过滤条件
type WalletListFilter struct {
	Page       int
	PageSize   int
	WalletType string
	IsActive   *bool
}

// EarningListFilter 收益列表过滤条件
// OwnerColumn 只能取 earning_owner_columns 中的列名
type EarningListFilter struct {
	Page             int
	PageSize         int
	OwnerColumn      string
	OwnerID          uint
	ParcelID         uint
	Status           string
	ExcludeCancelled bool
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
}

// LedgerTransactionListFilter 账本流水过滤条件
type LedgerTransactionListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	WalletID      uint
	Type          string
	Status        string
	ReferenceType string
	ReferenceID   uint
	Search        string     // 参考号 / 描述
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// PayoutListFilter 提现列表过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Statuses    []string
	Search      string     // 单号 / 户名 / 打款流水号
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
