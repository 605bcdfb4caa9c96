package constants

// 用户角色常量
const (
	UserRoleCustomer      = "customer"
	UserRoleCompany       = "company"
	UserRoleAgent         = "agent"
	UserRolePlatformAdmin = "platform_admin"
	UserRoleAdmin         = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 物流公司状态常量
const (
	CompanyStatusActive   = "active"
	CompanyStatusDisabled = "disabled"
)

// 包裹状态常量
const (
	ParcelStatusCreated   = "created"
	ParcelStatusInTransit = "in_transit"
	ParcelStatusDelivered = "delivered"
	ParcelStatusCancelled = "cancelled"
)

// 钱包类型常量
const (
	WalletTypePlatform = "platform"
	WalletTypeCompany  = "company"
	WalletTypeAgent    = "agent"
)

// 收益状态常量
const (
	EarningStatusPending   = "pending"
	EarningStatusCleared   = "cleared"
	EarningStatusCancelled = "cancelled"
)

// 账本流水类型常量
const (
	LedgerTxnTypeEarning            = "earning"
	LedgerTxnTypePlatformCommission = "platform_commission"
	LedgerTxnTypeWithdrawal         = "withdrawal"
)

// 账本流水状态常量
const (
	LedgerTxnStatusPending   = "pending"
	LedgerTxnStatusCompleted = "completed"
	LedgerTxnStatusReversed  = "reversed"
	LedgerTxnStatusCancelled = "cancelled"
)

// 账本流水方向常量
const (
	LedgerTxnDirectionIn  = "in"
	LedgerTxnDirectionOut = "out"
)

// 余额分桶常量
const (
	BalanceBucketPending   = "pending"
	BalanceBucketAvailable = "available"
)

// 账本流水关联类型常量
const (
	LedgerRefTypeParcel = "PARCEL"
	LedgerRefTypePayout = "PAYOUT"
)

// 收益分账参与方常量
const (
	EarningPartyCompany  = "company"
	EarningPartyAgent    = "agent"
	EarningPartyPlatform = "platform"
)

// 提现状态常量
const (
	PayoutStatusRequested  = "requested"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusRejected   = "rejected"
	PayoutStatusCancelled  = "cancelled"
	PayoutStatusFailed     = "failed"
)

// 提现审核动作常量
const (
	PayoutActionApprove  = "approve"
	PayoutActionComplete = "complete"
	PayoutActionReject   = "reject"
	PayoutActionFail     = "fail"
)

// 收款方式常量
const (
	PayoutMethodBank = "bank"
	PayoutMethodUPI  = "upi"
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskLedgerDeliveryDone   = "ledger:delivery_completed"
	TaskLedgerOrderCancelled = "ledger:order_cancelled"
)

// 缓存常量
const (
	RedisPrefixDefault    = "cl"
	CacheKeyClearanceLock = "ledger:clearance:lock"
)

// 账本默认配置常量
const (
	LedgerCurrencyDefault       = "INR"
	PlatformAccountEmailDefault = "platform@ledger.local"
)

// 授权常量
const (
	AuthzObjectPayouts      = "/payouts"
	AuthzObjectWallets      = "/wallets"
	AuthzActionProcess      = "PROCESS"
	AuthzActionRead         = "GET"
	AuthzRoleFinance        = "finance"
	AuthzRolePayoutReviewer = "payout_reviewer"
	AuthzRoleReadonlyAudit  = "readonly_auditor"
)
