package service

import "errors"

// 校验类错误：直接返回给调用方，不产生任何状态变更
var (
	ErrWalletInvalidAmount          = errors.New("金额无效")
	ErrWalletInsufficientBalance    = errors.New("可提现余额不足")
	ErrWalletInactive               = errors.New("钱包已停用")
	ErrPayoutAmountBelowMinimum     = errors.New("提现金额低于最低限额")
	ErrPayoutOutstandingExists      = errors.New("已有处理中的提现申请")
	ErrPayoutTransactionRefRequired = errors.New("请填写打款流水号")
	ErrPayoutRejectReasonRequired   = errors.New("请填写驳回原因")
	ErrPayoutStatusInvalid          = errors.New("提现状态不允许该操作")
	ErrPayoutActionInvalid          = errors.New("无效的提现审核动作")
	ErrBankAccountDuplicate         = errors.New("收款账户已存在")
	ErrBankAccountInvalid           = errors.New("收款账户信息不完整")
	ErrParcelInvalid                = errors.New("包裹信息无效")
	ErrCommissionRateInvalid        = errors.New("分佣比例配置无效")
)

// 不存在类错误
var (
	ErrWalletNotFound      = errors.New("钱包不存在")
	ErrEarningNotFound     = errors.New("收益记录不存在")
	ErrPayoutNotFound      = errors.New("提现申请不存在")
	ErrBankAccountNotFound = errors.New("收款账户不存在")
	ErrParcelNotFound      = errors.New("包裹不存在")
	ErrCompanyNotFound     = errors.New("物流公司不存在")
	ErrUserNotFound        = errors.New("用户不存在")
)

// 权限类错误
var (
	ErrPayoutForbidden = errors.New("无权操作该提现")
)

// 内部错误
var (
	ErrWalletInvariantViolated       = errors.New("钱包余额不变量被破坏")
	ErrWalletCreateFailed            = errors.New("钱包创建失败")
	ErrWalletUpdateFailed            = errors.New("钱包更新失败")
	ErrLedgerTransactionCreateFailed = errors.New("账本流水写入失败")
	ErrEarningCreateFailed           = errors.New("收益记录写入失败")
	ErrPayoutCreateFailed            = errors.New("提现申请创建失败")
)
