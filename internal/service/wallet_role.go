package service

import "github.com/courier-ledger/internal/constants"

// walletRoleProfile 角色在账本中的行为：钱包类型、收益归属列与分账金额列
type walletRoleProfile struct {
	WalletType   string
	OwnerColumn  string
	ShareColumn  string
	EarningParty string
}

var walletRoleProfiles = map[string]walletRoleProfile{
	constants.UserRoleCompany: {
		WalletType:   constants.WalletTypeCompany,
		OwnerColumn:  "company_user_id",
		ShareColumn:  "company_net_earning",
		EarningParty: constants.EarningPartyCompany,
	},
	constants.UserRoleAgent: {
		WalletType:   constants.WalletTypeAgent,
		OwnerColumn:  "agent_id",
		ShareColumn:  "total_agent_earning",
		EarningParty: constants.EarningPartyAgent,
	},
	constants.UserRolePlatformAdmin: {
		WalletType:   constants.WalletTypePlatform,
		OwnerColumn:  "platform_user_id",
		ShareColumn:  "platform_commission",
		EarningParty: constants.EarningPartyPlatform,
	},
}

// 分账参与方 -> 钱包类型
var partyWalletTypes = map[string]string{
	constants.EarningPartyCompany:  constants.WalletTypeCompany,
	constants.EarningPartyAgent:    constants.WalletTypeAgent,
	constants.EarningPartyPlatform: constants.WalletTypePlatform,
}

func roleProfile(role string) (walletRoleProfile, bool) {
	profile, ok := walletRoleProfiles[role]
	return profile, ok
}

func walletTypeForParty(party string) string {
	return partyWalletTypes[party]
}
