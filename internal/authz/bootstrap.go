package authz

import (
	"fmt"

	"github.com/courier-ledger/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.AuthzRoleReadonlyAudit,
			Policies: []Policy{
				{Object: constants.AuthzObjectPayouts, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectWallets + "/*", Action: constants.AuthzActionRead},
			},
		},
		{
			// 只能审核，不能登记打款结果
			Role:     constants.AuthzRolePayoutReviewer,
			Inherits: []string{constants.AuthzRoleReadonlyAudit},
			Policies: []Policy{
				{Object: PayoutActionObject(constants.PayoutActionApprove), Action: constants.AuthzActionProcess},
				{Object: PayoutActionObject(constants.PayoutActionReject), Action: constants.AuthzActionProcess},
			},
		},
		{
			Role:     constants.AuthzRoleFinance,
			Inherits: []string{constants.AuthzRolePayoutReviewer},
			Policies: []Policy{
				{Object: constants.AuthzObjectPayouts + "/*", Action: constants.AuthzActionProcess},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
