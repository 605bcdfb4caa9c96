package models

import "time"

// Earning 单个包裹签收后的三方分账记录
type Earning struct {
	ID                     uint       `gorm:"primarykey" json:"id"`                                                  // 主键
	ParcelID               uint       `gorm:"not null;uniqueIndex" json:"parcel_id"`                                 // 包裹ID（每个包裹至多一条）
	CompanyID              uint       `gorm:"not null;index" json:"company_id"`                                      // 承运公司
	CompanyUserID          uint       `gorm:"not null;index" json:"company_user_id"`                                 // 公司钱包所属用户
	AgentID                *uint      `gorm:"index" json:"agent_id,omitempty"`                                       // 配送员用户ID
	PlatformUserID         *uint      `gorm:"index" json:"platform_user_id,omitempty"`                               // 实际入账的平台账户（跳过时为空）
	OrderAmount            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`             // 订单金额
	PlatformCommissionRate Money      `gorm:"type:decimal(10,2);not null;default:0" json:"platform_commission_rate"` // 平台抽佣比例（百分比）
	AgentCommissionRate    Money      `gorm:"type:decimal(10,2);not null;default:0" json:"agent_commission_rate"`    // 配送员分成比例（百分比）
	PlatformCommission     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"platform_commission"`      // 平台佣金
	CompanyEarning         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"company_earning"`          // 公司毛收入
	AgentEarning           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"agent_earning"`            // 配送员分成
	CompanyNetEarning      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"company_net_earning"`      // 公司净收入
	AgentBonus             Money      `gorm:"type:decimal(20,2);not null;default:0" json:"agent_bonus"`              // 配送员奖励
	CustomerTip            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"customer_tip"`             // 用户小费
	TotalAgentEarning      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_agent_earning"`      // 配送员合计收入
	Status                 string     `gorm:"type:varchar(20);not null;index" json:"status"`                         // 状态
	ClearedAt              *time.Time `gorm:"index" json:"cleared_at,omitempty"`                                     // 结算时间
	CancelledAt            *time.Time `gorm:"index" json:"cancelled_at,omitempty"`                                   // 冲正时间
	Notes                  string     `gorm:"type:varchar(255)" json:"notes"`                                        // 备注（冲正原因）
	CreatedAt              time.Time  `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt              time.Time  `gorm:"index" json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (Earning) TableName() string {
	return "earnings"
}
