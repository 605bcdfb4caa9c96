package models

import (
	"time"

	"gorm.io/gorm"
)

// Company 物流公司
type Company struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OwnerUserID            uint           `gorm:"not null;uniqueIndex" json:"owner_user_id"`                    // 公司账号用户ID
	Name                   string         `gorm:"type:varchar(120);not null" json:"name"`                       // 公司名称
	PlatformCommissionRate *Money         `gorm:"type:decimal(10,2)" json:"platform_commission_rate,omitempty"` // 平台抽佣比例（百分比，空则取默认）
	AgentCommissionRate    *Money         `gorm:"type:decimal(10,2)" json:"agent_commission_rate,omitempty"`    // 配送员分成比例（百分比，空则取默认）
	Status                 string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"`     // 状态
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Owner User `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"` // 公司账号
}

// TableName 指定表名
func (Company) TableName() string {
	return "companies"
}
