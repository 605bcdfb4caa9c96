package models

import (
	"time"

	"gorm.io/gorm"
)

// Parcel 包裹订单（由包裹/配送系统维护，账本只读取）
type Parcel struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	TrackingNo  string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"tracking_no"`  // 运单号
	CompanyID   uint           `gorm:"not null;index" json:"company_id"`                          // 承运公司
	AgentID     *uint          `gorm:"index" json:"agent_id,omitempty"`                           // 配送员用户ID
	CustomerID  uint           `gorm:"not null;index" json:"customer_id"`                         // 下单用户ID
	OrderAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"` // 订单金额
	AgentBonus  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"agent_bonus"`  // 配送员奖励
	CustomerTip Money          `gorm:"type:decimal(20,2);not null;default:0" json:"customer_tip"` // 用户小费
	Status      string         `gorm:"type:varchar(32);not null;index" json:"status"`             // 包裹状态
	DeliveredAt *time.Time     `gorm:"index" json:"delivered_at,omitempty"`                       // 签收时间
	CancelledAt *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                       // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"` // 承运公司
}

// TableName 指定表名
func (Parcel) TableName() string {
	return "parcels"
}
