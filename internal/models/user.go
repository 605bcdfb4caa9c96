package models

import (
	"time"

	"gorm.io/gorm"
)

// User 平台用户（认证与注册由外部系统负责，这里只保留账本需要的字段）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`                            // 主键
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`               // 邮箱
	DisplayName string         `gorm:"default:''" json:"display_name"`                  // 昵称
	Role        string         `gorm:"type:varchar(32);not null;index" json:"role"`     // 角色
	CompanyID   *uint          `gorm:"index" json:"company_id,omitempty"`               // 所属物流公司（配送员）
	Status      string         `gorm:"type:varchar(20);default:'active'" json:"status"` // 账号状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
