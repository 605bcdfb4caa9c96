package repository

import (
	"errors"
	"time"

	"github.com/courier-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankAccountRepository 收款账户数据访问接口
type BankAccountRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BankAccountRepository
	Create(account *models.BankAccount) error
	Update(account *models.BankAccount) error
	GetByIDForUpdate(id uint) (*models.BankAccount, error)
	GetActiveByID(userID, id uint) (*models.BankAccount, error)
	GetPrimaryByUser(userID uint) (*models.BankAccount, error)
	GetLatestActiveByUser(userID uint) (*models.BankAccount, error)
	ExistsActiveAccountNumber(userID uint, accountNumber string) (bool, error)
	CountActiveByUser(userID uint) (int64, error)
	ClearPrimary(userID uint, now time.Time) error
	ListActiveByUser(userID uint) ([]models.BankAccount, error)
}

// GormBankAccountRepository GORM 收款账户仓储
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository 创建收款账户仓储
func NewBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBankAccountRepository) WithTx(tx *gorm.DB) BankAccountRepository {
	if tx == nil {
		return r
	}
	return &GormBankAccountRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBankAccountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建收款账户
func (r *GormBankAccountRepository) Create(account *models.BankAccount) error {
	return r.db.Create(account).Error
}

// Update 更新收款账户
func (r *GormBankAccountRepository) Update(account *models.BankAccount) error {
	return r.db.Save(account).Error
}

// GetByIDForUpdate 按ID加锁获取
func (r *GormBankAccountRepository) GetByIDForUpdate(id uint) (*models.BankAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.BankAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetActiveByID 获取用户名下的有效账户
func (r *GormBankAccountRepository) GetActiveByID(userID, id uint) (*models.BankAccount, error) {
	if userID == 0 || id == 0 {
		return nil, nil
	}
	var account models.BankAccount
	if err := r.db.Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetPrimaryByUser 获取用户主收款账户
func (r *GormBankAccountRepository) GetPrimaryByUser(userID uint) (*models.BankAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.BankAccount
	if err := r.db.Where("user_id = ? AND is_active = ? AND is_primary = ?", userID, true, true).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetLatestActiveByUser 获取用户最近添加的有效账户
func (r *GormBankAccountRepository) GetLatestActiveByUser(userID uint) (*models.BankAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.BankAccount
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at desc, id desc").
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ExistsActiveAccountNumber 判断用户是否已有相同账号的有效账户
func (r *GormBankAccountRepository) ExistsActiveAccountNumber(userID uint, accountNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.BankAccount{}).
		Where("user_id = ? AND account_number = ? AND is_active = ?", userID, accountNumber, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActiveByUser 统计用户有效账户数
func (r *GormBankAccountRepository) CountActiveByUser(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.BankAccount{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ClearPrimary 清除用户的主账户标记
func (r *GormBankAccountRepository) ClearPrimary(userID uint, now time.Time) error {
	return r.db.Model(&models.BankAccount{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Updates(map[string]interface{}{
			"is_primary": false,
			"updated_at": now,
		}).Error
}

// ListActiveByUser 列出用户有效账户（主账户优先）
func (r *GormBankAccountRepository) ListActiveByUser(userID uint) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_primary desc, id desc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
