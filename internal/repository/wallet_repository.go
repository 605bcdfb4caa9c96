package repository

import (
	"errors"

	"github.com/courier-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository 钱包数据访问接口
type WalletRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) WalletRepository
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) (*models.Wallet, error)
	GetByUserIDForUpdate(userID uint) (*models.Wallet, error)
	Create(wallet *models.Wallet) error
	Update(wallet *models.Wallet) error
	List(filter WalletListFilter) ([]models.Wallet, int64, error)
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) WalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取钱包
func (r *GormWalletRepository) GetByID(id uint) (*models.Wallet, error) {
	if id == 0 {
		return nil, nil
	}
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// GetByUserID 按用户ID获取钱包
func (r *GormWalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, nil
	}
	var wallet models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// GetByUserIDForUpdate 按用户ID加行锁获取钱包
func (r *GormWalletRepository) GetByUserIDForUpdate(userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, nil
	}
	var wallet models.Wallet
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// Create 创建钱包
func (r *GormWalletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

// Update 更新钱包
func (r *GormWalletRepository) Update(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

// List 分页查询钱包
func (r *GormWalletRepository) List(filter WalletListFilter) ([]models.Wallet, int64, error) {
	query := r.db.Model(&models.Wallet{})
	if filter.WalletType != "" {
		query = query.Where("wallet_type = ?", filter.WalletType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var wallets []models.Wallet
	if err := query.Order("id desc").Find(&wallets).Error; err != nil {
		return nil, 0, err
	}
	return wallets, total, nil
}
