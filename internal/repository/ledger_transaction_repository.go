package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/courier-ledger/internal/models"

	"gorm.io/gorm"
)

// LedgerTransactionRepository 账本流水数据访问接口
type LedgerTransactionRepository interface {
	WithTx(tx *gorm.DB) LedgerTransactionRepository
	Create(txn *models.LedgerTransaction) error
	GetByReference(reference string) (*models.LedgerTransaction, error)
	ListByReference(referenceType string, referenceID uint) ([]models.LedgerTransaction, error)
	UpdateStatusByReference(referenceType string, referenceID uint, fromStatuses []string, status string, now time.Time) (int64, error)
	List(filter LedgerTransactionListFilter) ([]models.LedgerTransaction, int64, error)
}

// GormLedgerTransactionRepository GORM 账本流水仓储
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewLedgerTransactionRepository 创建账本流水仓储
func NewLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerTransactionRepository) WithTx(tx *gorm.DB) LedgerTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerTransactionRepository{db: tx}
}

// Create 写入流水
func (r *GormLedgerTransactionRepository) Create(txn *models.LedgerTransaction) error {
	return r.db.Create(txn).Error
}

// GetByReference 按参考号获取流水
func (r *GormLedgerTransactionRepository) GetByReference(reference string) (*models.LedgerTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.LedgerTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListByReference 查询关联对象的全部流水
func (r *GormLedgerTransactionRepository) ListByReference(referenceType string, referenceID uint) ([]models.LedgerTransaction, error) {
	if referenceType == "" || referenceID == 0 {
		return []models.LedgerTransaction{}, nil
	}
	var txns []models.LedgerTransaction
	if err := r.db.Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("id asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// UpdateStatusByReference 批量推进关联流水状态，仅更新处于 fromStatuses 的记录
func (r *GormLedgerTransactionRepository) UpdateStatusByReference(referenceType string, referenceID uint, fromStatuses []string, status string, now time.Time) (int64, error) {
	if referenceType == "" || referenceID == 0 || len(fromStatuses) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.LedgerTransaction{}).
		Where("reference_type = ? AND reference_id = ? AND status IN ?", referenceType, referenceID, fromStatuses).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 分页查询流水
func (r *GormLedgerTransactionRepository) List(filter LedgerTransactionListFilter) ([]models.LedgerTransaction, int64, error) {
	query := r.db.Model(&models.LedgerTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.WalletID != 0 {
		query = query.Where("wallet_id = ?", filter.WalletID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != 0 {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}
	query = applySearch(query, filter.Search, "reference", "description")
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.LedgerTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
