package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 收益归属列与分账金额列白名单
var (
	earningOwnerColumns = map[string]struct{}{
		"company_user_id":  {},
		"agent_id":         {},
		"platform_user_id": {},
	}
	earningShareColumns = map[string]struct{}{
		"company_net_earning": {},
		"total_agent_earning": {},
		"platform_commission": {},
	}
)

// EarningRepository 收益数据访问接口
type EarningRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) EarningRepository
	Create(earning *models.Earning) error
	Update(earning *models.Earning) error
	GetByID(id uint) (*models.Earning, error)
	GetByIDForUpdate(id uint) (*models.Earning, error)
	GetByParcelID(parcelID uint) (*models.Earning, error)
	ListDueIDs(createdBefore time.Time, limit int, excludeIDs []uint) ([]uint, error)
	List(filter EarningListFilter) ([]models.Earning, int64, error)
	SumShare(shareColumn string, filter EarningListFilter) (decimal.Decimal, error)
}

// GormEarningRepository GORM 收益仓储
type GormEarningRepository struct {
	db *gorm.DB
}

// NewEarningRepository 创建收益仓储
func NewEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEarningRepository) WithTx(tx *gorm.DB) EarningRepository {
	if tx == nil {
		return r
	}
	return &GormEarningRepository{db: tx}
}

// Transaction 执行事务
func (r *GormEarningRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建收益记录
func (r *GormEarningRepository) Create(earning *models.Earning) error {
	return r.db.Create(earning).Error
}

// Update 更新收益记录
func (r *GormEarningRepository) Update(earning *models.Earning) error {
	return r.db.Save(earning).Error
}

// GetByID 按ID获取收益
func (r *GormEarningRepository) GetByID(id uint) (*models.Earning, error) {
	if id == 0 {
		return nil, nil
	}
	var earning models.Earning
	if err := r.db.First(&earning, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// GetByIDForUpdate 按ID加锁获取收益
func (r *GormEarningRepository) GetByIDForUpdate(id uint) (*models.Earning, error) {
	if id == 0 {
		return nil, nil
	}
	var earning models.Earning
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&earning, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// GetByParcelID 按包裹ID获取收益
func (r *GormEarningRepository) GetByParcelID(parcelID uint) (*models.Earning, error) {
	if parcelID == 0 {
		return nil, nil
	}
	var earning models.Earning
	if err := r.db.Where("parcel_id = ?", parcelID).First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// ListDueIDs 查询已过结算窗口的待结算收益ID，excludeIDs 中的记录不参与本轮
func (r *GormEarningRepository) ListDueIDs(createdBefore time.Time, limit int, excludeIDs []uint) ([]uint, error) {
	query := r.db.Model(&models.Earning{}).
		Where("status = ? AND created_at <= ?", constants.EarningStatusPending, createdBefore)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	query = query.Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// List 分页查询收益
func (r *GormEarningRepository) List(filter EarningListFilter) ([]models.Earning, int64, error) {
	query, err := r.filtered(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var earnings []models.Earning
	if err := query.Order("id desc").Find(&earnings).Error; err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// SumShare 汇总指定分账列金额
func (r *GormEarningRepository) SumShare(shareColumn string, filter EarningListFilter) (decimal.Decimal, error) {
	if _, ok := earningShareColumns[shareColumn]; !ok {
		return decimal.Zero, fmt.Errorf("unsupported earning share column: %s", shareColumn)
	}
	query, err := r.filtered(filter)
	if err != nil {
		return decimal.Zero, err
	}

	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select(fmt.Sprintf("COALESCE(SUM(%s), 0) AS total", shareColumn)).Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

func (r *GormEarningRepository) filtered(filter EarningListFilter) (*gorm.DB, error) {
	query := r.db.Model(&models.Earning{})
	if filter.OwnerColumn != "" {
		if _, ok := earningOwnerColumns[filter.OwnerColumn]; !ok {
			return nil, fmt.Errorf("unsupported earning owner column: %s", filter.OwnerColumn)
		}
		query = query.Where(fmt.Sprintf("%s = ?", filter.OwnerColumn), filter.OwnerID)
	}
	if filter.ParcelID != 0 {
		query = query.Where("parcel_id = ?", filter.ParcelID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExcludeCancelled {
		query = query.Where("status <> ?", constants.EarningStatusCancelled)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query, nil
}
