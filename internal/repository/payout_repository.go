package repository

import (
	"errors"
	"strings"

	"github.com/courier-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 提现数据访问接口
type PayoutRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PayoutRepository
	Create(payout *models.Payout) error
	Update(payout *models.Payout) error
	GetByID(id uint) (*models.Payout, error)
	GetByIDForUpdate(id uint) (*models.Payout, error)
	GetByPayoutNo(payoutNo string) (*models.Payout, error)
	GetOutstandingByUser(userID uint, statuses []string) (*models.Payout, error)
	SumAmountByUser(userID uint, statuses []string) (decimal.Decimal, error)
	List(filter PayoutListFilter) ([]models.Payout, int64, error)
}

// GormPayoutRepository GORM 提现仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPayoutRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提现
func (r *GormPayoutRepository) Create(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// Update 更新提现
func (r *GormPayoutRepository) Update(payout *models.Payout) error {
	return r.db.Save(payout).Error
}

// GetByID 按ID获取提现
func (r *GormPayoutRepository) GetByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate 按ID加锁获取提现
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByPayoutNo 按提现单号获取
func (r *GormPayoutRepository) GetByPayoutNo(payoutNo string) (*models.Payout, error) {
	payoutNo = strings.TrimSpace(payoutNo)
	if payoutNo == "" {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Where("payout_no = ?", payoutNo).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetOutstandingByUser 获取用户处于指定状态的最近一笔提现
func (r *GormPayoutRepository) GetOutstandingByUser(userID uint, statuses []string) (*models.Payout, error) {
	if userID == 0 || len(statuses) == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Where("user_id = ? AND status IN ?", userID, statuses).
		Order("id desc").
		First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// SumAmountByUser 汇总用户指定状态的提现金额
func (r *GormPayoutRepository) SumAmountByUser(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Payout{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// List 分页查询提现
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	query = applySearch(query, filter.Search, "payout_no", "account_holder_name", "transaction_reference")
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

	var payouts []models.Payout
	if err := query.Order("id desc").Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}
