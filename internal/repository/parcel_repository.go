package repository

import (
	"errors"
	"strings"

	"github.com/courier-ledger/internal/models"

	"gorm.io/gorm"
)

// ParcelRepository 包裹数据访问接口（账本只读）
type ParcelRepository interface {
	GetByID(id uint) (*models.Parcel, error)
	GetByTrackingNo(trackingNo string) (*models.Parcel, error)
	Create(parcel *models.Parcel) error
}

// GormParcelRepository GORM 包裹仓储
type GormParcelRepository struct {
	db *gorm.DB
}

// NewParcelRepository 创建包裹仓储
func NewParcelRepository(db *gorm.DB) *GormParcelRepository {
	return &GormParcelRepository{db: db}
}

// GetByID 按ID获取包裹
func (r *GormParcelRepository) GetByID(id uint) (*models.Parcel, error) {
	if id == 0 {
		return nil, nil
	}
	var parcel models.Parcel
	if err := r.db.First(&parcel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &parcel, nil
}

// GetByTrackingNo 按运单号获取包裹
func (r *GormParcelRepository) GetByTrackingNo(trackingNo string) (*models.Parcel, error) {
	trackingNo = strings.TrimSpace(trackingNo)
	if trackingNo == "" {
		return nil, nil
	}
	var parcel models.Parcel
	if err := r.db.Where("tracking_no = ?", trackingNo).First(&parcel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &parcel, nil
}

// Create 创建包裹
func (r *GormParcelRepository) Create(parcel *models.Parcel) error {
	return r.db.Create(parcel).Error
}
