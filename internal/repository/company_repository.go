package repository

import (
	"errors"

	"github.com/courier-ledger/internal/models"

	"gorm.io/gorm"
)

// CompanyRepository 物流公司数据访问接口
type CompanyRepository interface {
	GetByID(id uint) (*models.Company, error)
	GetByOwnerUserID(userID uint) (*models.Company, error)
	Create(company *models.Company) error
}

// GormCompanyRepository GORM 物流公司仓储
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository 创建物流公司仓储
func NewCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// GetByID 按ID获取公司
func (r *GormCompanyRepository) GetByID(id uint) (*models.Company, error) {
	if id == 0 {
		return nil, nil
	}
	var company models.Company
	if err := r.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// GetByOwnerUserID 按负责人用户ID获取公司
func (r *GormCompanyRepository) GetByOwnerUserID(userID uint) (*models.Company, error) {
	if userID == 0 {
		return nil, nil
	}
	var company models.Company
	if err := r.db.Where("owner_user_id = ?", userID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// Create 创建公司
func (r *GormCompanyRepository) Create(company *models.Company) error {
	return r.db.Create(company).Error
}
