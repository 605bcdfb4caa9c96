package service

import (
	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"
)

// TransactionService 账本流水查询
type TransactionService struct {
	repo repository.LedgerTransactionRepository
}

// NewTransactionService 创建流水服务
func NewTransactionService(repo repository.LedgerTransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

// ListMyTransactions 查询用户最近的流水
func (s *TransactionService) ListMyTransactions(userID uint, limit int) ([]models.LedgerTransaction, error) {
	if userID == 0 {
		return []models.LedgerTransaction{}, nil
	}
	txns, _, err := s.repo.List(repository.LedgerTransactionListFilter{
		Page:     1,
		PageSize: normalizeListLimit(limit),
		UserID:   userID,
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListTransactions 后台流水列表
func (s *TransactionService) ListTransactions(filter repository.LedgerTransactionListFilter) ([]models.LedgerTransaction, int64, error) {
	return s.repo.List(filter)
}

// ListByParcel 查询包裹关联的全部流水
func (s *TransactionService) ListByParcel(parcelID uint) ([]models.LedgerTransaction, error) {
	return s.repo.ListByReference(constants.LedgerRefTypeParcel, parcelID)
}
