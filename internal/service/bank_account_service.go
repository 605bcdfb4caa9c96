package service

import (
	"strings"
	"time"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/logger"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"

	"gorm.io/gorm"
)

// BankAccountService 收款账户服务
type BankAccountService struct {
	repo repository.BankAccountRepository
}

// AddBankAccountInput 新增收款账户参数
type AddBankAccountInput struct {
	UserID            uint
	AccountType       string
	AccountHolderName string
	AccountNumber     string
	IFSCCode          string
	BankName          string
	UPIID             string
	IsPrimary         bool
}

// NewBankAccountService 创建收款账户服务
func NewBankAccountService(repo repository.BankAccountRepository) *BankAccountService {
	return &BankAccountService{repo: repo}
}

// AddBankAccount 新增收款账户，首个账户自动设为主账户
func (s *BankAccountService) AddBankAccount(input AddBankAccountInput) (*models.BankAccount, error) {
	account, err := normalizeBankAccountInput(input)
	if err != nil {
		return nil, err
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ExistsActiveAccountNumber(account.UserID, account.AccountNumber)
		if err != nil {
			return err
		}
		if exists {
			return ErrBankAccountDuplicate
		}
		count, err := repo.CountActiveByUser(account.UserID)
		if err != nil {
			return err
		}
		now := time.Now()
		if count == 0 {
			account.IsPrimary = true
		}
		if account.IsPrimary && count > 0 {
			if err := repo.ClearPrimary(account.UserID, now); err != nil {
				return err
			}
		}
		account.CreatedAt = now
		account.UpdatedAt = now
		return repo.Create(account)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrBankAccountDuplicate
		}
		return nil, err
	}
	logger.Infow("bank_account_added", "user_id", account.UserID, "bank_account_id", account.ID, "is_primary", account.IsPrimary)
	return account, nil
}

// SetPrimaryBankAccount 设置主收款账户
func (s *BankAccountService) SetPrimaryBankAccount(userID, accountID uint) (*models.BankAccount, error) {
	var account *models.BankAccount
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.lockOwnedActive(repo, userID, accountID)
		if err != nil {
			return err
		}
		account = current
		if account.IsPrimary {
			return nil
		}
		now := time.Now()
		if err := repo.ClearPrimary(userID, now); err != nil {
			return err
		}
		account.IsPrimary = true
		account.UpdatedAt = now
		return repo.Update(account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteBankAccount 停用收款账户；删除主账户时由最近添加的账户接替
func (s *BankAccountService) DeleteBankAccount(userID, accountID uint) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := s.lockOwnedActive(repo, userID, accountID)
		if err != nil {
			return err
		}
		now := time.Now()
		wasPrimary := account.IsPrimary
		account.IsActive = false
		account.IsPrimary = false
		account.UpdatedAt = now
		if err := repo.Update(account); err != nil {
			return err
		}
		if !wasPrimary {
			return nil
		}
		next, err := repo.GetLatestActiveByUser(userID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		next.IsPrimary = true
		next.UpdatedAt = now
		if err := repo.Update(next); err != nil {
			return err
		}
		logger.Infow("bank_account_primary_promoted", "user_id", userID, "bank_account_id", next.ID)
		return nil
	})
}

// ListBankAccounts 列出用户有效收款账户
func (s *BankAccountService) ListBankAccounts(userID uint) ([]models.BankAccount, error) {
	return s.repo.ListActiveByUser(userID)
}

func (s *BankAccountService) lockOwnedActive(repo repository.BankAccountRepository, userID, accountID uint) (*models.BankAccount, error) {
	account, err := repo.GetByIDForUpdate(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID || !account.IsActive {
		return nil, ErrBankAccountNotFound
	}
	return account, nil
}

func normalizeBankAccountInput(input AddBankAccountInput) (*models.BankAccount, error) {
	if input.UserID == 0 {
		return nil, ErrBankAccountInvalid
	}
	accountType := strings.ToLower(strings.TrimSpace(input.AccountType))
	if accountType == "" {
		accountType = constants.PayoutMethodBank
	}
	account := &models.BankAccount{
		UserID:            input.UserID,
		AccountType:       accountType,
		AccountHolderName: strings.TrimSpace(input.AccountHolderName),
		AccountNumber:     strings.TrimSpace(input.AccountNumber),
		IFSCCode:          strings.ToUpper(strings.TrimSpace(input.IFSCCode)),
		BankName:          strings.TrimSpace(input.BankName),
		UPIID:             strings.TrimSpace(input.UPIID),
		IsPrimary:         input.IsPrimary,
		IsActive:          true,
	}
	switch accountType {
	case constants.PayoutMethodBank:
		if account.AccountHolderName == "" || account.AccountNumber == "" || account.IFSCCode == "" {
			return nil, ErrBankAccountInvalid
		}
	case constants.PayoutMethodUPI:
		if account.UPIID == "" {
			return nil, ErrBankAccountInvalid
		}
		if account.AccountNumber == "" {
			account.AccountNumber = account.UPIID
		}
		if account.AccountHolderName == "" {
			account.AccountHolderName = account.UPIID
		}
	default:
		return nil, ErrBankAccountInvalid
	}
	return account, nil
}
