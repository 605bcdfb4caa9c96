package service

import (
	"errors"
	"testing"

	"github.com/courier-ledger/internal/constants"
	"github.com/courier-ledger/internal/models"
	"github.com/courier-ledger/internal/repository"
)

func TestAddBankAccountFirstIsPrimary(t *testing.T) {
	f := setupLedgerTest(t)

	first := f.addBankAccount(t, testAgentUserID, "111122223333")
	if !first.IsPrimary {
		t.Fatalf("expected first account to be primary")
	}
	second := f.addBankAccount(t, testAgentUserID, "444455556666")
	if second.IsPrimary {
		t.Fatalf("expected second account not primary")
	}

	if _, err := f.bankSvc.AddBankAccount(AddBankAccountInput{
		UserID:            testAgentUserID,
		AccountType:       constants.PayoutMethodBank,
		AccountHolderName: "Ravi Kumar",
		AccountNumber:     "111122223333",
		IFSCCode:          "HDFC0001234",
	}); !errors.Is(err, ErrBankAccountDuplicate) {
		t.Fatalf("expected ErrBankAccountDuplicate, got %v", err)
	}
	if _, err := f.bankSvc.AddBankAccount(AddBankAccountInput{UserID: testAgentUserID, AccountType: constants.PayoutMethodBank, AccountNumber: "999"}); !errors.Is(err, ErrBankAccountInvalid) {
		t.Fatalf("expected ErrBankAccountInvalid, got %v", err)
	}
	if _, err := f.bankSvc.AddBankAccount(AddBankAccountInput{UserID: testAgentUserID, AccountType: constants.PayoutMethodUPI}); !errors.Is(err, ErrBankAccountInvalid) {
		t.Fatalf("expected ErrBankAccountInvalid for upi, got %v", err)
	}
}

func TestAddUPIAccount(t *testing.T) {
	f := setupLedgerTest(t)
	account, err := f.bankSvc.AddBankAccount(AddBankAccountInput{
		UserID:      testAgentUserID,
		AccountType: "UPI",
		UPIID:       "ravi@okhdfc",
		IsPrimary:   true,
	})
	if err != nil {
		t.Fatalf("add upi account failed: %v", err)
	}
	if account.AccountType != constants.PayoutMethodUPI || account.AccountNumber != "ravi@okhdfc" {
		t.Fatalf("unexpected upi account: %+v", account)
	}
}

func TestSetPrimaryBankAccount(t *testing.T) {
	f := setupLedgerTest(t)
	first := f.addBankAccount(t, testAgentUserID, "111122223333")
	second := f.addBankAccount(t, testAgentUserID, "444455556666")

	if _, err := f.bankSvc.SetPrimaryBankAccount(testAgentUserID, second.ID); err != nil {
		t.Fatalf("set primary failed: %v", err)
	}
	accounts, err := f.bankSvc.ListBankAccounts(testAgentUserID)
	if err != nil {
		t.Fatalf("list accounts failed: %v", err)
	}
	primaries := 0
	for _, account := range accounts {
		if account.IsPrimary {
			primaries++
			if account.ID != second.ID {
				t.Fatalf("expected account %d primary, got %d", second.ID, account.ID)
			}
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary, got %d", primaries)
	}
	if _, err := f.bankSvc.SetPrimaryBankAccount(testOwnerUserID, first.ID); !errors.Is(err, ErrBankAccountNotFound) {
		t.Fatalf("expected ErrBankAccountNotFound for foreign account, got %v", err)
	}
}

func TestDeletePrimaryBankAccountPromotesLatest(t *testing.T) {
	f := setupLedgerTest(t)
	first := f.addBankAccount(t, testAgentUserID, "111122223333")
	f.addBankAccount(t, testAgentUserID, "444455556666")
	third := f.addBankAccount(t, testAgentUserID, "777788889999")

	if err := f.bankSvc.DeleteBankAccount(testAgentUserID, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	accounts, err := f.bankSvc.ListBankAccounts(testAgentUserID)
	if err != nil {
		t.Fatalf("list accounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 active accounts, got %d", len(accounts))
	}
	if !accounts[0].IsPrimary || accounts[0].ID != third.ID {
		t.Fatalf("expected latest account promoted, got %+v", accounts[0])
	}
	if err := f.bankSvc.DeleteBankAccount(testAgentUserID, first.ID); !errors.Is(err, ErrBankAccountNotFound) {
		t.Fatalf("expected deleted account hidden, got %v", err)
	}
}

func TestActiveBankAccountNumberIsUnique(t *testing.T) {
	f := setupLedgerTest(t)
	first := f.addBankAccount(t, testAgentUserID, "111122223333")

	// 绕过服务层的重复检查，由唯一索引兜底
	repo := repository.NewBankAccountRepository(f.db)
	duplicate := &models.BankAccount{
		UserID:            testAgentUserID,
		AccountType:       constants.PayoutMethodBank,
		AccountHolderName: "Ravi Kumar",
		AccountNumber:     "111122223333",
		IFSCCode:          "HDFC0001234",
		IsActive:          true,
	}
	err := repo.Create(duplicate)
	if err == nil {
		t.Fatalf("expected duplicate active account to be rejected")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	other := f.addBankAccount(t, testOwnerUserID, "111122223333")
	if other.UserID != testOwnerUserID {
		t.Fatalf("expected same number allowed for another user")
	}

	if err := f.bankSvc.DeleteBankAccount(testAgentUserID, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	readded := f.addBankAccount(t, testAgentUserID, "111122223333")
	if readded.ID == first.ID || !readded.IsActive {
		t.Fatalf("expected a new active account after deactivation, got %+v", readded)
	}
}
