package repository

import (
	"context"
	"errors"
	"time"

	"github.com/scholaris/scholaris-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Duplicate-key signals surfaced to the service layer, which treats them as
// benign idempotency markers during enable.
var (
	ErrAccountExists    = errors.New("ledger account already exists for student, session and category")
	ErrObligationExists = errors.New("an obligation already exists for this account and month")
)

// LedgerRepository defines the interface for ledger data access. All mutating
// operations on one account happen inside WithAccountLock, which serializes
// them against concurrent writers on the same account.
type LedgerRepository interface {
	// WithAccountLock runs fn inside a database transaction holding a
	// pessimistic row lock on the account. The repository passed to fn is
	// scoped to that transaction; every read and write in fn commits or
	// fails as one unit.
	WithAccountLock(ctx context.Context, accountID uint, fn func(tx LedgerRepository, account *models.LedgerAccount) error) error

	CreateAccountWithObligations(ctx context.Context, account *models.LedgerAccount, obligations []models.Obligation) error
	FindAccount(ctx context.Context, studentID, sessionID uint, category string) (*models.LedgerAccount, error)
	FindAccountByID(ctx context.Context, id uint) (*models.LedgerAccount, error)
	AccountsBySession(ctx context.Context, sessionID uint, category string) ([]models.LedgerAccount, error)

	ObligationsByAccount(ctx context.Context, accountID uint) ([]models.Obligation, error)
	SaveObligation(ctx context.Context, obligation *models.Obligation) error
	OverdueObligations(ctx context.Context, asOf time.Time) ([]models.Obligation, error)

	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	FindTransactionByID(ctx context.Context, id uint) (*models.PaymentTransaction, error)
	TransactionsByAccount(ctx context.Context, accountID uint) ([]models.PaymentTransaction, error)

	CreateAllocations(ctx context.Context, allocations []models.Allocation) error
	SaveAllocation(ctx context.Context, allocation *models.Allocation) error
	AllocationsByTransaction(ctx context.Context, transactionID uint) ([]models.Allocation, error)

	CreateReversal(ctx context.Context, reversal *models.Reversal) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithAccountLock(ctx context.Context, accountID uint, fn func(tx LedgerRepository, account *models.LedgerAccount) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.LedgerAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, accountID).Error
		if err != nil {
			return err
		}
		return fn(&ledgerRepository{db: tx}, &account)
	})
}

// CreateAccountWithObligations creates the account and its initial obligations
// in one transaction, so an account is never observed without obligations.
func (r *ledgerRepository) CreateAccountWithObligations(ctx context.Context, account *models.LedgerAccount, obligations []models.Obligation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAccountExists
			}
			return err
		}
		for i := range obligations {
			obligations[i].AccountID = account.ID
		}
		if err := tx.Create(&obligations).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrObligationExists
			}
			return err
		}
		return nil
	})
}

func (r *ledgerRepository) FindAccount(ctx context.Context, studentID, sessionID uint, category string) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND session_id = ? AND category = ?", studentID, sessionID, category).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) FindAccountByID(ctx context.Context, id uint) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Session").
		First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) AccountsBySession(ctx context.Context, sessionID uint, category string) ([]models.LedgerAccount, error) {
	var accounts []models.LedgerAccount
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND category = ?", sessionID, category).
		Preload("Student").
		Preload("Student.Class").
		Preload("Obligations").
		Find(&accounts).Error
	return accounts, err
}

// ObligationsByAccount returns the account's obligations in calendar order.
// The allocation engine depends on this ordering.
func (r *ledgerRepository) ObligationsByAccount(ctx context.Context, accountID uint) ([]models.Obligation, error) {
	var obligations []models.Obligation
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("year ASC, month ASC").
		Find(&obligations).Error
	return obligations, err
}

func (r *ledgerRepository) SaveObligation(ctx context.Context, obligation *models.Obligation) error {
	return r.db.WithContext(ctx).Save(obligation).Error
}

func (r *ledgerRepository) OverdueObligations(ctx context.Context, asOf time.Time) ([]models.Obligation, error) {
	var obligations []models.Obligation
	err := r.db.WithContext(ctx).
		Where("amount_paid < amount_due AND due_date < ?", asOf).
		Preload("Account").
		Order("due_date ASC").
		Find(&obligations).Error
	return obligations, err
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *ledgerRepository) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *ledgerRepository) FindTransactionByID(ctx context.Context, id uint) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		Preload("Allocations.Obligation").
		Preload("RecordedByUser").
		First(&txn, id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *ledgerRepository) TransactionsByAccount(ctx context.Context, accountID uint) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Preload("Allocations").
		Preload("RecordedByUser").
		Order("payment_date ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

func (r *ledgerRepository) CreateAllocations(ctx context.Context, allocations []models.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&allocations).Error
}

func (r *ledgerRepository) SaveAllocation(ctx context.Context, allocation *models.Allocation) error {
	return r.db.WithContext(ctx).Save(allocation).Error
}

func (r *ledgerRepository) AllocationsByTransaction(ctx context.Context, transactionID uint) ([]models.Allocation, error) {
	var allocations []models.Allocation
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Preload("Obligation").
		Order("id ASC").
		Find(&allocations).Error
	return allocations, err
}

// CreateReversal persists the reversal and its allocation items together.
func (r *ledgerRepository) CreateReversal(ctx context.Context, reversal *models.Reversal) error {
	return r.db.WithContext(ctx).Create(reversal).Error
}
