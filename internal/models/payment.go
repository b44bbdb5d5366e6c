package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTransaction is an immutable record of money received against a
// ledger account. Reversals never mutate the transaction beyond its
// reversed-amount counter and derived status; the audit history stays intact.
type PaymentTransaction struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	AccountID        uint            `gorm:"not null;index" json:"account_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReversedAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"reversed_amount"`
	PaymentDate      time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Method           string          `gorm:"size:30;not null" json:"method"`
	Reference        string          `gorm:"size:100" json:"reference"`
	ReceiptNumber    string          `gorm:"size:40;uniqueIndex;not null" json:"receipt_number"`
	Status           string          `gorm:"size:30;default:recorded;not null;index" json:"status"`
	RecordedByUserID *uint           `gorm:"index" json:"recorded_by_user_id"`
	DocumentPath     *string         `json:"-"` // uploaded receipt image, if any
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Associations
	Account        *LedgerAccount `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	RecordedByUser *User          `gorm:"foreignKey:RecordedByUserID" json:"recorded_by_user,omitempty"`
	Allocations    []Allocation   `gorm:"foreignKey:TransactionID" json:"allocations,omitempty"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Transaction status constants
const (
	TransactionStatusRecorded          = "recorded"
	TransactionStatusPartiallyReversed = "partially_reversed"
	TransactionStatusReversed          = "reversed"
)

// Payment method constants
const (
	PaymentMethodCash        = "cash"
	PaymentMethodBank        = "bank_transfer"
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodCheque      = "cheque"
	PaymentMethodCard        = "card"
)

// MayReverse returns true if any allocated amount is still standing.
func (t *PaymentTransaction) MayReverse() bool {
	return t.Status != TransactionStatusReversed
}

// PaymentTransactionResponse is the JSON response format for transactions
type PaymentTransactionResponse struct {
	ID             uint                 `json:"id"`
	AccountID      uint                 `json:"account_id"`
	Amount         decimal.Decimal      `json:"amount"`
	ReversedAmount decimal.Decimal      `json:"reversed_amount"`
	PaymentDate    time.Time            `json:"payment_date"`
	Method         string               `json:"method"`
	Reference      string               `json:"reference"`
	ReceiptNumber  string               `json:"receipt_number"`
	Status         string               `json:"status"`
	HasReceipt     bool                 `json:"has_receipt"`
	RecordedBy     string               `json:"recorded_by,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	Allocations    []AllocationResponse `json:"allocations,omitempty"`
}

// ToResponse converts a PaymentTransaction to PaymentTransactionResponse
func (t *PaymentTransaction) ToResponse() PaymentTransactionResponse {
	resp := PaymentTransactionResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		Amount:         t.Amount,
		ReversedAmount: t.ReversedAmount,
		PaymentDate:    t.PaymentDate,
		Method:         t.Method,
		Reference:      t.Reference,
		ReceiptNumber:  t.ReceiptNumber,
		Status:         t.Status,
		HasReceipt:     t.DocumentPath != nil && *t.DocumentPath != "",
		CreatedAt:      t.CreatedAt,
	}
	if t.RecordedByUser != nil && t.RecordedByUser.ID != 0 {
		resp.RecordedBy = t.RecordedByUser.FullName
	}
	for i := range t.Allocations {
		resp.Allocations = append(resp.Allocations, t.Allocations[i].ToResponse())
	}
	return resp
}

// Allocation links a transaction to an obligation, recording how much of the
// payment was applied to that month. An obligation's amount_paid always equals
// the sum of its standing allocation amounts.
type Allocation struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	TransactionID  uint            `gorm:"not null;index" json:"transaction_id"`
	ObligationID   uint            `gorm:"not null;index" json:"obligation_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReversedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"reversed_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Transaction *PaymentTransaction `gorm:"foreignKey:TransactionID" json:"-"`
	Obligation  *Obligation         `gorm:"foreignKey:ObligationID" json:"obligation,omitempty"`
}

// TableName specifies the table name for Allocation
func (Allocation) TableName() string {
	return "allocations"
}

// Standing returns the allocated amount not yet reversed.
func (a *Allocation) Standing() decimal.Decimal {
	return a.Amount.Sub(a.ReversedAmount)
}

// AllocationResponse is the JSON response format for allocations
type AllocationResponse struct {
	ID             uint            `json:"id"`
	TransactionID  uint            `json:"transaction_id"`
	ObligationID   uint            `json:"obligation_id"`
	Month          int             `json:"month,omitempty"`
	Year           int             `json:"year,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	ReversedAmount decimal.Decimal `json:"reversed_amount"`
}

// ToResponse converts an Allocation to AllocationResponse
func (a *Allocation) ToResponse() AllocationResponse {
	resp := AllocationResponse{
		ID:             a.ID,
		TransactionID:  a.TransactionID,
		ObligationID:   a.ObligationID,
		Amount:         a.Amount,
		ReversedAmount: a.ReversedAmount,
	}
	if a.Obligation != nil {
		resp.Month = a.Obligation.Month
		resp.Year = a.Obligation.Year
	}
	return resp
}
