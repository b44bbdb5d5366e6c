package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger categories. Fee and transport tracking share one ledger model;
// accounts in different categories are never netted against each other.
const (
	CategoryFee       = "fee"
	CategoryTransport = "transport"
)

// LedgerAccount is the aggregate of all monthly obligations for one
// (student, session, category). It is created exactly once, the first time
// tracking is enabled, and is never deleted; a student leaving mid-session
// leaves a frozen ledger.
type LedgerAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_ledger_accounts_key;index" json:"student_id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_ledger_accounts_key" json:"session_id"`
	Category  string    `gorm:"size:20;not null;uniqueIndex:idx_ledger_accounts_key" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Student     *Student     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Session     *Session     `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Obligations []Obligation `gorm:"foreignKey:AccountID" json:"obligations,omitempty"`
}

// TableName specifies the table name for LedgerAccount
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// Obligation statuses, derived from paid-vs-due. Overdue is a separate
// time-based flag, not a fourth status.
const (
	ObligationPending = "pending"
	ObligationPartial = "partial"
	ObligationPaid    = "paid"
)

// Obligation is one month's fee due within a session. The (account, month,
// year) triple is unique; obligations are paid down or reversed, never deleted.
type Obligation struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	AccountID  uint            `gorm:"not null;uniqueIndex:idx_obligations_month;index" json:"account_id"`
	Month      int             `gorm:"not null;uniqueIndex:idx_obligations_month" json:"month"`
	Year       int             `gorm:"not null;uniqueIndex:idx_obligations_month" json:"year"`
	AmountDue  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	DueDate    time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Associations
	Account *LedgerAccount `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName specifies the table name for Obligation
func (Obligation) TableName() string {
	return "obligations"
}

// Outstanding returns the unpaid remainder of the obligation.
func (o *Obligation) Outstanding() decimal.Decimal {
	return o.AmountDue.Sub(o.AmountPaid)
}

// IsSettled returns true when the obligation is fully paid.
func (o *Obligation) IsSettled() bool {
	return o.AmountPaid.GreaterThanOrEqual(o.AmountDue)
}

// Status derives the payment status from stored amounts. Nothing is ever
// written back; the projection cannot drift from the ledger.
func (o *Obligation) Status() string {
	switch {
	case o.AmountPaid.IsZero():
		return ObligationPending
	case o.AmountPaid.LessThan(o.AmountDue):
		return ObligationPartial
	default:
		return ObligationPaid
	}
}

// IsOverdue reports whether the obligation is unpaid or partial with a due
// date before asOf.
func (o *Obligation) IsOverdue(asOf time.Time) bool {
	return !o.IsSettled() && o.DueDate.Before(asOf)
}

// OverdueDays returns the number of whole days the obligation is overdue.
func (o *Obligation) OverdueDays(asOf time.Time) int {
	if !o.IsOverdue(asOf) {
		return 0
	}
	return int(asOf.Sub(o.DueDate).Hours() / 24)
}

// ObligationResponse is the JSON response format for obligations
type ObligationResponse struct {
	ID          uint            `json:"id"`
	AccountID   uint            `json:"account_id"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Balance     decimal.Decimal `json:"balance"`
	DueDate     time.Time       `json:"due_date"`
	Status      string          `json:"status"`
	Overdue     bool            `json:"overdue"`
	OverdueDays int             `json:"overdue_days"`
}

// ToResponse converts an Obligation to its response form, deriving status
// against the given reference time.
func (o *Obligation) ToResponse(asOf time.Time) ObligationResponse {
	return ObligationResponse{
		ID:          o.ID,
		AccountID:   o.AccountID,
		Month:       o.Month,
		Year:        o.Year,
		AmountDue:   o.AmountDue,
		AmountPaid:  o.AmountPaid,
		Balance:     o.Outstanding(),
		DueDate:     o.DueDate,
		Status:      o.Status(),
		Overdue:     o.IsOverdue(asOf),
		OverdueDays: o.OverdueDays(asOf),
	}
}
