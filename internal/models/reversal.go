package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reversal is an immutable counter-entry that undoes part or all of a
// payment transaction's allocations. The original transaction and its
// allocations are marked, never deleted.
type Reversal struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TransactionID    uint            `gorm:"not null;index" json:"transaction_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason           string          `gorm:"size:255" json:"reason"`
	ReversedByUserID *uint           `gorm:"index" json:"reversed_by_user_id"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`

	// Associations
	Transaction *PaymentTransaction  `gorm:"foreignKey:TransactionID" json:"-"`
	Items       []ReversalAllocation `gorm:"foreignKey:ReversalID" json:"items,omitempty"`
}

// TableName specifies the table name for Reversal
func (Reversal) TableName() string {
	return "reversals"
}

// ReversalAllocation records how much was taken back from one allocation,
// mirroring the allocation table for audit symmetry.
type ReversalAllocation struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ReversalID   uint            `gorm:"not null;index" json:"reversal_id"`
	AllocationID uint            `gorm:"not null;index" json:"allocation_id"`
	ObligationID uint            `gorm:"not null;index" json:"obligation_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for ReversalAllocation
func (ReversalAllocation) TableName() string {
	return "reversal_allocations"
}

// ReversalResponse is the JSON response format for reversals
type ReversalResponse struct {
	ID            uint                 `json:"id"`
	TransactionID uint                 `json:"transaction_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Reason        string               `json:"reason"`
	CreatedAt     time.Time            `json:"created_at"`
	Items         []ReversalAllocation `json:"items"`
}

// ToResponse converts a Reversal to ReversalResponse
func (r *Reversal) ToResponse() ReversalResponse {
	return ReversalResponse{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		Reason:        r.Reason,
		CreatedAt:     r.CreatedAt,
		Items:         r.Items,
	}
}
