package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStructure is the annual fee composition for one (class, session) pair.
// The annual total is always recomputed from the components; it is never
// stored as an independent column.
type FeeStructure struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ClassID        uint            `gorm:"not null;uniqueIndex:idx_fee_structures_key" json:"class_id"`
	SessionID      uint            `gorm:"not null;uniqueIndex:idx_fee_structures_key" json:"session_id"`
	TuitionFee     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tuition_fee"`
	AdmissionFee   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"admission_fee"`
	DevelopmentFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"development_fee"`
	ActivityFee    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"activity_fee"`
	TransportFee   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"transport_fee"`
	LibraryFee     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"library_fee"`
	LabFee         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"lab_fee"`
	ExamFee        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"exam_fee"`
	OtherFee       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"other_fee"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Class   *Class   `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Session *Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// TableName specifies the table name for FeeStructure
func (FeeStructure) TableName() string {
	return "fee_structures"
}

// FeeComponent is one named line of a fee structure.
type FeeComponent struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Components returns the ordered list of named fee components.
func (f *FeeStructure) Components() []FeeComponent {
	return []FeeComponent{
		{Name: "tuition", Amount: f.TuitionFee},
		{Name: "admission", Amount: f.AdmissionFee},
		{Name: "development", Amount: f.DevelopmentFee},
		{Name: "activity", Amount: f.ActivityFee},
		{Name: "transport", Amount: f.TransportFee},
		{Name: "library", Amount: f.LibraryFee},
		{Name: "lab", Amount: f.LabFee},
		{Name: "exam", Amount: f.ExamFee},
		{Name: "other", Amount: f.OtherFee},
	}
}

// AnnualTotal sums the components.
func (f *FeeStructure) AnnualTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range f.Components() {
		total = total.Add(c.Amount)
	}
	return total
}

// TransportFeeStructure is the annual transport fee for one (class, session)
// pair, tracked in its own ledger category.
type TransportFeeStructure struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ClassID      uint            `gorm:"not null;uniqueIndex:idx_transport_fee_structures_key" json:"class_id"`
	SessionID    uint            `gorm:"not null;uniqueIndex:idx_transport_fee_structures_key" json:"session_id"`
	AnnualAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"annual_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Associations
	Class   *Class   `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Session *Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// TableName specifies the table name for TransportFeeStructure
func (TransportFeeStructure) TableName() string {
	return "transport_fee_structures"
}
