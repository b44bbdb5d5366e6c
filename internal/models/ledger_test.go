package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestObligationStatus(t *testing.T) {
	tests := []struct {
		name     string
		due      string
		paid     string
		expected string
	}{
		{"nothing paid", "1000.00", "0", ObligationPending},
		{"partially paid", "1000.00", "400.00", ObligationPartial},
		{"one cent short", "1000.00", "999.99", ObligationPartial},
		{"exactly paid", "1000.00", "1000.00", ObligationPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Obligation{
				AmountDue:  decimal.RequireFromString(tt.due),
				AmountPaid: decimal.RequireFromString(tt.paid),
			}
			assert.Equal(t, tt.expected, o.Status())
		})
	}
}

func TestObligationOverdue(t *testing.T) {
	due := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	o := &Obligation{
		AmountDue:  decimal.RequireFromString("1000.00"),
		AmountPaid: decimal.Zero,
		DueDate:    due,
	}

	assert.False(t, o.IsOverdue(due.AddDate(0, 0, -1)))
	assert.True(t, o.IsOverdue(due.AddDate(0, 0, 1)))

	// A settled month is never overdue, regardless of date.
	o.AmountPaid = o.AmountDue
	assert.False(t, o.IsOverdue(due.AddDate(0, 1, 0)))
}

func TestObligationOutstanding(t *testing.T) {
	o := &Obligation{
		AmountDue:  decimal.RequireFromString("1000.00"),
		AmountPaid: decimal.RequireFromString("250.00"),
	}
	assert.True(t, o.Outstanding().Equal(decimal.RequireFromString("750.00")))
	assert.False(t, o.IsSettled())

	o.AmountPaid = o.AmountDue
	assert.True(t, o.Outstanding().IsZero())
	assert.True(t, o.IsSettled())
}

func TestSessionMonths(t *testing.T) {
	session := &Session{StartMonth: 4, StartYear: 2026, EndMonth: 3, EndYear: 2027}

	assert.Equal(t, 12, session.TotalMonths())
	assert.Equal(t, 0, session.MonthIndex(4, 2026))
	assert.Equal(t, 11, session.MonthIndex(3, 2027))
	assert.Equal(t, -1, session.MonthIndex(3, 2026))
	assert.Equal(t, -1, session.MonthIndex(4, 2027))
	assert.True(t, session.Contains(12, 2026))
	assert.False(t, session.Contains(4, 2025))
}

func TestAllocationStanding(t *testing.T) {
	a := &Allocation{
		Amount:         decimal.RequireFromString("500.00"),
		ReversedAmount: decimal.RequireFromString("200.00"),
	}
	assert.True(t, a.Standing().Equal(decimal.RequireFromString("300.00")))
}

func TestTransactionMayReverse(t *testing.T) {
	txn := &PaymentTransaction{Status: TransactionStatusRecorded}
	assert.True(t, txn.MayReverse())

	txn.Status = TransactionStatusPartiallyReversed
	assert.True(t, txn.MayReverse())

	txn.Status = TransactionStatusReversed
	assert.False(t, txn.MayReverse())
}
