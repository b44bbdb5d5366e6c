package services

import (
	"testing"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obligation(id uint, month, year int, due, paid string) *models.Obligation {
	return &models.Obligation{
		ID:         id,
		Month:      month,
		Year:       year,
		AmountDue:  decimal.RequireFromString(due),
		AmountPaid: decimal.RequireFromString(paid),
	}
}

func TestPlanAllocations_OldestFirst(t *testing.T) {
	// Deliberately out of order; the planner must sort by month.
	obligations := []*models.Obligation{
		obligation(3, 6, 2026, "1000.00", "0"),
		obligation(1, 4, 2026, "1000.00", "0"),
		obligation(2, 5, 2026, "1000.00", "0"),
	}

	plan, leftover := planAllocations(obligations, decimal.RequireFromString("1500.00"))
	require.Len(t, plan, 2)
	assert.True(t, leftover.IsZero())

	assert.Equal(t, 4, plan[0].Obligation.Month)
	assert.True(t, plan[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, 5, plan[1].Obligation.Month)
	assert.True(t, plan[1].Amount.Equal(decimal.RequireFromString("500.00")))
}

func TestPlanAllocations_SkipsSettledMonths(t *testing.T) {
	obligations := []*models.Obligation{
		obligation(1, 4, 2026, "1000.00", "1000.00"),
		obligation(2, 5, 2026, "1000.00", "400.00"),
	}

	plan, leftover := planAllocations(obligations, decimal.RequireFromString("600.00"))
	require.Len(t, plan, 1)
	assert.True(t, leftover.IsZero())
	assert.Equal(t, 5, plan[0].Obligation.Month)
	assert.True(t, plan[0].Amount.Equal(decimal.RequireFromString("600.00")))
}

func TestPlanAllocations_OverpaymentLeftover(t *testing.T) {
	obligations := []*models.Obligation{
		obligation(1, 4, 2026, "1000.00", "0"),
	}

	plan, leftover := planAllocations(obligations, decimal.RequireFromString("1200.00"))
	require.Len(t, plan, 1)
	assert.True(t, plan[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, leftover.Equal(decimal.RequireFromString("200.00")))
}

func TestPlanAllocations_NoObligations(t *testing.T) {
	plan, leftover := planAllocations(nil, decimal.RequireFromString("500.00"))
	assert.Empty(t, plan)
	assert.True(t, leftover.Equal(decimal.RequireFromString("500.00")))
}

func allocationFor(id uint, month, year int, amount, reversed string) *models.Allocation {
	return &models.Allocation{
		ID:             id,
		ObligationID:   id,
		Amount:         decimal.RequireFromString(amount),
		ReversedAmount: decimal.RequireFromString(reversed),
		Obligation:     obligation(id, month, year, "1000.00", amount),
	}
}

func TestPlanReversal_NewestFirst(t *testing.T) {
	allocations := []*models.Allocation{
		allocationFor(1, 4, 2026, "1000.00", "0"),
		allocationFor(2, 5, 2026, "1000.00", "0"),
		allocationFor(3, 6, 2026, "500.00", "0"),
	}

	plan, err := planReversal(allocations, decimal.RequireFromString("1200.00"))
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// June's 500 goes first, then 700 out of May.
	assert.Equal(t, 6, plan[0].Allocation.Obligation.Month)
	assert.True(t, plan[0].Amount.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, 5, plan[1].Allocation.Obligation.Month)
	assert.True(t, plan[1].Amount.Equal(decimal.RequireFromString("700.00")))
}

func TestPlanReversal_SkipsFullyReversed(t *testing.T) {
	allocations := []*models.Allocation{
		allocationFor(1, 4, 2026, "1000.00", "0"),
		allocationFor(2, 5, 2026, "600.00", "600.00"),
	}

	plan, err := planReversal(allocations, decimal.RequireFromString("300.00"))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, 4, plan[0].Allocation.Obligation.Month)
}

func TestPlanReversal_ExceedsStandingAmount(t *testing.T) {
	allocations := []*models.Allocation{
		allocationFor(1, 4, 2026, "1000.00", "400.00"),
	}

	_, err := planReversal(allocations, decimal.RequireFromString("700.00"))
	assert.ErrorIs(t, err, ErrInsufficientAllocatedAmount)
}

func TestStandingTotal(t *testing.T) {
	allocations := []*models.Allocation{
		allocationFor(1, 4, 2026, "1000.00", "400.00"),
		allocationFor(2, 5, 2026, "500.00", "0"),
	}
	assert.True(t, standingTotal(allocations).Equal(decimal.RequireFromString("1100.00")))
}
