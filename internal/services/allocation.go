package services

import (
	"sort"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/shopspring/decimal"
)

// obligationAllocation pairs an obligation with the slice of a payment
// applied to it.
type obligationAllocation struct {
	Obligation *models.Obligation
	Amount     decimal.Decimal
}

// planAllocations distributes a payment across outstanding obligations,
// oldest month first. It mutates nothing; the caller applies the plan inside
// the account lock. The leftover that found no obligation to land on is
// returned as the second value — the engine never invents obligations to
// absorb it.
func planAllocations(obligations []*models.Obligation, amount decimal.Decimal) ([]obligationAllocation, decimal.Decimal) {
	ordered := make([]*models.Obligation, len(obligations))
	copy(ordered, obligations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year < ordered[j].Year
		}
		return ordered[i].Month < ordered[j].Month
	})

	var plan []obligationAllocation
	remaining := amount
	for _, ob := range ordered {
		if remaining.IsZero() {
			break
		}
		outstanding := ob.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, outstanding)
		plan = append(plan, obligationAllocation{Obligation: ob, Amount: take})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}

// allocationReversal pairs an allocation with the amount taken back from it.
type allocationReversal struct {
	Allocation *models.Allocation
	Amount     decimal.Decimal
}

// standingTotal sums the not-yet-reversed amount across allocations.
func standingTotal(allocations []*models.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Standing())
	}
	return total
}

// planReversal consumes the requested amount against a transaction's
// allocations newest month first — the inverse of application order, so a
// reversal undoes the payment's tail before its head. Requesting more than
// the standing total fails with ErrInsufficientAllocatedAmount and no plan.
func planReversal(allocations []*models.Allocation, amount decimal.Decimal) ([]allocationReversal, error) {
	if amount.GreaterThan(standingTotal(allocations)) {
		return nil, ErrInsufficientAllocatedAmount
	}

	ordered := make([]*models.Allocation, len(allocations))
	copy(ordered, allocations)
	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := ordered[i].Obligation, ordered[j].Obligation
		if oi != nil && oj != nil {
			if oi.Year != oj.Year {
				return oi.Year > oj.Year
			}
			if oi.Month != oj.Month {
				return oi.Month > oj.Month
			}
		}
		return ordered[i].ID > ordered[j].ID
	})

	var plan []allocationReversal
	remaining := amount
	for _, alloc := range ordered {
		if remaining.IsZero() {
			break
		}
		standing := alloc.Standing()
		if !standing.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, standing)
		plan = append(plan, allocationReversal{Allocation: alloc, Amount: take})
		remaining = remaining.Sub(take)
	}
	return plan, nil
}
