package services

import (
	"fmt"
	"time"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/shopspring/decimal"
)

// monthlySplit divides an annual total across n months. Months 1..n-1 carry
// the base amount rounded down to cents; the final month absorbs the
// remainder, so the split always sums to the annual total exactly.
func monthlySplit(annual decimal.Decimal, months int) []decimal.Decimal {
	base := annual.Div(decimal.NewFromInt(int64(months))).RoundDown(2)
	split := make([]decimal.Decimal, months)
	for i := 0; i < months-1; i++ {
		split[i] = base
	}
	split[months-1] = annual.Sub(base.Mul(decimal.NewFromInt(int64(months - 1))))
	return split
}

// expandObligations materializes one obligation per calendar month from
// (startMonth, startYear) through the end of the session. Each month keeps
// the amount of its position in the full-session split, so a mid-session
// enablement produces the same per-month amounts a day-one enablement would.
// Due dates fall on dueDay of each month.
func expandObligations(session *models.Session, annual decimal.Decimal, startMonth, startYear, dueDay int) ([]models.Obligation, error) {
	if !annual.IsPositive() {
		return nil, fmt.Errorf("annual total must be positive, got %s: %w", annual, ErrInvalidAmount)
	}
	startIdx := session.MonthIndex(startMonth, startYear)
	if startIdx < 0 {
		return nil, fmt.Errorf("start month %d/%d is outside session %s", startMonth, startYear, session.Name)
	}

	total := session.TotalMonths()
	split := monthlySplit(annual, total)

	obligations := make([]models.Obligation, 0, total-startIdx)
	for idx := startIdx; idx < total; idx++ {
		first := time.Date(session.StartYear, time.Month(session.StartMonth), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, idx, 0)
		obligations = append(obligations, models.Obligation{
			Month:      int(first.Month()),
			Year:       first.Year(),
			AmountDue:  split[idx],
			AmountPaid: decimal.Zero,
			DueDate:    time.Date(first.Year(), first.Month(), dueDay, 0, 0, 0, 0, time.UTC),
		})
	}
	return obligations, nil
}
