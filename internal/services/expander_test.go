package services

import (
	"testing"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aprilToMarchSession() *models.Session {
	return &models.Session{
		Name:       "2026-27",
		StartMonth: 4,
		StartYear:  2026,
		EndMonth:   3,
		EndYear:    2027,
	}
}

func TestMonthlySplit_SumsToAnnual(t *testing.T) {
	annual := decimal.RequireFromString("10000.00")
	split := monthlySplit(annual, 12)

	require.Len(t, split, 12)

	sum := decimal.Zero
	for _, m := range split {
		sum = sum.Add(m)
	}
	assert.True(t, sum.Equal(annual), "split must sum to annual exactly, got %s", sum)

	// 10000/12 = 833.333... rounds down to 833.33; the last month absorbs
	// the remainder.
	base := decimal.RequireFromString("833.33")
	for i := 0; i < 11; i++ {
		assert.True(t, split[i].Equal(base), "month %d", i)
	}
	assert.True(t, split[11].Equal(decimal.RequireFromString("833.37")))
}

func TestMonthlySplit_ExactDivision(t *testing.T) {
	split := monthlySplit(decimal.RequireFromString("1200.00"), 12)
	for i, m := range split {
		assert.True(t, m.Equal(decimal.RequireFromString("100.00")), "month %d", i)
	}
}

func TestExpandObligations_FullSession(t *testing.T) {
	session := aprilToMarchSession()
	annual := decimal.RequireFromString("36000.00")

	obligations, err := expandObligations(session, annual, 4, 2026, 10)
	require.NoError(t, err)
	require.Len(t, obligations, 12)

	assert.Equal(t, 4, obligations[0].Month)
	assert.Equal(t, 2026, obligations[0].Year)
	assert.Equal(t, 3, obligations[11].Month)
	assert.Equal(t, 2027, obligations[11].Year)

	sum := decimal.Zero
	for i := range obligations {
		sum = sum.Add(obligations[i].AmountDue)
		assert.Equal(t, 10, obligations[i].DueDate.Day())
		assert.True(t, obligations[i].AmountPaid.IsZero())
	}
	assert.True(t, sum.Equal(annual))
}

func TestExpandObligations_MidSessionKeepsPositionAmounts(t *testing.T) {
	session := aprilToMarchSession()
	annual := decimal.RequireFromString("10000.00")

	full, err := expandObligations(session, annual, 4, 2026, 10)
	require.NoError(t, err)

	// Enabling from July must produce the same amounts as months 4..12 of
	// the full expansion, not a fresh split of the annual total.
	partial, err := expandObligations(session, annual, 7, 2026, 10)
	require.NoError(t, err)
	require.Len(t, partial, 9)

	for i := range partial {
		assert.Equal(t, full[i+3].Month, partial[i].Month)
		assert.Equal(t, full[i+3].Year, partial[i].Year)
		assert.True(t, full[i+3].AmountDue.Equal(partial[i].AmountDue))
	}
}

func TestExpandObligations_StartOutsideSession(t *testing.T) {
	session := aprilToMarchSession()

	_, err := expandObligations(session, decimal.RequireFromString("10000"), 3, 2026, 10)
	assert.Error(t, err)

	_, err = expandObligations(session, decimal.RequireFromString("10000"), 4, 2027, 10)
	assert.Error(t, err)
}

func TestExpandObligations_RejectsNonPositiveAnnual(t *testing.T) {
	session := aprilToMarchSession()

	_, err := expandObligations(session, decimal.Zero, 4, 2026, 10)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = expandObligations(session, decimal.RequireFromString("-5"), 4, 2026, 10)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
