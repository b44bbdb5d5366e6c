package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLedgerHandler_Enable_RequiresFields(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	w := performJSON(t, h.Enable, "POST", "/fees/enable", map[string]interface{}{
		"student_id": 1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_Enable_RejectsBadMonth(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	w := performJSON(t, h.Enable, "POST", "/fees/enable", map[string]interface{}{
		"student_id":  1,
		"session_id":  1,
		"start_month": 13,
		"start_year":  2026,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_BulkEnable_RequiresTarget(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	w := performJSON(t, h.BulkEnable, "POST", "/fees/bulk_enable", map[string]interface{}{
		"session_id":  1,
		"start_month": 4,
		"start_year":  2026,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "student_ids or class_id")
}

func TestLedgerHandler_RecordPayment_RejectsBadDate(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	w := performJSON(t, h.RecordPayment, "POST", "/fees/accounts/1/payments", map[string]interface{}{
		"amount": "500.00",
		"date":   "01-04-2026",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func TestLedgerHandler_ReversePayment_RequiresReason(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	w := performJSON(t, h.ReversePayment, "POST", "/fees/transactions/1/reverse", map[string]interface{}{
		"amount": "100.00",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderErrorStatusMapping(t *testing.T) {
	h := NewLedgerHandler(nil, nil, models.CategoryFee)

	cases := []struct {
		err  error
		code int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrScheduleNotFound, http.StatusNotFound},
		{services.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{services.ErrInsufficientAllocatedAmount, http.StatusUnprocessableEntity},
		{services.ErrInvalidState, http.StatusUnprocessableEntity},
		{services.ErrConcurrentModification, http.StatusConflict},
	}

	for _, tc := range cases {
		w := performJSON(t, func(c *gin.Context) { h.renderError(c, tc.err) }, "GET", "/", nil)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}
