package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-api/internal/middleware"
	"github.com/scholaris/scholaris-api/internal/services"
	"github.com/scholaris/scholaris-api/internal/storage"
	"github.com/shopspring/decimal"
)

// LedgerHandler exposes the fee-obligation ledger. Routes are mounted once
// per category; the category is fixed at registration time so /fees and
// /transport share one implementation.
type LedgerHandler struct {
	ledgerService *services.LedgerService
	storage       *storage.LocalStorage
	category      string
}

func NewLedgerHandler(ledgerService *services.LedgerService, storage *storage.LocalStorage, category string) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, storage: storage, category: category}
}

type EnableRequest struct {
	StudentID  uint `json:"student_id" binding:"required"`
	SessionID  uint `json:"session_id" binding:"required"`
	StartMonth int  `json:"start_month" binding:"required,min=1,max=12"`
	StartYear  int  `json:"start_year" binding:"required,min=2000"`
}

// @Summary Enable Tracking
// @Description Enables obligation tracking for a student in a session. Idempotent: repeating the call returns the existing account.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param request body EnableRequest true "Enable parameters"
// @Success 200 {object} services.EnableResult
// @Success 201 {object} services.EnableResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fees/enable [post]
func (h *LedgerHandler) Enable(c *gin.Context) {
	var req EnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledgerService.Enable(c.Request.Context(), req.StudentID, req.SessionID, h.category,
		req.StartMonth, req.StartYear, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.renderError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

type BulkEnableRequest struct {
	StudentIDs []uint `json:"student_ids"`
	ClassID    uint   `json:"class_id"`
	SessionID  uint   `json:"session_id" binding:"required"`
	StartMonth int    `json:"start_month" binding:"required,min=1,max=12"`
	StartYear  int    `json:"start_year" binding:"required,min=2000"`
}

// @Summary Bulk Enable Tracking
// @Description Enables tracking for a list of students or a whole class. Returns per-student outcomes.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param request body BulkEnableRequest true "Bulk enable parameters"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fees/bulk_enable [post]
func (h *LedgerHandler) BulkEnable(c *gin.Context) {
	var req BulkEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.StudentIDs) == 0 && req.ClassID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_ids or class_id is required"})
		return
	}

	actorID := middleware.GetUserID(c)
	var outcomes []services.EnableOutcome
	if len(req.StudentIDs) > 0 {
		outcomes = h.ledgerService.EnableForStudents(c.Request.Context(), req.StudentIDs, req.SessionID,
			h.category, req.StartMonth, req.StartYear, actorID, c.ClientIP(), c.Request.UserAgent())
	} else {
		var err error
		outcomes, err = h.ledgerService.EnableForClass(c.Request.Context(), req.ClassID, req.SessionID,
			h.category, req.StartMonth, req.StartYear, actorID, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			h.renderError(c, err)
			return
		}
	}

	enabled, failed := 0, 0
	for i := range outcomes {
		if outcomes[i].Error != "" {
			failed++
		} else {
			enabled++
		}
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes, "enabled": enabled, "failed": failed})
}

// @Summary Account Summary
// @Description Month-by-month obligation status with derived totals
// @Tags Ledger
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} services.AccountSummary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fees/accounts/{account_id} [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("account_id"), 10, 32)
	summary, err := h.ledgerService.GetSummary(c.Request.Context(), uint(id))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Account Summary by Student
// @Description Resolves the account by student and session, then returns its summary
// @Tags Ledger
// @Produce json
// @Param student_id path int true "Student ID"
// @Param session_id query int true "Session ID"
// @Success 200 {object} services.AccountSummary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fees/students/{student_id} [get]
func (h *LedgerHandler) SummaryByStudent(c *gin.Context) {
	studentID, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)
	sessionID, _ := strconv.ParseUint(c.Query("session_id"), 10, 32)
	if sessionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	summary, err := h.ledgerService.GetSummaryByStudent(c.Request.Context(), uint(studentID), uint(sessionID), h.category)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Date      string          `json:"date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// @Summary Record Payment
// @Description Records a payment and allocates it across outstanding months, oldest first
// @Tags Ledger
// @Accept json
// @Produce json
// @Param account_id path int true "Account ID"
// @Param request body PaymentRequest true "Payment details"
// @Success 201 {object} services.PaymentResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fees/accounts/{account_id}/payments [post]
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	accountID, _ := strconv.ParseUint(c.Param("account_id"), 10, 32)

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	result, err := h.ledgerService.ApplyPayment(c.Request.Context(), uint(accountID), req.Amount, date,
		req.Method, req.Reference, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type ReverseRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"required"`
}

// @Summary Reverse Payment
// @Description Reverses part or all of a payment, newest allocated month first. Omit amount for a full reversal.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param transaction_id path int true "Transaction ID"
// @Param request body ReverseRequest true "Reversal details"
// @Success 200 {object} services.ReversalResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fees/transactions/{transaction_id}/reverse [post]
func (h *LedgerHandler) ReversePayment(c *gin.Context) {
	transactionID, _ := strconv.ParseUint(c.Param("transaction_id"), 10, 32)

	var req ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledgerService.ReversePayment(c.Request.Context(), uint(transactionID), req.Amount,
		req.Reason, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary List Transactions
// @Description Payment history for an account, including reversed entries
// @Tags Ledger
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fees/accounts/{account_id}/transactions [get]
func (h *LedgerHandler) Transactions(c *gin.Context) {
	accountID, _ := strconv.ParseUint(c.Param("account_id"), 10, 32)
	transactions, err := h.ledgerService.Transactions(c.Request.Context(), uint(accountID))
	if err != nil {
		h.renderError(c, err)
		return
	}

	var responses []interface{}
	for i := range transactions {
		responses = append(responses, transactions[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"transactions": responses})
}

// @Summary Upload Receipt Document
// @Description Attaches a scanned receipt or proof of payment to a transaction
// @Tags Ledger
// @Accept multipart/form-data
// @Produce json
// @Param transaction_id path int true "Transaction ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /fees/transactions/{transaction_id}/receipt [post]
func (h *LedgerHandler) UploadReceipt(c *gin.Context) {
	transactionID, _ := strconv.ParseUint(c.Param("transaction_id"), 10, 32)

	if _, err := h.ledgerService.FindTransaction(c.Request.Context(), uint(transactionID)); err != nil {
		h.renderError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file is required"})
		return
	}
	defer file.Close()

	if c.Request.ContentLength > 0 && c.Request.ContentLength > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
		return
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	path, err := h.storage.Upload(file, header, "receipts")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	if err := h.ledgerService.UpdateReceiptPath(c.Request.Context(), uint(transactionID), path); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt uploaded"})
}

// @Summary Download Receipt Document
// @Description Serves the uploaded receipt document for a transaction
// @Tags Ledger
// @Produce application/octet-stream
// @Param transaction_id path int true "Transaction ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fees/transactions/{transaction_id}/receipt [get]
func (h *LedgerHandler) DownloadReceipt(c *gin.Context) {
	transactionID, _ := strconv.ParseUint(c.Param("transaction_id"), 10, 32)

	txn, err := h.ledgerService.FindTransaction(c.Request.Context(), uint(transactionID))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if txn.DocumentPath == nil || *txn.DocumentPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No receipt document on file"})
		return
	}
	if !h.storage.Exists(*txn.DocumentPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt file is missing from storage"})
		return
	}
	c.File(h.storage.GetFullPath(*txn.DocumentPath))
}

// renderError maps service sentinels to HTTP status codes.
func (h *LedgerHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientAllocatedAmount),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrDuplicateMonth):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
