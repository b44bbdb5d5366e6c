package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scholaris/scholaris-api/internal/jobs"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
	"github.com/scholaris/scholaris-api/internal/statemachine"
	"github.com/scholaris/scholaris-api/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the fee-obligation ledger core. One instance serves every
// category; the category string selects which schedule resolver feeds the
// obligation expander. Fee and transport accounts never net against each other.
type LedgerService struct {
	repo            repository.LedgerRepository
	studentRepo     repository.StudentRepository
	scheduleRepo    repository.ScheduleRepository
	resolvers       map[string]ScheduleResolver
	notificationSvc *NotificationService
	auditSvc        *AuditService
	worker          *jobs.Worker
	dueDay          int
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	repo repository.LedgerRepository,
	studentRepo repository.StudentRepository,
	scheduleRepo repository.ScheduleRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
	dueDay int,
) *LedgerService {
	return &LedgerService{
		repo:         repo,
		studentRepo:  studentRepo,
		scheduleRepo: scheduleRepo,
		resolvers: map[string]ScheduleResolver{
			models.CategoryFee:       NewFeeScheduleResolver(scheduleRepo),
			models.CategoryTransport: NewTransportScheduleResolver(scheduleRepo),
		},
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		dueDay:          dueDay,
	}
}

// AccountSummary is the read model for one ledger account. Every figure is
// summed from obligations on demand; nothing here is cached.
type AccountSummary struct {
	AccountID            uint                        `json:"account_id"`
	StudentID            uint                        `json:"student_id"`
	SessionID            uint                        `json:"session_id"`
	Category             string                      `json:"category"`
	TotalDue             decimal.Decimal             `json:"total_due"`
	TotalPaid            decimal.Decimal             `json:"total_paid"`
	TotalBalance         decimal.Decimal             `json:"total_balance"`
	CollectionPercentage float64                     `json:"collection_percentage"`
	PaidMonths           int                         `json:"paid_months"`
	PartialMonths        int                         `json:"partial_months"`
	PendingMonths        int                         `json:"pending_months"`
	OverdueMonths        int                         `json:"overdue_months"`
	Months               []models.ObligationResponse `json:"months"`
}

// EnableResult reports the outcome of one enable call.
type EnableResult struct {
	Created            bool            `json:"created"`
	ObligationsCreated int             `json:"obligations_created"`
	Summary            *AccountSummary `json:"summary"`
}

// EnableOutcome is one student's entry in a bulk enable response.
type EnableOutcome struct {
	StudentID uint          `json:"student_id"`
	Result    *EnableResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// PaymentResult reports a recorded payment and where it landed.
type PaymentResult struct {
	Transaction       models.PaymentTransactionResponse `json:"transaction"`
	Allocations       []models.AllocationResponse       `json:"allocations"`
	UnallocatedAmount decimal.Decimal                   `json:"unallocated_amount"`
}

// ReversalResult reports a reversal and the obligations it touched.
type ReversalResult struct {
	ReversedAmount      decimal.Decimal                   `json:"reversed_amount"`
	Transaction         models.PaymentTransactionResponse `json:"transaction"`
	AffectedObligations []models.ObligationResponse       `json:"affected_obligations"`
	Reversal            models.ReversalResponse           `json:"reversal"`
}

// Enable turns on obligation tracking for (student, session, category). The
// call is at-most-once: when the account already exists it returns
// created=false with the existing summary and performs no writes. Losing a
// creation race to a concurrent caller is folded into the same no-op path.
func (s *LedgerService) Enable(ctx context.Context, studentID, sessionID uint, category string, startMonth, startYear int, actorID uint, ip, userAgent string) (*EnableResult, error) {
	resolver, ok := s.resolvers[category]
	if !ok {
		return nil, fmt.Errorf("unknown ledger category %q", category)
	}

	// Fast path: already tracked.
	if account, err := s.repo.FindAccount(ctx, studentID, sessionID, category); err == nil {
		summary, err := s.summarize(ctx, account, time.Now())
		if err != nil {
			return nil, err
		}
		return &EnableResult{Created: false, Summary: summary}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	session, err := s.scheduleRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	schedule, err := resolver.Resolve(ctx, student.ClassID, sessionID)
	if err != nil {
		return nil, err
	}

	obligations, err := expandObligations(session, schedule.AnnualTotal, startMonth, startYear, s.dueDay)
	if err != nil {
		return nil, err
	}

	account := &models.LedgerAccount{
		StudentID: studentID,
		SessionID: sessionID,
		Category:  category,
	}
	if err := s.repo.CreateAccountWithObligations(ctx, account, obligations); err != nil {
		if errors.Is(err, repository.ErrObligationExists) {
			return nil, ErrDuplicateMonth
		}
		if errors.Is(err, repository.ErrAccountExists) {
			// Lost the race to a concurrent enable; the account is there now.
			existing, ferr := s.repo.FindAccount(ctx, studentID, sessionID, category)
			if ferr != nil {
				return nil, fmt.Errorf("%w: %v", ErrConcurrentModification, ferr)
			}
			summary, serr := s.summarize(ctx, existing, time.Now())
			if serr != nil {
				return nil, serr
			}
			return &EnableResult{Created: false, Summary: summary}, nil
		}
		return nil, err
	}

	summary, err := s.summarize(ctx, account, time.Now())
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "ENABLE", "LedgerAccount", account.ID,
		fmt.Sprintf("%s tracking enabled for student #%d session #%d (%d obligations)",
			category, studentID, sessionID, len(obligations)), ip, userAgent)

	return &EnableResult{
		Created:            true,
		ObligationsCreated: len(obligations),
		Summary:            summary,
	}, nil
}

// EnableForStudents enables tracking for a set of students, collecting one
// outcome per student. One student's failure never blocks the others.
func (s *LedgerService) EnableForStudents(ctx context.Context, studentIDs []uint, sessionID uint, category string, startMonth, startYear int, actorID uint, ip, userAgent string) []EnableOutcome {
	outcomes := make([]EnableOutcome, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		result, err := s.Enable(ctx, studentID, sessionID, category, startMonth, startYear, actorID, ip, userAgent)
		outcome := EnableOutcome{StudentID: studentID}
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Result = result
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// EnableForClass enables tracking for every active student in a class.
func (s *LedgerService) EnableForClass(ctx context.Context, classID, sessionID uint, category string, startMonth, startYear int, actorID uint, ip, userAgent string) ([]EnableOutcome, error) {
	students, err := s.studentRepo.FindByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(students))
	for i := range students {
		ids = append(ids, students[i].ID)
	}
	return s.EnableForStudents(ctx, ids, sessionID, category, startMonth, startYear, actorID, ip, userAgent), nil
}

// ApplyPayment records a payment against an account and allocates it across
// outstanding obligations oldest month first. The transaction record, its
// allocations and every touched obligation commit or fail together under the
// account lock. Excess beyond the account's outstanding total is surfaced as
// UnallocatedAmount for the caller to decide on.
func (s *LedgerService) ApplyPayment(ctx context.Context, accountID uint, amount decimal.Decimal, date time.Time, method, reference string, actorID uint, ip, userAgent string) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if date.IsZero() {
		date = time.Now()
	}
	if method == "" {
		method = models.PaymentMethodCash
	}

	var result *PaymentResult
	err := s.repo.WithAccountLock(ctx, accountID, func(tx repository.LedgerRepository, account *models.LedgerAccount) error {
		obligations, err := tx.ObligationsByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		ptrs := make([]*models.Obligation, len(obligations))
		for i := range obligations {
			ptrs[i] = &obligations[i]
		}

		plan, unallocated := planAllocations(ptrs, amount)

		txn := &models.PaymentTransaction{
			AccountID:        account.ID,
			Amount:           amount,
			ReversedAmount:   decimal.Zero,
			PaymentDate:      date,
			Method:           method,
			Reference:        reference,
			ReceiptNumber:    newReceiptNumber(),
			Status:           models.TransactionStatusRecorded,
			RecordedByUserID: &actorID,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		allocations := make([]models.Allocation, 0, len(plan))
		for _, p := range plan {
			allocations = append(allocations, models.Allocation{
				TransactionID:  txn.ID,
				ObligationID:   p.Obligation.ID,
				Amount:         p.Amount,
				ReversedAmount: decimal.Zero,
			})
		}
		if err := tx.CreateAllocations(ctx, allocations); err != nil {
			return err
		}

		for _, p := range plan {
			p.Obligation.AmountPaid = p.Obligation.AmountPaid.Add(p.Amount)
			if err := tx.SaveObligation(ctx, p.Obligation); err != nil {
				return err
			}
		}

		allocResponses := make([]models.AllocationResponse, 0, len(allocations))
		for i := range allocations {
			resp := allocations[i].ToResponse()
			resp.Month = plan[i].Obligation.Month
			resp.Year = plan[i].Obligation.Year
			allocResponses = append(allocResponses, resp)
		}
		result = &PaymentResult{
			Transaction:       txn.ToResponse(),
			Allocations:       allocResponses,
			UnallocatedAmount: unallocated,
		}
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.auditSvc.Log(ctx, actorID, "PAYMENT", "PaymentTransaction", result.Transaction.ID,
		fmt.Sprintf("payment of %s recorded on account #%d (%s unallocated)",
			amount, accountID, result.UnallocatedAmount), ip, userAgent)

	if result.UnallocatedAmount.IsPositive() {
		unallocated := result.UnallocatedAmount
		receipt := result.Transaction.ReceiptNumber
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyAdmins(ctx, "Overpayment received",
				fmt.Sprintf("Receipt %s left %s unallocated on account #%d", receipt, unallocated, accountID),
				models.NotificationTypePaymentRecorded)
		})
	}

	return result, nil
}

// ReversePayment undoes part or all of a transaction's allocations, newest
// month first. A nil amount reverses everything still standing. The original
// transaction and allocations are marked, never deleted; the reversal itself
// is recorded as an immutable counter-entry.
func (s *LedgerService) ReversePayment(ctx context.Context, transactionID uint, amount *decimal.Decimal, reason string, actorID uint, ip, userAgent string) (*ReversalResult, error) {
	if amount != nil && !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	located, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var result *ReversalResult
	err = s.repo.WithAccountLock(ctx, located.AccountID, func(tx repository.LedgerRepository, account *models.LedgerAccount) error {
		// Re-read under the lock; the snapshot outside it may be stale.
		txn, err := tx.FindTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !txn.MayReverse() {
			return ErrInvalidState
		}

		allocations, err := tx.AllocationsByTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		ptrs := make([]*models.Allocation, len(allocations))
		for i := range allocations {
			ptrs[i] = &allocations[i]
		}

		target := standingTotal(ptrs)
		if amount != nil {
			target = *amount
		}
		if !target.IsPositive() {
			return ErrInsufficientAllocatedAmount
		}

		plan, err := planReversal(ptrs, target)
		if err != nil {
			return err
		}

		reversal := &models.Reversal{
			TransactionID:    txn.ID,
			Amount:           target,
			Reason:           reason,
			ReversedByUserID: &actorID,
		}

		var affected []models.ObligationResponse
		for _, share := range plan {
			alloc := share.Allocation
			alloc.ReversedAmount = alloc.ReversedAmount.Add(share.Amount)
			if err := tx.SaveAllocation(ctx, alloc); err != nil {
				return err
			}

			obligation := alloc.Obligation
			obligation.AmountPaid = obligation.AmountPaid.Sub(share.Amount)
			if err := tx.SaveObligation(ctx, obligation); err != nil {
				return err
			}
			affected = append(affected, obligation.ToResponse(time.Now()))

			reversal.Items = append(reversal.Items, models.ReversalAllocation{
				AllocationID: alloc.ID,
				ObligationID: obligation.ID,
				Amount:       share.Amount,
			})
		}

		txn.ReversedAmount = txn.ReversedAmount.Add(target)
		full := standingTotal(ptrs).IsZero()
		machine := statemachine.NewTransactionFSM(txn)
		if err := machine.MarkReversed(ctx, full); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		if err := tx.SaveTransaction(ctx, txn); err != nil {
			return err
		}

		if err := tx.CreateReversal(ctx, reversal); err != nil {
			return err
		}

		result = &ReversalResult{
			ReversedAmount:      target,
			Transaction:         txn.ToResponse(),
			AffectedObligations: affected,
			Reversal:            reversal.ToResponse(),
		}
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.auditSvc.Log(ctx, actorID, "REVERSE", "PaymentTransaction", transactionID,
		fmt.Sprintf("reversed %s of transaction #%d: %s", result.ReversedAmount, transactionID, reason), ip, userAgent)

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx, "Payment reversed",
			fmt.Sprintf("Transaction #%d reversed by %s", transactionID, result.ReversedAmount),
			models.NotificationTypePaymentReversed)
	})

	return result, nil
}

// GetSummary returns the always-consistent read model for one account.
func (s *LedgerService) GetSummary(ctx context.Context, accountID uint) (*AccountSummary, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return s.summarize(ctx, account, time.Now())
}

// GetSummaryByStudent resolves the account from its natural key first. A
// missing account means tracking was never enabled, reported as ErrNotFound.
func (s *LedgerService) GetSummaryByStudent(ctx context.Context, studentID, sessionID uint, category string) (*AccountSummary, error) {
	account, err := s.repo.FindAccount(ctx, studentID, sessionID, category)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return s.summarize(ctx, account, time.Now())
}

// Transactions lists an account's payment history.
func (s *LedgerService) Transactions(ctx context.Context, accountID uint) ([]models.PaymentTransaction, error) {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.repo.TransactionsByAccount(ctx, accountID)
}

// FindTransaction loads one transaction with its allocations.
func (s *LedgerService) FindTransaction(ctx context.Context, id uint) (*models.PaymentTransaction, error) {
	txn, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return txn, nil
}

// UpdateReceiptPath attaches an uploaded receipt image to a transaction.
func (s *LedgerService) UpdateReceiptPath(ctx context.Context, transactionID uint, path string) error {
	txn, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return mapNotFound(err)
	}
	txn.DocumentPath = &path
	return s.repo.SaveTransaction(ctx, txn)
}

// AccountSummaries builds the read model for every account in a session and
// category, for reporting.
func (s *LedgerService) AccountSummaries(ctx context.Context, sessionID uint, category string) ([]AccountSummary, []models.LedgerAccount, error) {
	accounts, err := s.repo.AccountsBySession(ctx, sessionID, category)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	summaries := make([]AccountSummary, 0, len(accounts))
	for i := range accounts {
		summaries = append(summaries, *buildSummary(&accounts[i], accounts[i].Obligations, now))
	}
	return summaries, accounts, nil
}

// CheckOverdueObligations scans for unpaid obligations past their due date
// and notifies admins. Intended to run from the recurring job scheduler.
func (s *LedgerService) CheckOverdueObligations(ctx context.Context) error {
	overdue, err := s.repo.OverdueObligations(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	byAccount := make(map[uint]int)
	for i := range overdue {
		byAccount[overdue[i].AccountID]++
	}

	logger.Info("[Overdue scan] found overdue obligations",
		"obligations", len(overdue), "accounts", len(byAccount))

	return s.notificationSvc.NotifyAdmins(ctx, "Overdue fee obligations",
		fmt.Sprintf("%d obligations across %d accounts are overdue", len(overdue), len(byAccount)),
		models.NotificationTypeObligationsOverdue)
}

// LogCollectionStats writes a one-line collection snapshot for the active
// session, per category. Intended to run from the daily job scheduler.
func (s *LedgerService) LogCollectionStats(ctx context.Context) error {
	session, err := s.scheduleRepo.FindActiveSession(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	for category := range s.resolvers {
		summaries, _, err := s.AccountSummaries(ctx, session.ID, category)
		if err != nil {
			return err
		}
		due, paid := decimal.Zero, decimal.Zero
		for i := range summaries {
			due = due.Add(summaries[i].TotalDue)
			paid = paid.Add(summaries[i].TotalPaid)
		}
		logger.Info("[Collection stats]",
			"session", session.Name, "category", category,
			"accounts", len(summaries), "total_due", due, "total_paid", paid)
	}
	return nil
}

// summarize loads the account's obligations and derives its summary.
func (s *LedgerService) summarize(ctx context.Context, account *models.LedgerAccount, asOf time.Time) (*AccountSummary, error) {
	obligations, err := s.repo.ObligationsByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return buildSummary(account, obligations, asOf), nil
}

// buildSummary derives totals and month statuses from obligation state.
func buildSummary(account *models.LedgerAccount, obligations []models.Obligation, asOf time.Time) *AccountSummary {
	summary := &AccountSummary{
		AccountID:    account.ID,
		StudentID:    account.StudentID,
		SessionID:    account.SessionID,
		Category:     account.Category,
		TotalDue:     decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalBalance: decimal.Zero,
	}

	for i := range obligations {
		o := &obligations[i]
		summary.TotalDue = summary.TotalDue.Add(o.AmountDue)
		summary.TotalPaid = summary.TotalPaid.Add(o.AmountPaid)

		switch o.Status() {
		case models.ObligationPaid:
			summary.PaidMonths++
		case models.ObligationPartial:
			summary.PartialMonths++
		default:
			summary.PendingMonths++
		}
		if o.IsOverdue(asOf) {
			summary.OverdueMonths++
		}

		summary.Months = append(summary.Months, o.ToResponse(asOf))
	}

	summary.TotalBalance = summary.TotalDue.Sub(summary.TotalPaid)
	if summary.TotalDue.IsPositive() {
		pct, _ := summary.TotalPaid.Div(summary.TotalDue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		summary.CollectionPercentage = pct
	}
	return summary
}

// newReceiptNumber generates a unique, human-quotable receipt number.
func newReceiptNumber() string {
	return "RCP-" + strings.ToUpper(uuid.NewString()[:8])
}

// mapNotFound converts gorm's not-found into the service sentinel.
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
