package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/scholaris/scholaris-api/internal/jobs"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeLedgerRepo is an in-memory LedgerRepository. It hands out copies the way
// gorm does, so service-side mutations only land in the store through Save*.
type fakeLedgerRepo struct {
	accounts     map[uint]models.LedgerAccount
	obligations  map[uint]models.Obligation
	transactions map[uint]models.PaymentTransaction
	allocations  map[uint]models.Allocation
	reversals    []models.Reversal
	lastID       uint
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		accounts:     make(map[uint]models.LedgerAccount),
		obligations:  make(map[uint]models.Obligation),
		transactions: make(map[uint]models.PaymentTransaction),
		allocations:  make(map[uint]models.Allocation),
	}
}

func (f *fakeLedgerRepo) nextID() uint {
	f.lastID++
	return f.lastID
}

func (f *fakeLedgerRepo) WithAccountLock(ctx context.Context, accountID uint, fn func(tx repository.LedgerRepository, account *models.LedgerAccount) error) error {
	account, ok := f.accounts[accountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	return fn(f, &account)
}

func (f *fakeLedgerRepo) CreateAccountWithObligations(ctx context.Context, account *models.LedgerAccount, obligations []models.Obligation) error {
	for _, existing := range f.accounts {
		if existing.StudentID == account.StudentID &&
			existing.SessionID == account.SessionID &&
			existing.Category == account.Category {
			return repository.ErrAccountExists
		}
	}
	account.ID = f.nextID()
	f.accounts[account.ID] = *account
	for i := range obligations {
		obligations[i].AccountID = account.ID
		obligations[i].ID = f.nextID()
		f.obligations[obligations[i].ID] = obligations[i]
	}
	return nil
}

func (f *fakeLedgerRepo) FindAccount(ctx context.Context, studentID, sessionID uint, category string) (*models.LedgerAccount, error) {
	for _, account := range f.accounts {
		if account.StudentID == studentID && account.SessionID == sessionID && account.Category == category {
			found := account
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) FindAccountByID(ctx context.Context, id uint) (*models.LedgerAccount, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &account, nil
}

func (f *fakeLedgerRepo) AccountsBySession(ctx context.Context, sessionID uint, category string) ([]models.LedgerAccount, error) {
	var accounts []models.LedgerAccount
	for _, account := range f.accounts {
		if account.SessionID == sessionID && account.Category == category {
			obligations, _ := f.ObligationsByAccount(ctx, account.ID)
			account.Obligations = obligations
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (f *fakeLedgerRepo) ObligationsByAccount(ctx context.Context, accountID uint) ([]models.Obligation, error) {
	var obligations []models.Obligation
	for _, o := range f.obligations {
		if o.AccountID == accountID {
			obligations = append(obligations, o)
		}
	}
	sort.Slice(obligations, func(i, j int) bool {
		if obligations[i].Year != obligations[j].Year {
			return obligations[i].Year < obligations[j].Year
		}
		return obligations[i].Month < obligations[j].Month
	})
	return obligations, nil
}

func (f *fakeLedgerRepo) SaveObligation(ctx context.Context, obligation *models.Obligation) error {
	f.obligations[obligation.ID] = *obligation
	return nil
}

func (f *fakeLedgerRepo) OverdueObligations(ctx context.Context, asOf time.Time) ([]models.Obligation, error) {
	var overdue []models.Obligation
	for _, o := range f.obligations {
		if o.AmountPaid.LessThan(o.AmountDue) && o.DueDate.Before(asOf) {
			overdue = append(overdue, o)
		}
	}
	return overdue, nil
}

func (f *fakeLedgerRepo) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	txn.ID = f.nextID()
	f.transactions[txn.ID] = *txn
	return nil
}

func (f *fakeLedgerRepo) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	f.transactions[txn.ID] = *txn
	return nil
}

func (f *fakeLedgerRepo) FindTransactionByID(ctx context.Context, id uint) (*models.PaymentTransaction, error) {
	txn, ok := f.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	allocations, _ := f.AllocationsByTransaction(ctx, id)
	txn.Allocations = allocations
	return &txn, nil
}

func (f *fakeLedgerRepo) TransactionsByAccount(ctx context.Context, accountID uint) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	for _, txn := range f.transactions {
		if txn.AccountID == accountID {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID < txns[j].ID })
	return txns, nil
}

func (f *fakeLedgerRepo) CreateAllocations(ctx context.Context, allocations []models.Allocation) error {
	for i := range allocations {
		allocations[i].ID = f.nextID()
		f.allocations[allocations[i].ID] = allocations[i]
	}
	return nil
}

func (f *fakeLedgerRepo) SaveAllocation(ctx context.Context, allocation *models.Allocation) error {
	saved := *allocation
	saved.Obligation = nil
	f.allocations[saved.ID] = saved
	return nil
}

func (f *fakeLedgerRepo) AllocationsByTransaction(ctx context.Context, transactionID uint) ([]models.Allocation, error) {
	var allocations []models.Allocation
	for _, a := range f.allocations {
		if a.TransactionID == transactionID {
			if o, ok := f.obligations[a.ObligationID]; ok {
				obligation := o
				a.Obligation = &obligation
			}
			allocations = append(allocations, a)
		}
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].ID < allocations[j].ID })
	return allocations, nil
}

func (f *fakeLedgerRepo) CreateReversal(ctx context.Context, reversal *models.Reversal) error {
	reversal.ID = f.nextID()
	f.reversals = append(f.reversals, *reversal)
	return nil
}

type mockStudentRepo struct {
	repository.StudentRepository
	mockFindByID    func(ctx context.Context, id uint) (*models.Student, error)
	mockFindByClass func(ctx context.Context, classID uint) ([]models.Student, error)
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockStudentRepo) FindByClass(ctx context.Context, classID uint) ([]models.Student, error) {
	return m.mockFindByClass(ctx, classID)
}

type mockScheduleRepo struct {
	repository.ScheduleRepository
	mockFindSessionByID  func(ctx context.Context, id uint) (*models.Session, error)
	mockFindFeeStructure func(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error)
}

func (m *mockScheduleRepo) FindSessionByID(ctx context.Context, id uint) (*models.Session, error) {
	return m.mockFindSessionByID(ctx, id)
}

func (m *mockScheduleRepo) FindFeeStructure(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error) {
	return m.mockFindFeeStructure(ctx, classID, sessionID)
}

type fakeNotificationRepo struct {
	repository.NotificationRepository
	created []models.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, *notification)
	return nil
}

type fakeAdminUserRepo struct {
	repository.UserRepository
}

func (f *fakeAdminUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: 1, Role: models.RoleAdmin}}, nil
}

type ledgerFixture struct {
	service *LedgerService
	repo    *fakeLedgerRepo
	worker  *jobs.Worker
}

// newLedgerFixture wires a service over in-memory storage with a 12000 annual
// fee for class 5 in an April 2026 to March 2027 session, so each month owes
// an even 1000.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	session := aprilToMarchSession()
	session.ID = 7

	studentRepo := &mockStudentRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Student, error) {
			return &models.Student{ID: id, ClassID: 5}, nil
		},
	}
	scheduleRepo := &mockScheduleRepo{
		mockFindSessionByID: func(ctx context.Context, id uint) (*models.Session, error) {
			if id != session.ID {
				return nil, gorm.ErrRecordNotFound
			}
			return session, nil
		},
		mockFindFeeStructure: func(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error) {
			return &models.FeeStructure{
				ClassID:    classID,
				SessionID:  sessionID,
				TuitionFee: decimal.RequireFromString("12000.00"),
			}, nil
		},
	}

	repo := newFakeLedgerRepo()
	notificationSvc := NewNotificationService(&fakeNotificationRepo{}, &fakeAdminUserRepo{})
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	return &ledgerFixture{
		service: NewLedgerService(repo, studentRepo, scheduleRepo, notificationSvc, nil, worker, 10),
		repo:    repo,
		worker:  worker,
	}
}

func (fx *ledgerFixture) enable(t *testing.T) *EnableResult {
	t.Helper()
	result, err := fx.service.Enable(context.Background(), 42, 7, models.CategoryFee, 4, 2026, 1, "", "")
	require.NoError(t, err)
	return result
}

func (fx *ledgerFixture) pay(t *testing.T, accountID uint, amount string) *PaymentResult {
	t.Helper()
	result, err := fx.service.ApplyPayment(context.Background(), accountID,
		decimal.RequireFromString(amount), time.Now(), models.PaymentMethodCash, "", 1, "", "")
	require.NoError(t, err)
	return result
}

func TestLedgerService_Enable_CreatesFullSchedule(t *testing.T) {
	fx := newLedgerFixture(t)

	result := fx.enable(t)
	assert.True(t, result.Created)
	assert.Equal(t, 12, result.ObligationsCreated)

	summary := result.Summary
	require.NotNil(t, summary)
	assert.True(t, summary.TotalDue.Equal(decimal.RequireFromString("12000.00")))
	assert.True(t, summary.TotalPaid.IsZero())
	assert.Equal(t, 12, summary.PendingMonths)
	assert.Len(t, summary.Months, 12)
	assert.Equal(t, 4, summary.Months[0].Month)
	assert.Equal(t, 3, summary.Months[11].Month)
	assert.Equal(t, 2027, summary.Months[11].Year)
}

func TestLedgerService_Enable_SecondCallIsNoOp(t *testing.T) {
	fx := newLedgerFixture(t)

	first := fx.enable(t)
	require.True(t, first.Created)

	second := fx.enable(t)
	assert.False(t, second.Created)
	assert.Equal(t, 0, second.ObligationsCreated)
	assert.Len(t, fx.repo.obligations, 12)
	assert.Len(t, fx.repo.accounts, 1)
}

func TestLedgerService_Enable_MissingSchedule(t *testing.T) {
	fx := newLedgerFixture(t)
	scheduleRepo := fx.service.scheduleRepo.(*mockScheduleRepo)
	scheduleRepo.mockFindFeeStructure = func(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := fx.service.Enable(context.Background(), 42, 7, models.CategoryFee, 4, 2026, 1, "", "")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestLedgerService_Enable_UnknownCategory(t *testing.T) {
	fx := newLedgerFixture(t)
	_, err := fx.service.Enable(context.Background(), 42, 7, "cafeteria", 4, 2026, 1, "", "")
	assert.Error(t, err)
}

func TestLedgerService_ApplyPayment_AllocatesOldestFirst(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID

	result := fx.pay(t, account, "2500.00")

	require.Len(t, result.Allocations, 3)
	assert.Equal(t, 4, result.Allocations[0].Month)
	assert.True(t, result.Allocations[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, 5, result.Allocations[1].Month)
	assert.True(t, result.Allocations[1].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, 6, result.Allocations[2].Month)
	assert.True(t, result.Allocations[2].Amount.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, result.UnallocatedAmount.IsZero())

	summary, err := fx.service.GetSummary(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, summary.TotalBalance.Equal(decimal.RequireFromString("9500.00")))
	assert.Equal(t, 2, summary.PaidMonths)
	assert.Equal(t, 1, summary.PartialMonths)
	assert.Equal(t, 9, summary.PendingMonths)
}

func TestLedgerService_ApplyPayment_SecondPaymentContinuesWherePreviousStopped(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID

	fx.pay(t, account, "2500.00")
	result := fx.pay(t, account, "1500.00")

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, 6, result.Allocations[0].Month)
	assert.True(t, result.Allocations[0].Amount.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, 7, result.Allocations[1].Month)
	assert.True(t, result.Allocations[1].Amount.Equal(decimal.RequireFromString("1000.00")))
}

func TestLedgerService_ApplyPayment_OverpaymentSurfacesLeftover(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID

	result := fx.pay(t, account, "13000.00")

	assert.True(t, result.UnallocatedAmount.Equal(decimal.RequireFromString("1000.00")))
	require.Len(t, result.Allocations, 12)

	summary, err := fx.service.GetSummary(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.PaidMonths)
	assert.True(t, summary.TotalBalance.IsZero())
}

func TestLedgerService_ApplyPayment_RejectsNonPositiveAmount(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID

	_, err := fx.service.ApplyPayment(context.Background(), account,
		decimal.Zero, time.Now(), "", "", 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = fx.service.ApplyPayment(context.Background(), account,
		decimal.RequireFromString("-50.00"), time.Now(), "", "", 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedgerService_ApplyPayment_UnknownAccount(t *testing.T) {
	fx := newLedgerFixture(t)
	_, err := fx.service.ApplyPayment(context.Background(), 999,
		decimal.RequireFromString("100.00"), time.Now(), "", "", 1, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerService_ReversePayment_PartialTakesNewestFirst(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	payment := fx.pay(t, account, "2500.00")

	amount := decimal.RequireFromString("800.00")
	result, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, &amount, "keyed against wrong student", 1, "", "")
	require.NoError(t, err)

	assert.True(t, result.ReversedAmount.Equal(amount))
	assert.Equal(t, models.TransactionStatusPartiallyReversed, result.Transaction.Status)

	// June's 500 goes first, then 300 out of May.
	require.Len(t, result.AffectedObligations, 2)
	assert.Equal(t, 6, result.AffectedObligations[0].Month)
	assert.True(t, result.AffectedObligations[0].AmountPaid.IsZero())
	assert.Equal(t, 5, result.AffectedObligations[1].Month)
	assert.True(t, result.AffectedObligations[1].AmountPaid.Equal(decimal.RequireFromString("700.00")))

	summary, err := fx.service.GetSummary(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("1700.00")))
	assert.Equal(t, 1, summary.PaidMonths)
	assert.Equal(t, 1, summary.PartialMonths)
}

func TestLedgerService_ReversePayment_FullRestoresPrePaymentState(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	before, err := fx.service.GetSummary(context.Background(), account)
	require.NoError(t, err)

	payment := fx.pay(t, account, "2500.00")

	result, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, nil, "duplicate entry", 1, "", "")
	require.NoError(t, err)

	assert.True(t, result.ReversedAmount.Equal(decimal.RequireFromString("2500.00")))
	assert.Equal(t, models.TransactionStatusReversed, result.Transaction.Status)

	after, err := fx.service.GetSummary(context.Background(), account)
	require.NoError(t, err)
	assert.True(t, after.TotalPaid.Equal(before.TotalPaid))
	assert.True(t, after.TotalBalance.Equal(before.TotalBalance))
	assert.Equal(t, before.PaidMonths, after.PaidMonths)
	assert.Equal(t, before.PendingMonths, after.PendingMonths)
}

func TestLedgerService_ReversePayment_TwoPartialsReachFullReversal(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	payment := fx.pay(t, account, "2000.00")

	first := decimal.RequireFromString("500.00")
	_, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, &first, "partial correction", 1, "", "")
	require.NoError(t, err)

	result, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, nil, "remainder", 1, "", "")
	require.NoError(t, err)

	assert.True(t, result.ReversedAmount.Equal(decimal.RequireFromString("1500.00")))
	assert.Equal(t, models.TransactionStatusReversed, result.Transaction.Status)
	assert.True(t, result.Transaction.ReversedAmount.Equal(decimal.RequireFromString("2000.00")))
	assert.Len(t, fx.repo.reversals, 2)
}

func TestLedgerService_ReversePayment_ExceedingStandingAmount(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	payment := fx.pay(t, account, "2500.00")

	amount := decimal.RequireFromString("3000.00")
	_, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, &amount, "too much", 1, "", "")
	assert.ErrorIs(t, err, ErrInsufficientAllocatedAmount)
}

func TestLedgerService_ReversePayment_FullyReversedIsTerminal(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	payment := fx.pay(t, account, "1000.00")

	_, err := fx.service.ReversePayment(context.Background(), payment.Transaction.ID, nil, "wrong account", 1, "", "")
	require.NoError(t, err)

	_, err = fx.service.ReversePayment(context.Background(), payment.Transaction.ID, nil, "again", 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLedgerService_ReversePayment_UnknownTransaction(t *testing.T) {
	fx := newLedgerFixture(t)
	_, err := fx.service.ReversePayment(context.Background(), 999, nil, "missing", 1, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerService_GetSummary_UnknownAccount(t *testing.T) {
	fx := newLedgerFixture(t)
	_, err := fx.service.GetSummary(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerService_GetSummaryByStudent(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.enable(t)

	summary, err := fx.service.GetSummaryByStudent(context.Background(), 42, 7, models.CategoryFee)
	require.NoError(t, err)
	assert.Equal(t, uint(42), summary.StudentID)

	_, err = fx.service.GetSummaryByStudent(context.Background(), 42, 7, models.CategoryTransport)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerService_Transactions_ListsHistory(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	fx.pay(t, account, "1000.00")
	fx.pay(t, account, "300.00")

	txns, err := fx.service.Transactions(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.NotEmpty(t, txns[0].ReceiptNumber)
	assert.NotEqual(t, txns[0].ReceiptNumber, txns[1].ReceiptNumber)
}

func TestLedgerService_EnableForStudents_CollectsPerStudentOutcomes(t *testing.T) {
	fx := newLedgerFixture(t)
	studentRepo := fx.service.studentRepo.(*mockStudentRepo)
	studentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Student, error) {
		if id == 13 {
			return nil, gorm.ErrRecordNotFound
		}
		return &models.Student{ID: id, ClassID: 5}, nil
	}

	outcomes := fx.service.EnableForStudents(context.Background(), []uint{42, 13, 44}, 7, models.CategoryFee, 4, 2026, 1, "", "")

	require.Len(t, outcomes, 3)
	assert.NotNil(t, outcomes[0].Result)
	assert.True(t, outcomes[0].Result.Created)
	assert.Empty(t, outcomes[0].Error)
	assert.Nil(t, outcomes[1].Result)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.NotNil(t, outcomes[2].Result)
	assert.Len(t, fx.repo.accounts, 2)
}

func TestLedgerService_AccountSummaries(t *testing.T) {
	fx := newLedgerFixture(t)
	account := fx.enable(t).Summary.AccountID
	fx.pay(t, account, "3000.00")

	summaries, accounts, err := fx.service.AccountSummaries(context.Background(), 7, models.CategoryFee)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Len(t, accounts, 1)
	assert.True(t, summaries[0].TotalPaid.Equal(decimal.RequireFromString("3000.00")))
	assert.InDelta(t, 25.0, summaries[0].CollectionPercentage, 0.01)
}
