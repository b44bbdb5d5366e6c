package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
)

// ReportService renders printable documents: account statements and
// payment receipts.
type ReportService struct {
	ledgerSvc   *LedgerService
	studentRepo repository.StudentRepository
}

func NewReportService(ledgerSvc *LedgerService, studentRepo repository.StudentRepository) *ReportService {
	return &ReportService{ledgerSvc: ledgerSvc, studentRepo: studentRepo}
}

var monthNames = [...]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

func monthLabel(month, year int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%d/%d", month, year)
	}
	return fmt.Sprintf("%s %d", monthNames[month], year)
}

// Helper to generate PDF from HTML template
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		// Path relative to the package, for tests.
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}

// GenerateStatementPDF renders a month-by-month statement for one account.
func (s *ReportService) GenerateStatementPDF(ctx context.Context, accountID uint) (*bytes.Buffer, error) {
	summary, err := s.ledgerSvc.GetSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	student, err := s.studentRepo.FindByID(ctx, summary.StudentID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	type monthRow struct {
		Month      string
		AmountDue  string
		AmountPaid string
		Balance    string
		Status     string
	}

	type statementData struct {
		StudentName   string
		AdmissionNo   string
		Category      string
		Date          string
		TotalDue      string
		TotalPaid     string
		TotalBalance  string
		CollectionPct string
		Months        []monthRow
	}

	data := statementData{
		StudentName:   student.FullName(),
		AdmissionNo:   student.AdmissionNo,
		Category:      summary.Category,
		Date:          time.Now().Format("02/01/2006"),
		TotalDue:      summary.TotalDue.StringFixed(2),
		TotalPaid:     summary.TotalPaid.StringFixed(2),
		TotalBalance:  summary.TotalBalance.StringFixed(2),
		CollectionPct: fmt.Sprintf("%.2f", summary.CollectionPercentage),
	}
	for _, month := range summary.Months {
		status := month.Status
		if month.Overdue {
			status += " (overdue)"
		}
		data.Months = append(data.Months, monthRow{
			Month:      monthLabel(month.Month, month.Year),
			AmountDue:  month.AmountDue.StringFixed(2),
			AmountPaid: month.AmountPaid.StringFixed(2),
			Balance:    month.Balance.StringFixed(2),
			Status:     status,
		})
	}

	return s.generatePDF("account_statement.html", data)
}

// GenerateReceiptPDF renders a receipt for one payment transaction.
func (s *ReportService) GenerateReceiptPDF(ctx context.Context, transactionID uint) ([]byte, string, error) {
	txn, err := s.ledgerSvc.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, "", err
	}
	summary, err := s.ledgerSvc.GetSummary(ctx, txn.AccountID)
	if err != nil {
		return nil, "", err
	}
	student, err := s.studentRepo.FindByID(ctx, summary.StudentID)
	if err != nil {
		return nil, "", mapNotFound(err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Receipt No:")
	pdf.Cell(60, 8, txn.ReceiptNumber)
	pdf.Ln(6)
	pdf.Cell(60, 8, "Date:")
	pdf.Cell(60, 8, txn.PaymentDate.Format("02/01/2006"))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Student:")
	pdf.Cell(60, 8, fmt.Sprintf("%s (%s)", student.FullName(), student.AdmissionNo))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Category:")
	pdf.Cell(60, 8, summary.Category)
	pdf.Ln(6)
	pdf.Cell(60, 8, "Method:")
	pdf.Cell(60, 8, txn.Method)
	pdf.Ln(6)
	if txn.Reference != "" {
		pdf.Cell(60, 8, "Reference:")
		pdf.Cell(60, 8, txn.Reference)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(60, 8, "Amount:")
	pdf.Cell(60, 8, txn.Amount.StringFixed(2))
	pdf.Ln(8)

	if len(txn.Allocations) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(40, 8, "Applied to")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		for i := range txn.Allocations {
			alloc := &txn.Allocations[i]
			label := fmt.Sprintf("#%d", alloc.ObligationID)
			if alloc.Obligation != nil {
				label = monthLabel(alloc.Obligation.Month, alloc.Obligation.Year)
			}
			pdf.Cell(60, 6, label)
			pdf.Cell(40, 6, alloc.Amount.StringFixed(2))
			pdf.Ln(5)
		}
	}

	if txn.Status != models.TransactionStatusRecorded {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(80, 8, fmt.Sprintf("Status: %s (%s reversed)", txn.Status, txn.ReversedAmount.StringFixed(2)))
		pdf.SetTextColor(0, 0, 0)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("receipt_%s.pdf", txn.ReceiptNumber)
	return out.Bytes(), filename, nil
}
