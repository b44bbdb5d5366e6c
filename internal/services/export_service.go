package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportService produces downloadable collection reports.
type ExportService struct {
	ledgerSvc *LedgerService
}

func NewExportService(ledgerSvc *LedgerService) *ExportService {
	return &ExportService{ledgerSvc: ledgerSvc}
}

// defaulterRow is one account with an outstanding balance.
type defaulterRow struct {
	AdmissionNo   string
	StudentName   string
	ClassName     string
	TotalDue      string
	TotalPaid     string
	Balance       string
	OverdueMonths int
}

func (s *ExportService) defaulters(ctx context.Context, sessionID uint, category string) ([]defaulterRow, error) {
	summaries, accounts, err := s.ledgerSvc.AccountSummaries(ctx, sessionID, category)
	if err != nil {
		return nil, err
	}

	var rows []defaulterRow
	for i := range summaries {
		sum := &summaries[i]
		if !sum.TotalBalance.IsPositive() {
			continue
		}
		row := defaulterRow{
			TotalDue:      sum.TotalDue.StringFixed(2),
			TotalPaid:     sum.TotalPaid.StringFixed(2),
			Balance:       sum.TotalBalance.StringFixed(2),
			OverdueMonths: sum.OverdueMonths,
		}
		if student := accounts[i].Student; student != nil {
			row.AdmissionNo = student.AdmissionNo
			row.StudentName = student.FullName()
			if student.Class != nil {
				row.ClassName = student.Class.Name
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportDefaultersCSV lists every account with an outstanding balance.
func (s *ExportService) ExportDefaultersCSV(ctx context.Context, sessionID uint, category string) ([]byte, string, error) {
	rows, err := s.defaulters(ctx, sessionID, category)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Defaulters Report", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Admission No", "Student", "Class", "Total Due", "Total Paid", "Balance", "Overdue Months"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.AdmissionNo, row.StudentName, row.ClassName,
			row.TotalDue, row.TotalPaid, row.Balance,
			fmt.Sprintf("%d", row.OverdueMonths),
		})
	}
	writer.Flush()

	filename := fmt.Sprintf("defaulters_%s_%s.csv", category, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportDefaultersXLSX renders the defaulters report as a spreadsheet.
func (s *ExportService) ExportDefaultersXLSX(ctx context.Context, sessionID uint, category string) ([]byte, string, error) {
	rows, err := s.defaulters(ctx, sessionID, category)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Defaulters"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Admission No", "Student", "Class", "Total Due", "Total Paid", "Balance", "Overdue Months"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range rows {
		values := []interface{}{
			row.AdmissionNo, row.StudentName, row.ClassName,
			row.TotalDue, row.TotalPaid, row.Balance, row.OverdueMonths,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "G", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("defaulters_%s_%s.xlsx", category, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportCollectionXLSX summarizes collection progress for every account in a
// session, settled or not.
func (s *ExportService) ExportCollectionXLSX(ctx context.Context, sessionID uint, category string) ([]byte, string, error) {
	summaries, accounts, err := s.ledgerSvc.AccountSummaries(ctx, sessionID, category)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Collection"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Admission No", "Student", "Total Due", "Total Paid", "Collection %", "Paid Months", "Partial Months", "Pending Months"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r := range summaries {
		sum := &summaries[r]
		admissionNo, name := "", ""
		if student := accounts[r].Student; student != nil {
			admissionNo = student.AdmissionNo
			name = student.FullName()
		}
		values := []interface{}{
			admissionNo, name,
			sum.TotalDue.StringFixed(2), sum.TotalPaid.StringFixed(2),
			sum.CollectionPercentage,
			sum.PaidMonths, sum.PartialMonths, sum.PendingMonths,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collection_%s_%s.xlsx", category, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
