package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/xuri/excelize/v2"
)

// Export format constants
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Content types of the export formats
var ContentTypes = map[string]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
}

// ExportService writes report tables and audit events to files
type ExportService struct {
	now func() time.Time
}

func NewExportService() *ExportService {
	return &ExportService{now: time.Now}
}

// Export renders a report in the requested format and names the file
func (s *ExportService) Export(report models.Tabular, kind, format string) ([]byte, string, error) {
	table := report.ToTable()
	filename := fmt.Sprintf("%s_report_%s.%s", kind, s.now().Format("2006-01-02"), format)

	var data []byte
	var err error
	switch format {
	case FormatCSV:
		data, err = s.TableCSV(table)
	case FormatXLSX:
		data, err = s.TableXLSX(table)
	case FormatPDF:
		data, err = s.TablePDF(table)
	default:
		return nil, "", invalid("format", "must be json, csv, xlsx or pdf")
	}
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

func (s *ExportService) TableCSV(table models.Table) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{table.Title, s.now().Format("2006-01-02 15:04")})
	_ = writer.Write(table.Columns)
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		_ = writer.Write(record)
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func (s *ExportService) TableXLSX(table models.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", table.Title)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for i, col := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, col)
	}
	if len(table.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(table.Columns))
		_ = f.SetCellStyle(sheet, "A3", last+"3", headerStyle)
		_ = f.SetColWidth(sheet, "A", last, 15)
	}

	for r, row := range table.Rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+4)
			_ = f.SetCellValue(sheet, cell, spreadsheetValue(value))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// spreadsheetValue keeps money strings numeric in the workbook
func spreadsheetValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func (s *ExportService) TablePDF(table models.Table) ([]byte, error) {
	orientation := "P"
	if len(table.Columns) > 5 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr(table.Title))
	pdf.Ln(12)

	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (width - left - right) / float64(max(len(table.Columns), 1))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for _, col := range table.Columns {
		pdf.CellFormat(colWidth, 7, tr(col), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for _, value := range row {
			pdf.CellFormat(colWidth, 6, tr(fmt.Sprint(value)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// AuditCSV writes audit events with one column per field
func (s *ExportService) AuditCSV(events []audit.Event) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Timestamp", "Actor ID", "Actor", "Event", "Description", "Outcome"})
	for _, e := range events {
		_ = writer.Write([]string{
			e.Time.Format("2006-01-02 15:04:05"),
			strconv.FormatUint(uint64(e.ActorID), 10),
			e.ActorName,
			e.Type,
			e.Description,
			string(e.Outcome),
		})
	}
	writer.Flush()

	filename := fmt.Sprintf("audit_log_%s.csv", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, writer.Error()
}
