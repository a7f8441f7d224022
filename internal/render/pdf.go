package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/storage"
)

// PDFRenderer draws invoices natively with gofpdf
type PDFRenderer struct {
	store *storage.LocalStorage
}

func NewPDFRenderer(store *storage.LocalStorage) *PDFRenderer {
	return &PDFRenderer{store: store}
}

func (r *PDFRenderer) Render(ctx context.Context, doc *models.InvoiceDocument) (string, error) {
	data, err := r.Bytes(doc)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.store.Save(FileName(doc.InvoiceNumber), data)
}

// Bytes lays out the invoice and returns the PDF
func (r *PDFRenderer) Bytes(doc *models.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.CompanyName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Sales invoice", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(40, 7, "Invoice number:")
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(60, 7, doc.InvoiceNumber)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(25, 7, "Date:")
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 7, doc.InvoiceDate.String())
	pdf.Ln(12)

	section(pdf, "Client")
	row(pdf, tr, "Name", doc.ClientName)
	row(pdf, tr, "Phone", doc.ClientPhone)
	row(pdf, tr, "Address", doc.ClientAddress)
	pdf.Ln(4)

	section(pdf, "Vehicle")
	row(pdf, tr, "Vehicle", doc.CarName)
	if doc.CarYear > 0 {
		row(pdf, tr, "Year", fmt.Sprintf("%d", doc.CarYear))
	}
	row(pdf, tr, "Chassis", doc.Chassis)
	row(pdf, tr, "Engine", doc.Engine)
	pdf.Ln(4)

	section(pdf, "Payment")
	row(pdf, tr, "Method", label(methodLabels, doc.PaymentMethod))
	row(pdf, tr, "Status", label(statusLabels, doc.PaymentStatus))
	if doc.Notes != "" {
		row(pdf, tr, "Notes", doc.Notes)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(130, 10, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(0, 10, models.Money(doc.Amount), "T", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, AmountInWords(doc.Amount), "", 1, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, tr("Issued by "+doc.IssuedBy), "", 1, "L", false, 0, "")

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(224, 224, 224)
	pdf.CellFormat(0, 8, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, name, value string) {
	pdf.Cell(40, 7, name+":")
	pdf.MultiCell(0, 7, tr(value), "", "L", false)
}
