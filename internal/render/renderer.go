// Package render produces invoice documents. Renderers are handed the
// fully resolved invoice data and write the document into invoice
// storage, returning the stored relative path.
package render

import (
	"context"
	"fmt"
	"regexp"

	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/storage"
)

// Renderer turns an invoice into a stored document
type Renderer interface {
	Render(ctx context.Context, doc *models.InvoiceDocument) (string, error)
}

// New returns the renderer selected by configuration
func New(cfg *config.Config, store *storage.LocalStorage) (Renderer, error) {
	switch cfg.InvoiceRenderer {
	case config.RendererPDF, "":
		return NewPDFRenderer(store), nil
	case config.RendererHTML:
		return NewHTMLRenderer(store)
	default:
		return nil, fmt.Errorf("unknown invoice renderer %q", cfg.InvoiceRenderer)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileName is the stored name of an invoice document
func FileName(invoiceNumber string) string {
	return "invoice_" + unsafeName.ReplaceAllString(invoiceNumber, "_") + ".pdf"
}

var methodLabels = map[string]string{
	models.InvoiceMethodCash:        "Cash",
	models.InvoiceMethodInstallment: "Installments",
}

var statusLabels = map[string]string{
	models.InvoiceStatusPaid:        "Paid",
	models.InvoiceStatusUnpaid:      "Unpaid",
	models.InvoiceStatusInstallment: "Installment",
}

func label(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}
