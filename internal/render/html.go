package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/storage"
)

//go:embed templates/invoice.html
var invoiceTemplate string

// HTMLRenderer fills an HTML template and converts it with wkhtmltopdf.
// The wkhtmltopdf binary must be installed on the host.
type HTMLRenderer struct {
	store *storage.LocalStorage
	tmpl  *template.Template
}

func NewHTMLRenderer(store *storage.LocalStorage) (*HTMLRenderer, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money":  models.Money,
		"words":  AmountInWords,
		"method": func(m string) string { return label(methodLabels, m) },
		"status": func(s string) string { return label(statusLabels, s) },
	}).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	return &HTMLRenderer{store: store, tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(ctx context.Context, doc *models.InvoiceDocument) (string, error) {
	html, err := r.HTML(doc)
	if err != nil {
		return "", err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return "", fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	pdfg.AddPage(wkhtmltopdf.NewPageReader(bytes.NewReader(html)))

	if err := pdfg.CreateContext(ctx); err != nil {
		return "", fmt.Errorf("failed to create pdf: %w", err)
	}
	return r.store.Save(FileName(doc.InvoiceNumber), pdfg.Bytes())
}

// HTML executes the invoice template
func (r *HTMLRenderer) HTML(doc *models.InvoiceDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to execute invoice template: %w", err)
	}
	return buf.Bytes(), nil
}
