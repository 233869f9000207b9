// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/order"
)

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": order.FormatAmount,
}).Parse(invoiceTemplate))

// Service handles PDF generation
type Service struct {
	config *config.Config
	now    func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	OrderDate     string
	Status        string
	Paid          bool
	Order         *order.Order
	Company       config.CompanyConfig
}

// GenerateInvoice renders the order invoice as a PDF. Requires the
// wkhtmltopdf binary on PATH.
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.generateHTML(s.invoiceData(o))
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Title.Set("Factura " + o.Number)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.Encoding.Set("UTF-8")
	page.FooterRight.Set("[page]/[topage]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) invoiceData(o *order.Order) InvoiceData {
	return InvoiceData{
		InvoiceNumber: "FAC-" + o.Number,
		InvoiceDate:   s.now().Format("02/01/2006"),
		OrderDate:     o.CreatedAt.Format("02/01/2006 15:04"),
		Status:        o.Status.Label(),
		Paid:          o.PaymentStatus == order.PaymentStatusPaid,
		Order:         o,
		Company:       s.config.Company,
	}
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Factura {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; overflow: hidden; }
        .company-info { float: left; width: 50%; }
        .invoice-info { float: right; width: 50%; text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .items-table .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row td { font-size: 18px; font-weight: bold; border-top: 2px solid #333; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .status-pending { background-color: #fef3c7; color: #92400e; }
        .footer { clear: both; margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Tel: {{.Company.Phone}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
            {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">FACTURA</div>
            <p><strong>Factura N°:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Fecha:</strong> {{.InvoiceDate}}</p>
            <p><strong>Orden:</strong> {{.Order.Number}}</p>
            <p><strong>Fecha de orden:</strong> {{.OrderDate}}</p>
            <p><strong>Estado:</strong> {{.Status}}</p>
            <p><span class="status-badge {{if .Paid}}status-paid{{else}}status-pending{{end}}">{{.Order.PaymentStatus}}</span></p>
        </div>
    </div>

    <div>
        <div class="section-title">Enviar a:</div>
        <p><strong>{{.Order.CustomerName}}</strong></p>
        <p>{{.Order.Address}}</p>
        <p>{{.Order.City}}, {{.Order.Province}}{{with .Order.PostalCode}} ({{.}}){{end}}</p>
        {{if .Order.CustomerPhone}}<p>Tel: {{.Order.CustomerPhone}}</p>{{end}}
        <p>Email: {{.Order.CustomerEmail}}</p>
        <p>Medio de pago: {{.Order.PaymentMethod}}</p>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Producto</th>
                <th>SKU</th>
                <th class="num">Cantidad</th>
                <th class="num">Precio</th>
                <th class="num">Subtotal</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td><strong>{{.ProductName}}</strong>{{if .VariantInfo}}<br><small>{{.VariantInfo}}</small>{{end}}</td>
                <td>{{.SKU}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .UnitPrice}}</td>
                <td class="num">{{money .Subtotal}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td>{{money .Order.Subtotal}}</td></tr>
            <tr><td>Envío:</td><td>{{if eq .Order.ShippingCost 0}}Gratis{{else}}{{money .Order.ShippingCost}}{{end}}</td></tr>
            <tr class="total-row"><td>Total:</td><td>{{money .Order.Total}}</td></tr>
        </table>
    </div>

    <div class="footer">
        <p>¡Gracias por tu compra!</p>
        {{if .Company.Email}}<p>Consultas sobre esta factura: {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
