// internal/domain/order/export.go
package order

import (
	"context"
	"fmt"
	"io"

	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"Número", "Fecha", "Cliente", "Email", "Teléfono", "Ciudad", "Provincia",
	"Subtotal", "Envío", "Total", "Estado", "Estado pago", "Método pago",
}

// ExportXLSX writes every order, optionally filtered by status, as a spreadsheet
func (s *Service) ExportXLSX(ctx context.Context, status Status, w io.Writer) error {
	if status != "" && !status.Valid() {
		return apperror.InvalidRequest("Estado inválido")
	}

	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []Order
	if err := query.Find(&orders).Error; err != nil {
		return fmt.Errorf("failed to load orders for export: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Ordenes")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.Number)
		row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(o.CustomerName)
		row.AddCell().SetString(o.CustomerEmail)
		row.AddCell().SetString(o.CustomerPhone)
		row.AddCell().SetString(o.City)
		row.AddCell().SetString(o.Province)
		row.AddCell().SetInt64(o.Subtotal)
		row.AddCell().SetInt64(o.ShippingCost)
		row.AddCell().SetInt64(o.Total)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(string(o.PaymentStatus))
		row.AddCell().SetString(o.PaymentMethod)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
