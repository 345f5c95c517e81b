package receipt

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Receipts"

var exportHeader = []interface{}{
	"Receipt ID", "Filename", "Vendor", "Date", "Total Amount", "Tax Amount",
	"Confidence", "Status", "Upload Date", "Line Items Count",
}

// ExportReceipts serializes persisted receipts to an xlsx workbook with one
// row per receipt. Dates are calendar-date-only and confidence is rendered
// as a percentage string.
func ExportReceipts(receipts []*Receipt, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("deleting default sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range receipts {
		row := []interface{}{
			r.ID,
			r.Filename,
			r.VendorName,
			r.PurchaseDate,
			amountCell(r.TotalAmount),
			amountCell(r.TaxAmount),
			fmt.Sprintf("%.1f%%", r.Confidence*100),
			r.Status(),
			r.CreatedAt.Format("2006-01-02"),
			len(r.LineItems),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// amountCell renders an absent amount as 0, matching the export contract
func amountCell(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
