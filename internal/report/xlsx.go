package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fiscampos/pkg/models"
)

// Workbook sheet names
const (
	SheetInvoices = "Notas"
	SheetSummary  = "Resumo"
)

var workbookHeaders = []string{
	"Número", "Data Emissão", "Prestador", "Valor Serviços", "Valor Deduções", "Valor ISS",
	"Município Incidência", "Incidência", "Status", "Arquivo",
}

// WriteWorkbook writes an XLSX workbook with one row per record plus a summary sheet.
func WriteWorkbook(w io.Writer, records []models.InvoiceRecord, stats models.SummaryStatistics, homeName string) error {
	const op = "WriteWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// Built-in format 4 is "#,##0.00".
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i, h := range workbookHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetInvoices, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(workbookHeaders), 1)
	_ = f.SetCellStyle(SheetInvoices, "A1", lastHeader, headerStyle)

	row := 2
	for _, rec := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetInvoices, cell, v)
		}

		write(1, rec.Number)
		write(2, rec.IssueDate)
		write(3, rec.ProviderName)
		write(4, rec.GrossServiceValue.InexactFloat64())
		write(5, rec.DeductionsValue.InexactFloat64())
		write(6, rec.TaxValue.InexactFloat64())
		write(7, rec.IncidenceMunicipalityCode)
		write(8, IncidenceLabel(rec.Incidence))
		write(9, StatusLabel(rec.Status))
		write(10, rec.SourceFileName)
		row++
	}
	if len(records) > 0 {
		_ = f.SetCellStyle(SheetInvoices, "D2", fmt.Sprintf("F%d", row-1), moneyStyle)
	}

	_ = f.SetColWidth(SheetInvoices, "A", "B", 14)
	_ = f.SetColWidth(SheetInvoices, "C", "C", 40)
	_ = f.SetColWidth(SheetInvoices, "D", "F", 16)
	_ = f.SetColWidth(SheetInvoices, "G", "I", 14)
	_ = f.SetColWidth(SheetInvoices, "J", "J", 40)

	summary := [][]any{
		{"Indicador", "Valor"},
		{"Serviços (Bruto)", stats.TotalGrossValue.InexactFloat64()},
		{"Deduções", stats.TotalDeductions.InexactFloat64()},
		{"Total ISS", stats.TotalTax.InexactFloat64()},
		{"Dentro de " + homeName, stats.LocalGrossValue.InexactFloat64()},
		{"ISS Dentro de " + homeName, stats.LocalTax.InexactFloat64()},
		{"Fora de " + homeName, stats.ForeignGrossValue.InexactFloat64()},
		{"ISS Fora de " + homeName, stats.ForeignTax.InexactFloat64()},
		{"Notas", stats.RecordCount},
		{"Canceladas", stats.CancelledCount},
		{"Válidas", stats.ActiveCount()},
	}
	for i, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	_ = f.SetCellStyle(SheetSummary, "A1", "B1", headerStyle)
	_ = f.SetCellStyle(SheetSummary, "B2", "B8", moneyStyle)
	_ = f.SetColWidth(SheetSummary, "A", "A", 36)
	_ = f.SetColWidth(SheetSummary, "B", "B", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: xlsx write: %w", op, err)
	}
	return nil
}
