package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"fiscampos/internal/brl"
	"fiscampos/pkg/models"
)

const maxProviderWidth = 40

var tableHeaders = []string{"Nota", "Data", "Prestador", "Valor Bruto", "Deduções", "ISS", "Incidência", "Status", "Arquivo"}

// RenderTable writes the invoice table. records should already be filtered for display.
func RenderTable(w io.Writer, records []models.InvoiceRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeaders)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, rec := range records {
		table.Append(tableRow(rec))
	}

	table.SetFooter([]string{fmt.Sprintf("%d notas", len(records)), "", "", "", "", "", "", "", ""})
	table.Render()
}

func tableRow(rec models.InvoiceRecord) []string {
	number := rec.Number
	if number == "" {
		number = "-"
	}
	return []string{
		number,
		brl.Date(rec.IssueDate),
		truncate(rec.ProviderName, maxProviderWidth),
		brl.Currency(rec.GrossServiceValue),
		brl.Currency(rec.DeductionsValue),
		brl.Currency(rec.TaxValue),
		IncidenceLabel(rec.Incidence),
		StatusLabel(rec.Status),
		rec.SourceFileName,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
