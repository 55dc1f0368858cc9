package nfse

import (
	"github.com/shopspring/decimal"

	"fiscampos/pkg/models"
)

// Aggregate folds records into summary statistics.
//
// Cancelled invoices are counted but add nothing to the monetary sums. Active
// invoices fall into exactly one of the local and foreign buckets.
func Aggregate(records []models.InvoiceRecord) models.SummaryStatistics {
	stats := models.SummaryStatistics{
		TotalGrossValue:   decimal.Zero,
		TotalTax:          decimal.Zero,
		TotalDeductions:   decimal.Zero,
		LocalGrossValue:   decimal.Zero,
		LocalTax:          decimal.Zero,
		ForeignGrossValue: decimal.Zero,
		ForeignTax:        decimal.Zero,
	}

	for _, record := range records {
		stats.RecordCount++
		if record.IsCancelled() {
			stats.CancelledCount++
			continue
		}

		stats.TotalGrossValue = stats.TotalGrossValue.Add(record.GrossServiceValue)
		stats.TotalTax = stats.TotalTax.Add(record.TaxValue)
		stats.TotalDeductions = stats.TotalDeductions.Add(record.DeductionsValue)

		if record.IsLocal() {
			stats.LocalGrossValue = stats.LocalGrossValue.Add(record.GrossServiceValue)
			stats.LocalTax = stats.LocalTax.Add(record.TaxValue)
		} else {
			stats.ForeignGrossValue = stats.ForeignGrossValue.Add(record.GrossServiceValue)
			stats.ForeignTax = stats.ForeignTax.Add(record.TaxValue)
		}
	}

	return stats
}
