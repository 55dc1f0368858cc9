package nfse

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fiscampos/internal/logger"
	"fiscampos/pkg/models"
)

// Typical municipal ISS rates lie between 2% and 5% of the service value.
var (
	MinISSRate = decimal.NewFromFloat(0.02)
	MaxISSRate = decimal.NewFromFloat(0.05)
)

// AmountValidation flags suspicious amounts on an imported record.
// Warnings never reject a record.
type AmountValidation struct {
	log zerolog.Logger
}

// NewAmountValidation creates a new amount validation service
func NewAmountValidation() *AmountValidation {
	return &AmountValidation{
		log: logger.WithComponent("amount-validation"),
	}
}

// CheckAmounts returns the warnings for a record, or nil when nothing looks off.
// Cancelled records are not checked.
func (av *AmountValidation) CheckAmounts(record models.InvoiceRecord) []string {
	if record.IsCancelled() {
		return nil
	}

	var warnings []string
	gross := record.GrossServiceValue

	if gross.IsZero() {
		warnings = append(warnings, "active invoice with zero service value")
	}

	if record.DeductionsValue.GreaterThan(gross) {
		warnings = append(warnings, fmt.Sprintf("deductions (%s) exceed service value (%s)",
			record.DeductionsValue.StringFixed(2), gross.StringFixed(2)))
	}

	if record.TaxValue.GreaterThan(gross) {
		warnings = append(warnings, fmt.Sprintf("ISS (%s) exceeds service value (%s)",
			record.TaxValue.StringFixed(2), gross.StringFixed(2)))
	} else if gross.IsPositive() && record.TaxValue.IsPositive() {
		rate := record.TaxValue.Div(gross)
		if rate.LessThan(MinISSRate) || rate.GreaterThan(MaxISSRate) {
			warnings = append(warnings, fmt.Sprintf("ISS rate %s%% outside the usual 2%%-5%% range",
				rate.Mul(decimal.NewFromInt(100)).StringFixed(2)))
		}
	}

	if len(warnings) > 0 {
		av.log.Debug().
			Str("file", record.SourceFileName).
			Str("number", record.Number).
			Strs("warnings", warnings).
			Msg("Amount validation completed")
	}

	return warnings
}
