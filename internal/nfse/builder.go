package nfse

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fiscampos/pkg/models"
)

// Builder turns raw fields into immutable invoice records.
type Builder struct {
	newID func() string
}

// NewBuilder creates a builder that assigns random UUIDs.
func NewBuilder() Builder {
	return Builder{newID: uuid.NewString}
}

// Build composes a record. It never fails: unparseable amounts become zero.
func (b Builder) Build(fields RawFields, status models.Status, incidence models.Incidence, sourceFileName string) models.InvoiceRecord {
	newID := b.newID
	if newID == nil {
		newID = uuid.NewString
	}

	return models.InvoiceRecord{
		ID:                        newID(),
		Number:                    fields.Number,
		IssueDate:                 fields.IssueDate,
		GrossServiceValue:         ParseAmount(fields.ServiceValue),
		TaxValue:                  ParseAmount(fields.TaxValue),
		DeductionsValue:           ParseAmount(fields.DeductionsValue),
		ProviderName:              fields.ProviderName,
		IncidenceMunicipalityCode: fields.IncidenceCode,
		Incidence:                 incidence,
		Status:                    status,
		SourceFileName:            sourceFileName,
	}
}

// ParseAmount parses a monetary value. Empty, non-numeric and negative text yields zero.
func ParseAmount(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(text)
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}
