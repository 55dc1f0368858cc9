package models

import "github.com/shopspring/decimal"

// Status is the lifecycle state of an invoice as declared by the issuer.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Incidence tells whether the ISS is due to the home municipality or elsewhere.
type Incidence string

const (
	IncidenceLocal   Incidence = "LOCAL"
	IncidenceForeign Incidence = "FOREIGN"
)

type InvoiceRecord struct {
	// Core identifiers
	ID     string `json:"id" yaml:"id"`         // Generated per parse, used for list keying only
	Number string `json:"number" yaml:"number"` // Numero, kept as issued

	// Dates
	IssueDate string `json:"issue_date" yaml:"issue_date"` // DataEmissao, raw

	// Amounts
	GrossServiceValue decimal.Decimal `json:"gross_service_value" yaml:"gross_service_value"` // ValorServicos
	TaxValue          decimal.Decimal `json:"tax_value" yaml:"tax_value"`                     // ValorIss
	DeductionsValue   decimal.Decimal `json:"deductions_value" yaml:"deductions_value"`       // ValorDeducoes

	// Parties
	ProviderName string `json:"provider_name" yaml:"provider_name"` // RazaoSocial

	// Classification
	IncidenceMunicipalityCode string    `json:"incidence_municipality_code" yaml:"incidence_municipality_code"`
	Incidence                 Incidence `json:"incidence" yaml:"incidence"`
	Status                    Status    `json:"status" yaml:"status"`

	// Traceability
	SourceFileName string `json:"source_file_name" yaml:"source_file_name"`
}

// IsCancelled reports whether the invoice was cancelled by the issuer.
func (r InvoiceRecord) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// IsLocal reports whether the ISS is due to the home municipality.
func (r InvoiceRecord) IsLocal() bool {
	return r.Incidence == IncidenceLocal
}

// SummaryStatistics aggregates a record collection. Monetary sums cover active
// invoices only; the counts cover every record.
type SummaryStatistics struct {
	TotalGrossValue   decimal.Decimal `json:"total_gross_value" yaml:"total_gross_value"`
	TotalTax          decimal.Decimal `json:"total_tax" yaml:"total_tax"`
	TotalDeductions   decimal.Decimal `json:"total_deductions" yaml:"total_deductions"`
	LocalGrossValue   decimal.Decimal `json:"local_gross_value" yaml:"local_gross_value"`
	LocalTax          decimal.Decimal `json:"local_tax" yaml:"local_tax"`
	ForeignGrossValue decimal.Decimal `json:"foreign_gross_value" yaml:"foreign_gross_value"`
	ForeignTax        decimal.Decimal `json:"foreign_tax" yaml:"foreign_tax"`
	RecordCount       int             `json:"record_count" yaml:"record_count"`
	CancelledCount    int             `json:"cancelled_count" yaml:"cancelled_count"`
}

// ActiveCount returns the number of invoices that were not cancelled.
func (s SummaryStatistics) ActiveCount() int {
	return s.RecordCount - s.CancelledCount
}
