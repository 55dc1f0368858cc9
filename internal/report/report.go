// Package report renders imported invoices for people and for other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"fiscampos/internal/nfse"
	"fiscampos/pkg/models"
)

// Output formats accepted by Write
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// RecordView is an invoice with amounts fixed to two decimals.
type RecordView struct {
	Number                    string `json:"number" yaml:"number"`
	IssueDate                 string `json:"issue_date" yaml:"issue_date"`
	ProviderName              string `json:"provider_name" yaml:"provider_name"`
	GrossServiceValue         string `json:"gross_service_value" yaml:"gross_service_value"`
	DeductionsValue           string `json:"deductions_value" yaml:"deductions_value"`
	TaxValue                  string `json:"tax_value" yaml:"tax_value"`
	IncidenceMunicipalityCode string `json:"incidence_municipality_code" yaml:"incidence_municipality_code"`
	Incidence                 string `json:"incidence" yaml:"incidence"`
	Status                    string `json:"status" yaml:"status"`
	SourceFileName            string `json:"source_file_name" yaml:"source_file_name"`
}

// SummaryView mirrors SummaryStatistics with fixed-point amounts.
type SummaryView struct {
	TotalGrossValue   string `json:"total_gross_value" yaml:"total_gross_value"`
	TotalDeductions   string `json:"total_deductions" yaml:"total_deductions"`
	TotalTax          string `json:"total_tax" yaml:"total_tax"`
	LocalGrossValue   string `json:"local_gross_value" yaml:"local_gross_value"`
	LocalTax          string `json:"local_tax" yaml:"local_tax"`
	ForeignGrossValue string `json:"foreign_gross_value" yaml:"foreign_gross_value"`
	ForeignTax        string `json:"foreign_tax" yaml:"foreign_tax"`
	RecordCount       int    `json:"record_count" yaml:"record_count"`
	CancelledCount    int    `json:"cancelled_count" yaml:"cancelled_count"`
	ActiveCount       int    `json:"active_count" yaml:"active_count"`
}

// FailureView is an input that produced no record.
type FailureView struct {
	Source string `json:"source" yaml:"source"`
	Error  string `json:"error" yaml:"error"`
}

// Report is the structured output of an import.
type Report struct {
	GeneratedAt          time.Time     `json:"generated_at" yaml:"generated_at"`
	HomeMunicipalityCode string        `json:"home_municipality_code" yaml:"home_municipality_code"`
	Records              []RecordView  `json:"records" yaml:"records"`
	Summary              SummaryView   `json:"summary" yaml:"summary"`
	Failures             []FailureView `json:"failures" yaml:"failures"`
	Analysis             string        `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// NewReport builds a report. records are the displayed records; stats always
// cover the whole collection.
func NewReport(records []models.InvoiceRecord, stats models.SummaryStatistics, failures []nfse.Failure, homeCode string) *Report {
	r := &Report{
		GeneratedAt:          time.Now().UTC(),
		HomeMunicipalityCode: homeCode,
		Records:              make([]RecordView, 0, len(records)),
		Summary:              NewSummaryView(stats),
		Failures:             make([]FailureView, 0, len(failures)),
	}
	for _, rec := range records {
		r.Records = append(r.Records, NewRecordView(rec))
	}
	for _, f := range failures {
		r.Failures = append(r.Failures, FailureView{Source: f.Source, Error: f.Err.Error()})
	}
	return r
}

// NewRecordView converts a record for structured output.
func NewRecordView(rec models.InvoiceRecord) RecordView {
	return RecordView{
		Number:                    rec.Number,
		IssueDate:                 rec.IssueDate,
		ProviderName:              rec.ProviderName,
		GrossServiceValue:         rec.GrossServiceValue.StringFixed(2),
		DeductionsValue:           rec.DeductionsValue.StringFixed(2),
		TaxValue:                  rec.TaxValue.StringFixed(2),
		IncidenceMunicipalityCode: rec.IncidenceMunicipalityCode,
		Incidence:                 string(rec.Incidence),
		Status:                    string(rec.Status),
		SourceFileName:            rec.SourceFileName,
	}
}

// NewSummaryView converts statistics for structured output.
func NewSummaryView(stats models.SummaryStatistics) SummaryView {
	return SummaryView{
		TotalGrossValue:   stats.TotalGrossValue.StringFixed(2),
		TotalDeductions:   stats.TotalDeductions.StringFixed(2),
		TotalTax:          stats.TotalTax.StringFixed(2),
		LocalGrossValue:   stats.LocalGrossValue.StringFixed(2),
		LocalTax:          stats.LocalTax.StringFixed(2),
		ForeignGrossValue: stats.ForeignGrossValue.StringFixed(2),
		ForeignTax:        stats.ForeignTax.StringFixed(2),
		RecordCount:       stats.RecordCount,
		CancelledCount:    stats.CancelledCount,
		ActiveCount:       stats.ActiveCount(),
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return enc.Close()
}
