// Package nfse extracts, classifies and aggregates municipal service invoices (NFS-e).
//
// Invoices arrive as XML documents, either directly or bundled in ZIP archives.
// Each well-formed document produces exactly one InvoiceRecord; a document that is
// not well-formed XML produces nothing and is reported as a failure. Missing
// fields are never an error: text fields default to "" and amounts to zero.
//
// Recognised fields (namespace-tolerant, case-sensitive):
//   - Numero, DataEmissao, RazaoSocial
//   - ValorServicos, ValorIss, ValorDeducoes
//   - MunicipioIncidencia (compared with the configured home municipality code)
//   - Status ("2" = cancelled) and the Cancelamento marker element
package nfse

import (
	"github.com/rs/zerolog"

	"fiscampos/internal/logger"
	"fiscampos/pkg/models"
)

// Parser turns one XML payload into one invoice record.
type Parser struct {
	classifier Classifier
	builder    Builder
	log        zerolog.Logger
}

// NewParser creates a parser classifying incidence against homeMunicipalityCode.
func NewParser(homeMunicipalityCode string) *Parser {
	return &Parser{
		classifier: NewClassifier(homeMunicipalityCode),
		builder:    NewBuilder(),
		log:        logger.WithComponent("nfse-parser"),
	}
}

// Parse extracts and classifies a single document. The only failure is a
// malformed document, in which case no record is produced.
func (p *Parser) Parse(raw []byte, sourceFileName string) (models.InvoiceRecord, error) {
	const op = "Parse"

	doc, err := ParseDocument(raw)
	if err != nil {
		return models.InvoiceRecord{}, WrapImportError(op, sourceFileName, err, "")
	}

	fields := ExtractFields(doc)
	status, incidence := p.classifier.Classify(fields.StatusCode, fields.HasCancellation, fields.IncidenceCode)
	record := p.builder.Build(fields, status, incidence, sourceFileName)

	p.log.Debug().
		Str("file", sourceFileName).
		Str("number", record.Number).
		Str("status", string(record.Status)).
		Str("incidence", string(record.Incidence)).
		Str("gross_value", record.GrossServiceValue.String()).
		Msg("Invoice parsed")

	return record, nil
}
