package nfse

import "fiscampos/pkg/models"

// StatusCodeCancelled is the ABRASF status value of a cancelled invoice (1 = normal, 2 = cancelled).
const StatusCodeCancelled = "2"

// Classifier derives status and incidence from raw invoice fields.
type Classifier struct {
	// HomeMunicipalityCode is the IBGE code of the municipality whose ISS counts as local.
	HomeMunicipalityCode string
}

// NewClassifier creates a classifier for the given home municipality.
func NewClassifier(homeMunicipalityCode string) Classifier {
	return Classifier{HomeMunicipalityCode: homeMunicipalityCode}
}

// Classify returns the invoice status and incidence.
//
// Either the cancelled status code or the presence of a cancellation marker is
// enough to mark the invoice cancelled. Incidence is local only when the
// municipality code equals the home code exactly.
func (c Classifier) Classify(statusCode string, hasCancellation bool, municipalityCode string) (models.Status, models.Incidence) {
	status := models.StatusActive
	if statusCode == StatusCodeCancelled || hasCancellation {
		status = models.StatusCancelled
	}

	incidence := models.IncidenceForeign
	if municipalityCode == c.HomeMunicipalityCode {
		incidence = models.IncidenceLocal
	}

	return status, incidence
}
