package report

import "fiscampos/pkg/models"

// IncidenceLabel is the Portuguese label shown for an incidence.
func IncidenceLabel(incidence models.Incidence) string {
	if incidence == models.IncidenceLocal {
		return "Dentro"
	}
	return "Fora"
}

// StatusLabel is the Portuguese label shown for a status.
func StatusLabel(status models.Status) string {
	if status == models.StatusCancelled {
		return "Cancelada"
	}
	return "Ativa"
}
