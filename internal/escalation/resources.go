package escalation

import (
	"sort"

	"backend/internal/models"
)

// emergencyServicesName marks the entry held back from high-risk (non-crisis)
// alerts.
const emergencyServicesName = "911 Servicios de Emergencia"

var emergencyResources = []models.EmergencyResource{
	{Name: emergencyServicesName, Contact: "911", Priority: 1},
	{Name: "Línea de la Vida", Contact: "800-911-2000", Priority: 2},
	{Name: "SAPTEL", Contact: "55 5259-8121", Priority: 3},
	{Name: "Consejería pastoral", Contact: "/hablar en el chat", Priority: 4},
}

var immediateActions = map[models.RiskLevel]string{
	models.RiskCrisis: "No estás solo. Por favor contacta ahora mismo a uno de estos recursos de ayuda; si estás en peligro inmediato llama al 911.",
	models.RiskHigh:   "Lo que sientes importa. Estos recursos pueden acompañarte hoy; considera hablar con alguien de confianza.",
}

// ResourcesFor returns the ordered emergency-resource list for a risk level.
// Crisis gets the full table sorted by ascending priority; high gets the
// same list without the emergency-services entry.
func ResourcesFor(risk models.RiskLevel) []models.EmergencyResource {
	out := make([]models.EmergencyResource, 0, len(emergencyResources))
	for _, res := range emergencyResources {
		if risk != models.RiskCrisis && res.Name == emergencyServicesName {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// ImmediateActionFor returns the action text shown at the top of an alert.
func ImmediateActionFor(risk models.RiskLevel) string {
	return immediateActions[risk]
}
