// Package compose builds outbound message texts from lookup tables keyed by
// trend and risk level, so every tagged variant can be covered by tests.
package compose

import (
	"fmt"
	"strings"

	"backend/internal/models"
)

var slotGreetings = map[models.NotificationType]string{
	models.NotificationMorning:   "Buenos días ☀️",
	models.NotificationAfternoon: "Buenas tardes 🌤️",
	models.NotificationEvening:   "Buenas noches 🌙",
}

var trendMessages = map[models.Trend]string{
	models.TrendImproving: "Se nota tu avance estos días. Sigue cuidando de ti, vas por buen camino.",
	models.TrendStable:    "¿Cómo te sientes hoy? Recuerda que aquí estoy para escucharte.",
	models.TrendDeclining: "He notado que estos días han sido pesados. ¿Quieres contarme cómo estás?",
	models.TrendCrisis:    "Estoy aquí contigo. No tienes que pasar por esto en soledad.",
}

// Routine composes a check-in for a scheduling slot from the user's current
// profile snapshot. A nil profile (user never wrote anything) falls back to
// the stable-trend message.
func Routine(slot models.NotificationType, profile *models.EmotionalProfile) string {
	greeting, ok := slotGreetings[slot]
	if !ok {
		greeting = "Hola 👋"
	}

	trend := models.TrendStable
	if profile != nil {
		trend = profile.RecentTrend
	}
	body, ok := trendMessages[trend]
	if !ok {
		body = trendMessages[models.TrendStable]
	}

	return greeting + "\n\n" + body
}

// Crisis composes the alert text delivered to the user's channels: the
// immediate-action line followed by the ordered resource list.
func Crisis(alert *models.CrisisAlert, action string, resources []models.EmergencyResource) string {
	var b strings.Builder
	b.WriteString("🆘 ")
	b.WriteString(action)
	b.WriteString("\n")
	for _, res := range resources {
		b.WriteString(fmt.Sprintf("\n%d. %s — %s", res.Priority, res.Name, res.Contact))
	}
	return b.String()
}
