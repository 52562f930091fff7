package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/escalation"
	"backend/internal/models"
)

func TestRoutineCoversEverySlotAndTrend(t *testing.T) {
	trends := []models.Trend{
		models.TrendImproving,
		models.TrendStable,
		models.TrendDeclining,
		models.TrendCrisis,
	}

	seen := make(map[string]bool)
	for _, slot := range models.RoutineNotificationTypes {
		for _, trend := range trends {
			text := Routine(slot, &models.EmotionalProfile{RecentTrend: trend})
			require.NotEmpty(t, text)
			assert.Contains(t, text, "\n\n")
			seen[text] = true
		}
	}
	// Every slot/trend pair reads differently.
	assert.Len(t, seen, len(models.RoutineNotificationTypes)*len(trends))
}

func TestRoutineNilProfileFallsBackToStable(t *testing.T) {
	withNil := Routine(models.NotificationMorning, nil)
	withStable := Routine(models.NotificationMorning, &models.EmotionalProfile{RecentTrend: models.TrendStable})
	assert.Equal(t, withStable, withNil)
}

func TestRoutineUnknownTrendFallsBackToStable(t *testing.T) {
	text := Routine(models.NotificationEvening, &models.EmotionalProfile{RecentTrend: models.Trend("bogus")})
	assert.Equal(t, Routine(models.NotificationEvening, &models.EmotionalProfile{RecentTrend: models.TrendStable}), text)
}

func TestCrisisListsResourcesInOrder(t *testing.T) {
	alert := &models.CrisisAlert{
		ID:        models.NewAlertID("u1", time.Now()),
		UserID:    "u1",
		RiskLevel: models.RiskCrisis,
		Status:    models.AlertPending,
	}
	action := escalation.ImmediateActionFor(models.RiskCrisis)
	resources := escalation.ResourcesFor(models.RiskCrisis)
	require.NotEmpty(t, resources)

	text := Crisis(alert, action, resources)

	assert.True(t, strings.HasPrefix(text, "🆘 "+action))
	lastIdx := -1
	for _, res := range resources {
		idx := strings.Index(text, res.Name)
		require.GreaterOrEqualf(t, idx, 0, "resource %q missing", res.Name)
		assert.Contains(t, text, res.Contact)
		assert.Greater(t, idx, lastIdx)
		lastIdx = idx
	}
}
