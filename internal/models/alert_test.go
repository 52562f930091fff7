package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertStatusTransitionsOnlyForward(t *testing.T) {
	cases := []struct {
		from, to AlertStatus
		want     bool
	}{
		{AlertPending, AlertSent, true},
		{AlertPending, AlertAcknowledged, true},
		{AlertPending, AlertResolved, true},
		{AlertSent, AlertAcknowledged, true},
		{AlertSent, AlertResolved, true},
		{AlertAcknowledged, AlertResolved, true},

		{AlertSent, AlertPending, false},
		{AlertAcknowledged, AlertSent, false},
		{AlertResolved, AlertAcknowledged, false},
		{AlertResolved, AlertPending, false},
		{AlertPending, AlertPending, false},
		{AlertResolved, AlertResolved, false},
		{AlertStatus("bogus"), AlertSent, false},
		{AlertPending, AlertStatus("bogus"), false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestNewAlertIDIsDeterministic(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, NewAlertID("u1", at), NewAlertID("u1", at))
	assert.Equal(t, "crisis-u1-1741944413000", NewAlertID("u1", at))
	assert.NotEqual(t, NewAlertID("u1", at), NewAlertID("u2", at))
	assert.NotEqual(t, NewAlertID("u1", at), NewAlertID("u1", at.Add(time.Millisecond)))
}

func TestCrisisAlertJSONRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	alert := CrisisAlert{
		ID:              NewAlertID("u1", created),
		UserID:          "u1",
		RiskLevel:       RiskCrisis,
		TriggerEvidence: []string{"acabar con todo"},
		CreatedAt:       created,
		ChannelsAttempted: []ChannelAttempt{
			{Channel: "telegram", Outcome: OutcomeSent, At: created},
			{Channel: "webhook", Outcome: OutcomeFailed, Error: "timeout", At: created},
		},
		Status: AlertSent,
	}

	raw, err := json.Marshal(alert)
	require.NoError(t, err)

	var decoded CrisisAlert
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, alert.ID, decoded.ID)
	assert.Equal(t, AlertSent, decoded.Status)
	assert.Equal(t, alert.TriggerEvidence, decoded.TriggerEvidence)
	require.Len(t, decoded.ChannelsAttempted, 2)
	// Channel order is preserved, it reflects the configured fan-out order.
	assert.Equal(t, "telegram", decoded.ChannelsAttempted[0].Channel)
	assert.Equal(t, OutcomeSent, decoded.ChannelsAttempted[0].Outcome)
	assert.Equal(t, "webhook", decoded.ChannelsAttempted[1].Channel)
	assert.Equal(t, "timeout", decoded.ChannelsAttempted[1].Error)
}

func TestDispatchResultDelivered(t *testing.T) {
	assert.False(t, DispatchResult{}.Delivered())
	assert.False(t, DispatchResult{Attempts: []ChannelAttempt{
		{Channel: "telegram", Outcome: OutcomeFailed},
	}}.Delivered())
	assert.True(t, DispatchResult{Attempts: []ChannelAttempt{
		{Channel: "telegram", Outcome: OutcomeFailed},
		{Channel: "webhook", Outcome: OutcomeSent},
	}}.Delivered())
}
