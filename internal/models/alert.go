package models

import (
	"fmt"
	"time"
)

// AlertStatus is the crisis alert state machine:
// pending -> sent -> acknowledged -> resolved. Never regresses.
type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertSent         AlertStatus = "sent"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

var alertStatusRank = map[AlertStatus]int{
	AlertPending:      0,
	AlertSent:         1,
	AlertAcknowledged: 2,
	AlertResolved:     3,
}

// CanTransitionTo reports whether moving to next is a forward step.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	cur, ok := alertStatusRank[s]
	nxt, ok2 := alertStatusRank[next]
	return ok && ok2 && nxt > cur
}

// ChannelOutcome is the per-channel delivery outcome of one dispatch attempt.
type ChannelOutcome string

const (
	OutcomeSent   ChannelOutcome = "sent"
	OutcomeFailed ChannelOutcome = "failed"
)

// ChannelAttempt records one delivery attempt on one channel.
type ChannelAttempt struct {
	Channel string         `json:"channel"`
	Outcome ChannelOutcome `json:"outcome"`
	Error   string         `json:"error,omitempty"`
	At      time.Time      `json:"at"`
}

// CrisisAlert is one escalation episode, stored in 'crisis_alerts'.
type CrisisAlert struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"user_id"`
	RiskLevel         RiskLevel        `db:"risk_level" json:"risk_level"` // high or crisis
	TriggerEvidence   []string         `db:"-" json:"trigger_evidence,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	ChannelsAttempted []ChannelAttempt `db:"-" json:"channels_attempted,omitempty"`
	Status            AlertStatus      `db:"status" json:"status"`
}

// NewAlertID derives a stable alert id from the user and creation instant.
func NewAlertID(userID string, createdAt time.Time) string {
	return fmt.Sprintf("crisis-%s-%d", userID, createdAt.UnixMilli())
}

// DispatchResult lists the outcome of one fan-out over all configured channels.
type DispatchResult struct {
	AlertID  string           `json:"alert_id,omitempty"`
	Attempts []ChannelAttempt `json:"attempts"`
}

// Delivered reports whether at least one channel succeeded.
func (r DispatchResult) Delivered() bool {
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeSent {
			return true
		}
	}
	return false
}
