package models

import "time"

// RiskLevel is the output of the lexical classification of a single utterance.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	RiskCrisis RiskLevel = "crisis"
)

// Trend compares recent mood to the prior rolling average.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendCrisis    Trend = "crisis"
)

// CrisisRiskLevel is the aggregate risk tier derived from the rolling window.
type CrisisRiskLevel string

const (
	CrisisRiskLow      CrisisRiskLevel = "low"
	CrisisRiskMedium   CrisisRiskLevel = "medium"
	CrisisRiskHigh     CrisisRiskLevel = "high"
	CrisisRiskCritical CrisisRiskLevel = "critical"
)

// EventContext describes where an observation came from.
type EventContext string

const (
	ContextConversational EventContext = "conversational-message"
	ContextMoodLog        EventContext = "explicit-mood-log"
	ContextContentSearch  EventContext = "content-search"
	ContextExternalAlert  EventContext = "external-alert"
)

// EmotionalEvent is one classified observation. Immutable once created.
type EmotionalEvent struct {
	UserID        string       `json:"user_id"`
	Timestamp     time.Time    `json:"timestamp"`
	MoodScore     int          `json:"mood_score"` // 1-10
	Context       EventContext `json:"context"`
	RiskLevel     RiskLevel    `json:"risk_level"`
	EvidenceTerms []string     `json:"evidence_terms,omitempty"`
}

// EmotionalProfile is the durable per-user aggregate. Owned exclusively by
// the profile store; mutated only through Record.
type EmotionalProfile struct {
	UserID          string          `json:"user_id"`
	BaselineMood    int             `json:"baseline_mood"` // set from the first event, never recomputed
	RecentTrend     Trend           `json:"recent_trend"`
	CrisisRiskLevel CrisisRiskLevel `json:"crisis_risk_level"`
	Milestones      []string        `json:"milestones,omitempty"`
	LastAssessedAt  time.Time       `json:"last_assessed_at"`
}
