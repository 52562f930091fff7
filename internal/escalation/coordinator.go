// Package escalation decides whether a classified event opens a crisis
// alert. It is the only place that decides *whether* to alert; delivery
// belongs to the dispatcher.
package escalation

import (
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

// dedupWindow suppresses repeat alerts for the same user while an
// unresolved one exists, preventing alert storms from rapid messages.
const dedupWindow = 10 * time.Minute

// Action is the outcome kind of an escalation decision.
type Action string

const (
	ActionNone  Action = "none"
	ActionAlert Action = "alert"
)

// Decision is the result of evaluating one event.
type Decision struct {
	Action          Action
	Alert           *models.CrisisAlert
	ImmediateAction string
	Resources       []models.EmergencyResource
}

// Coordinator evaluates events against the escalation policy.
type Coordinator struct {
	alerts repository.AlertRepository
	logger *zap.Logger
	window time.Duration
	now    func() time.Time
}

func NewCoordinator(alerts repository.AlertRepository, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		alerts: alerts,
		logger: logger,
		window: dedupWindow,
		now:    time.Now,
	}
}

// Evaluate emits an alert decision only for high or crisis events; medium
// and low never escalate regardless of trend. A transient store failure
// degrades to no escalation rather than a false alert.
func (c *Coordinator) Evaluate(event models.EmotionalEvent, profile *models.EmotionalProfile) Decision {
	if event.RiskLevel != models.RiskHigh && event.RiskLevel != models.RiskCrisis {
		return Decision{Action: ActionNone}
	}

	now := c.now()

	unresolved, err := c.alerts.HasUnresolvedSince(event.UserID, now.Add(-c.window))
	if err != nil {
		c.logger.Error("Failed to check unresolved alerts, skipping escalation",
			zap.String("user_id", event.UserID), zap.Error(err))
		return Decision{Action: ActionNone}
	}
	if unresolved {
		c.logger.Info("Escalation suppressed by dedup window",
			zap.String("user_id", event.UserID),
			zap.String("risk_level", string(event.RiskLevel)))
		return Decision{Action: ActionNone}
	}

	alert := &models.CrisisAlert{
		ID:              models.NewAlertID(event.UserID, now),
		UserID:          event.UserID,
		RiskLevel:       event.RiskLevel,
		TriggerEvidence: append([]string(nil), event.EvidenceTerms...),
		CreatedAt:       now,
		Status:          models.AlertPending,
	}

	if err := c.alerts.Create(alert); err != nil {
		c.logger.Error("Failed to persist crisis alert, skipping escalation",
			zap.String("user_id", event.UserID), zap.Error(err))
		return Decision{Action: ActionNone}
	}

	c.logger.Warn("Crisis alert opened",
		zap.String("alert_id", alert.ID),
		zap.String("user_id", event.UserID),
		zap.String("risk_level", string(event.RiskLevel)),
		zap.Strings("evidence", alert.TriggerEvidence))

	return Decision{
		Action:          ActionAlert,
		Alert:           alert,
		ImmediateAction: ImmediateActionFor(event.RiskLevel),
		Resources:       ResourcesFor(event.RiskLevel),
	}
}
