package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"backend/internal/models"
)

// AlertRepository persists crisis alerts in the 'crisis_alerts' table.
type AlertRepository interface {
	Create(alert *models.CrisisAlert) error
	GetByID(id string) (*models.CrisisAlert, error)
	// HasUnresolvedSince reports whether the user has a pending or sent
	// alert created at or after the given instant.
	HasUnresolvedSince(userID string, since time.Time) (bool, error)
	// UpdateStatus advances the alert state machine. Backward transitions
	// are rejected.
	UpdateStatus(id string, status models.AlertStatus) error
}

type alertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) AlertRepository {
	return &alertRepository{db: db, logger: logger}
}

func (r *alertRepository) Create(alert *models.CrisisAlert) error {
	query := `INSERT INTO crisis_alerts (id, user_id, risk_level, trigger_evidence, created_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(query, alert.ID, alert.UserID, alert.RiskLevel,
		pq.Array(alert.TriggerEvidence), alert.CreatedAt, alert.Status)
	if err != nil {
		r.logger.Error("Failed to insert crisis alert", zap.String("alert_id", alert.ID), zap.Error(err))
		return fmt.Errorf("failed to insert crisis alert: %w", err)
	}
	return nil
}

func (r *alertRepository) GetByID(id string) (*models.CrisisAlert, error) {
	alert := &models.CrisisAlert{}
	var evidence pq.StringArray
	query := `SELECT id, user_id, risk_level, trigger_evidence, created_at, status
	          FROM crisis_alerts WHERE id = $1`
	err := r.db.QueryRowx(query, id).Scan(&alert.ID, &alert.UserID, &alert.RiskLevel,
		&evidence, &alert.CreatedAt, &alert.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	alert.TriggerEvidence = []string(evidence)
	return alert, nil
}

func (r *alertRepository) HasUnresolvedSince(userID string, since time.Time) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM crisis_alerts
	          WHERE user_id = $1 AND created_at >= $2 AND status IN ('pending', 'sent')`
	if err := r.db.Get(&count, query, userID, since); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *alertRepository) UpdateStatus(id string, status models.AlertStatus) error {
	current, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("alert not found: %s", id)
	}
	if !current.Status.CanTransitionTo(status) {
		return fmt.Errorf("invalid alert status transition: %s -> %s", current.Status, status)
	}

	query := `UPDATE crisis_alerts SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.Exec(query, status, id, current.Status)
	if err != nil {
		r.logger.Error("Failed to update alert status",
			zap.String("alert_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert status changed concurrently: %s", id)
	}
	return nil
}
