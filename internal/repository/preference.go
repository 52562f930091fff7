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

// PreferenceRepository persists notification preferences in 'telegram_users'.
type PreferenceRepository interface {
	Upsert(pref *models.NotificationPreference) error
	GetByUserID(userID string) (*models.NotificationPreference, error)
	ListEnabled() ([]models.NotificationPreference, error)
	UpdateLastInteraction(userID string, at time.Time) error
}

type preferenceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPreferenceRepository(db *sqlx.DB, logger *zap.Logger) PreferenceRepository {
	return &preferenceRepository{db: db, logger: logger}
}

func (r *preferenceRepository) Upsert(pref *models.NotificationPreference) error {
	query := `
		INSERT INTO telegram_users (user_id, chat_id, morning_time, afternoon_time, evening_time, timezone, notifications_enabled, allowed_types, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			morning_time = EXCLUDED.morning_time,
			afternoon_time = EXCLUDED.afternoon_time,
			evening_time = EXCLUDED.evening_time,
			timezone = EXCLUDED.timezone,
			notifications_enabled = EXCLUDED.notifications_enabled,
			allowed_types = EXCLUDED.allowed_types,
			last_interaction = EXCLUDED.last_interaction
	`
	_, err := r.db.Exec(query, pref.UserID, pref.ChatID, pref.MorningTime, pref.AfternoonTime,
		pref.EveningTime, pref.Timezone, pref.Enabled, pq.Array(pref.AllowedTypes), pref.LastInteraction)
	if err != nil {
		r.logger.Error("Failed to upsert notification preference",
			zap.String("user_id", pref.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

func (r *preferenceRepository) GetByUserID(userID string) (*models.NotificationPreference, error) {
	query := `SELECT user_id, chat_id, morning_time, afternoon_time, evening_time, timezone, notifications_enabled, allowed_types, last_interaction
	          FROM telegram_users WHERE user_id = $1`
	pref, err := scanPreference(r.db.QueryRowx(query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return pref, nil
}

func (r *preferenceRepository) ListEnabled() ([]models.NotificationPreference, error) {
	query := `SELECT user_id, chat_id, morning_time, afternoon_time, evening_time, timezone, notifications_enabled, allowed_types, last_interaction
	          FROM telegram_users WHERE notifications_enabled = TRUE`
	rows, err := r.db.Queryx(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []models.NotificationPreference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			r.logger.Error("Failed to scan notification preference", zap.Error(err))
			continue
		}
		prefs = append(prefs, *pref)
	}
	return prefs, rows.Err()
}

func (r *preferenceRepository) UpdateLastInteraction(userID string, at time.Time) error {
	query := `UPDATE telegram_users SET last_interaction = $1 WHERE user_id = $2`
	_, err := r.db.Exec(query, at, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreference(row rowScanner) (*models.NotificationPreference, error) {
	pref := &models.NotificationPreference{}
	var allowed pq.StringArray
	err := row.Scan(&pref.UserID, &pref.ChatID, &pref.MorningTime, &pref.AfternoonTime,
		&pref.EveningTime, &pref.Timezone, &pref.Enabled, &allowed, &pref.LastInteraction)
	if err != nil {
		return nil, err
	}
	pref.AllowedTypes = []string(allowed)
	return pref, nil
}
