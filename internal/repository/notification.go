package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

// NotificationRepository logs outbound deliveries in 'telegram_notifications'.
type NotificationRepository interface {
	Create(record *models.NotificationRecord) error
	ListByUser(userID string, limit int) ([]models.NotificationRecord, error)
}

type notificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewNotificationRepository(db *sqlx.DB, logger *zap.Logger) NotificationRepository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Create(record *models.NotificationRecord) error {
	query := `INSERT INTO telegram_notifications (user_id, notification_type, message_content, delivered, channel_message_id, chat_id, sent_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowx(query, record.UserID, record.NotificationType, record.MessageContent,
		record.Delivered, record.ChannelMessageID, record.ChatID, record.SentAt).Scan(&record.ID)
	if err != nil {
		r.logger.Error("Failed to insert notification record",
			zap.String("user_id", record.UserID),
			zap.String("notification_type", string(record.NotificationType)),
			zap.Error(err))
		return fmt.Errorf("failed to insert notification record: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(userID string, limit int) ([]models.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.NotificationRecord
	query := `SELECT id, user_id, notification_type, message_content, delivered, channel_message_id, chat_id, sent_at
	          FROM telegram_notifications WHERE user_id = $1 ORDER BY sent_at DESC LIMIT $2`
	if err := r.db.Select(&records, query, userID, limit); err != nil {
		return nil, err
	}
	return records, nil
}
