package models

import "time"

// NotificationType is the kind of outbound message a user can receive.
type NotificationType string

const (
	NotificationMorning   NotificationType = "morning_checkin"
	NotificationAfternoon NotificationType = "afternoon_checkin"
	NotificationEvening   NotificationType = "evening_checkin"
	NotificationCrisis    NotificationType = "crisis_alert"
)

// RoutineNotificationTypes are the scheduler-driven check-in kinds.
var RoutineNotificationTypes = []NotificationType{
	NotificationMorning,
	NotificationAfternoon,
	NotificationEvening,
}

// NotificationPreference is the per-user schedule configuration stored in
// 'telegram_users'. The chat id is the channel-specific destination address.
type NotificationPreference struct {
	UserID          string    `db:"user_id" json:"user_id"`
	ChatID          int64     `db:"chat_id" json:"chat_id"`
	MorningTime     string    `db:"morning_time" json:"morning_time"`     // local HH:MM
	AfternoonTime   string    `db:"afternoon_time" json:"afternoon_time"` // local HH:MM
	EveningTime     string    `db:"evening_time" json:"evening_time"`     // local HH:MM
	Timezone        string    `db:"timezone" json:"timezone"`
	Enabled         bool      `db:"notifications_enabled" json:"enabled"`
	AllowedTypes    []string  `db:"-" json:"allowed_types,omitempty"` // empty means all
	LastInteraction time.Time `db:"last_interaction" json:"last_interaction"`
}

// Allows reports whether the user accepts the given notification kind.
// An empty allow-list accepts everything.
func (p *NotificationPreference) Allows(t NotificationType) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range p.AllowedTypes {
		if allowed == string(t) {
			return true
		}
	}
	return false
}

// SlotTime returns the configured local time for a routine slot.
func (p *NotificationPreference) SlotTime(t NotificationType) string {
	switch t {
	case NotificationMorning:
		return p.MorningTime
	case NotificationAfternoon:
		return p.AfternoonTime
	case NotificationEvening:
		return p.EveningTime
	}
	return ""
}

// NotificationRecord is one outbound delivery logged in 'telegram_notifications'.
type NotificationRecord struct {
	ID               int64            `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	NotificationType NotificationType `db:"notification_type" json:"notification_type"`
	MessageContent   string           `db:"message_content" json:"message_content"`
	Delivered        bool             `db:"delivered" json:"delivered"`
	ChannelMessageID *int64           `db:"channel_message_id" json:"channel_message_id,omitempty"`
	ChatID           int64            `db:"chat_id" json:"chat_id"`
	SentAt           time.Time        `db:"sent_at" json:"sent_at"`
}

// EmergencyResource is one entry of the static crisis-resource table.
type EmergencyResource struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Priority int    `json:"priority"`
}
