package dispatch

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

// TelegramChannel delivers messages through the Telegram bot API and logs
// every outbound message into the notification table.
type TelegramChannel struct {
	api           *tgbotapi.BotAPI
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewTelegramChannel(api *tgbotapi.BotAPI, notifications repository.NotificationRepository, logger *zap.Logger) *TelegramChannel {
	return &TelegramChannel{api: api, notifications: notifications, logger: logger}
}

func (t *TelegramChannel) Name() string {
	return "telegram"
}

// Send delivers the message to the user's chat. Retrying a send is safe:
// Telegram may deliver a duplicate message, which is acceptable; duplicate
// escalation is prevented upstream by the coordinator's dedup window.
func (t *TelegramChannel) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("no chat id registered for user %s", msg.UserID)
	}

	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.AckAlertID != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Estoy bien", fmt.Sprintf("ack:%s", msg.AckAlertID)),
				tgbotapi.NewInlineKeyboardButtonData("💬 Necesito hablar", fmt.Sprintf("talk:%s", msg.AckAlertID)),
			),
		)
	}

	sent, err := t.api.Send(out)
	t.record(msg, sent, err)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (t *TelegramChannel) record(msg Message, sent tgbotapi.Message, sendErr error) {
	if t.notifications == nil {
		return
	}

	rec := &models.NotificationRecord{
		UserID:           msg.UserID,
		NotificationType: msg.Type,
		MessageContent:   msg.Text,
		Delivered:        sendErr == nil,
		ChatID:           msg.ChatID,
		SentAt:           time.Now(),
	}
	if sendErr == nil {
		channelMessageID := int64(sent.MessageID)
		rec.ChannelMessageID = &channelMessageID
	}

	if err := t.notifications.Create(rec); err != nil {
		t.logger.Error("Failed to log outbound notification",
			zap.String("user_id", msg.UserID), zap.Error(err))
	}
}
