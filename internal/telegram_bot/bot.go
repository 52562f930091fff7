package telegram_bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"
)

// Bot handles user registration and crisis-alert acknowledgments over
// Telegram.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
	prefs  repository.PreferenceRepository
	alerts repository.AlertRepository
	cfg    *config.Config
}

// NewBot creates a new Telegram bot instance. A missing token disables the
// bot (and with it the Telegram channel) without failing startup.
func NewBot(cfg *config.Config, prefs repository.PreferenceRepository, alerts repository.AlertRepository, logger *zap.Logger) (*Bot, error) {
	if cfg.Telegram.BotToken == "" {
		logger.Info("Telegram bot is disabled (telegram.bot_token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:    botAPI,
		logger: logger,
		prefs:  prefs,
		alerts: alerts,
		cfg:    cfg,
	}, nil
}

// API exposes the underlying bot API for the dispatch channel.
func (b *Bot) API() *tgbotapi.BotAPI {
	if b == nil {
		return nil
	}
	return b.api
}

// Start begins listening for updates from Telegram
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil // Bot is disabled
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallbackQuery(update.CallbackQuery)
			} else if update.Message != nil {
				b.handleMessage(update.Message)
			}
		}
	}
}

// handleCallbackQuery processes the inline alert buttons:
// "ack:<alert_id>" and "talk:<alert_id>".
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	b.logger.Info("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID),
	)

	// Acknowledge the callback query
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("Failed to send callback response", zap.Error(err))
	}

	parts := strings.SplitN(query.Data, ":", 2)
	if len(parts) != 2 {
		b.logger.Error("Failed to parse callback data: invalid format", zap.String("data", query.Data))
		b.sendMessage(query.Message.Chat.ID, "❌ No pude procesar tu respuesta")
		return
	}
	action := parts[0]
	alertID := parts[1]

	alert, err := b.alerts.GetByID(alertID)
	if err != nil {
		b.logger.Error("Failed to get crisis alert", zap.String("alert_id", alertID), zap.Error(err))
		b.sendMessage(query.Message.Chat.ID, "❌ No encontré esa alerta")
		return
	}
	if alert == nil {
		b.sendMessage(query.Message.Chat.ID, "❌ No encontré esa alerta")
		return
	}

	// "I'm fine" closes the episode; "I need to talk" acknowledges it and
	// keeps it open until a counselor resolves it.
	var responseMessage string
	var target models.AlertStatus
	switch action {
	case "ack":
		responseMessage = "Gracias por responder 💙 Me alegra saber de ti."
		target = models.AlertResolved
	case "talk":
		responseMessage = "Estoy aquí para escucharte. Cuéntame qué está pasando, sin prisa."
		target = models.AlertAcknowledged
	default:
		b.logger.Error("Unknown callback action", zap.String("action", action))
		b.sendMessage(query.Message.Chat.ID, "❌ Acción desconocida")
		return
	}

	if alert.Status.CanTransitionTo(target) {
		if err := b.alerts.UpdateStatus(alertID, target); err != nil {
			b.logger.Error("Failed to update alert status",
				zap.String("alert_id", alertID),
				zap.String("status", string(target)),
				zap.Error(err))
		} else {
			b.logger.Info("Crisis alert responded",
				zap.String("alert_id", alertID),
				zap.String("action", action),
				zap.String("status", string(target)))
		}
	}

	b.sendMessage(query.Message.Chat.ID, responseMessage)

	// Edit the original message to remove buttons
	edit := tgbotapi.NewEditMessageText(
		query.Message.Chat.ID,
		query.Message.MessageID,
		query.Message.Text+"\n\n"+responseMessage,
	)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("Failed to edit message", zap.Error(err))
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := strconv.FormatInt(message.From.ID, 10)
	if err := b.prefs.UpdateLastInteraction(userID, time.Now()); err != nil {
		b.logger.Debug("Failed to update last interaction", zap.String("user_id", userID), zap.Error(err))
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStartCommand(message)
		case "help":
			b.handleHelpCommand(message)
		case "pausar":
			b.setNotificationsEnabled(message, false)
		case "reanudar":
			b.setNotificationsEnabled(message, true)
		default:
			b.sendMessage(message.Chat.ID, "Comando desconocido. Usa /help para ver las opciones.")
		}
	}
}

// handleStartCommand registers the user with default check-in times.
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	userID := strconv.FormatInt(message.From.ID, 10)

	pref := &models.NotificationPreference{
		UserID:          userID,
		ChatID:          message.Chat.ID,
		MorningTime:     "08:00",
		AfternoonTime:   "14:00",
		EveningTime:     "20:00",
		Timezone:        b.cfg.Scheduler.DefaultTimezone,
		Enabled:         true,
		LastInteraction: time.Now(),
	}
	if existing, err := b.prefs.GetByUserID(userID); err == nil && existing != nil {
		// Re-running /start keeps the user's configured times.
		pref.MorningTime = existing.MorningTime
		pref.AfternoonTime = existing.AfternoonTime
		pref.EveningTime = existing.EveningTime
		pref.Timezone = existing.Timezone
		pref.AllowedTypes = existing.AllowedTypes
	}

	if err := b.prefs.Upsert(pref); err != nil {
		b.logger.Error("Failed to register user", zap.String("user_id", userID), zap.Error(err))
		b.sendMessage(message.Chat.ID, "❌ No pude completar tu registro, intenta de nuevo")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 ¡Hola, %s!\n\n"+
			"Soy tu acompañante emocional. Puedes escribirme cómo te sientes en cualquier momento.\n\n"+
			"Te enviaré mensajes de apoyo por la mañana, tarde y noche. "+
			"Usa /pausar si prefieres no recibirlos y /help para más información.",
		message.From.FirstName,
	)
	b.sendMessage(message.Chat.ID, welcomeText)
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := "📚 Ayuda:\n\n" +
		"/start - Registrarte y activar los mensajes de apoyo\n" +
		"/pausar - Pausar los mensajes programados\n" +
		"/reanudar - Reanudar los mensajes programados\n" +
		"/help - Esta ayuda\n\n" +
		"Escríbeme cómo te sientes cuando quieras; estoy aquí para escucharte."
	b.sendMessage(message.Chat.ID, helpText)
}

func (b *Bot) setNotificationsEnabled(message *tgbotapi.Message, enabled bool) {
	userID := strconv.FormatInt(message.From.ID, 10)

	pref, err := b.prefs.GetByUserID(userID)
	if err != nil || pref == nil {
		b.sendMessage(message.Chat.ID, "Primero usa /start para registrarte.")
		return
	}

	pref.Enabled = enabled
	pref.LastInteraction = time.Now()
	if err := b.prefs.Upsert(pref); err != nil {
		b.logger.Error("Failed to update notifications flag", zap.String("user_id", userID), zap.Error(err))
		b.sendMessage(message.Chat.ID, "❌ No pude guardar el cambio, intenta de nuevo")
		return
	}

	if enabled {
		b.sendMessage(message.Chat.ID, "✅ Mensajes programados reanudados.")
	} else {
		b.sendMessage(message.Chat.ID, "⏸️ Mensajes programados pausados. Usa /reanudar cuando quieras.")
	}
}

// sendMessage is a helper to send a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
