// Package dispatch fans alert and check-in messages out to the configured
// delivery channels, tolerating partial failure.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

// channelTimeout bounds one delivery attempt on one channel. An attempt
// exceeding it counts as failed, never as pending.
const channelTimeout = 5 * time.Second

// Message is one outbound payload for a channel.
type Message struct {
	UserID string
	ChatID int64
	Type   models.NotificationType
	Text   string
	// AckAlertID, when set, asks the channel to attach an acknowledgment
	// action for this alert.
	AckAlertID string
}

// Channel is an external delivery mechanism the dispatcher fans out to.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher attempts every configured channel independently; one channel
// failing never prevents attempts on the others.
type Dispatcher struct {
	channels []Channel
	alerts   repository.AlertRepository
	logger   *zap.Logger
	timeout  time.Duration
}

func NewDispatcher(channels []Channel, alerts repository.AlertRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		alerts:   alerts,
		logger:   logger,
		timeout:  channelTimeout,
	}
}

// Send delivers a crisis alert over all channels, records every attempt on
// the alert, and advances pending -> sent when at least one channel
// succeeded. The fan-out is joined before the status update.
func (d *Dispatcher) Send(ctx context.Context, alert *models.CrisisAlert, msg Message) models.DispatchResult {
	attempts := d.fanOut(ctx, msg)
	alert.ChannelsAttempted = append(alert.ChannelsAttempted, attempts...)

	result := models.DispatchResult{AlertID: alert.ID, Attempts: attempts}

	if result.Delivered() && alert.Status == models.AlertPending {
		alert.Status = models.AlertSent
		if d.alerts != nil {
			if err := d.alerts.UpdateStatus(alert.ID, models.AlertSent); err != nil {
				d.logger.Error("Failed to persist alert status",
					zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
	}

	for _, a := range attempts {
		if a.Outcome == models.OutcomeFailed {
			d.logger.Warn("Channel delivery failed",
				zap.String("alert_id", alert.ID),
				zap.String("channel", a.Channel),
				zap.String("reason", a.Error))
		}
	}

	return result
}

// Notify delivers a routine (non-crisis) message. Best effort: failures are
// reported in the result but nothing escalates.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) models.DispatchResult {
	return models.DispatchResult{Attempts: d.fanOut(ctx, msg)}
}

// fanOut attempts every channel in parallel and joins before returning.
// Attempt order in the result matches the configured channel order.
func (d *Dispatcher) fanOut(ctx context.Context, msg Message) []models.ChannelAttempt {
	attempts := make([]models.ChannelAttempt, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := ch.Send(sendCtx, msg)

			attempt := models.ChannelAttempt{Channel: ch.Name(), At: time.Now()}
			switch {
			case err == nil:
				attempt.Outcome = models.OutcomeSent
			case errors.Is(err, context.DeadlineExceeded):
				attempt.Outcome = models.OutcomeFailed
				attempt.Error = "timeout"
			default:
				attempt.Outcome = models.OutcomeFailed
				attempt.Error = err.Error()
			}
			attempts[i] = attempt
		}(i, ch)
	}
	wg.Wait()

	return attempts
}
