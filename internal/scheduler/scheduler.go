// Package scheduler drives timezone-aware routine check-ins. One central
// ticker iterates every registered preference per tick instead of keeping a
// timer per user.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"backend/internal/compose"
	"backend/internal/dispatch"
	"backend/internal/models"
	"backend/internal/profile"
	"backend/internal/repository"
)

const slotKeyLayout = "2006-01-02 15:04"

// Scheduler matches each enabled user's local HH:MM against their
// configured slots and hands matches to the dispatch pool. At-most-once
// per slot: a minute that passes while the process is down is never
// back-filled.
type Scheduler struct {
	prefs      repository.PreferenceRepository
	store      profile.Store
	dispatcher *dispatch.Dispatcher
	pool       *dispatch.Pool
	logger     *zap.Logger

	tick      time.Duration
	defaultTZ *time.Location
	now       func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time // userID|slot|local minute -> fired at
}

func New(prefs repository.PreferenceRepository, store profile.Store, dispatcher *dispatch.Dispatcher,
	pool *dispatch.Pool, defaultTZ *time.Location, tick time.Duration, logger *zap.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		prefs:      prefs,
		store:      store,
		dispatcher: dispatcher,
		pool:       pool,
		logger:     logger,
		tick:       tick,
		defaultTZ:  defaultTZ,
		now:        time.Now,
		seen:       make(map[string]time.Time),
	}
}

// Run starts the periodic scheduling loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Notification scheduler started.")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification scheduler stopped.")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce processes a single tick. Dispatch happens on the worker pool, so
// the tick itself never blocks on delivery.
func (s *Scheduler) runOnce(ctx context.Context) {
	prefs, err := s.prefs.ListEnabled()
	if err != nil {
		s.logger.Error("Failed to list notification preferences", zap.Error(err))
		return
	}

	now := s.now()
	for i := range prefs {
		pref := prefs[i]
		for _, slot := range s.matchSlots(&pref, now) {
			s.submit(ctx, pref, slot)
		}
	}
	s.prune(now)
}

// matchSlots returns the routine slots whose configured local time equals
// the current minute in the user's timezone and that have not fired yet for
// that minute. A broken timezone is a warning, not a fatal error; the
// default timezone is used so the next slot can still fire.
func (s *Scheduler) matchSlots(pref *models.NotificationPreference, now time.Time) []models.NotificationType {
	loc, err := time.LoadLocation(pref.Timezone)
	if err != nil {
		s.logger.Warn("Invalid timezone in preference, using default",
			zap.String("user_id", pref.UserID),
			zap.String("timezone", pref.Timezone),
			zap.Error(err))
		loc = s.defaultTZ
	}

	local := now.In(loc)
	localHHMM := local.Format("15:04")

	var matched []models.NotificationType
	for _, slot := range models.RoutineNotificationTypes {
		if pref.SlotTime(slot) != localHHMM {
			continue
		}
		if !pref.Allows(slot) {
			continue
		}
		if !s.mark(pref.UserID, slot, local) {
			continue
		}
		matched = append(matched, slot)
	}
	return matched
}

func (s *Scheduler) submit(ctx context.Context, pref models.NotificationPreference, slot models.NotificationType) {
	submitted := s.pool.Submit(func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		prof, err := s.store.Get(pref.UserID)
		if err != nil && err != profile.ErrProfileNotFound {
			s.logger.Error("Failed to load profile for check-in",
				zap.String("user_id", pref.UserID), zap.Error(err))
		}

		msg := dispatch.Message{
			UserID: pref.UserID,
			ChatID: pref.ChatID,
			Type:   slot,
			Text:   compose.Routine(slot, prof),
		}

		result := s.dispatcher.Notify(jobCtx, msg)
		s.logger.Info("Routine check-in dispatched",
			zap.String("user_id", pref.UserID),
			zap.String("slot", string(slot)),
			zap.Bool("delivered", result.Delivered()))
	})
	if !submitted {
		s.logger.Warn("Routine check-in dropped, dispatch pool saturated",
			zap.String("user_id", pref.UserID),
			zap.String("slot", string(slot)))
	}
}

// mark records that the slot fired for this local minute. Returns false if
// it already did.
func (s *Scheduler) mark(userID string, slot models.NotificationType, local time.Time) bool {
	key := userID + "|" + string(slot) + "|" + local.Format(slotKeyLayout)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = local
	return true
}

func (s *Scheduler) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.seen {
		if now.Sub(at) > 2*time.Hour {
			delete(s.seen, key)
		}
	}
}
