// Package profile owns the per-user rolling event history and the derived
// emotional profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/trend"
)

// ErrProfileNotFound is returned by Get for users with no recorded events.
var ErrProfileNotFound = errors.New("emotional profile not found")

const (
	// historyCap bounds the per-user event history; the oldest event is
	// evicted on overflow.
	historyCap = 50
	// riskWindow is how many recent events feed the crisis risk mean.
	riskWindow = 7
)

// Store is the access contract for emotional profiles. Record creates the
// profile on the first call for a user; Get on an unknown user returns
// ErrProfileNotFound.
type Store interface {
	Record(ctx context.Context, event models.EmotionalEvent) (*models.EmotionalProfile, error)
	Get(userID string) (*models.EmotionalProfile, error)
	History(userID string, windowDays int) []models.EmotionalEvent
}

// MemoryStore keeps histories and profiles in memory. Mutations for the
// same user are serialized by a per-user mutex; different users never
// contend with each other beyond the map lookup.
type MemoryStore struct {
	mu     sync.RWMutex // guards users
	users  map[string]*userState
	logger *zap.Logger
}

type userState struct {
	mu      sync.Mutex
	events  []models.EmotionalEvent
	profile models.EmotionalProfile
	created bool
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]*userState),
		logger: logger,
	}
}

// Record appends the event to the user's bounded history and recomputes the
// derived profile. The returned profile is a snapshot copy.
func (s *MemoryStore) Record(ctx context.Context, event models.EmotionalEvent) (*models.EmotionalProfile, error) {
	if event.UserID == "" {
		return nil, fmt.Errorf("record: empty user id")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	st := s.state(event.UserID)
	st.mu.Lock()
	defer st.mu.Unlock()

	priorScores := make([]int, 0, len(st.events))
	for _, e := range st.events {
		priorScores = append(priorScores, e.MoodScore)
	}

	st.events = append(st.events, event)
	if len(st.events) > historyCap {
		st.events = st.events[len(st.events)-historyCap:]
	}

	if !st.created {
		st.profile = models.EmotionalProfile{
			UserID:       event.UserID,
			BaselineMood: event.MoodScore,
			RecentTrend:  models.TrendStable,
		}
		st.created = true
	}

	tr := trend.Compute(priorScores, event.MoodScore, event.RiskLevel)

	windowScores := make([]int, 0, len(st.events))
	for _, e := range st.events {
		windowScores = append(windowScores, e.MoodScore)
	}
	mean := trend.Mean(windowScores, riskWindow)

	st.profile.RecentTrend = tr
	st.profile.CrisisRiskLevel = crisisRisk(tr, mean)
	st.profile.LastAssessedAt = event.Timestamp

	if tr == models.TrendImproving && mean > float64(st.profile.BaselineMood)+2 {
		milestone := fmt.Sprintf("%s: ánimo sostenido por encima de tu línea base",
			event.Timestamp.Format("2006-01-02"))
		if appendMilestone(&st.profile, milestone) {
			s.logger.Info("Milestone recorded",
				zap.String("user_id", event.UserID),
				zap.String("milestone", milestone))
		}
	}

	snapshot := snapshotProfile(st.profile)
	return &snapshot, nil
}

// Get returns a snapshot of the user's profile.
func (s *MemoryStore) Get(userID string) (*models.EmotionalProfile, error) {
	s.mu.RLock()
	st, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrProfileNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.created {
		return nil, ErrProfileNotFound
	}
	snapshot := snapshotProfile(st.profile)
	return &snapshot, nil
}

// History returns the user's retained events, newest last, optionally
// limited to the last windowDays days. windowDays <= 0 means everything.
func (s *MemoryStore) History(userID string, windowDays int) []models.EmotionalEvent {
	s.mu.RLock()
	st, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var cutoff time.Time
	if windowDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -windowDays)
	}

	out := make([]models.EmotionalEvent, 0, len(st.events))
	for _, e := range st.events {
		if windowDays > 0 && e.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *MemoryStore) state(userID string) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{}
		s.users[userID] = st
	}
	return st
}

func crisisRisk(tr models.Trend, windowMean float64) models.CrisisRiskLevel {
	switch {
	case tr == models.TrendCrisis:
		return models.CrisisRiskCritical
	case windowMean < 3:
		return models.CrisisRiskHigh
	case windowMean < 5:
		return models.CrisisRiskMedium
	default:
		return models.CrisisRiskLow
	}
}

// appendMilestone adds the milestone unless an identical one exists.
func appendMilestone(p *models.EmotionalProfile, text string) bool {
	for _, m := range p.Milestones {
		if m == text {
			return false
		}
	}
	p.Milestones = append(p.Milestones, text)
	return true
}

func snapshotProfile(p models.EmotionalProfile) models.EmotionalProfile {
	out := p
	out.Milestones = append([]string(nil), p.Milestones...)
	return out
}
