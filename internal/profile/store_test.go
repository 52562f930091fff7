package profile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/models"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(zap.NewNop())
}

func event(userID string, score int, risk models.RiskLevel) models.EmotionalEvent {
	return models.EmotionalEvent{
		UserID:    userID,
		Timestamp: time.Now(),
		MoodScore: score,
		Context:   models.ContextConversational,
		RiskLevel: risk,
	}
}

func TestRecordCreatesProfileOnFirstCall(t *testing.T) {
	store := newTestStore()

	prof, err := store.Record(context.Background(), event("u1", 7, models.RiskLow))
	require.NoError(t, err)

	assert.Equal(t, "u1", prof.UserID)
	assert.Equal(t, 7, prof.BaselineMood)
	assert.Equal(t, models.TrendStable, prof.RecentTrend)
	assert.False(t, prof.LastAssessedAt.IsZero())
}

func TestGetUnknownUser(t *testing.T) {
	store := newTestStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestBaselineNeverRecomputed(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Record(ctx, event("u1", 4, models.RiskLow))
	require.NoError(t, err)
	prof, err := store.Record(ctx, event("u1", 9, models.RiskLow))
	require.NoError(t, err)

	assert.Equal(t, 4, prof.BaselineMood)
}

func TestHistoryCappedAtFifty(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 51; i++ {
		ev := event("u1", 5, models.RiskLow)
		ev.Timestamp = base.Add(time.Duration(i) * time.Second)
		_, err := store.Record(ctx, ev)
		require.NoError(t, err)
	}

	history := store.History("u1", 0)
	require.Len(t, history, 50)
	// the 51st record evicts exactly the oldest
	assert.Equal(t, base.Add(time.Second), history[0].Timestamp)
	assert.Equal(t, base.Add(50*time.Second), history[49].Timestamp)
}

func TestCrisisEventDominatesHighMoodScore(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Record(ctx, event("u1", 8, models.RiskLow))
	require.NoError(t, err)

	crisisEvent := event("u1", 8, models.RiskCrisis)
	crisisEvent.EvidenceTerms = []string{"acabar con todo"}
	prof, err := store.Record(ctx, crisisEvent)
	require.NoError(t, err)

	assert.Equal(t, models.TrendCrisis, prof.RecentTrend)
	assert.Equal(t, models.CrisisRiskCritical, prof.CrisisRiskLevel)
}

func TestCrisisRiskFromWindowMean(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var prof *models.EmotionalProfile
	var err error
	for i := 0; i < 5; i++ {
		prof, err = store.Record(ctx, event("u1", 2, models.RiskMedium))
		require.NoError(t, err)
	}
	assert.Equal(t, models.CrisisRiskHigh, prof.CrisisRiskLevel)

	store2 := newTestStore()
	for i := 0; i < 5; i++ {
		prof, err = store2.Record(ctx, event("u2", 4, models.RiskMedium))
		require.NoError(t, err)
	}
	assert.Equal(t, models.CrisisRiskMedium, prof.CrisisRiskLevel)

	store3 := newTestStore()
	for i := 0; i < 5; i++ {
		prof, err = store3.Record(ctx, event("u3", 7, models.RiskLow))
		require.NoError(t, err)
	}
	assert.Equal(t, models.CrisisRiskLow, prof.CrisisRiskLevel)
}

func TestMilestoneRecordedAndDeduplicated(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	// baseline 3, then enough high scores for the window mean to clear
	// baseline+2 while the trend is improving
	_, err := store.Record(ctx, event("u1", 3, models.RiskLow))
	require.NoError(t, err)

	now := time.Now()
	var prof *models.EmotionalProfile
	for i := 0; i < 4; i++ {
		ev := event("u1", 9, models.RiskLow)
		ev.Timestamp = now
		prof, err = store.Record(ctx, ev)
		require.NoError(t, err)
	}

	require.NotEmpty(t, prof.Milestones)
	// same-day improvements dedup to a single milestone
	assert.Len(t, prof.Milestones, 1)
}

func TestConcurrentRecordsNeverLoseUpdates(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Record(ctx, event("u1", 5, models.RiskLow))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Record(ctx, event("u1", 6, models.RiskLow))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.History("u1", 0), 3)
}

func TestConcurrentRecordsAcrossUsers(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%5)
			_, err := store.Record(ctx, event(userID, 5, models.RiskLow))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 5; i++ {
		total += len(store.History(fmt.Sprintf("user-%d", i), 0))
	}
	assert.Equal(t, 20, total)
}

func TestHistoryWindowDays(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	old := event("u1", 5, models.RiskLow)
	old.Timestamp = time.Now().AddDate(0, 0, -10)
	_, err := store.Record(ctx, old)
	require.NoError(t, err)

	recent := event("u1", 6, models.RiskLow)
	_, err = store.Record(ctx, recent)
	require.NoError(t, err)

	assert.Len(t, store.History("u1", 0), 2)
	assert.Len(t, store.History("u1", 7), 1)
}

func TestRecordRejectsEmptyUserID(t *testing.T) {
	store := newTestStore()
	_, err := store.Record(context.Background(), models.EmotionalEvent{MoodScore: 5})
	assert.Error(t, err)
}
