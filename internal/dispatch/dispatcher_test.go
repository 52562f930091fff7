package dispatch

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

type fakeChannel struct {
	name  string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeChannel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAlertRepo struct {
	mu       sync.Mutex
	statuses map[string]models.AlertStatus
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{statuses: make(map[string]models.AlertStatus)}
}

func (f *fakeAlertRepo) Create(alert *models.CrisisAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[alert.ID] = alert.Status
	return nil
}

func (f *fakeAlertRepo) GetByID(id string) (*models.CrisisAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return nil, nil
	}
	return &models.CrisisAlert{ID: id, Status: status}, nil
}

func (f *fakeAlertRepo) HasUnresolvedSince(userID string, since time.Time) (bool, error) {
	return false, nil
}

func (f *fakeAlertRepo) UpdateStatus(id string, status models.AlertStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func newAlert() *models.CrisisAlert {
	return &models.CrisisAlert{
		ID:        models.NewAlertID("u1", time.Now()),
		UserID:    "u1",
		RiskLevel: models.RiskCrisis,
		CreatedAt: time.Now(),
		Status:    models.AlertPending,
	}
}

func testMessage() Message {
	return Message{UserID: "u1", ChatID: 42, Type: models.NotificationCrisis, Text: "hola"}
}

func TestSendPartialFailureStillTransitionsToSent(t *testing.T) {
	failing := &fakeChannel{name: "telegram", err: fmt.Errorf("network unreachable")}
	working := &fakeChannel{name: "sms"}
	repo := newFakeAlertRepo()

	d := NewDispatcher([]Channel{failing, working}, repo, zap.NewNop())
	alert := newAlert()
	require.NoError(t, repo.Create(alert))

	result := d.Send(context.Background(), alert, testMessage())

	require.Len(t, result.Attempts, 2)
	assert.Equal(t, "telegram", result.Attempts[0].Channel)
	assert.Equal(t, models.OutcomeFailed, result.Attempts[0].Outcome)
	assert.Equal(t, "network unreachable", result.Attempts[0].Error)
	assert.Equal(t, "sms", result.Attempts[1].Channel)
	assert.Equal(t, models.OutcomeSent, result.Attempts[1].Outcome)

	assert.True(t, result.Delivered())
	assert.Equal(t, models.AlertSent, alert.Status)
	assert.Equal(t, models.AlertSent, repo.statuses[alert.ID])
	assert.Len(t, alert.ChannelsAttempted, 2)
}

func TestSendAllChannelsFailKeepsAlertPending(t *testing.T) {
	first := &fakeChannel{name: "telegram", err: fmt.Errorf("auth failed")}
	second := &fakeChannel{name: "sms", err: fmt.Errorf("no balance")}
	repo := newFakeAlertRepo()

	d := NewDispatcher([]Channel{first, second}, repo, zap.NewNop())
	alert := newAlert()
	require.NoError(t, repo.Create(alert))

	result := d.Send(context.Background(), alert, testMessage())

	assert.False(t, result.Delivered())
	assert.Equal(t, models.AlertPending, alert.Status)
	for _, attempt := range result.Attempts {
		assert.Equal(t, models.OutcomeFailed, attempt.Outcome)
		assert.NotEmpty(t, attempt.Error)
	}
}

func TestSendSlowChannelFailsWithTimeout(t *testing.T) {
	slow := &fakeChannel{name: "telegram", delay: 200 * time.Millisecond}

	d := NewDispatcher([]Channel{slow}, nil, zap.NewNop())
	d.timeout = 20 * time.Millisecond

	alert := newAlert()
	result := d.Send(context.Background(), alert, testMessage())

	require.Len(t, result.Attempts, 1)
	assert.Equal(t, models.OutcomeFailed, result.Attempts[0].Outcome)
	assert.Equal(t, "timeout", result.Attempts[0].Error)
	assert.Equal(t, models.AlertPending, alert.Status)
}

func TestNotifyIsBestEffort(t *testing.T) {
	working := &fakeChannel{name: "telegram"}
	d := NewDispatcher([]Channel{working}, nil, zap.NewNop())

	result := d.Notify(context.Background(), testMessage())

	require.Len(t, result.Attempts, 1)
	assert.Equal(t, models.OutcomeSent, result.Attempts[0].Outcome)
	assert.Empty(t, result.AlertID)
}

type flakyChannel struct {
	name     string
	failures int

	mu    sync.Mutex
	calls int
}

func (f *flakyChannel) Name() string { return f.name }

func (f *flakyChannel) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("transient error %d", f.calls)
	}
	return nil
}

func TestRetryChannelSucceedsAfterTransientFailures(t *testing.T) {
	flaky := &flakyChannel{name: "telegram", failures: 2}
	ch := &retryChannel{
		inner:           flaky,
		maxRetries:      3,
		initialInterval: time.Millisecond,
		logger:          zap.NewNop(),
	}

	err := ch.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryChannelGivesUpAfterMaxRetries(t *testing.T) {
	flaky := &flakyChannel{name: "telegram", failures: 10}
	ch := &retryChannel{
		inner:           flaky,
		maxRetries:      2,
		initialInterval: time.Millisecond,
		logger:          zap.NewNop(),
	}

	err := ch.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, 3, flaky.calls) // initial attempt + 2 retries
}

func TestPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewPool(2, 8, zap.NewNop())
	defer pool.Shutdown()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		})
		require.True(t, ok)
	}
	wg.Wait()

	assert.Equal(t, 5, ran)
}

func TestPoolDropsJobsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1, zap.NewNop())
	defer pool.Shutdown()

	block := make(chan struct{})
	pool.Submit(func() { <-block })
	pool.Submit(func() {}) // fills the queue

	dropped := false
	for i := 0; i < 10; i++ {
		if !pool.Submit(func() {}) {
			dropped = true
			break
		}
	}
	close(block)

	assert.True(t, dropped)
}
