package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

// memoryRepo is an in-memory Repository with the same claim semantics as
// the Postgres implementation.
type memoryRepo struct {
	mu         sync.Mutex
	activities []models.Activity
	claims     map[string]bool
	runs       map[string]bool
}

func newMemoryRepo(activities ...models.Activity) *memoryRepo {
	return &memoryRepo{
		activities: activities,
		claims:     map[string]bool{},
		runs:       map[string]bool{},
	}
}

func (m *memoryRepo) ActivitiesOn(_ context.Context, dates []string) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := map[string]bool{}
	for _, d := range dates {
		wanted[d] = true
	}
	var out []models.Activity
	for _, a := range m.activities {
		if wanted[a.ActivityDate] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) ClaimReminder(_ context.Context, activityID uuid.UUID, remindDate string, dayOffset int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := activityID.String() + "|" + remindDate + "|" + string(rune('0'+dayOffset))
	if m.claims[key] {
		return false, nil
	}
	m.claims[key] = true
	return true, nil
}

func (m *memoryRepo) AlreadyRan(_ context.Context, runDate string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runDate], nil
}

func (m *memoryRepo) MarkRan(_ context.Context, runDate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runDate] = true
	return nil
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []string
	failWith error
}

func (r *recordingMailer) Send(_ context.Context, to, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.sent = append(r.sent, to+"|"+subject)
	return nil
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

var reminderCfg = config.ReminderConfig{
	DispatchHour:   9,
	WindowMinutes:  5,
	TripOffsetDays: 3,
}

// inWindowAt is 09:02 on the given day, inside the dispatch band.
func inWindowAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 2, 0, 0, time.UTC)
}

func newTestScheduler(repo Repository, mailer Mailer, at time.Time) *Scheduler {
	return NewSchedulerWithClock(repo, mailer, reminderCfg, zap.NewNop(), func() time.Time { return at })
}

func activityOn(date string) models.Activity {
	return models.Activity{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Title:        "Snorkeling trip",
		ActivityDate: date,
		Email:        "traveler@example.com",
	}
}

func TestRunOnceOutsideWindowIsNoop(t *testing.T) {
	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	repo := newMemoryRepo(activityOn("2025-06-02"))
	mailer := &recordingMailer{}

	sent, err := newTestScheduler(repo, mailer, now).RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, mailer.count())
}

func TestRunOnceJustPastWindowIsNoop(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 5, 0, 0, time.UTC)
	repo := newMemoryRepo(activityOn("2025-06-02"))
	mailer := &recordingMailer{}

	sent, err := newTestScheduler(repo, mailer, now).RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunOnceSendsSameDayAndUpcomingReminders(t *testing.T) {
	now := inWindowAt(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	repo := newMemoryRepo(
		activityOn("2025-06-02"), // same day
		activityOn("2025-06-05"), // trip in TripOffsetDays
		activityOn("2025-06-20"), // far future, not due
	)
	mailer := &recordingMailer{}

	sent, err := newTestScheduler(repo, mailer, now).RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, mailer.count())
}

func TestRunOnceTwiceSendsOnlyOnce(t *testing.T) {
	now := inWindowAt(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	repo := newMemoryRepo(activityOn("2025-06-02"))
	mailer := &recordingMailer{}
	scheduler := newTestScheduler(repo, mailer, now)

	first, err := scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.Equal(t, 1, mailer.count())
}

func TestRunOnceClaimBlocksResendEvenWithoutDayMarker(t *testing.T) {
	now := inWindowAt(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	repo := newMemoryRepo(activityOn("2025-06-02"))
	mailer := &recordingMailer{}
	scheduler := newTestScheduler(repo, mailer, now)

	_, err := scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)

	// A lost day marker (crash between dispatch and MarkRan) must not
	// cause a duplicate send; the per-activity claim is durable.
	repo.mu.Lock()
	repo.runs = map[string]bool{}
	repo.mu.Unlock()

	sent, err := scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, mailer.count())
}

func TestRunOnceFailedDispatchKeepsDayOpen(t *testing.T) {
	now := inWindowAt(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	repo := newMemoryRepo(activityOn("2025-06-02"))
	mailer := &recordingMailer{failWith: errors.New("relay down")}
	scheduler := newTestScheduler(repo, mailer, now)

	sent, err := scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)

	// The failed day never sets the day marker...
	ran, err := repo.AlreadyRan(context.Background(), "2025-06-02")
	require.NoError(t, err)
	assert.False(t, ran)

	// ...but the claim stands: at-most-once means no blind retry either.
	mailer.failWith = nil
	sent, err = scheduler.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestComposeNotificationKinds(t *testing.T) {
	subject, body := composeNotification(KindSameDay, "Snorkeling trip", "2025-06-02", 0)
	assert.Contains(t, subject, "Today")
	assert.Contains(t, body, "Snorkeling trip")

	subject, body = composeNotification(KindTripUpcoming, "Snorkeling trip", "2025-06-05", 3)
	assert.Contains(t, subject, "3 days")
	assert.Contains(t, body, "2025-06-05")
}
