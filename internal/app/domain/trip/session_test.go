package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

func newTestStore(defaultTTL, selectionTTL time.Duration) *SessionStore {
	return NewSessionStore(config.SessionConfig{
		DefaultTTL:   defaultTTL,
		SelectionTTL: selectionTTL,
	}, zap.NewNop())
}

func TestSessionSetAndGet(t *testing.T) {
	store := newTestStore(time.Minute, time.Minute)

	store.Set("sess-1", FieldProvince, "Bali", 0)

	got, ok := store.Get("sess-1", FieldProvince)
	assert.True(t, ok)
	assert.Equal(t, "Bali", got)

	_, ok = store.Get("sess-2", FieldProvince)
	assert.False(t, ok)
}

func TestSessionOverwriteReplacesValue(t *testing.T) {
	store := newTestStore(time.Minute, time.Minute)

	store.Set("sess-1", FieldHotel, "Grand Bali", 0)
	store.Set("sess-1", FieldHotel, "Ocean View", 0)

	got, ok := store.Get("sess-1", FieldHotel)
	assert.True(t, ok)
	assert.Equal(t, "Ocean View", got)
}

func TestSessionExpiry(t *testing.T) {
	store := newTestStore(time.Minute, time.Minute)

	store.Set("sess-1", FieldBudget, "1000", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := store.Get("sess-1", FieldBudget)
	assert.False(t, ok)
}

func TestSessionSelectionSlotsUseSelectionTTL(t *testing.T) {
	store := newTestStore(time.Minute, 10*time.Millisecond)

	store.Set("sess-1", FieldFlight, "GA-402", 0)
	store.Set("sess-1", FieldProvince, "Bali", 0)
	time.Sleep(30 * time.Millisecond)

	_, ok := store.Get("sess-1", FieldFlight)
	assert.False(t, ok)

	got, ok := store.Get("sess-1", FieldProvince)
	assert.True(t, ok)
	assert.Equal(t, "Bali", got)
}

func TestSessionContextAssemblesAllFields(t *testing.T) {
	store := newTestStore(time.Minute, time.Minute)

	store.Set("sess-1", FieldProvince, "Bali", 0)
	store.Set("sess-1", FieldStartDate, "2025-06-02", 0)
	store.Set("sess-1", FieldEndDate, "2025-06-05", 0)
	store.Set("sess-1", FieldHotel, "Grand Bali", 0)

	ctx := store.Context("sess-1")
	assert.Equal(t, "Bali", ctx.Province)
	assert.Equal(t, "2025-06-02", ctx.StartDate)
	assert.Equal(t, "2025-06-05", ctx.EndDate)
	assert.Equal(t, "Grand Bali", ctx.SelectedHotel)
	assert.Empty(t, ctx.SelectedFlight)
	assert.Empty(t, ctx.Budget)
}

func TestSessionDiscardClearsEverything(t *testing.T) {
	store := newTestStore(time.Minute, time.Minute)

	store.Set("sess-1", FieldProvince, "Bali", 0)
	store.Set("sess-1", FieldFlight, "GA-402", 0)
	store.Set("sess-2", FieldProvince, "Jakarta", 0)

	store.Discard("sess-1")

	ctx := store.Context("sess-1")
	assert.Empty(t, ctx.Province)
	assert.Empty(t, ctx.SelectedFlight)

	// Other sessions are untouched.
	got, ok := store.Get("sess-2", FieldProvince)
	assert.True(t, ok)
	assert.Equal(t, "Jakarta", got)
}
