package trip

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

// TripContext field names. The cache enforces no ordering between them;
// callers stage fields in whatever sequence the flow dictates.
const (
	FieldProvince  = "province"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldBudget    = "budget"
	FieldFlight    = "selected_flight"
	FieldHotel     = "selected_hotel"
)

// SessionStore stages in-progress trip selections per session key before
// they are finalized into a Schedule. TTL expiry is the only eviction
// path; overwriting a field is the only invalidation.
type SessionStore struct {
	cache        *gocache.Cache
	defaultTTL   time.Duration
	selectionTTL time.Duration
	logger       *zap.Logger
}

func NewSessionStore(cfg config.SessionConfig, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		cache:        gocache.New(cfg.DefaultTTL, cfg.DefaultTTL/2),
		defaultTTL:   cfg.DefaultTTL,
		selectionTTL: cfg.SelectionTTL,
		logger:       logger,
	}
}

// Set stores one trip field. A zero ttl picks the configured default for
// the field kind (selection slots carry their own TTL).
func (s *SessionStore) Set(sessionKey, field, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
		if field == FieldFlight || field == FieldHotel {
			ttl = s.selectionTTL
		}
	}
	s.cache.Set(cacheKey(sessionKey, field), value, ttl)
	s.logger.Debug("Trip field staged",
		zap.String("session", sessionKey),
		zap.String("field", field),
		zap.Duration("ttl", ttl))
}

// Get reads one trip field. A read racing an expiry yields either the old
// value or absent, never corrupted data (go-cache guarantees this).
func (s *SessionStore) Get(sessionKey, field string) (string, bool) {
	v, found := s.cache.Get(cacheKey(sessionKey, field))
	if !found {
		return "", false
	}
	value, ok := v.(string)
	return value, ok
}

// Context assembles the current staging state for a session. Missing or
// expired fields come back empty.
func (s *SessionStore) Context(sessionKey string) models.TripContext {
	ctx := models.TripContext{}
	ctx.Province, _ = s.Get(sessionKey, FieldProvince)
	ctx.StartDate, _ = s.Get(sessionKey, FieldStartDate)
	ctx.EndDate, _ = s.Get(sessionKey, FieldEndDate)
	ctx.Budget, _ = s.Get(sessionKey, FieldBudget)
	ctx.SelectedFlight, _ = s.Get(sessionKey, FieldFlight)
	ctx.SelectedHotel, _ = s.Get(sessionKey, FieldHotel)
	return ctx
}

// Discard drops every staged field for a session. Called once a schedule
// is finalized; the context is consumed, not reused.
func (s *SessionStore) Discard(sessionKey string) {
	for _, field := range []string{FieldProvince, FieldStartDate, FieldEndDate, FieldBudget, FieldFlight, FieldHotel} {
		s.cache.Delete(cacheKey(sessionKey, field))
	}
	s.logger.Debug("Trip context discarded", zap.String("session", sessionKey))
}

func cacheKey(sessionKey, field string) string {
	return fmt.Sprintf("%s:%s", sessionKey, field)
}
