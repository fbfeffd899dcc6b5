package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/billing"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/planner"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/trip"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
	"github.com/FACorreiaa/loci-trip-engine/internal/observability/metrics"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/cache"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

const dateLayout = "2006-01-02"

// Ensure ServiceImpl implements the Service interface
var _ Service = (*ServiceImpl)(nil)

// Service is the planning and persistence entry point callers use.
type Service interface {
	CreateSchedule(ctx context.Context, req models.CreateScheduleRequest) (models.CreateScheduleResponse, error)
	GetShared(ctx context.Context, token string) (models.Schedule, error)
	ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string) ([]*models.Schedule, error)
	Delete(ctx context.Context, scheduleID uuid.UUID) error
}

// ServiceImpl orchestrates loading, ranking, assembly and the atomic
// save, with a compensating refund when a step fails after the trip fee
// was charged.
type ServiceImpl struct {
	logger   *zap.Logger
	repo     Repository
	loader   *catalog.Loader
	ranker   *catalog.Ranker
	planner  *planner.Planner
	sessions *trip.SessionStore
	payments billing.PaymentProvider
	caches   *cache.CacheManager
	cfg      *config.Config
}

func NewService(
	repo Repository,
	loader *catalog.Loader,
	ranker *catalog.Ranker,
	plnr *planner.Planner,
	sessions *trip.SessionStore,
	payments billing.PaymentProvider,
	caches *cache.CacheManager,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		loader:   loader,
		ranker:   ranker,
		planner:  plnr,
		sessions: sessions,
		payments: payments,
		caches:   caches,
		cfg:      cfg,
	}
}

// CreateSchedule validates the request, assembles a day-by-day plan and
// persists it atomically. The trip fee is charged up front but refunded
// whenever assembly or persistence fails afterwards, so the charge and
// the schedule always end up consistent.
func (s *ServiceImpl) CreateSchedule(ctx context.Context, req models.CreateScheduleRequest) (models.CreateScheduleResponse, error) {
	resp := models.CreateScheduleResponse{Province: req.Province, Timestamp: time.Now().UTC()}

	start, end, err := s.validateRequest(&req)
	if err != nil {
		return resp, err
	}

	s.mergeSessionContext(&req)

	foodPrint := catalog.Fingerprint(s.cfg.Catalog.FoodSource)
	placePrint := catalog.Fingerprint(s.cfg.Catalog.PlaceSource)

	planKey := cache.NewCacheKeyBuilder(s.logger).
		AddProvince(req.Province).
		AddDateRange(req.StartDate, req.EndDate).
		AddSource(foodPrint).
		AddSource(placePrint).
		BuildOrDefault()

	plan, cached := s.caches.Plans.Get(planKey)
	if cached {
		// Cached plans are content-equal but must not share row identity
		// with a previously saved schedule.
		plan.Days = withFreshIDs(plan.Days)
	} else {
		food, place, err := s.loadTables(ctx, foodPrint, placePrint)
		if err != nil {
			return resp, err
		}

		s.rankForDiagnostics(food, foodPrint)
		s.rankForDiagnostics(place, placePrint)

		plan, err = s.planner.BuildPlan(start, end, req.Province, food, place)
		if err != nil {
			return resp, err
		}
		if plan.NoMatches != "" {
			metrics.PlansNoMatches.Inc()
			resp.Message = plan.NoMatches
			return resp, nil
		}
		metrics.PlansBuilt.Inc()
		s.caches.Plans.Set(planKey, plan)
	}

	// The fee is taken before persistence; any failure past this point
	// must issue the compensating refund.
	var chargeID string
	if s.cfg.Billing.TripFee > 0 {
		chargeID, err = s.payments.Charge(ctx, req.UserID, s.cfg.Billing.TripFee, s.cfg.Billing.Currency)
		if err != nil {
			s.logger.Error("Trip fee charge failed", zap.Error(err))
			return resp, fmt.Errorf("charge trip fee: %w", models.ErrExternalService)
		}
	}

	scheduleID, shareLink, err := s.repo.Save(ctx, req.UserID, req.Name, plan.Days, req.HotelInfo)
	if err != nil {
		metrics.ScheduleSaveErrors.Inc()
		s.refundOnFailure(ctx, chargeID)
		return resp, err
	}
	metrics.SchedulesSaved.Inc()

	s.sessions.Discard(req.UserID.String())

	schedule := models.Schedule{
		ID:        scheduleID,
		UserID:    req.UserID,
		Name:      req.Name,
		CreatedAt: shareLink.CreatedAt,
		Days:      plan.Days,
		Hotel:     req.HotelInfo,
		ShareLink: shareLink,
	}
	resp.Schedule = &schedule
	resp.Hotel = req.HotelInfo
	resp.Flight = req.FlightInfo

	return resp, nil
}

// GetShared resolves a schedule through its share token.
func (s *ServiceImpl) GetShared(ctx context.Context, token string) (models.Schedule, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *ServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string) ([]*models.Schedule, error) {
	return s.repo.ListForUser(ctx, userID, nameFilter)
}

func (s *ServiceImpl) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	return s.repo.Delete(ctx, scheduleID)
}

func (s *ServiceImpl) validateRequest(req *models.CreateScheduleRequest) (time.Time, time.Time, error) {
	if req.UserID == uuid.Nil {
		return time.Time{}, time.Time{}, fmt.Errorf("user id is required: %w", models.ErrValidation)
	}
	if strings.TrimSpace(req.Province) == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("province is required: %w", models.ErrValidation)
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %q is not a valid date: %w", req.StartDate, models.ErrValidation)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %q is not a valid date: %w", req.EndDate, models.ErrValidation)
	}

	if err := planner.ValidateDateRange(start, end, time.Now()); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if strings.TrimSpace(req.Name) == "" {
		req.Name = fmt.Sprintf("Trip to %s", req.Province)
	}

	return start, end, nil
}

// mergeSessionContext fills request gaps from the staged trip context.
// The context is consumed after a successful save, never before.
func (s *ServiceImpl) mergeSessionContext(req *models.CreateScheduleRequest) {
	staged := s.sessions.Context(req.UserID.String())
	if req.FlightInfo == "" {
		req.FlightInfo = staged.SelectedFlight
	}
	if req.HotelInfo == nil && staged.SelectedHotel != "" {
		req.HotelInfo = &models.HotelSnapshot{Name: staged.SelectedHotel}
	}
}

// loadTables reads both candidate sources, going through the table cache
// so identical source files never re-parse within the TTL.
func (s *ServiceImpl) loadTables(ctx context.Context, foodKey, placeKey string) (models.Table, models.Table, error) {
	food, foodOK := s.caches.FoodTables.Get(foodKey)
	place, placeOK := s.caches.PlaceTables.Get(placeKey)
	if foodOK && placeOK {
		return food, place, nil
	}

	food, place, err := s.loader.Load(ctx, s.cfg.Catalog.FoodSource, s.cfg.Catalog.PlaceSource)
	if err != nil {
		return models.Table{}, models.Table{}, err
	}

	s.caches.FoodTables.Set(foodKey, food)
	s.caches.PlaceTables.Set(placeKey, place)
	return food, place, nil
}

// rankForDiagnostics attaches cluster tiers for the quality signal and
// its separation score. Ranking an empty table is skipped, not an error;
// the planner reports the graceful "no matches" path instead.
func (s *ServiceImpl) rankForDiagnostics(table models.Table, fingerprint string) {
	if table.Empty() {
		return
	}

	key := cache.NewCacheKeyBuilder(s.logger).
		AddSource(fingerprint).
		Add("kind", string(table.Kind)).
		AddClusterConfig(catalog.DefaultNumClusters, catalog.DefaultMaxIterations).
		BuildOrDefault()
	if _, ok := s.caches.Ranked.Get(key); ok {
		return
	}

	ranked, err := s.ranker.Rank(table, 0, 0)
	if err != nil {
		s.logger.Warn("Ranking failed, continuing with raw ratings", zap.Error(err))
		return
	}
	s.caches.Ranked.Set(key, ranked)
}

// withFreshIDs clones the day list with newly minted day and item
// identifiers. Required before re-saving a cached plan: the database
// keys of the earlier save must never be reused.
func withFreshIDs(days []models.Day) []models.Day {
	out := make([]models.Day, len(days))
	for i, day := range days {
		d := day
		d.ID = uuid.New()
		d.Items = make([]models.ItineraryItem, len(day.Items))
		for j, item := range day.Items {
			it := item
			it.ID = uuid.New()
			it.DayID = d.ID
			d.Items[j] = it
		}
		out[i] = d
	}
	return out
}

func (s *ServiceImpl) refundOnFailure(ctx context.Context, chargeID string) {
	if chargeID == "" {
		return
	}
	if err := s.payments.Refund(ctx, chargeID); err != nil {
		// The refund itself failing leaves a genuine inconsistency;
		// surface it loudly for reconciliation.
		s.logger.Error("Compensating refund failed after save failure",
			zap.String("charge_id", chargeID),
			zap.Error(err))
		return
	}
	metrics.BillingRefunds.Inc()
}
