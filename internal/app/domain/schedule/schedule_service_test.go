package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/billing"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/planner"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/trip"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/cache"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, userID uuid.UUID, name string, days []models.Day, hotel *models.HotelSnapshot) (uuid.UUID, models.ShareLink, error) {
	args := m.Called(ctx, userID, name, days, hotel)
	return args.Get(0).(uuid.UUID), args.Get(1).(models.ShareLink), args.Error(2)
}

func (m *mockRepository) GetByToken(ctx context.Context, token string) (models.Schedule, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Schedule), args.Error(1)
}

func (m *mockRepository) ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string) ([]*models.Schedule, error) {
	args := m.Called(ctx, userID, nameFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Schedule), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	args := m.Called(ctx, scheduleID)
	return args.Error(0)
}

type fakePayments struct {
	charges    int
	refunds    []string
	failCharge bool
}

var _ billing.PaymentProvider = (*fakePayments)(nil)

func (f *fakePayments) Charge(ctx context.Context, userID uuid.UUID, amount int64, currency string) (string, error) {
	if f.failCharge {
		return "", errors.New("card declined")
	}
	f.charges++
	return "pi_test_123", nil
}

func (f *fakePayments) Refund(ctx context.Context, chargeID string) error {
	f.refunds = append(f.refunds, chargeID)
	return nil
}

type serviceFixture struct {
	service  *ServiceImpl
	repo     *mockRepository
	payments *fakePayments
	sessions *trip.SessionStore
	caches   *cache.CacheManager
	userID   uuid.UUID
}

func newServiceFixture(t *testing.T, tripFee int64) *serviceFixture {
	t.Helper()

	dir := t.TempDir()
	foodPath := filepath.Join(dir, "food.csv")
	placePath := filepath.Join(dir, "places.csv")
	foodCSV := "name,location,rating,price\nWarung Sari,Bali,4.5,cheap\nKopi Kita,Bali,4.2,moderate\nSate Pak Min,Bali,4.0,cheap\n"
	placeCSV := "name,location,rating,description\nKuta Beach,Bali,4.7,surf\nUluwatu Temple,Bali,4.6,cliff temple\n"
	require.NoError(t, os.WriteFile(foodPath, []byte(foodCSV), 0o644))
	require.NoError(t, os.WriteFile(placePath, []byte(placeCSV), 0o644))

	cfg := &config.Config{
		Session: config.SessionConfig{DefaultTTL: time.Minute, SelectionTTL: time.Minute},
		Catalog: config.CatalogConfig{FoodSource: foodPath, PlaceSource: placePath},
		Billing: config.BillingConfig{TripFee: tripFee, Currency: "usd"},
	}

	logger := zap.NewNop()
	repo := &mockRepository{}
	payments := &fakePayments{}
	sessions := trip.NewSessionStore(cfg.Session, logger)
	caches := cache.NewCacheManager(logger)

	service := NewService(
		repo,
		catalog.NewLoader(logger),
		catalog.NewRanker(logger),
		planner.NewPlanner(logger),
		sessions,
		payments,
		caches,
		cfg,
		logger,
	)

	return &serviceFixture{
		service:  service,
		repo:     repo,
		payments: payments,
		sessions: sessions,
		caches:   caches,
		userID:   uuid.New(),
	}
}

func futureDate(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

func validRequest(userID uuid.UUID) models.CreateScheduleRequest {
	return models.CreateScheduleRequest{
		UserID:    userID,
		Province:  "Bali",
		StartDate: futureDate(1),
		EndDate:   futureDate(3),
	}
}

func TestCreateScheduleHappyPath(t *testing.T) {
	f := newServiceFixture(t, 0)

	scheduleID := uuid.New()
	link := models.ShareLink{Token: "tok", URL: "http://x/view-schedule/tok/", CreatedAt: time.Now().UTC()}
	f.repo.On("Save", mock.Anything, f.userID, "Trip to Bali", mock.Anything, mock.Anything).
		Return(scheduleID, link, nil)

	resp, err := f.service.CreateSchedule(context.Background(), validRequest(f.userID))
	require.NoError(t, err)
	require.NotNil(t, resp.Schedule)
	assert.Equal(t, scheduleID, resp.Schedule.ID)
	assert.Equal(t, link, resp.Schedule.ShareLink)
	assert.Len(t, resp.Schedule.Days, 3)
	assert.Empty(t, resp.Message)

	f.repo.AssertExpectations(t)
}

func TestCreateScheduleDefaultsName(t *testing.T) {
	f := newServiceFixture(t, 0)

	f.repo.On("Save", mock.Anything, f.userID, "Trip to Bali", mock.Anything, mock.Anything).
		Return(uuid.New(), models.ShareLink{}, nil)

	req := validRequest(f.userID)
	req.Name = "  "
	_, err := f.service.CreateSchedule(context.Background(), req)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestCreateScheduleValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.CreateScheduleRequest)
		wantErr error
	}{
		{"missing user", func(r *models.CreateScheduleRequest) { r.UserID = uuid.Nil }, models.ErrValidation},
		{"missing province", func(r *models.CreateScheduleRequest) { r.Province = " " }, models.ErrValidation},
		{"garbled start date", func(r *models.CreateScheduleRequest) { r.StartDate = "junk" }, models.ErrValidation},
		{"garbled end date", func(r *models.CreateScheduleRequest) { r.EndDate = "2025-13-40" }, models.ErrValidation},
		{"past start date", func(r *models.CreateScheduleRequest) { r.StartDate = "2020-01-01" }, models.ErrInvalidDateRange},
		{"reversed range", func(r *models.CreateScheduleRequest) {
			r.StartDate = futureDate(5)
			r.EndDate = futureDate(2)
		}, models.ErrInvalidDateRange},
		{"span too long", func(r *models.CreateScheduleRequest) {
			r.StartDate = futureDate(1)
			r.EndDate = futureDate(40)
		}, models.ErrInvalidDateRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t, 0)
			req := validRequest(f.userID)
			tc.mutate(&req)

			_, err := f.service.CreateSchedule(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateScheduleNoMatchesSkipsPersistence(t *testing.T) {
	f := newServiceFixture(t, 100)

	req := validRequest(f.userID)
	req.Province = "Atlantis"

	resp, err := f.service.CreateSchedule(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.Nil(t, resp.Schedule)
	assert.Zero(t, f.payments.charges)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateScheduleRefundsWhenSaveFails(t *testing.T) {
	f := newServiceFixture(t, 500)

	f.repo.On("Save", mock.Anything, f.userID, mock.Anything, mock.Anything, mock.Anything).
		Return(uuid.Nil, models.ShareLink{}, models.ErrPersistence)

	_, err := f.service.CreateSchedule(context.Background(), validRequest(f.userID))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistence)

	assert.Equal(t, 1, f.payments.charges)
	require.Len(t, f.payments.refunds, 1)
	assert.Equal(t, "pi_test_123", f.payments.refunds[0])
}

func TestCreateScheduleChargeFailureIsExternalServiceError(t *testing.T) {
	f := newServiceFixture(t, 500)
	f.payments.failCharge = true

	_, err := f.service.CreateSchedule(context.Background(), validRequest(f.userID))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrExternalService)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateScheduleReusesCachedPlanWithFreshIDs(t *testing.T) {
	f := newServiceFixture(t, 0)

	var saved [][]models.Day
	f.repo.On("Save", mock.Anything, f.userID, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(3).([]models.Day))
		}).
		Return(uuid.New(), models.ShareLink{}, nil)

	req := validRequest(f.userID)
	_, err := f.service.CreateSchedule(context.Background(), req)
	require.NoError(t, err)
	_, err = f.service.CreateSchedule(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, saved, 2)

	// The second identical request is served from the plan cache.
	m := f.caches.Plans.GetMetrics()
	assert.Equal(t, int64(1), m.Sets)
	assert.Equal(t, int64(1), m.Hits)

	// Same itinerary content, but never the same database keys.
	require.Equal(t, len(saved[0]), len(saved[1]))
	for i := range saved[0] {
		assert.Equal(t, saved[0][i].Date, saved[1][i].Date)
		assert.NotEqual(t, saved[0][i].ID, saved[1][i].ID)
		require.Equal(t, len(saved[0][i].Items), len(saved[1][i].Items))
		for j := range saved[0][i].Items {
			assert.NotEqual(t, saved[0][i].Items[j].ID, saved[1][i].Items[j].ID)
			assert.Equal(t, saved[1][i].ID, saved[1][i].Items[j].DayID)
		}
	}
}

func TestCreateScheduleConsumesStagedContext(t *testing.T) {
	f := newServiceFixture(t, 0)

	f.sessions.Set(f.userID.String(), trip.FieldHotel, "Grand Bali", 0)
	f.sessions.Set(f.userID.String(), trip.FieldFlight, "GA-402", 0)

	f.repo.On("Save", mock.Anything, f.userID, mock.Anything, mock.Anything,
		mock.MatchedBy(func(h *models.HotelSnapshot) bool {
			return h != nil && h.Name == "Grand Bali"
		})).
		Return(uuid.New(), models.ShareLink{}, nil)

	resp, err := f.service.CreateSchedule(context.Background(), validRequest(f.userID))
	require.NoError(t, err)
	assert.Equal(t, "GA-402", resp.Flight)

	// The staged context is consumed after the successful save.
	staged := f.sessions.Context(f.userID.String())
	assert.Empty(t, staged.SelectedHotel)
	assert.Empty(t, staged.SelectedFlight)

	f.repo.AssertExpectations(t)
}
