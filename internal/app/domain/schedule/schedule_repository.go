package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Field caps applied silently before insert. Lossy but intentional.
const (
	maxTitleLen       = 100
	maxAddressLen     = 200
	maxLinkLen        = 255
	maxDescriptionLen = 500
	maxShortLen       = 50
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository defines the persistence contract for schedules.
type Repository interface {
	Save(ctx context.Context, userID uuid.UUID, name string, days []models.Day, hotel *models.HotelSnapshot) (uuid.UUID, models.ShareLink, error)
	GetByToken(ctx context.Context, token string) (models.Schedule, error)
	ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string) ([]*models.Schedule, error)
	Delete(ctx context.Context, scheduleID uuid.UUID) error
}

// RepositoryImpl persists schedules in Postgres. The whole Save is one
// transaction; partial writes are never observable.
type RepositoryImpl struct {
	logger       *zap.Logger
	db           DB
	shareBaseURL string
}

func NewRepository(pgxpool *pgxpool.Pool, shareBaseURL string, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:       logger,
		db:           pgxpool,
		shareBaseURL: shareBaseURL,
	}
}

// NewRepositoryWithDB wires an alternative DB implementation (tests).
func NewRepositoryWithDB(db DB, shareBaseURL string, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:       logger,
		db:           db,
		shareBaseURL: shareBaseURL,
	}
}

// Save writes the schedule header, optional hotel snapshot, every day and
// itinerary row, and the share link atomically. Any failure rolls back
// the lot and surfaces models.ErrPersistence.
func (r *RepositoryImpl) Save(ctx context.Context, userID uuid.UUID, name string, days []models.Day, hotel *models.HotelSnapshot) (uuid.UUID, models.ShareLink, error) {
	if len(days) == 0 {
		return uuid.Nil, models.ShareLink{}, fmt.Errorf("schedule needs at least one day: %w", models.ErrValidation)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin schedule transaction", zap.Error(err))
		return uuid.Nil, models.ShareLink{}, fmt.Errorf("begin schedule transaction: %w", models.ErrPersistence)
	}

	scheduleID := uuid.New()
	now := time.Now().UTC()

	scheduleQuery := `
        INSERT INTO schedules (id, user_id, name, created_at)
        VALUES ($1, $2, $3, $4)
    `
	if _, err = tx.Exec(ctx, scheduleQuery, scheduleID, userID, truncate(name, maxTitleLen), now); err != nil {
		return uuid.Nil, models.ShareLink{}, r.rollback(ctx, tx, "insert schedule", err)
	}

	if hotel != nil {
		hotelQuery := `
            INSERT INTO schedule_hotels (
                id, schedule_id, name, address, description, price, hotel_class,
                img_origin, location_rating, link, created_at, updated_at
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        `
		if _, err = tx.Exec(ctx, hotelQuery,
			uuid.New(), scheduleID,
			truncate(hotel.Name, maxTitleLen),
			truncate(hotel.Address, maxAddressLen),
			truncate(hotel.Description, maxDescriptionLen),
			hotel.Price, hotel.HotelClass,
			truncate(hotel.ImgOrigin, maxLinkLen),
			hotel.LocationRating,
			truncate(hotel.Link, maxLinkLen),
			now, now,
		); err != nil {
			return uuid.Nil, models.ShareLink{}, r.rollback(ctx, tx, "insert schedule hotel", err)
		}
	}

	dayQuery := `
        INSERT INTO days (id, schedule_id, day_index, date_str)
        VALUES ($1, $2, $3, $4)
    `
	itemQuery := `
        INSERT INTO itineraries (
            id, day_id, schedule_id, timeslot, item_order,
            food_title, food_rating, food_price, food_address, food_phone, food_link, food_image, food_time,
            place_title, place_rating, place_description, place_address, place_image, place_link, place_time
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9, $10, $11, $12, $13,
            $14, $15, $16, $17, $18, $19, $20
        )
    `
	for _, day := range days {
		dayID := day.ID
		if dayID == uuid.Nil {
			dayID = uuid.New()
		}
		if _, err = tx.Exec(ctx, dayQuery, dayID, scheduleID, day.DayIndex, day.Date); err != nil {
			return uuid.Nil, models.ShareLink{}, r.rollback(ctx, tx, "insert day", err)
		}

		order := 0
		for _, item := range day.Items {
			// Items with neither half are dropped silently.
			if item.Food == nil && item.Place == nil {
				continue
			}

			args := []any{uuid.New(), dayID, scheduleID, truncate(item.Timeslot, maxShortLen), order}
			args = append(args, foodArgs(item.Food)...)
			args = append(args, placeArgs(item.Place)...)

			if _, err = tx.Exec(ctx, itemQuery, args...); err != nil {
				return uuid.Nil, models.ShareLink{}, r.rollback(ctx, tx, "insert itinerary item", err)
			}
			order++
		}
	}

	// Share tokens are random UUIDs, never derived from schedule content
	// and never recycled.
	token := strings.ToLower(uuid.New().String())
	shareURL := fmt.Sprintf("%s/view-schedule/%s/", strings.TrimRight(r.shareBaseURL, "/"), token)

	linkQuery := `
        INSERT INTO sharedlinks (id, schedule_id, share_token, share_url, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err = tx.Exec(ctx, linkQuery, uuid.New(), scheduleID, token, truncate(shareURL, maxLinkLen), now); err != nil {
		return uuid.Nil, models.ShareLink{}, r.rollback(ctx, tx, "insert share link", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit schedule transaction",
			zap.String("schedule_id", scheduleID.String()),
			zap.Error(err))
		return uuid.Nil, models.ShareLink{}, fmt.Errorf("commit schedule transaction: %w", models.ErrPersistence)
	}

	r.logger.Info("Schedule saved",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("days", len(days)))

	return scheduleID, models.ShareLink{Token: token, URL: shareURL, CreatedAt: now}, nil
}

// GetByToken resolves a schedule through its share token.
func (r *RepositoryImpl) GetByToken(ctx context.Context, token string) (models.Schedule, error) {
	headerQuery := `
        SELECT s.id, s.user_id, s.name, s.created_at, sl.share_token, sl.share_url, sl.created_at
        FROM sharedlinks sl
        JOIN schedules s ON s.id = sl.schedule_id
        WHERE sl.share_token = $1
    `
	var schedule models.Schedule
	err := r.db.QueryRow(ctx, headerQuery, strings.ToLower(token)).Scan(
		&schedule.ID, &schedule.UserID, &schedule.Name, &schedule.CreatedAt,
		&schedule.ShareLink.Token, &schedule.ShareLink.URL, &schedule.ShareLink.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Schedule{}, fmt.Errorf("share token %q: %w", token, models.ErrNotFound)
		}
		r.logger.Error("Failed to resolve share token", zap.Error(err))
		return models.Schedule{}, fmt.Errorf("resolve share token: %w", err)
	}

	hotel, err := r.getHotel(ctx, schedule.ID)
	if err != nil {
		return models.Schedule{}, err
	}
	schedule.Hotel = hotel

	days, err := r.getDays(ctx, schedule.ID)
	if err != nil {
		return models.Schedule{}, err
	}
	schedule.Days = days

	return schedule, nil
}

// ListForUser returns schedule headers for a user, newest first. The
// optional name filter matches as a case-insensitive substring.
func (r *RepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string) ([]*models.Schedule, error) {
	builder := sq.Select("id", "user_id", "name", "created_at").
		From("schedules").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if nameFilter != "" {
		builder = builder.Where(sq.ILike{"name": "%" + nameFilter + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list schedules", zap.Error(err))
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt); err != nil {
			r.logger.Error("Failed to scan schedule row", zap.Error(err))
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule rows: %w", err)
	}
	return schedules, nil
}

// Delete removes a schedule and its dependent rows. Share tokens are not
// reusable afterwards; tokens are random and never reissued.
func (r *RepositoryImpl) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, scheduleID)
	if err != nil {
		r.logger.Error("Failed to delete schedule", zap.Error(err))
		return fmt.Errorf("delete schedule: %w", models.ErrPersistence)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, models.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) getHotel(ctx context.Context, scheduleID uuid.UUID) (*models.HotelSnapshot, error) {
	query := `
        SELECT name, address, description, price, hotel_class, img_origin,
               location_rating, link, created_at, updated_at
        FROM schedule_hotels
        WHERE schedule_id = $1
    `
	var h models.HotelSnapshot
	var address, description, imgOrigin, link *string
	err := r.db.QueryRow(ctx, query, scheduleID).Scan(
		&h.Name, &address, &description, &h.Price, &h.HotelClass,
		&imgOrigin, &h.LocationRating, &link, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get schedule hotel", zap.Error(err))
		return nil, fmt.Errorf("get schedule hotel: %w", err)
	}
	h.Address = deref(address)
	h.Description = deref(description)
	h.ImgOrigin = deref(imgOrigin)
	h.Link = deref(link)
	return &h, nil
}

func (r *RepositoryImpl) getDays(ctx context.Context, scheduleID uuid.UUID) ([]models.Day, error) {
	dayQuery := `
        SELECT id, schedule_id, day_index, date_str
        FROM days
        WHERE schedule_id = $1
        ORDER BY day_index
    `
	rows, err := r.db.Query(ctx, dayQuery, scheduleID)
	if err != nil {
		r.logger.Error("Failed to get schedule days", zap.Error(err))
		return nil, fmt.Errorf("get schedule days: %w", err)
	}
	defer rows.Close()

	var days []models.Day
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var d models.Day
		if err := rows.Scan(&d.ID, &d.ScheduleID, &d.DayIndex, &d.Date); err != nil {
			return nil, fmt.Errorf("scan day row: %w", err)
		}
		index[d.ID] = len(days)
		days = append(days, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day rows: %w", err)
	}

	itemQuery := `
        SELECT i.id, i.day_id, i.schedule_id, i.timeslot, i.item_order,
               i.food_title, i.food_rating, i.food_price, i.food_address, i.food_phone,
               i.food_link, i.food_image, i.food_time,
               i.place_title, i.place_rating, i.place_description, i.place_address,
               i.place_image, i.place_link, i.place_time
        FROM itineraries i
        JOIN days d ON d.id = i.day_id
        WHERE i.schedule_id = $1
        ORDER BY d.day_index, i.item_order
    `
	itemRows, err := r.db.Query(ctx, itemQuery, scheduleID)
	if err != nil {
		r.logger.Error("Failed to get itinerary items", zap.Error(err))
		return nil, fmt.Errorf("get itinerary items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanItem(itemRows)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[item.DayID]; ok {
			days[pos].Items = append(days[pos].Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate itinerary rows: %w", err)
	}

	return days, nil
}

func scanItem(rows pgx.Rows) (models.ItineraryItem, error) {
	var item models.ItineraryItem
	var timeslot *string
	var foodTitle, foodPrice, foodAddress, foodPhone, foodLink, foodImage, foodTime *string
	var foodRating *float64
	var placeTitle, placeDescription, placeAddress, placeImage, placeLink, placeTime *string
	var placeRating *float64

	if err := rows.Scan(
		&item.ID, &item.DayID, &item.ScheduleID, &timeslot, &item.Order,
		&foodTitle, &foodRating, &foodPrice, &foodAddress, &foodPhone,
		&foodLink, &foodImage, &foodTime,
		&placeTitle, &placeRating, &placeDescription, &placeAddress,
		&placeImage, &placeLink, &placeTime,
	); err != nil {
		return models.ItineraryItem{}, fmt.Errorf("scan itinerary row: %w", err)
	}

	item.Timeslot = deref(timeslot)
	if foodTitle != nil {
		item.Food = &models.FoodEntry{
			Title:   *foodTitle,
			Rating:  derefFloat(foodRating),
			Price:   deref(foodPrice),
			Address: deref(foodAddress),
			Phone:   deref(foodPhone),
			Link:    deref(foodLink),
			Image:   deref(foodImage),
			Time:    deref(foodTime),
		}
	}
	if placeTitle != nil {
		item.Place = &models.PlaceEntry{
			Title:       *placeTitle,
			Rating:      derefFloat(placeRating),
			Description: deref(placeDescription),
			Address:     deref(placeAddress),
			Image:       deref(placeImage),
			Link:        deref(placeLink),
			Time:        deref(placeTime),
		}
	}
	return item, nil
}

func (r *RepositoryImpl) rollback(ctx context.Context, tx pgx.Tx, step string, err error) error {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		r.logger.Error("Failed to rollback schedule transaction", zap.Error(rollbackErr))
	}
	r.logger.Error("Schedule write failed",
		zap.String("step", step),
		zap.Error(err))
	return fmt.Errorf("%s: %w", step, models.ErrPersistence)
}

func foodArgs(f *models.FoodEntry) []any {
	if f == nil {
		return []any{nil, nil, nil, nil, nil, nil, nil, nil}
	}
	return []any{
		truncate(f.Title, maxTitleLen),
		f.Rating,
		truncate(f.Price, maxShortLen),
		truncate(f.Address, maxAddressLen),
		truncate(f.Phone, maxShortLen),
		truncate(f.Link, maxLinkLen),
		truncate(f.Image, maxLinkLen),
		truncate(f.Time, maxShortLen),
	}
}

func placeArgs(p *models.PlaceEntry) []any {
	if p == nil {
		return []any{nil, nil, nil, nil, nil, nil, nil}
	}
	return []any{
		truncate(p.Title, maxTitleLen),
		p.Rating,
		truncate(p.Description, maxDescriptionLen),
		truncate(p.Address, maxAddressLen),
		truncate(p.Image, maxLinkLen),
		truncate(p.Link, maxLinkLen),
		truncate(p.Time, maxShortLen),
	}
}

// truncate caps a string at max characters, rune-safe.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
