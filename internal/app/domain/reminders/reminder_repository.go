package reminders

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository is the durable side of the reminder scan: the activities to
// consider and the idempotency markers that make duplicate runs no-ops.
type Repository interface {
	ActivitiesOn(ctx context.Context, dates []string) ([]models.Activity, error)
	ClaimReminder(ctx context.Context, activityID uuid.UUID, remindDate string, dayOffset int) (bool, error)
	AlreadyRan(ctx context.Context, runDate string) (bool, error)
	MarkRan(ctx context.Context, runDate string) error
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     DB
}

func NewRepository(pgxpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: pgxpool}
}

// NewRepositoryWithDB wires an alternative DB implementation (tests).
func NewRepositoryWithDB(db DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

// ActivitiesOn returns every activity falling on one of the given dates.
func (r *RepositoryImpl) ActivitiesOn(ctx context.Context, dates []string) ([]models.Activity, error) {
	query, args, err := sq.Select("id", "user_id", "title", "activity_date", "email").
		From("activities").
		Where(sq.Eq{"activity_date": dates}).
		OrderBy("activity_date", "created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activities query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to scan activities", zap.Error(err))
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.ActivityDate, &a.Email); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		activities = append(activities, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}
	return activities, nil
}

// ClaimReminder marks (activity, date, offset) as sent. It returns false
// when the triple was already claimed, which makes overlapping runs and
// crash-replays no-ops.
func (r *RepositoryImpl) ClaimReminder(ctx context.Context, activityID uuid.UUID, remindDate string, dayOffset int) (bool, error) {
	query := `
        INSERT INTO reminder_log (activity_id, remind_date, day_offset)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, activityID, remindDate, dayOffset)
	if err != nil {
		r.logger.Error("Failed to claim reminder", zap.Error(err))
		return false, fmt.Errorf("claim reminder: %w", models.ErrPersistence)
	}
	return tag.RowsAffected() > 0, nil
}

// AlreadyRan reports whether the day-level marker exists for a date.
func (r *RepositoryImpl) AlreadyRan(ctx context.Context, runDate string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reminder_runs WHERE run_date = $1)`, runDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reminder run marker: %w", err)
	}
	return exists, nil
}

// MarkRan sets the day-level marker once the day's notifications are
// fully dispatched.
func (r *RepositoryImpl) MarkRan(ctx context.Context, runDate string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reminder_runs (run_date) VALUES ($1) ON CONFLICT DO NOTHING`, runDate)
	if err != nil {
		r.logger.Error("Failed to mark reminder run", zap.Error(err))
		return fmt.Errorf("mark reminder run: %w", models.ErrPersistence)
	}
	return nil
}
