package activities

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository persists user activities, the source rows the reminder
// scan reads.
type Repository interface {
	Create(ctx context.Context, activity models.Activity) (models.Activity, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Activity, error)
	Delete(ctx context.Context, activityID, userID uuid.UUID) error
}

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     DB
}

func NewRepository(pgxpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: pgxpool}
}

// NewRepositoryWithDB injects the database handle (tests).
func NewRepositoryWithDB(db DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, activity models.Activity) (models.Activity, error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}

	query := `
		INSERT INTO activities (id, user_id, title, activity_date, email)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query,
		activity.ID, activity.UserID, activity.Title, activity.ActivityDate, activity.Email)
	if err != nil {
		r.logger.Error("Failed to insert activity", zap.Error(err))
		return models.Activity{}, fmt.Errorf("failed to insert activity: %w", models.ErrPersistence)
	}
	return activity, nil
}

func (r *RepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Activity, error) {
	query := `
		SELECT id, user_id, title, activity_date, email
		FROM activities
		WHERE user_id = $1
		ORDER BY activity_date, title`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list activities", zap.Error(err))
		return nil, fmt.Errorf("failed to list activities: %w", models.ErrPersistence)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.ActivityDate, &a.Email); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", models.ErrPersistence)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading activities: %w", models.ErrPersistence)
	}
	return out, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, activityID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2`, activityID, userID)
	if err != nil {
		r.logger.Error("Failed to delete activity", zap.Error(err))
		return fmt.Errorf("failed to delete activity: %w", models.ErrPersistence)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
