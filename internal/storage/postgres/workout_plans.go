package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type workoutPlansStorage struct {
	pool *pgxpool.Pool
}

func newWorkoutPlansStorage(pool *pgxpool.Pool) *workoutPlansStorage {
	return &workoutPlansStorage{pool: pool}
}

// Create inserts a submitted plan. The client must belong to the same owner;
// the check runs inside the insert so a foreign client id inserts nothing.
func (s *workoutPlansStorage) Create(ctx context.Context, plan *storage.WorkoutPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkClientOwner(ctx, tx, plan.OwnerUserID, plan.ClientID); err != nil {
		return err
	}

	query := `
		INSERT INTO workout_plans (id, owner_user_id, client_id, name, builder_mode, days_per_week, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		plan.ID,
		plan.OwnerUserID,
		plan.ClientID,
		plan.Name,
		plan.BuilderMode,
		plan.DaysPerWeek,
		plan.Payload,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert workout plan: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *workoutPlansStorage) Update(ctx context.Context, plan *storage.WorkoutPlan) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkClientOwner(ctx, tx, plan.OwnerUserID, plan.ClientID); err != nil {
		return err
	}

	query := `
		UPDATE workout_plans
		SET client_id = $3, name = $4, builder_mode = $5, days_per_week = $6, payload = $7, updated_at = $8
		WHERE id = $1 AND owner_user_id = $2
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		plan.ID,
		plan.OwnerUserID,
		plan.ClientID,
		plan.Name,
		plan.BuilderMode,
		plan.DaysPerWeek,
		plan.Payload,
		time.Now().UTC(),
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update workout plan: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *workoutPlansStorage) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.WorkoutPlan, error) {
	query := `
		SELECT id, owner_user_id, client_id, name, builder_mode, days_per_week, payload, created_at, updated_at
		FROM workout_plans
		WHERE id = $1 AND owner_user_id = $2
	`

	plan, err := scanWorkoutPlan(s.pool.QueryRow(ctx, query, id, ownerUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout plan: %w", err)
	}

	return plan, nil
}

func (s *workoutPlansStorage) List(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.WorkoutPlan, error) {
	query := `
		SELECT id, owner_user_id, client_id, name, builder_mode, days_per_week, payload, created_at, updated_at
		FROM workout_plans
		WHERE owner_user_id = $1 AND ($2::uuid IS NULL OR client_id = $2)
		ORDER BY updated_at DESC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout plans: %w", err)
	}
	defer rows.Close()

	plans := []storage.WorkoutPlan{}
	for rows.Next() {
		plan, err := scanWorkoutPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout plan: %w", err)
		}
		plans = append(plans, *plan)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating workout plans: %w", rows.Err())
	}

	return plans, nil
}

func (s *workoutPlansStorage) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	query := `DELETE FROM workout_plans WHERE id = $1 AND owner_user_id = $2`

	result, err := s.pool.Exec(ctx, query, id, ownerUserID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func scanWorkoutPlan(row pgx.Row) (*storage.WorkoutPlan, error) {
	var plan storage.WorkoutPlan
	err := row.Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.ClientID,
		&plan.Name,
		&plan.BuilderMode,
		&plan.DaysPerWeek,
		&plan.Payload,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// checkClientOwner rejects plans pointing at another coach's client.
func checkClientOwner(ctx context.Context, tx pgx.Tx, ownerUserID string, clientID *uuid.UUID) error {
	if clientID == nil {
		return nil
	}

	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND owner_user_id = $2)`,
		*clientID, ownerUserID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check client: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}

	return nil
}
