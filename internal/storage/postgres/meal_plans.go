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

type mealPlansStorage struct {
	pool *pgxpool.Pool
}

func newMealPlansStorage(pool *pgxpool.Pool) *mealPlansStorage {
	return &mealPlansStorage{pool: pool}
}

func (s *mealPlansStorage) Create(ctx context.Context, plan *storage.MealPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	// Start transaction
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkClientOwner(ctx, tx, plan.OwnerUserID, plan.ClientID); err != nil {
		return err
	}

	query := `
		INSERT INTO meal_plans (id, owner_user_id, client_id, title, description, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		plan.ID,
		plan.OwnerUserID,
		plan.ClientID,
		plan.Title,
		plan.Description,
		plan.Payload,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *mealPlansStorage) Update(ctx context.Context, plan *storage.MealPlan) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkClientOwner(ctx, tx, plan.OwnerUserID, plan.ClientID); err != nil {
		return err
	}

	query := `
		UPDATE meal_plans
		SET client_id = $3, title = $4, description = $5, payload = $6, updated_at = $7
		WHERE id = $1 AND owner_user_id = $2
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		plan.ID,
		plan.OwnerUserID,
		plan.ClientID,
		plan.Title,
		plan.Description,
		plan.Payload,
		time.Now().UTC(),
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update meal plan: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *mealPlansStorage) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.MealPlan, error) {
	query := `
		SELECT id, owner_user_id, client_id, title, description, payload, created_at, updated_at
		FROM meal_plans
		WHERE id = $1 AND owner_user_id = $2
	`

	plan, err := scanMealPlan(s.pool.QueryRow(ctx, query, id, ownerUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	return plan, nil
}

func (s *mealPlansStorage) List(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.MealPlan, error) {
	query := `
		SELECT id, owner_user_id, client_id, title, description, payload, created_at, updated_at
		FROM meal_plans
		WHERE owner_user_id = $1 AND ($2::uuid IS NULL OR client_id = $2)
		ORDER BY updated_at DESC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	plans := []storage.MealPlan{}
	for rows.Next() {
		plan, err := scanMealPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *plan)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meal plans: %w", rows.Err())
	}

	return plans, nil
}

func (s *mealPlansStorage) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	query := `DELETE FROM meal_plans WHERE id = $1 AND owner_user_id = $2`

	result, err := s.pool.Exec(ctx, query, id, ownerUserID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func scanMealPlan(row pgx.Row) (*storage.MealPlan, error) {
	var plan storage.MealPlan
	err := row.Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.ClientID,
		&plan.Title,
		&plan.Description,
		&plan.Payload,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
