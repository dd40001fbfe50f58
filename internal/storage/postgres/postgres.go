package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage: Postgres реализация storage.Storage
type PostgresStorage struct {
	pool         *pgxpool.Pool
	workoutPlans *workoutPlansStorage
	mealPlans    *mealPlansStorage
}

// New открывает пул соединений и проверяет его пингом
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:         pool,
		workoutPlans: newWorkoutPlansStorage(pool),
		mealPlans:    newMealPlansStorage(pool),
	}, nil
}

func (p *PostgresStorage) ListClients(ctx context.Context, ownerUserID string) ([]storage.Client, error) {
	query := `
		SELECT id, owner_user_id, name, email, created_at, updated_at
		FROM clients
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []storage.Client{}
	for rows.Next() {
		var c storage.Client
		err := rows.Scan(
			&c.ID,
			&c.OwnerUserID,
			&c.Name,
			&c.Email,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

func (p *PostgresStorage) GetClient(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Client, error) {
	query := `
		SELECT id, owner_user_id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1 AND owner_user_id = $2
	`

	var c storage.Client
	err := p.pool.QueryRow(ctx, query, id, ownerUserID).Scan(
		&c.ID,
		&c.OwnerUserID,
		&c.Name,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (p *PostgresStorage) CreateClient(ctx context.Context, client *storage.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	query := `
		INSERT INTO clients (id, owner_user_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		client.ID,
		client.OwnerUserID,
		client.Name,
		client.Email,
		client.CreatedAt,
		client.UpdatedAt,
	)

	return err
}

func (p *PostgresStorage) UpdateClient(ctx context.Context, client *storage.Client) error {
	client.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE clients
		SET name = $3, email = $4, updated_at = $5
		WHERE id = $1 AND owner_user_id = $2
		RETURNING created_at
	`

	err := p.pool.QueryRow(ctx, query,
		client.ID,
		client.OwnerUserID,
		client.Name,
		client.Email,
		client.UpdatedAt,
	).Scan(&client.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	return err
}

func (p *PostgresStorage) DeleteClient(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE id = $1 AND owner_user_id = $2`

	result, err := p.pool.Exec(ctx, query, id, ownerUserID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) CreateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	return p.workoutPlans.Create(ctx, plan)
}

func (p *PostgresStorage) UpdateWorkoutPlan(ctx context.Context, plan *storage.WorkoutPlan) error {
	return p.workoutPlans.Update(ctx, plan)
}

func (p *PostgresStorage) GetWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.WorkoutPlan, error) {
	return p.workoutPlans.Get(ctx, ownerUserID, id)
}

func (p *PostgresStorage) ListWorkoutPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.WorkoutPlan, error) {
	return p.workoutPlans.List(ctx, ownerUserID, clientID)
}

func (p *PostgresStorage) DeleteWorkoutPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return p.workoutPlans.Delete(ctx, ownerUserID, id)
}

func (p *PostgresStorage) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	return p.mealPlans.Create(ctx, plan)
}

func (p *PostgresStorage) UpdateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	return p.mealPlans.Update(ctx, plan)
}

func (p *PostgresStorage) GetMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.MealPlan, error) {
	return p.mealPlans.Get(ctx, ownerUserID, id)
}

func (p *PostgresStorage) ListMealPlans(ctx context.Context, ownerUserID string, clientID *uuid.UUID) ([]storage.MealPlan, error) {
	return p.mealPlans.List(ctx, ownerUserID, clientID)
}

func (p *PostgresStorage) DeleteMealPlan(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return p.mealPlans.Delete(ctx, ownerUserID, id)
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
