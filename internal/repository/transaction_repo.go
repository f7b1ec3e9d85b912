package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/models"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, project_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.UserID, t.ProjectID, t.Type, t.Amount, t.Description).Scan(&t.CreatedAt)
}

// CreateTx inserts a transaction record inside the given transaction.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, project_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.UserID, t.ProjectID, t.Type, t.Amount, t.Description).Scan(&t.CreatedAt)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, project_id, type, amount, description, created_at
		FROM transactions WHERE id = $1
	`, id).Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUserID returns a page of the user's transactions, newest first.
func (r *TransactionRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	return r.list(ctx, `
		SELECT id, user_id, project_id, type, amount, description, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
}

func (r *TransactionRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Transaction, error) {
	return r.list(ctx, `
		SELECT id, user_id, project_id, type, amount, description, created_at
		FROM transactions WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
