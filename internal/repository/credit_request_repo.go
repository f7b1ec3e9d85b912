package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/models"
)

type CreditRequestRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRequestRepo(pool *pgxpool.Pool) *CreditRequestRepo {
	return &CreditRequestRepo{pool: pool}
}

func (r *CreditRequestRepo) Create(ctx context.Context, c *models.CreditRequest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO credit_requests (id, user_id, amount, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, c.ID, c.UserID, c.Amount, c.Description, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CreditRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CreditRequest, error) {
	var c models.CreditRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, amount, description, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at
		FROM credit_requests WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.Amount, &c.Description, &c.Status, &c.ReviewedBy, &c.ReviewedAt, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CreditRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM credit_requests WHERE id = $1", id)
	return err
}

func (r *CreditRequestRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.CreditRequest, error) {
	return r.list(ctx, `
		SELECT id, user_id, amount, description, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at
		FROM credit_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (r *CreditRequestRepo) ListPending(ctx context.Context) ([]*models.CreditRequest, error) {
	return r.list(ctx, `
		SELECT id, user_id, amount, description, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at
		FROM credit_requests WHERE status = $1 ORDER BY created_at ASC
	`, models.CreditRequestPending)
}

func (r *CreditRequestRepo) list(ctx context.Context, query string, args ...any) ([]*models.CreditRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditRequest
	for rows.Next() {
		var c models.CreditRequest
		if err := rows.Scan(&c.ID, &c.UserID, &c.Amount, &c.Description, &c.Status, &c.ReviewedBy, &c.ReviewedAt, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// GetByIDForUpdate locks the credit request row for update. Call within a
// transaction; review decisions race otherwise.
func (r *CreditRequestRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CreditRequest, error) {
	var c models.CreditRequest
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, amount, description, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at
		FROM credit_requests WHERE id = $1 FOR UPDATE
	`, id).Scan(&c.ID, &c.UserID, &c.Amount, &c.Description, &c.Status, &c.ReviewedBy, &c.ReviewedAt, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateReviewTx stamps the review decision inside the given transaction.
func (r *CreditRequestRepo) UpdateReviewTx(ctx context.Context, tx pgx.Tx, c *models.CreditRequest) error {
	_, err := tx.Exec(ctx, `
		UPDATE credit_requests SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, updated_at = now()
		WHERE id = $1
	`, c.ID, c.Status, c.ReviewedBy, c.ReviewedAt, c.RejectionReason)
	return err
}
