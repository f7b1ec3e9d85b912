package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, p.ID, p.ClientID, p.FreelancerID, p.Title, p.Description, p.Area, p.Status, p.Budget, p.CreditsHeld, p.IsPaid, p.Deadline).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Description, &p.Area, &p.Status, &p.Budget, &p.CreditsHeld, &p.IsPaid, &p.Deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET client_id = $2, freelancer_id = $3, title = $4, description = $5, area = $6, status = $7, budget = $8, credits_held = $9, is_paid = $10, deadline = $11, updated_at = now()
		WHERE id = $1
	`, p.ID, p.ClientID, p.FreelancerID, p.Title, p.Description, p.Area, p.Status, p.Budget, p.CreditsHeld, p.IsPaid, p.Deadline)
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	return err
}

func (r *ProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	return r.list(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects ORDER BY created_at DESC
	`)
}

func (r *ProjectRepo) ListOpen(ctx context.Context) ([]*models.Project, error) {
	return r.list(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects WHERE status = $1 ORDER BY created_at DESC
	`, models.ProjectStatusOpen)
}

func (r *ProjectRepo) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	return r.list(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects WHERE client_id = $1 ORDER BY created_at DESC
	`, clientID)
}

func (r *ProjectRepo) ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.Project, error) {
	return r.list(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects WHERE freelancer_id = $1 ORDER BY created_at DESC
	`, freelancerID)
}

func (r *ProjectRepo) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Description, &p.Area, &p.Status, &p.Budget, &p.CreditsHeld, &p.IsPaid, &p.Deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// GetByIDForUpdate locks the project row for update. Call within a transaction.
func (r *ProjectRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := tx.QueryRow(ctx, `
		SELECT id, client_id, freelancer_id, title, description, area, status, budget, credits_held, is_paid, deadline, created_at, updated_at
		FROM projects WHERE id = $1 FOR UPDATE
	`, id).Scan(&p.ID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Description, &p.Area, &p.Status, &p.Budget, &p.CreditsHeld, &p.IsPaid, &p.Deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateTx writes the project inside the given transaction. Call after
// GetByIDForUpdate in the same tx.
func (r *ProjectRepo) UpdateTx(ctx context.Context, tx pgx.Tx, p *models.Project) error {
	_, err := tx.Exec(ctx, `
		UPDATE projects SET client_id = $2, freelancer_id = $3, title = $4, description = $5, area = $6, status = $7, budget = $8, credits_held = $9, is_paid = $10, deadline = $11, updated_at = now()
		WHERE id = $1
	`, p.ID, p.ClientID, p.FreelancerID, p.Title, p.Description, p.Area, p.Status, p.Budget, p.CreditsHeld, p.IsPaid, p.Deadline)
	return err
}
