package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/models"
)

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

func (r *ApplicationRepo) Create(ctx context.Context, a *models.ProjectApplication) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO project_applications (id, project_id, freelancer_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, a.ID, a.ProjectID, a.FreelancerID, a.Message, a.Status).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectApplication, error) {
	var a models.ProjectApplication
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, freelancer_id, message, status, created_at, updated_at
		FROM project_applications WHERE id = $1
	`, id).Scan(&a.ID, &a.ProjectID, &a.FreelancerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByProjectAndFreelancer returns the freelancer's application to the
// project, if any. Used to keep Apply idempotent.
func (r *ApplicationRepo) GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.ProjectApplication, error) {
	var a models.ProjectApplication
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, freelancer_id, message, status, created_at, updated_at
		FROM project_applications WHERE project_id = $1 AND freelancer_id = $2
	`, projectID, freelancerID).Scan(&a.ID, &a.ProjectID, &a.FreelancerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM project_applications WHERE id = $1", id)
	return err
}

func (r *ApplicationRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectApplication, error) {
	return r.list(ctx, `
		SELECT id, project_id, freelancer_id, message, status, created_at, updated_at
		FROM project_applications WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
}

func (r *ApplicationRepo) ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.ProjectApplication, error) {
	return r.list(ctx, `
		SELECT id, project_id, freelancer_id, message, status, created_at, updated_at
		FROM project_applications WHERE freelancer_id = $1 ORDER BY created_at DESC
	`, freelancerID)
}

func (r *ApplicationRepo) list(ctx context.Context, query string, args ...any) ([]*models.ProjectApplication, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ProjectApplication
	for rows.Next() {
		var a models.ProjectApplication
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.FreelancerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// UpdateStatusTx decides a still-pending application inside the given
// transaction. Returns pgx.ErrNoRows when the row is gone or already decided.
func (r *ApplicationRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE project_applications SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, status, models.ApplicationStatusPending)
	if err != nil {
		return err
	}
	// Zero rows: the application is gone or already decided.
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RejectOtherPendingTx rejects every pending application to the project except
// the accepted one, inside the given transaction. Returns the freelancer IDs
// of the rejected applications.
func (r *ApplicationRepo) RejectOtherPendingTx(ctx context.Context, tx pgx.Tx, projectID, acceptedID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		UPDATE project_applications SET status = $3, updated_at = now()
		WHERE project_id = $1 AND id <> $2 AND status = $4
		RETURNING freelancer_id
	`, projectID, acceptedID, models.ApplicationStatusRejected, models.ApplicationStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
