package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, username, password_hash, full_name, is_active, is_client, is_freelancer, is_admin, credits_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.Username, u.PasswordHash, u.FullName, u.IsActive, u.IsClient, u.IsFreelancer, u.IsAdmin, u.CreditsBalance).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, full_name, is_active, is_client, is_freelancer, is_admin, credits_balance, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsClient, &u.IsFreelancer, &u.IsAdmin, &u.CreditsBalance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, full_name, is_active, is_client, is_freelancer, is_admin, credits_balance, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsClient, &u.IsFreelancer, &u.IsAdmin, &u.CreditsBalance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, full_name, is_active, is_client, is_freelancer, is_admin, credits_balance, created_at, updated_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsClient, &u.IsFreelancer, &u.IsAdmin, &u.CreditsBalance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET email = $2, username = $3, password_hash = $4, full_name = $5, is_active = $6, is_client = $7, is_freelancer = $8, is_admin = $9, credits_balance = $10, updated_at = now()
		WHERE id = $1
	`, u.ID, u.Email, u.Username, u.PasswordHash, u.FullName, u.IsActive, u.IsClient, u.IsFreelancer, u.IsAdmin, u.CreditsBalance)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

// GetByIDForUpdate locks the user row for update. Call within a transaction.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := tx.QueryRow(ctx, `
		SELECT id, email, username, password_hash, full_name, is_active, is_client, is_freelancer, is_admin, credits_balance, created_at, updated_at
		FROM users WHERE id = $1 FOR UPDATE
	`, id).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsClient, &u.IsFreelancer, &u.IsAdmin, &u.CreditsBalance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeductCredits atomically deducts amount from the user if balance >= amount.
// Returns pgx.ErrNoRows when the balance is insufficient.
func (r *UserRepo) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET credits_balance = credits_balance - $1, updated_at = now()
		WHERE id = $2 AND credits_balance >= $1
		RETURNING credits_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// AddCredits adds amount to the user's balance and returns the new balance.
func (r *UserRepo) AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET credits_balance = credits_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING credits_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}
