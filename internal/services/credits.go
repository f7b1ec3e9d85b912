package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workbridge/backend/internal/models"
)

// CreditUserRepo is the subset of the user repository the credit service needs.
type CreditUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error)
}

// CreditTransactionRepo is the transaction log interface for the service.
type CreditTransactionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

// CreditRequestStore is the credit request store interface for the service.
type CreditRequestStore interface {
	Create(ctx context.Context, c *models.CreditRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CreditRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.CreditRequest, error)
	ListPending(ctx context.Context) ([]*models.CreditRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CreditRequest, error)
	UpdateReviewTx(ctx context.Context, tx pgx.Tx, c *models.CreditRequest) error
}

// CreditService owns balances, the transaction log, and the credit request
// review workflow.
type CreditService struct {
	Pool           TxBeginner
	Users          CreditUserRepo
	Transactions   CreditTransactionRepo
	CreditRequests CreditRequestStore
}

// NewCreditService returns a new CreditService.
func NewCreditService(pool TxBeginner, users CreditUserRepo, transactions CreditTransactionRepo, creditRequests CreditRequestStore) *CreditService {
	return &CreditService{Pool: pool, Users: users, Transactions: transactions, CreditRequests: creditRequests}
}

// Balance returns the user's current credit balance.
func (s *CreditService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return u.CreditsBalance, nil
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ListTransactions returns a page of the user's transaction history, newest
// first. limit is clamped to [1, 200], a non-positive limit picks the default.
func (s *CreditService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Transactions.ListByUserID(ctx, userID, limit, offset)
}

// PurchaseCredits credits the user's balance and records a credit_purchase.
func (s *CreditService) PurchaseCredits(ctx context.Context, user *models.User, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.Users.GetByIDForUpdate(ctx, tx, user.ID); err != nil {
		return nil, err
	}
	if _, err := s.Users.AddCredits(ctx, tx, user.ID, amount); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		ID: uuid.New(), UserID: user.ID,
		Type: models.TransactionCreditPurchase, Amount: amount,
		Description: "credit purchase",
	}
	if err := s.Transactions.CreateTx(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// RequestWithdrawal deducts the amount from the user's balance and records a
// withdrawal_request. Fails with ErrInsufficientFunds if the balance is low.
func (s *CreditService) RequestWithdrawal(ctx context.Context, user *models.User, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u, err := s.Users.GetByIDForUpdate(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if u.CreditsBalance < amount {
		return nil, ErrInsufficientFunds
	}
	if _, err := s.Users.DeductCredits(ctx, tx, user.ID, amount); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		ID: uuid.New(), UserID: user.ID,
		Type: models.TransactionWithdrawalRequest, Amount: -amount,
		Description: "withdrawal request",
	}
	if err := s.Transactions.CreateTx(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateCreditRequest files a pending top-up request for admin review.
// Amounts are capped at MaxCreditRequestAmount.
func (s *CreditService) CreateCreditRequest(ctx context.Context, user *models.User, amount int64, description string) (*models.CreditRequest, error) {
	if amount <= 0 || amount > models.MaxCreditRequestAmount {
		return nil, ErrInvalidInput
	}
	c := &models.CreditRequest{
		ID:          uuid.New(),
		UserID:      user.ID,
		Amount:      amount,
		Description: description,
		Status:      models.CreditRequestPending,
	}
	if err := s.CreditRequests.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListMyCreditRequests returns the caller's credit requests, newest first.
func (s *CreditService) ListMyCreditRequests(ctx context.Context, user *models.User) ([]*models.CreditRequest, error) {
	return s.CreditRequests.ListByUserID(ctx, user.ID)
}

// ListPendingCreditRequests returns all pending requests, oldest first.
// Admin only.
func (s *CreditService) ListPendingCreditRequests(ctx context.Context, admin *models.User) ([]*models.CreditRequest, error) {
	if !admin.IsAdmin {
		return nil, ErrNotAuthorized
	}
	return s.CreditRequests.ListPending(ctx)
}

// ApproveCreditRequest grants a pending request: in one transaction it locks
// the request, credits the user, records a credit_request transaction, and
// stamps the review. A decided request cannot be decided again.
func (s *CreditService) ApproveCreditRequest(ctx context.Context, admin *models.User, requestID uuid.UUID) (*models.CreditRequest, error) {
	if !admin.IsAdmin {
		return nil, ErrNotAuthorized
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := s.CreditRequests.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.Status != models.CreditRequestPending {
		return nil, ErrInvalidState
	}

	if _, err := s.Users.AddCredits(ctx, tx, c.UserID, c.Amount); err != nil {
		return nil, err
	}
	if err := s.Transactions.CreateTx(ctx, tx, &models.Transaction{
		ID: uuid.New(), UserID: c.UserID,
		Type: models.TransactionCreditRequest, Amount: c.Amount,
		Description: "credit request approved",
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	c.Status = models.CreditRequestApproved
	c.ReviewedBy = &admin.ID
	c.ReviewedAt = &now
	if err := s.CreditRequests.UpdateReviewTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// RejectCreditRequest declines a pending request with a reason. No money moves.
func (s *CreditService) RejectCreditRequest(ctx context.Context, admin *models.User, requestID uuid.UUID, reason string) (*models.CreditRequest, error) {
	if !admin.IsAdmin {
		return nil, ErrNotAuthorized
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := s.CreditRequests.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.Status != models.CreditRequestPending {
		return nil, ErrInvalidState
	}

	now := time.Now()
	c.Status = models.CreditRequestRejected
	c.ReviewedBy = &admin.ID
	c.ReviewedAt = &now
	c.RejectionReason = &reason
	if err := s.CreditRequests.UpdateReviewTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCreditRequest lets the owner retract a request that is still pending.
func (s *CreditService) DeleteCreditRequest(ctx context.Context, user *models.User, requestID uuid.UUID) error {
	c, err := s.CreditRequests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if c.UserID != user.ID {
		return ErrNotAuthorized
	}
	if c.Status != models.CreditRequestPending {
		return ErrInvalidState
	}
	return s.CreditRequests.Delete(ctx, c.ID)
}
