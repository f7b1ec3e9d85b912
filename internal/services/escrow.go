package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workbridge/backend/internal/models"
)

// EscrowService moves credits between user balances and project escrow.
// Every move writes a transaction record in the same tx, so balances are
// reconstructable from the transaction log alone.
type EscrowService struct {
	Users        EscrowUserRepo
	Transactions EscrowTransactionRepo
}

// EscrowUserRepo is the minimal user repository interface for escrow.
type EscrowUserRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (newBalance int64, err error)
}

// EscrowTransactionRepo is the minimal transaction log interface for escrow.
type EscrowTransactionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
}

// NewEscrowService returns a new EscrowService.
func NewEscrowService(users EscrowUserRepo, transactions EscrowTransactionRepo) *EscrowService {
	return &EscrowService{Users: users, Transactions: transactions}
}

// HoldForProject locks the client row (SELECT FOR UPDATE), deducts the
// project budget, marks it held on the project, and records an escrow_hold
// transaction. A project with credits already held cannot be held again.
// Call within a transaction; the caller persists the project row.
func (s *EscrowService) HoldForProject(ctx context.Context, tx pgx.Tx, p *models.Project) error {
	if p.CreditsHeld != 0 {
		return ErrInvalidState
	}
	client, err := s.Users.GetByIDForUpdate(ctx, tx, p.ClientID)
	if err != nil {
		return err
	}
	if client.CreditsBalance < p.Budget {
		return ErrInsufficientFunds
	}
	if _, err := s.Users.DeductCredits(ctx, tx, p.ClientID, p.Budget); err != nil {
		return err
	}
	p.CreditsHeld = p.Budget
	projectID := p.ID
	return s.Transactions.CreateTx(ctx, tx, &models.Transaction{
		ID: uuid.New(), UserID: p.ClientID, ProjectID: &projectID,
		Type: models.TransactionEscrowHold, Amount: -p.Budget,
		Description: "credits held in escrow",
	})
}

// ReleaseToFreelancer credits the freelancer with the held amount and records
// a project_payment transaction. Call within a transaction.
func (s *EscrowService) ReleaseToFreelancer(ctx context.Context, tx pgx.Tx, freelancerID, projectID uuid.UUID, amount int64) error {
	if _, err := s.Users.GetByIDForUpdate(ctx, tx, freelancerID); err != nil {
		return err
	}
	if _, err := s.Users.AddCredits(ctx, tx, freelancerID, amount); err != nil {
		return err
	}
	return s.Transactions.CreateTx(ctx, tx, &models.Transaction{
		ID: uuid.New(), UserID: freelancerID, ProjectID: &projectID,
		Type: models.TransactionProjectPayment, Amount: amount,
		Description: "payment for completed project",
	})
}

// RefundToClient returns the held amount to the client and records an
// escrow_refund transaction. Call within a transaction.
func (s *EscrowService) RefundToClient(ctx context.Context, tx pgx.Tx, clientID, projectID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return nil
	}
	if _, err := s.Users.GetByIDForUpdate(ctx, tx, clientID); err != nil {
		return err
	}
	if _, err := s.Users.AddCredits(ctx, tx, clientID, amount); err != nil {
		return err
	}
	return s.Transactions.CreateTx(ctx, tx, &models.Transaction{
		ID: uuid.New(), UserID: clientID, ProjectID: &projectID,
		Type: models.TransactionEscrowRefund, Amount: amount,
		Description: "escrow refunded",
	})
}
