package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workbridge/backend/internal/models"
	"github.com/workbridge/backend/internal/notify"
)

// ProjectRepo is the project store interface for the service.
type ProjectRepo interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Project, error)
	ListOpen(ctx context.Context) ([]*models.Project, error)
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error)
	ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.Project, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, p *models.Project) error
}

// ProjectEscrow abstracts the escrow moves needed on assignment, completion,
// and cancel.
type ProjectEscrow interface {
	HoldForProject(ctx context.Context, tx pgx.Tx, p *models.Project) error
	ReleaseToFreelancer(ctx context.Context, tx pgx.Tx, freelancerID, projectID uuid.UUID, amount int64) error
	RefundToClient(ctx context.Context, tx pgx.Tx, clientID, projectID uuid.UUID, amount int64) error
}

// InsertPayoutRecordedTxFunc enqueues a PayoutRecorded job within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertPayoutRecordedTxFunc func(ctx context.Context, tx pgx.Tx, args notify.PayoutRecordedArgs) error

// ProjectService drives the project lifecycle:
// open -> in_progress -> completed, with cancellation branches.
type ProjectService struct {
	Pool         TxBeginner
	Projects     ProjectRepo
	Escrow       ProjectEscrow
	insertPayout InsertPayoutRecordedTxFunc
}

// NewProjectService returns a new ProjectService. insertPayout may be nil
// when no job queue is wired (tests).
func NewProjectService(pool TxBeginner, projects ProjectRepo, escrow ProjectEscrow, insertPayout InsertPayoutRecordedTxFunc) *ProjectService {
	return &ProjectService{Pool: pool, Projects: projects, Escrow: escrow, insertPayout: insertPayout}
}

type CreateProjectInput struct {
	Title       string
	Description string
	Area        string
	Budget      int64
	Deadline    *time.Time
}

// Create posts a new open project. No credits move at creation; the budget is
// held in escrow only when an application is accepted.
func (s *ProjectService) Create(ctx context.Context, client *models.User, in CreateProjectInput) (*models.Project, error) {
	if !client.IsClient {
		return nil, ErrNotAuthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrInvalidInput
	}
	if in.Budget <= 0 {
		return nil, ErrInvalidInput
	}
	p := &models.Project{
		ID:          uuid.New(),
		ClientID:    client.ID,
		Title:       in.Title,
		Description: in.Description,
		Area:        in.Area,
		Status:      models.ProjectStatusOpen,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
	}
	if err := s.Projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) ListOpen(ctx context.Context) ([]*models.Project, error) {
	return s.Projects.ListOpen(ctx)
}

func (s *ProjectService) ListByClient(ctx context.Context, client *models.User) ([]*models.Project, error) {
	return s.Projects.ListByClientID(ctx, client.ID)
}

func (s *ProjectService) ListByFreelancer(ctx context.Context, freelancer *models.User) ([]*models.Project, error) {
	return s.Projects.ListByFreelancerID(ctx, freelancer.ID)
}

type UpdateProjectInput struct {
	Title       *string
	Description *string
	Area        *string
	Budget      *int64
	Deadline    *time.Time
}

// Update edits project fields. Only the owning client may edit, and only
// while the project is still open; after assignment the budget is committed.
// The row stays locked for the read-modify-write so a concurrent assignment
// cannot be overwritten.
func (s *ProjectService) Update(ctx context.Context, client *models.User, id uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	if p.Status != models.ProjectStatusOpen {
		return nil, ErrInvalidState
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, ErrInvalidInput
		}
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.Budget != nil {
		if *in.Budget <= 0 {
			return nil, ErrInvalidInput
		}
		p.Budget = *in.Budget
	}
	if in.Deadline != nil {
		p.Deadline = in.Deadline
	}
	if err := s.Projects.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Assign hands an open project to a freelancer directly, without an
// application. In one transaction it locks the project, holds the budget in
// escrow, and moves the project to assigned. The freelancer starts work by
// accepting in-app later; an accepted application goes straight to in_progress
// instead.
func (s *ProjectService) Assign(ctx context.Context, client *models.User, id, freelancerID uuid.UUID) (*models.Project, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	if p.Status != models.ProjectStatusOpen {
		return nil, ErrInvalidState
	}
	if freelancerID == client.ID {
		return nil, ErrInvalidInput
	}

	if err := s.Escrow.HoldForProject(ctx, tx, p); err != nil {
		return nil, err
	}
	p.FreelancerID = &freelancerID
	p.Status = models.ProjectStatusAssigned
	if err := s.Projects.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Complete pays the freelancer. In one transaction it locks the project,
// releases exactly credits_held to the assigned freelancer, records the
// project_payment, and marks the project completed and paid. Safe against
// double payment: a paid project cannot be completed again.
func (s *ProjectService) Complete(ctx context.Context, client *models.User, id uuid.UUID) (*models.Project, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	if p.IsPaid || p.FreelancerID == nil {
		return nil, ErrInvalidState
	}
	switch p.Status {
	case models.ProjectStatusAssigned, models.ProjectStatusInProgress, models.ProjectStatusCompleted:
		// completed here means the freelancer marked it done; payment is still due
	default:
		return nil, ErrInvalidState
	}

	amount := p.CreditsHeld
	if err := s.Escrow.ReleaseToFreelancer(ctx, tx, *p.FreelancerID, p.ID, amount); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatusCompleted
	p.IsPaid = true
	p.CreditsHeld = 0
	if err := s.Projects.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}

	if s.insertPayout != nil {
		if err := s.insertPayout(ctx, tx, notify.PayoutRecordedArgs{
			ProjectID: p.ID, FreelancerID: *p.FreelancerID, Amount: amount,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// MarkCompletedByFreelancer lets the assigned freelancer flag the work as
// done. The escrow stays held; the client releases it with Complete. The row
// is locked so a payout committing concurrently cannot be clobbered by a
// stale write.
func (s *ProjectService) MarkCompletedByFreelancer(ctx context.Context, freelancer *models.User, id uuid.UUID) (*models.Project, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.FreelancerID == nil || *p.FreelancerID != freelancer.ID {
		return nil, ErrNotAuthorized
	}
	if p.Status != models.ProjectStatusAssigned && p.Status != models.ProjectStatusInProgress {
		return nil, ErrInvalidState
	}
	p.Status = models.ProjectStatusCompleted
	if err := s.Projects.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Cancel cancels a project. An open project just flips status; an assigned or
// in-progress project refunds the held credits to the client first. Completed
// and cancelled projects cannot be cancelled.
func (s *ProjectService) Cancel(ctx context.Context, client *models.User, id uuid.UUID) (*models.Project, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	switch p.Status {
	case models.ProjectStatusOpen, models.ProjectStatusAssigned, models.ProjectStatusInProgress:
	default:
		return nil, ErrInvalidState
	}

	if p.CreditsHeld > 0 {
		if err := s.Escrow.RefundToClient(ctx, tx, p.ClientID, p.ID, p.CreditsHeld); err != nil {
			return nil, err
		}
		p.CreditsHeld = 0
	}
	p.Status = models.ProjectStatusCancelled
	if err := s.Projects.UpdateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a project. Allowed only while open, before any credits are
// held; applications go with it.
func (s *ProjectService) Delete(ctx context.Context, client *models.User, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.ClientID != client.ID {
		return ErrNotAuthorized
	}
	if p.Status != models.ProjectStatusOpen {
		return ErrInvalidState
	}
	return s.Projects.Delete(ctx, p.ID)
}
