package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/workbridge/backend/internal/models"
	"github.com/workbridge/backend/internal/notify"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ApplicationProjectRepo is the subset of the project repository the
// application service needs.
type ApplicationProjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, p *models.Project) error
}

// ApplicationRepo is the application store interface for the service.
type ApplicationRepo interface {
	Create(ctx context.Context, a *models.ProjectApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectApplication, error)
	GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.ProjectApplication, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectApplication, error)
	ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.ProjectApplication, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
	RejectOtherPendingTx(ctx context.Context, tx pgx.Tx, projectID, acceptedID uuid.UUID) ([]uuid.UUID, error)
}

// ApplicationEscrow abstracts the escrow hold needed on acceptance.
type ApplicationEscrow interface {
	HoldForProject(ctx context.Context, tx pgx.Tx, p *models.Project) error
}

// InsertApplicationDecidedTxFunc enqueues an ApplicationDecided job within the
// given transaction. Provided by main using river.Client.InsertTx.
type InsertApplicationDecidedTxFunc func(ctx context.Context, tx pgx.Tx, args notify.ApplicationDecidedArgs) error

// ApplicationService drives the application state machine: pending is the only
// state it can leave, to accepted, rejected, or deletion on withdrawal.
type ApplicationService struct {
	Pool           TxBeginner
	Projects       ApplicationProjectRepo
	Applications   ApplicationRepo
	Escrow         ApplicationEscrow
	insertDecision InsertApplicationDecidedTxFunc
}

// NewApplicationService returns a new ApplicationService. insertDecision may
// be nil when no job queue is wired (tests).
func NewApplicationService(pool TxBeginner, projects ApplicationProjectRepo, applications ApplicationRepo, escrow ApplicationEscrow, insertDecision InsertApplicationDecidedTxFunc) *ApplicationService {
	return &ApplicationService{Pool: pool, Projects: projects, Applications: applications, Escrow: escrow, insertDecision: insertDecision}
}

// Apply creates a pending application to an open project. Applying twice is
// idempotent: the existing application is returned unchanged.
func (s *ApplicationService) Apply(ctx context.Context, freelancer *models.User, projectID uuid.UUID, message string) (*models.ProjectApplication, error) {
	if !freelancer.IsFreelancer {
		return nil, ErrNotAuthorized
	}
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if project.ClientID == freelancer.ID {
		return nil, ErrNotAuthorized
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrInvalidState
	}

	existing, err := s.Applications.GetByProjectAndFreelancer(ctx, projectID, freelancer.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	app := &models.ProjectApplication{
		ID:           uuid.New(),
		ProjectID:    projectID,
		FreelancerID: freelancer.ID,
		Message:      message,
		Status:       models.ApplicationStatusPending,
	}
	if err := s.Applications.Create(ctx, app); err != nil {
		// Unique violation means a concurrent apply won the race; return theirs.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return s.Applications.GetByProjectAndFreelancer(ctx, projectID, freelancer.ID)
		}
		return nil, err
	}
	return app, nil
}

// Accept accepts a pending application. In one transaction it locks the
// project row, holds the budget in escrow, assigns the freelancer, moves the
// project to in_progress, and rejects every other pending application. The
// project lock is taken before the balance check so concurrent accepts
// serialize on the project.
func (s *ApplicationService) Accept(ctx context.Context, client *models.User, applicationID uuid.UUID) (*models.ProjectApplication, error) {
	app, err := s.Applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	project, err := s.Projects.GetByIDForUpdate(ctx, tx, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrInvalidState
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, ErrInvalidState
	}

	if err := s.Escrow.HoldForProject(ctx, tx, project); err != nil {
		return nil, err
	}

	// The status update only hits a still-pending row; zero rows means the
	// application was withdrawn or decided after the read above, and the
	// rollback undoes the hold.
	if err := s.Applications.UpdateStatusTx(ctx, tx, app.ID, models.ApplicationStatusAccepted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	project.FreelancerID = &app.FreelancerID
	project.Status = models.ProjectStatusInProgress
	if err := s.Projects.UpdateTx(ctx, tx, project); err != nil {
		return nil, err
	}
	rejected, err := s.Applications.RejectOtherPendingTx(ctx, tx, project.ID, app.ID)
	if err != nil {
		return nil, err
	}

	if s.insertDecision != nil {
		if err := s.insertDecision(ctx, tx, notify.ApplicationDecidedArgs{
			ApplicationID: app.ID, ProjectID: project.ID,
			FreelancerID: app.FreelancerID, Decision: models.ApplicationStatusAccepted,
		}); err != nil {
			return nil, err
		}
		for _, freelancerID := range rejected {
			if err := s.insertDecision(ctx, tx, notify.ApplicationDecidedArgs{
				ApplicationID: app.ID, ProjectID: project.ID,
				FreelancerID: freelancerID, Decision: models.ApplicationStatusRejected,
			}); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationStatusAccepted
	return app, nil
}

// Reject rejects a pending application. No money moves.
func (s *ApplicationService) Reject(ctx context.Context, client *models.User, applicationID uuid.UUID) (*models.ProjectApplication, error) {
	app, err := s.Applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	project, err := s.Projects.GetByID(ctx, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != client.ID {
		return nil, ErrNotAuthorized
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, ErrInvalidState
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.Applications.UpdateStatusTx(ctx, tx, app.ID, models.ApplicationStatusRejected); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	if s.insertDecision != nil {
		if err := s.insertDecision(ctx, tx, notify.ApplicationDecidedArgs{
			ApplicationID: app.ID, ProjectID: project.ID,
			FreelancerID: app.FreelancerID, Decision: models.ApplicationStatusRejected,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationStatusRejected
	return app, nil
}

// Withdraw deletes the freelancer's own pending application.
func (s *ApplicationService) Withdraw(ctx context.Context, freelancer *models.User, applicationID uuid.UUID) error {
	app, err := s.Applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if app.FreelancerID != freelancer.ID {
		return ErrNotAuthorized
	}
	if app.Status != models.ApplicationStatusPending {
		return ErrInvalidState
	}
	return s.Applications.Delete(ctx, app.ID)
}

// ListByProject returns a project's applications, visible to its client only.
func (s *ApplicationService) ListByProject(ctx context.Context, caller *models.User, projectID uuid.UUID) ([]*models.ProjectApplication, error) {
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if project.ClientID != caller.ID {
		return nil, ErrNotAuthorized
	}
	return s.Applications.ListByProjectID(ctx, projectID)
}

// ListMine returns the caller's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, freelancer *models.User) ([]*models.ProjectApplication, error) {
	return s.Applications.ListByFreelancerID(ctx, freelancer.ID)
}
