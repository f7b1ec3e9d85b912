package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workbridge/backend/internal/models"
	"github.com/workbridge/backend/internal/notify"
)

func openProject(cl *models.User, budget int64) *models.Project {
	return &models.Project{
		ID:       uuid.New(),
		ClientID: cl.ID,
		Title:    "build a landing page",
		Status:   models.ProjectStatusOpen,
		Budget:   budget,
	}
}

func pendingApplication(p *models.Project, fr *models.User) *models.ProjectApplication {
	return &models.ProjectApplication{
		ID:           uuid.New(),
		ProjectID:    p.ID,
		FreelancerID: fr.ID,
		Status:       models.ApplicationStatusPending,
	}
}

func newApplicationService(projects *mockProjects, apps *mockApplications, users *mockUsers, transactions *mockTransactions, insert InsertApplicationDecidedTxFunc) *ApplicationService {
	escrow := NewEscrowService(users, transactions)
	return NewApplicationService(mockPool{}, projects, apps, escrow, insert)
}

func TestApply_CreatesPending(t *testing.T) {
	cl := client(0)
	fr := freelancer()
	p := openProject(cl, 100)

	apps := newMockApplications()
	svc := newApplicationService(newMockProjects(p), apps, newMockUsers(), &mockTransactions{}, nil)

	app, err := svc.Apply(context.Background(), fr, p.ID, "happy to help")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != models.ApplicationStatusPending {
		t.Errorf("status: got %q, want pending", app.Status)
	}
	if app.FreelancerID != fr.ID || app.ProjectID != p.ID {
		t.Error("application should reference the freelancer and project")
	}
}

func TestApply_Idempotent(t *testing.T) {
	cl := client(0)
	fr := freelancer()
	p := openProject(cl, 100)

	svc := newApplicationService(newMockProjects(p), newMockApplications(), newMockUsers(), &mockTransactions{}, nil)

	ctx := context.Background()
	first, err := svc.Apply(ctx, fr, p.ID, "first")
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	second, err := svc.Apply(ctx, fr, p.ID, "second")
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second apply should return the existing application, got %s want %s", second.ID, first.ID)
	}
	if second.Message != "first" {
		t.Errorf("existing application must be unchanged, message = %q", second.Message)
	}
}

func TestApply_Rejections(t *testing.T) {
	cl := client(0)
	fr := freelancer()

	assigned := openProject(cl, 100)
	assigned.Status = models.ProjectStatusInProgress

	svc := newApplicationService(newMockProjects(assigned), newMockApplications(), newMockUsers(), &mockTransactions{}, nil)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, fr, assigned.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("apply to non-open project: got %v, want ErrInvalidState", err)
	}
	if _, err := svc.Apply(ctx, fr, uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("apply to missing project: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Apply(ctx, cl, assigned.ID, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("apply without freelancer role: got %v, want ErrNotAuthorized", err)
	}

	// A client with the freelancer role still cannot apply to their own project.
	both := client(0)
	both.IsFreelancer = true
	own := openProject(both, 100)
	svc = newApplicationService(newMockProjects(own), newMockApplications(), newMockUsers(), &mockTransactions{}, nil)
	if _, err := svc.Apply(ctx, both, own.ID, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("apply to own project: got %v, want ErrNotAuthorized", err)
	}
}

func TestAccept_HappyPath(t *testing.T) {
	cl := client(500)
	fr := freelancer()
	other := freelancer()
	p := openProject(cl, 200)
	app := pendingApplication(p, fr)
	rival := pendingApplication(p, other)

	users := newMockUsers(cl, fr)
	transactions := &mockTransactions{}
	projects := newMockProjects(p)
	apps := newMockApplications(app, rival)

	var decisions []notify.ApplicationDecidedArgs
	svc := newApplicationService(projects, apps, users, transactions, func(_ context.Context, _ pgx.Tx, args notify.ApplicationDecidedArgs) error {
		decisions = append(decisions, args)
		return nil
	})

	got, err := svc.Accept(context.Background(), cl, app.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got.Status != models.ApplicationStatusAccepted {
		t.Errorf("accepted application status: got %q", got.Status)
	}

	// Budget moved from the client into escrow.
	if bal := users.balance(cl.ID); bal != 300 {
		t.Errorf("client balance: got %d, want 300", bal)
	}
	holds := transactions.byType(models.TransactionEscrowHold)
	if len(holds) != 1 || holds[0].Amount != -200 {
		t.Fatalf("escrow_hold entries: %+v", holds)
	}

	// Project assigned and in progress with the budget held.
	up := projects.get(p.ID)
	if up.Status != models.ProjectStatusInProgress {
		t.Errorf("project status: got %q, want in_progress", up.Status)
	}
	if up.FreelancerID == nil || *up.FreelancerID != fr.ID {
		t.Error("project should be assigned to the accepted freelancer")
	}
	if up.CreditsHeld != 200 {
		t.Errorf("credits_held: got %d, want 200", up.CreditsHeld)
	}

	// The rival application was bulk-rejected.
	if st := apps.get(rival.ID).Status; st != models.ApplicationStatusRejected {
		t.Errorf("rival application status: got %q, want rejected", st)
	}

	// One decision per applicant was enqueued in the transaction.
	if len(decisions) != 2 {
		t.Fatalf("decisions enqueued: got %d, want 2", len(decisions))
	}
	byFreelancer := map[uuid.UUID]string{}
	for _, d := range decisions {
		byFreelancer[d.FreelancerID] = d.Decision
	}
	if byFreelancer[fr.ID] != models.ApplicationStatusAccepted {
		t.Errorf("accepted freelancer decision: got %q", byFreelancer[fr.ID])
	}
	if byFreelancer[other.ID] != models.ApplicationStatusRejected {
		t.Errorf("rejected freelancer decision: got %q", byFreelancer[other.ID])
	}
}

func TestAccept_InsufficientFunds(t *testing.T) {
	cl := client(50)
	fr := freelancer()
	p := openProject(cl, 200)
	app := pendingApplication(p, fr)

	users := newMockUsers(cl, fr)
	projects := newMockProjects(p)
	apps := newMockApplications(app)
	svc := newApplicationService(projects, apps, users, &mockTransactions{}, nil)

	if _, err := svc.Accept(context.Background(), cl, app.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing moved: project still open, application still pending.
	if st := projects.get(p.ID).Status; st != models.ProjectStatusOpen {
		t.Errorf("project status after failed accept: got %q, want open", st)
	}
	if st := apps.get(app.ID).Status; st != models.ApplicationStatusPending {
		t.Errorf("application status after failed accept: got %q, want pending", st)
	}
	if bal := users.balance(cl.ID); bal != 50 {
		t.Errorf("client balance after failed accept: got %d, want 50", bal)
	}
}

func TestAccept_Authorization(t *testing.T) {
	cl := client(500)
	stranger := client(500)
	fr := freelancer()
	p := openProject(cl, 100)
	app := pendingApplication(p, fr)

	svc := newApplicationService(newMockProjects(p), newMockApplications(app), newMockUsers(cl, fr), &mockTransactions{}, nil)
	ctx := context.Background()

	if _, err := svc.Accept(ctx, stranger, app.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("accept by non-owner: got %v, want ErrNotAuthorized", err)
	}
	if _, err := svc.Accept(ctx, cl, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("accept missing application: got %v, want ErrNotFound", err)
	}
}

func TestAccept_AlreadyDecided(t *testing.T) {
	cl := client(500)
	fr := freelancer()
	p := openProject(cl, 100)
	app := pendingApplication(p, fr)
	app.Status = models.ApplicationStatusRejected

	svc := newApplicationService(newMockProjects(p), newMockApplications(app), newMockUsers(cl, fr), &mockTransactions{}, nil)

	if _, err := svc.Accept(context.Background(), cl, app.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("accept decided application: got %v, want ErrInvalidState", err)
	}
}

// The freelancer withdraws after the client's initial read of the
// application. The decision write only hits a still-pending row, so the
// accept fails and no assignment is committed.
func TestAccept_WithdrawnConcurrently(t *testing.T) {
	cl := client(500)
	fr := freelancer()
	p := openProject(cl, 200)
	app := pendingApplication(p, fr)

	users := newMockUsers(cl, fr)
	projects := newMockProjects(p)
	apps := newMockApplications(app)
	svc := newApplicationService(projects, apps, users, &mockTransactions{}, nil)
	ctx := context.Background()

	apps.beforeUpdateStatus = func() {
		if err := svc.Withdraw(ctx, fr, app.ID); err != nil {
			t.Fatalf("Withdraw: %v", err)
		}
	}

	if _, err := svc.Accept(ctx, cl, app.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept withdrawn application: got %v, want ErrInvalidState", err)
	}
	after := projects.get(p.ID)
	if after.Status != models.ProjectStatusOpen || after.FreelancerID != nil || after.CreditsHeld != 0 {
		t.Errorf("project committed by failed accept: status=%q credits_held=%d", after.Status, after.CreditsHeld)
	}
	if apps.get(app.ID) != nil {
		t.Error("withdrawn application should stay deleted")
	}
}

func TestReject(t *testing.T) {
	cl := client(500)
	fr := freelancer()
	p := openProject(cl, 100)
	app := pendingApplication(p, fr)

	users := newMockUsers(cl, fr)
	apps := newMockApplications(app)
	svc := newApplicationService(newMockProjects(p), apps, users, &mockTransactions{}, nil)

	got, err := svc.Reject(context.Background(), cl, app.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != models.ApplicationStatusRejected {
		t.Errorf("status: got %q, want rejected", got.Status)
	}
	// No money moves on reject.
	if bal := users.balance(cl.ID); bal != 500 {
		t.Errorf("client balance: got %d, want 500", bal)
	}

	// A decided application cannot be rejected again.
	if _, err := svc.Reject(context.Background(), cl, app.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double reject: got %v, want ErrInvalidState", err)
	}
}

func TestWithdraw(t *testing.T) {
	cl := client(0)
	fr := freelancer()
	other := freelancer()
	p := openProject(cl, 100)
	app := pendingApplication(p, fr)

	apps := newMockApplications(app)
	svc := newApplicationService(newMockProjects(p), apps, newMockUsers(), &mockTransactions{}, nil)
	ctx := context.Background()

	if err := svc.Withdraw(ctx, other, app.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("withdraw someone else's application: got %v, want ErrNotAuthorized", err)
	}
	if err := svc.Withdraw(ctx, fr, app.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if apps.get(app.ID) != nil {
		t.Error("withdrawn application should be deleted")
	}
	if err := svc.Withdraw(ctx, fr, app.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("withdraw twice: got %v, want ErrNotFound", err)
	}
}

func TestListByProject_OwnerOnly(t *testing.T) {
	cl := client(0)
	stranger := client(0)
	fr := freelancer()
	p := openProject(cl, 100)
	app := pendingApplication(p, fr)

	svc := newApplicationService(newMockProjects(p), newMockApplications(app), newMockUsers(), &mockTransactions{}, nil)
	ctx := context.Background()

	list, err := svc.ListByProject(ctx, cl, p.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("applications: got %d, want 1", len(list))
	}
	if _, err := svc.ListByProject(ctx, stranger, p.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("list by non-owner: got %v, want ErrNotAuthorized", err)
	}
}
