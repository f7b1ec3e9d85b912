package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/workbridge/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks shared by the service tests. They let us exercise the real
// service logic without a database.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- TxBeginner mock ---

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- users ---

type mockUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMockUsers(us ...*models.User) *mockUsers {
	m := &mockUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range us {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(context.Background(), id)
}

func (m *mockUsers) DeductCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.CreditsBalance < amount {
		return 0, pgx.ErrNoRows
	}
	u.CreditsBalance -= amount
	return u.CreditsBalance, nil
}

func (m *mockUsers) AddCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	u.CreditsBalance += amount
	return u.CreditsBalance, nil
}

func (m *mockUsers) balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].CreditsBalance
}

// --- transactions ---

type mockTransactions struct {
	mu      sync.Mutex
	entries []*models.Transaction
}

func (m *mockTransactions) CreateTx(_ context.Context, _ pgx.Tx, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockTransactions) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockTransactions) byType(txType string) []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, e := range m.entries {
		if e.Type == txType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockTransactions) all() []*models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Transaction, len(m.entries))
	copy(out, m.entries)
	return out
}

// --- projects ---

type mockProjects struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	// onLock runs once when the next caller takes the row lock, before the
	// locked read. It stands in for a competing transaction that commits
	// while this one waits on FOR UPDATE.
	onLock func()
}

func newMockProjects(ps ...*models.Project) *mockProjects {
	m := &mockProjects{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range ps {
		cp := *p
		m.projects[p.ID] = &cp
	}
	return m
}

func (m *mockProjects) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockProjects) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjects) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	hook := m.onLock
	m.onLock = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockProjects) Update(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockProjects) UpdateTx(_ context.Context, _ pgx.Tx, p *models.Project) error {
	return m.Update(context.Background(), p)
}

func (m *mockProjects) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *mockProjects) List(_ context.Context) ([]*models.Project, error) {
	return m.filter(func(*models.Project) bool { return true }), nil
}

func (m *mockProjects) ListOpen(_ context.Context) ([]*models.Project, error) {
	return m.filter(func(p *models.Project) bool { return p.Status == models.ProjectStatusOpen }), nil
}

func (m *mockProjects) ListByClientID(_ context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	return m.filter(func(p *models.Project) bool { return p.ClientID == clientID }), nil
}

func (m *mockProjects) ListByFreelancerID(_ context.Context, freelancerID uuid.UUID) ([]*models.Project, error) {
	return m.filter(func(p *models.Project) bool {
		return p.FreelancerID != nil && *p.FreelancerID == freelancerID
	}), nil
}

func (m *mockProjects) filter(keep func(*models.Project) bool) []*models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockProjects) get(id uuid.UUID) *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.projects[id]
	return &cp
}

// --- applications ---

type mockApplications struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*models.ProjectApplication
	// beforeUpdateStatus runs once before the next status write. It lets
	// tests interleave a competing withdraw or decision.
	beforeUpdateStatus func()
}

func newMockApplications(as ...*models.ProjectApplication) *mockApplications {
	m := &mockApplications{apps: make(map[uuid.UUID]*models.ProjectApplication)}
	for _, a := range as {
		cp := *a
		m.apps[a.ID] = &cp
	}
	return m
}

func (m *mockApplications) Create(_ context.Context, a *models.ProjectApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.apps[a.ID] = &cp
	return nil
}

func (m *mockApplications) GetByID(_ context.Context, id uuid.UUID) (*models.ProjectApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockApplications) GetByProjectAndFreelancer(_ context.Context, projectID, freelancerID uuid.UUID) (*models.ProjectApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ProjectID == projectID && a.FreelancerID == freelancerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockApplications) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apps, id)
	return nil
}

func (m *mockApplications) ListByProjectID(_ context.Context, projectID uuid.UUID) ([]*models.ProjectApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProjectApplication
	for _, a := range m.apps {
		if a.ProjectID == projectID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockApplications) ListByFreelancerID(_ context.Context, freelancerID uuid.UUID) ([]*models.ProjectApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProjectApplication
	for _, a := range m.apps {
		if a.FreelancerID == freelancerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockApplications) UpdateStatusTx(_ context.Context, _ pgx.Tx, id uuid.UUID, status string) error {
	m.mu.Lock()
	hook := m.beforeUpdateStatus
	m.beforeUpdateStatus = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok || a.Status != models.ApplicationStatusPending {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func (m *mockApplications) RejectOtherPendingTx(_ context.Context, _ pgx.Tx, projectID, acceptedID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range m.apps {
		if a.ProjectID == projectID && a.ID != acceptedID && a.Status == models.ApplicationStatusPending {
			a.Status = models.ApplicationStatusRejected
			ids = append(ids, a.FreelancerID)
		}
	}
	return ids, nil
}

func (m *mockApplications) get(id uuid.UUID) *models.ProjectApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// --- credit requests ---

type mockCreditRequests struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.CreditRequest
}

func newMockCreditRequests(cs ...*models.CreditRequest) *mockCreditRequests {
	m := &mockCreditRequests{requests: make(map[uuid.UUID]*models.CreditRequest)}
	for _, c := range cs {
		cp := *c
		m.requests[c.ID] = &cp
	}
	return m
}

func (m *mockCreditRequests) Create(_ context.Context, c *models.CreditRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.requests[c.ID] = &cp
	return nil
}

func (m *mockCreditRequests) GetByID(_ context.Context, id uuid.UUID) (*models.CreditRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockCreditRequests) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.CreditRequest, error) {
	return m.GetByID(context.Background(), id)
}

func (m *mockCreditRequests) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, id)
	return nil
}

func (m *mockCreditRequests) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.CreditRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditRequest
	for _, c := range m.requests {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCreditRequests) ListPending(_ context.Context) ([]*models.CreditRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditRequest
	for _, c := range m.requests {
		if c.Status == models.CreditRequestPending {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCreditRequests) UpdateReviewTx(_ context.Context, _ pgx.Tx, c *models.CreditRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.Status = c.Status
	cur.ReviewedBy = c.ReviewedBy
	cur.ReviewedAt = c.ReviewedAt
	cur.RejectionReason = c.RejectionReason
	return nil
}

func (m *mockCreditRequests) get(id uuid.UUID) *models.CreditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.requests[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// --- shared fixtures ---

func client(balance int64) *models.User {
	return &models.User{ID: uuid.New(), IsActive: true, IsClient: true, CreditsBalance: balance}
}

func freelancer() *models.User {
	return &models.User{ID: uuid.New(), IsActive: true, IsFreelancer: true}
}

func admin() *models.User {
	return &models.User{ID: uuid.New(), IsActive: true, IsAdmin: true}
}
