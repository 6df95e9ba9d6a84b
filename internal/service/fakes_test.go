package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func day(d int) *time.Time {
	v := time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
	return &v
}

// --- пользователи ---

// memUsers — UserRepository в памяти. WithSubjectLock сериализует вызовы
// по subject отдельным мьютексом.
type memUsers struct {
	mu    sync.Mutex
	items map[string]*model.User
	locks map[string]*sync.Mutex
	saves int
	gets  int
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[string]*model.User{}, locks: map[string]*sync.Mutex{}}
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	u, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Username != nil && *u.Username == username {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Save(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	now := time.Now()
	if old, ok := m.items[u.ID]; ok {
		u.CreatedAt = old.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.items[u.ID] = u.Clone()
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) WithSubjectLock(_ context.Context, subject string, fn func(repository.UserRepository) error) error {
	m.mu.Lock()
	l, ok := m.locks[subject]
	if !ok {
		l = &sync.Mutex{}
		m.locks[subject] = l
	}
	m.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(m)
}

func (m *memUsers) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// --- заявки ---

// memRequests — хранилище заявок в памяти с CAS по статусу.
// Каждая запись продвигает собственные часы, так что updated_at
// строго возрастает, как NOW() в отдельных транзакциях.
type memRequests[R model.Request] struct {
	mu      sync.Mutex
	items   map[string]R
	clone   func(R) R
	owner   func(R) string
	applied int
	clock   time.Time
}

func newMemRequests[R model.Request](clone func(R) R, owner func(R) string) *memRequests[R] {
	return &memRequests[R]{
		items: map[string]R{},
		clone: clone,
		owner: owner,
		clock: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick возвращает следующее время изменения. Вызывается под m.mu.
func (m *memRequests[R]) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func newMemTravel() *memRequests[*model.TravelRequest] {
	return newMemRequests(
		func(tr *model.TravelRequest) *model.TravelRequest { c := *tr; return &c },
		func(tr *model.TravelRequest) string {
			if tr.RequesterID == nil {
				return ""
			}
			return *tr.RequesterID
		},
	)
}

func newMemVisa(passports *memPassports) *memRequests[*model.VisaRequest] {
	return newMemRequests(
		func(vr *model.VisaRequest) *model.VisaRequest { c := *vr; return &c },
		func(vr *model.VisaRequest) string {
			p, err := passports.GetByID(context.Background(), vr.PassportID)
			if err != nil {
				return ""
			}
			return p.OwnerID
		},
	)
}

func (m *memRequests[R]) GetByID(_ context.Context, id string) (R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		var zero R
		return zero, repository.ErrNotFound
	}
	return m.clone(rec), nil
}

func (m *memRequests[R]) List(_ context.Context, f repository.RequestFilter) ([]R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []R
	for _, id := range ids {
		rec := m.items[id]
		if f.Status != "" && !strings.EqualFold(rec.RequestStatus(), f.Status) {
			continue
		}
		if f.OwnerID != "" && m.owner(rec) != f.OwnerID {
			continue
		}
		out = append(out, m.clone(rec))
	}
	return out, nil
}

func (m *memRequests[R]) Create(_ context.Context, rec R) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[rec.RequestID()]; ok {
		return repository.ErrConflict
	}
	rec.SetRequestUpdatedAt(m.tick())
	m.items[rec.RequestID()] = m.clone(rec)
	return nil
}

func (m *memRequests[R]) Update(_ context.Context, rec R, prev repository.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[rec.RequestID()]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.RequestStatus() != prev.Status || !stored.RequestUpdatedAt().Equal(prev.UpdatedAt) {
		return repository.ErrStale
	}
	rec.SetRequestUpdatedAt(m.tick())
	m.items[rec.RequestID()] = m.clone(rec)
	return nil
}

func (m *memRequests[R]) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.SetRequestStatus(status)
	rec.SetRequestUpdatedAt(m.tick())
	return nil
}

func (m *memRequests[R]) CompareAndSetStatus(_ context.Context, id, expected, next string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok || rec.RequestStatus() != expected {
		return time.Time{}, false, nil
	}
	rec.SetRequestStatus(next)
	at := m.tick()
	rec.SetRequestUpdatedAt(at)
	m.applied++
	return at, true, nil
}

func (m *memRequests[R]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRequests[R]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// --- справочники ---

type memProjects struct {
	items map[string]*model.Project
}

func (m *memProjects) GetByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProjects) List(context.Context) ([]*model.Project, error) {
	out := make([]*model.Project, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProjects) Create(_ context.Context, p *model.Project) error {
	for _, e := range m.items {
		if e.Code == p.Code {
			return repository.ErrConflict
		}
	}
	c := *p
	m.items[p.ID] = &c
	return nil
}

func (m *memProjects) Update(_ context.Context, p *model.Project) error {
	if _, ok := m.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *p
	m.items[p.ID] = &c
	return nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memProjects) Stats(context.Context) ([]*model.ProjectStats, error) {
	return []*model.ProjectStats{}, nil
}

type memMissions struct {
	items map[string]*model.Mission
}

func (m *memMissions) GetByID(_ context.Context, id string) (*model.Mission, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (m *memMissions) List(_ context.Context, projectID *string) ([]*model.Mission, error) {
	out := make([]*model.Mission, 0)
	for _, v := range m.items {
		if projectID == nil || (v.ProjectID != nil && *v.ProjectID == *projectID) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memMissions) Create(_ context.Context, v *model.Mission) error {
	c := *v
	m.items[v.ID] = &c
	return nil
}

func (m *memMissions) Update(_ context.Context, v *model.Mission) error {
	if _, ok := m.items[v.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *v
	m.items[v.ID] = &c
	return nil
}

func (m *memMissions) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memPassports struct {
	mu    sync.Mutex
	items map[string]*model.Passport
}

func newMemPassports() *memPassports {
	return &memPassports{items: map[string]*model.Passport{}}
}

func (m *memPassports) GetByID(_ context.Context, id string) (*model.Passport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memPassports) ListByOwner(_ context.Context, ownerID string) ([]*model.Passport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Passport, 0)
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memPassports) Create(_ context.Context, p *model.Passport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.items[p.ID] = &c
	return nil
}

func (m *memPassports) Update(_ context.Context, p *model.Passport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.items[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c := *p
	c.OwnerID = old.OwnerID
	m.items[p.ID] = &c
	return nil
}

func (m *memPassports) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memInvoices struct {
	items map[string]*model.Invoice
}

func (m *memInvoices) GetByID(_ context.Context, id string) (*model.Invoice, error) {
	inv, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (m *memInvoices) GetByTravelRequestID(_ context.Context, travelID string) (*model.Invoice, error) {
	for _, inv := range m.items {
		if inv.TravelRequestID == travelID {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memInvoices) List(context.Context) ([]*model.Invoice, error) {
	out := make([]*model.Invoice, 0, len(m.items))
	for _, inv := range m.items {
		out = append(out, inv)
	}
	return out, nil
}

func (m *memInvoices) Create(_ context.Context, inv *model.Invoice) error {
	for _, e := range m.items {
		if e.TravelRequestID == inv.TravelRequestID {
			return repository.ErrConflict
		}
	}
	m.items[inv.ID] = inv
	return nil
}

func (m *memInvoices) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}
