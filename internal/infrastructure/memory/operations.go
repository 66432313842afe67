package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*MovementRepo)(nil)
	_ repository.UserRepository              = (*UserRepo)(nil)
	_ repository.ProjectRepository           = (*ProjectRepo)(nil)
	_ repository.MaterialRequestRepository   = (*MaterialRequestRepo)(nil)
)

// MovementRepo movimientos y sus líneas en memoria.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movements[m.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *m
	cp.Items = nil
	r.s.movements[m.ID] = cp
	r.s.movementSeq = append(r.s.movementSeq, m.ID)
	return nil
}

func (r *MovementRepo) CreateLineItem(_ context.Context, item *entity.MovementLineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movements[item.MovementID]
	if !ok {
		return domain.ErrNotFound
	}
	line := *item
	if p, ok := r.s.products[item.ProductID]; ok {
		line.ProductCode = p.Code
		line.ProductName = p.Name
	}
	m.Items = append(m.Items, line)
	r.s.movements[item.MovementID] = m
	return nil
}

func (r *MovementRepo) AttachReceipt(_ context.Context, movementID, receiptURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movements[movementID]
	if !ok {
		return domain.ErrNotFound
	}
	m.ReceiptURL = receiptURL
	r.s.movements[movementID] = m
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	m.Items = append([]entity.MovementLineItem(nil), m.Items...)
	return &m, nil
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.InventoryMovement
	for i := len(r.s.movementSeq) - 1; i >= 0; i-- {
		m := r.s.movements[r.s.movementSeq[i]]
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if f.From != nil && m.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !m.Date.Before(*f.To) {
			continue
		}
		if f.ProductID != "" && !touchesProduct(m, f.ProductID) {
			continue
		}
		m.Items = append([]entity.MovementLineItem(nil), m.Items...)
		list = append(list, &m)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return paginate(list, f.Limit, f.Offset), nil
}

func (r *MovementRepo) UnitsByProduct(_ context.Context, kind string, from, to time.Time) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]int)
	for _, m := range r.s.movements {
		if m.Kind != kind || m.Date.Before(from) || !m.Date.Before(to) {
			continue
		}
		for _, it := range m.Items {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, nil
}

func touchesProduct(m entity.InventoryMovement, productID string) bool {
	for _, it := range m.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// ProjectRepo obras en memoria.
type ProjectRepo struct{ s *Store }

func (r *ProjectRepo) Create(_ context.Context, p *entity.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.Files = append([]entity.ProjectFile(nil), p.Files...)
	cp.Logs = append([]entity.ProjectLog(nil), p.Logs...)
	r.s.projects[p.ID] = cp
	return nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, nil
	}
	p.Files = append([]entity.ProjectFile(nil), p.Files...)
	p.Logs = append([]entity.ProjectLog(nil), p.Logs...)
	return &p, nil
}

func (r *ProjectRepo) List(_ context.Context, status string, limit, offset int) ([]*entity.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Project
	for _, p := range r.s.projects {
		if status != "" && p.Status != status {
			continue
		}
		p := p
		p.Files, p.Logs = nil, nil
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

func (r *ProjectRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	r.s.projects[id] = p
	return nil
}

func (r *ProjectRepo) AddFile(_ context.Context, f *entity.ProjectFile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[f.ProjectID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Files = append(p.Files, *f)
	r.s.projects[f.ProjectID] = p
	return nil
}

func (r *ProjectRepo) AddLog(_ context.Context, l *entity.ProjectLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[l.ProjectID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Logs = append(p.Logs, *l)
	r.s.projects[l.ProjectID] = p
	return nil
}

func (r *ProjectRepo) CountCreatedOn(_ context.Context, day time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	day = entity.DateOnly(day)
	n := 0
	for _, p := range r.s.projects {
		if entity.DateOnly(p.CreatedAt).Equal(day) {
			n++
		}
	}
	return n, nil
}

// MaterialRequestRepo solicitudes de material en memoria.
type MaterialRequestRepo struct{ s *Store }

func (r *MaterialRequestRepo) Create(_ context.Context, req *entity.MaterialRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *req
	cp.Items = append([]entity.MaterialRequestItem(nil), req.Items...)
	r.s.requests[req.ID] = cp
	r.s.requestSeq = append(r.s.requestSeq, req.ID)
	return nil
}

func (r *MaterialRequestRepo) GetByID(_ context.Context, id string) (*entity.MaterialRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	req.Items = append([]entity.MaterialRequestItem(nil), req.Items...)
	return &req, nil
}

func (r *MaterialRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *MaterialRequestRepo) UpdateReview(_ context.Context, req *entity.MaterialRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = req.Status
	cur.ReviewedBy = req.ReviewedBy
	cur.ReviewNote = req.ReviewNote
	cur.MovementID = req.MovementID
	cur.UpdatedAt = req.UpdatedAt
	r.s.requests[req.ID] = cur
	return nil
}

func (r *MaterialRequestRepo) List(_ context.Context, f repository.MaterialRequestFilter) ([]*entity.MaterialRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.MaterialRequest
	for i := len(r.s.requestSeq) - 1; i >= 0; i-- {
		req := r.s.requests[r.s.requestSeq[i]]
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.ProjectID != "" && req.ProjectID != f.ProjectID {
			continue
		}
		req.Items = append([]entity.MaterialRequestItem(nil), req.Items...)
		list = append(list, &req)
	}
	return paginate(list, f.Limit, f.Offset), nil
}
