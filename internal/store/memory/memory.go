package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"cobranca/internal/core"

	"github.com/google/uuid"
)

// Snapshot is the JSON document a Store can be seeded from.
type Snapshot struct {
	Companies    []core.Company     `json:"companies"`
	Clients      []core.Client      `json:"clients"`
	Services     []core.Service     `json:"services"`
	Installments []core.Installment `json:"installments"`
}

// Store keeps every record in memory. It is safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	companies    map[string]core.Company
	clients      map[string]core.Client
	services     map[string]core.Service
	installments map[string]core.Installment
	byService    map[string][]string // service id -> installment ids
}

func New() *Store {
	return &Store{
		companies:    map[string]core.Company{},
		clients:      map[string]core.Client{},
		services:     map[string]core.Service{},
		installments: map[string]core.Installment{},
		byService:    map[string][]string{},
	}
}

// NewFromSnapshot builds a store holding the records of snap. Records without
// an id get a fresh one.
func NewFromSnapshot(snap Snapshot) (*Store, error) {
	s := New()
	for _, c := range snap.Companies {
		c.ID = orNewID(c.ID)
		s.companies[c.ID] = c
	}
	for _, c := range snap.Clients {
		c.ID = orNewID(c.ID)
		s.clients[c.ID] = c
	}
	for _, svc := range snap.Services {
		svc.ID = orNewID(svc.ID)
		s.services[svc.ID] = svc
	}
	for _, inst := range snap.Installments {
		if _, ok := s.services[inst.ServiceID]; !ok {
			return nil, fmt.Errorf("installment %q: service %q: %w", inst.ID, inst.ServiceID, core.ErrNotFound)
		}
		inst.ID = orNewID(inst.ID)
		s.installments[inst.ID] = inst
		s.byService[inst.ServiceID] = append(s.byService[inst.ServiceID], inst.ID)
	}
	return s, nil
}

// NewFromFile loads a JSON snapshot from path.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return NewFromSnapshot(snap)
}

// Snapshot returns a copy of every record, each collection ordered by id.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap Snapshot
	for _, c := range s.companies {
		snap.Companies = append(snap.Companies, c)
	}
	for _, c := range s.clients {
		snap.Clients = append(snap.Clients, c)
	}
	for _, svc := range s.services {
		snap.Services = append(snap.Services, svc)
	}
	for _, inst := range s.installments {
		snap.Installments = append(snap.Installments, inst)
	}
	sort.Slice(snap.Companies, func(i, j int) bool { return snap.Companies[i].ID < snap.Companies[j].ID })
	sort.Slice(snap.Clients, func(i, j int) bool { return snap.Clients[i].ID < snap.Clients[j].ID })
	sort.Slice(snap.Services, func(i, j int) bool { return snap.Services[i].ID < snap.Services[j].ID })
	sort.Slice(snap.Installments, func(i, j int) bool { return snap.Installments[i].ID < snap.Installments[j].ID })
	return snap
}

// GetCompanyByUser returns the company owned by userID.
func (s *Store) GetCompanyByUser(_ context.Context, userID string) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.UserID == userID {
			return c, nil
		}
	}
	return core.Company{}, fmt.Errorf("company of user %q: %w", userID, core.ErrNotFound)
}

// SaveCompany creates or replaces a company.
func (s *Store) SaveCompany(_ context.Context, c core.Company) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = orNewID(c.ID)
	s.companies[c.ID] = c
	return c, nil
}

// ListClients returns the clients of a company ordered by name.
func (s *Store) ListClients(_ context.Context, companyID string) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Client
	for _, c := range s.clients {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetClient(_ context.Context, id string) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return core.Client{}, fmt.Errorf("client %q: %w", id, core.ErrNotFound)
	}
	return c, nil
}

// SaveClient creates or replaces a client.
func (s *Store) SaveClient(_ context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID != "" {
		if _, ok := s.clients[c.ID]; !ok {
			return core.Client{}, fmt.Errorf("client %q: %w", c.ID, core.ErrNotFound)
		}
	}
	c.ID = orNewID(c.ID)
	s.clients[c.ID] = c
	return c, nil
}

// DeleteClient removes a client with all of its services and installments.
func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return fmt.Errorf("client %q: %w", id, core.ErrNotFound)
	}
	for sid, svc := range s.services {
		if svc.ClientID == id {
			s.deleteServiceLocked(sid)
		}
	}
	delete(s.clients, id)
	return nil
}

// ListServices returns the services of a company ordered by service date.
func (s *Store) ListServices(_ context.Context, companyID string) ([]core.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Service
	for _, svc := range s.services {
		if svc.CompanyID == companyID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ServiceDate.Equal(out[j].ServiceDate) {
			return out[i].ServiceDate.Before(out[j].ServiceDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetService(_ context.Context, id string) (core.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return core.Service{}, fmt.Errorf("service %q: %w", id, core.ErrNotFound)
	}
	return svc, nil
}

// SaveService stores svc with the given schedule. An existing service is
// replaced together with all of its installments; rows whose number, amount
// and due date are unchanged keep their payment.
func (s *Store) SaveService(_ context.Context, svc core.Service, schedule []core.ScheduleEntry) (core.Service, []core.Installment, error) {
	if err := svc.Validate(); err != nil {
		return core.Service{}, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[svc.ClientID]; !ok {
		return core.Service{}, nil, fmt.Errorf("client %q: %w", svc.ClientID, core.ErrNotFound)
	}
	var previous []core.Installment
	if svc.ID != "" {
		if _, ok := s.services[svc.ID]; !ok {
			return core.Service{}, nil, fmt.Errorf("service %q: %w", svc.ID, core.ErrNotFound)
		}
		for _, iid := range s.byService[svc.ID] {
			previous = append(previous, s.installments[iid])
		}
		s.deleteServiceLocked(svc.ID)
	}

	svc.ID = orNewID(svc.ID)
	svc.InstallmentCount = len(schedule)
	svc.CustomInstallments = nil
	s.services[svc.ID] = svc

	out := make([]core.Installment, 0, len(schedule))
	for _, e := range schedule {
		inst := core.Installment{
			ID:        uuid.NewString(),
			ServiceID: svc.ID,
			Number:    e.Number,
			Amount:    e.Amount,
			DueDate:   e.DueDate,
		}
		core.CarryPayment(&inst, previous)
		s.installments[inst.ID] = inst
		s.byService[svc.ID] = append(s.byService[svc.ID], inst.ID)
		out = append(out, inst)
	}
	return svc, out, nil
}

// DeleteService removes a service and its installments.
func (s *Store) DeleteService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return fmt.Errorf("service %q: %w", id, core.ErrNotFound)
	}
	s.deleteServiceLocked(id)
	return nil
}

func (s *Store) deleteServiceLocked(id string) {
	for _, iid := range s.byService[id] {
		delete(s.installments, iid)
	}
	delete(s.byService, id)
	delete(s.services, id)
}

// ListInstallments returns the installments of a service in creation order.
func (s *Store) ListInstallments(_ context.Context, serviceID string) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[serviceID]; !ok {
		return nil, fmt.Errorf("service %q: %w", serviceID, core.ErrNotFound)
	}
	ids := s.byService[serviceID]
	out := make([]core.Installment, 0, len(ids))
	for _, iid := range ids {
		out = append(out, s.installments[iid])
	}
	return out, nil
}

// MarkInstallmentPaid sets PaidAt to at. An installment that is already paid
// keeps its original PaidAt.
func (s *Store) MarkInstallmentPaid(_ context.Context, id string, at time.Time) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.installments[id]
	if !ok {
		return core.Installment{}, fmt.Errorf("installment %q: %w", id, core.ErrNotFound)
	}
	if inst.IsPaid() {
		return inst, nil
	}
	paid := at
	inst.PaidAt = &paid
	s.installments[id] = inst
	return inst, nil
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
