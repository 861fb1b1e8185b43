package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cobranca/internal/core"
	"cobranca/internal/log"
	"cobranca/internal/store"
)

// ErrCompanyExists is returned when a user who already owns a company tries
// to set up another one.
var ErrCompanyExists = errors.New("company already exists")

const defaultFetchConcurrency = 8

// BillingService orchestrates the store and the billing computations. Every
// read for a view completes before anything is aggregated.
type BillingService struct {
	store            store.Store
	cache            *SummaryCache
	logger           *log.Logger
	events           *log.StructuredLogger
	now              func() time.Time
	loc              *time.Location
	fetchConcurrency int
}

// Option configures a BillingService.
type Option func(*BillingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *BillingService) { s.now = now }
}

// WithLocation sets the zone whose civil date decides whether an installment
// is overdue.
func WithLocation(loc *time.Location) Option {
	return func(s *BillingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSummaryCache memoizes aggregates in c.
func WithSummaryCache(c *SummaryCache) Option {
	return func(s *BillingService) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *BillingService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFetchConcurrency bounds the parallel installment fetches of one load.
func WithFetchConcurrency(n int) Option {
	return func(s *BillingService) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

func NewBillingService(st store.Store, opts ...Option) *BillingService {
	s := &BillingService{
		store:            st,
		logger:           log.Discard(),
		now:              time.Now,
		loc:              time.UTC,
		fetchConcurrency: defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentBilling)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Now is the current instant in the service's location.
func (s *BillingService) Now() time.Time {
	return s.now().In(s.loc)
}

// Today is the current civil date in the service's location.
func (s *BillingService) Today() core.Date {
	return core.DateOf(s.Now())
}

// Book is everything the store holds for one company.
type Book struct {
	CompanyID    string
	Clients      []core.Client
	Services     []core.Service
	Installments InstallmentIndex
}

// ClientName returns the name of the client with the given id, or "" when
// it is unknown.
func (b *Book) ClientName(id string) string {
	for _, c := range b.Clients {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// LoadBook fetches the clients, services and installments of a company.
func (s *BillingService) LoadBook(ctx context.Context, companyID string) (*Book, error) {
	start := time.Now()
	book := &Book{CompanyID: companyID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clients, err := s.store.ListClients(gctx, companyID)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		book.Clients = clients
		return nil
	})
	g.Go(func() error {
		services, err := s.store.ListServices(gctx, companyID)
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		book.Services = services
		return nil
	})
	if err := g.Wait(); err != nil {
		s.events.LogError(ctx, "Failed to load company", err, log.ComponentStore, log.OpLoad,
			log.NewFields().WithCompany(companyID))
		return nil, err
	}

	idx, err := s.fetchInstallments(ctx, book.Services)
	if err != nil {
		s.events.LogError(ctx, "Failed to load installments", err, log.ComponentStore, log.OpLoad,
			log.NewFields().WithCompany(companyID))
		return nil, err
	}
	book.Installments = idx

	s.events.LogBookLoaded(ctx, companyID, len(book.Services), len(idx.Flatten()), time.Since(start))
	return book, nil
}

// fetchInstallments loads the installments of every service, at most
// fetchConcurrency at a time.
func (s *BillingService) fetchInstallments(ctx context.Context, services []core.Service) (InstallmentIndex, error) {
	idx := make(InstallmentIndex, len(services))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for _, svc := range services {
		id := svc.ID
		g.Go(func() error {
			list, err := s.store.ListInstallments(gctx, id)
			if err != nil {
				return fmt.Errorf("list installments of service %s: %w", id, err)
			}
			mu.Lock()
			idx[id] = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return idx, nil
}

// scheduleFor returns the schedule a service is saved with: the validated
// custom list when it has one, the generated default otherwise.
func scheduleFor(svc core.Service) ([]core.ScheduleEntry, error) {
	if svc.HasCustomSchedule() {
		count := svc.InstallmentCount
		if count == 0 {
			count = len(svc.CustomInstallments)
		}
		return ValidateCustomSchedule(svc.Amount, count, svc.CustomInstallments)
	}
	return GenerateSchedule(svc.Amount, svc.InstallmentCount, svc.FirstPaymentDate)
}

// CreateService validates svc, derives its schedule and stores both. Nothing
// is stored when the schedule is rejected.
func (s *BillingService) CreateService(ctx context.Context, svc core.Service) (core.Service, []core.Installment, error) {
	svc.ID = ""
	return s.saveService(ctx, svc, log.OpCreate)
}

// UpdateService replaces an existing service and its whole schedule.
func (s *BillingService) UpdateService(ctx context.Context, svc core.Service) (core.Service, []core.Installment, error) {
	if strings.TrimSpace(svc.ID) == "" {
		return core.Service{}, nil, fmt.Errorf("update service: %w", core.ErrNotFound)
	}
	if _, err := s.store.GetService(ctx, svc.ID); err != nil {
		return core.Service{}, nil, fmt.Errorf("update service: %w", err)
	}
	return s.saveService(ctx, svc, log.OpUpdate)
}

func (s *BillingService) saveService(ctx context.Context, svc core.Service, op string) (core.Service, []core.Installment, error) {
	fields := log.NewFields().WithService(svc.ID, svc.Amount.Cents, string(svc.PaymentMethod), svc.InstallmentCount)

	if err := svc.Validate(); err != nil {
		s.events.LogError(ctx, "Invalid service", err, log.ComponentBilling, log.OpValidate,
			fields.WithErrorType(log.ErrorTypeValidation))
		return core.Service{}, nil, err
	}
	schedule, err := scheduleFor(svc)
	if err != nil {
		s.events.LogError(ctx, "Invalid schedule", err, log.ComponentSchedule, log.OpValidate,
			fields.WithErrorType(log.ErrorTypeSchedule))
		return core.Service{}, nil, err
	}

	custom := svc.HasCustomSchedule()
	saved, insts, err := s.store.SaveService(ctx, svc, schedule)
	if err != nil {
		s.events.LogError(ctx, "Failed to save service", err, log.ComponentStore, op,
			fields.WithErrorType(log.ErrorTypeStore))
		return core.Service{}, nil, fmt.Errorf("save service: %w", err)
	}
	s.cache.Purge()

	s.events.LogServiceScheduled(ctx, op, saved.ID, saved.ClientID, saved.Amount.Cents,
		string(saved.PaymentMethod), len(insts), custom)
	return saved, insts, nil
}

// DeleteService removes a service and its installments.
func (s *BillingService) DeleteService(ctx context.Context, id string) error {
	if err := s.store.DeleteService(ctx, id); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	s.cache.Purge()
	s.logger.InfoContext(ctx, "Service deleted", log.FieldServiceID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// MarkPaid flips an installment to paid at the current instant. Marking an
// installment that is already paid returns it unchanged.
func (s *BillingService) MarkPaid(ctx context.Context, installmentID string) (core.Installment, error) {
	at := s.Now()
	inst, err := s.store.MarkInstallmentPaid(ctx, installmentID, at)
	if err != nil {
		s.events.LogError(ctx, "Failed to mark installment as paid", err, log.ComponentStore, log.OpMarkPaid,
			log.NewFields().WithInstallment(installmentID, 0))
		return core.Installment{}, fmt.Errorf("mark paid: %w", err)
	}

	alreadyPaid := inst.PaidAt != nil && !inst.PaidAt.Equal(at)
	if !alreadyPaid {
		s.cache.Purge()
	}
	s.events.LogInstallmentPaid(ctx, inst.ID, inst.ServiceID, inst.Amount.Cents, alreadyPaid)
	return inst, nil
}

// SaveClient creates or updates a client.
func (s *BillingService) SaveClient(ctx context.Context, c core.Client) (core.Client, error) {
	saved, err := s.store.SaveClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("save client: %w", err)
	}
	s.logger.InfoContext(ctx, "Client saved", log.FieldClientID, saved.ID, log.FieldCompanyID, saved.CompanyID)
	return saved, nil
}

// DeleteClient removes a client together with its services and installments.
func (s *BillingService) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	s.cache.Purge()
	s.logger.InfoContext(ctx, "Client deleted", log.FieldClientID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// SetupCompany creates the company of userID on the given subscription plan.
func (s *BillingService) SetupCompany(ctx context.Context, userID, planID string, c core.Company) (core.Company, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Company{}, errors.New("setup company: empty user id")
	}
	if _, err := s.store.GetCompanyByUser(ctx, userID); err == nil {
		return core.Company{}, fmt.Errorf("setup company for user %s: %w", userID, ErrCompanyExists)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Company{}, fmt.Errorf("setup company: %w", err)
	}

	c.ID = ""
	c.UserID = userID
	c.SubscriptionPlanID = strings.TrimSpace(planID)
	saved, err := s.store.SaveCompany(ctx, c)
	if err != nil {
		return core.Company{}, fmt.Errorf("setup company: %w", err)
	}
	s.logger.InfoContext(ctx, "Company created", log.FieldCompanyID, saved.ID, "plan", saved.SubscriptionPlanID)
	return saved, nil
}

// Dashboard is the company overview of one month.
type Dashboard struct {
	Year    int
	Month   int
	View    MonthView
	Annual  core.AnnualTotals
	Series  [12]core.MonthlyTotals
	Company CompanyTotals
}

// Dashboard loads the company and computes its overview of year/month with
// the month list filtered by f.
func (s *BillingService) Dashboard(ctx context.Context, companyID string, year, month int, f StatusFilter) (*Dashboard, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("dashboard: month %d out of range", month)
	}
	book, err := s.LoadBook(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.dashboardFor(book, year, month, f), nil
}

func (s *BillingService) dashboardFor(book *Book, year, month int, f StatusFilter) *Dashboard {
	scope := "company:" + book.CompanyID
	monthTotals := func(m int) core.MonthlyTotals {
		return s.cache.Monthly(scope, year, m, func() core.MonthlyTotals {
			return MonthlyTotalsFor(book.Installments, year, m)
		})
	}

	all := InstallmentsInMonth(book.Installments, year, month)
	d := &Dashboard{
		Year:    year,
		Month:   month,
		View:    monthView(all, monthTotals(month), f, s.Now()),
		Company: CompanyTotalsFor(book.Services, book.Installments),
	}
	d.Annual = s.cache.Annual(scope, year, func() core.AnnualTotals {
		return AnnualTotalsFor(book.Installments, year)
	})
	for i := range d.Series {
		d.Series[i] = monthTotals(i + 1)
	}
	return d
}

// ClientDetail loads one client with its services and their installments.
func (s *BillingService) ClientDetail(ctx context.Context, clientID string) (ClientSummary, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return ClientSummary{}, fmt.Errorf("client detail: %w", err)
	}
	all, err := s.store.ListServices(ctx, client.CompanyID)
	if err != nil {
		return ClientSummary{}, fmt.Errorf("client detail: list services: %w", err)
	}

	var own []core.Service
	for _, svc := range all {
		if svc.ClientID == client.ID {
			own = append(own, svc)
		}
	}
	idx, err := s.fetchInstallments(ctx, own)
	if err != nil {
		return ClientSummary{}, fmt.Errorf("client detail: %w", err)
	}
	return SummarizeClient(client, own, idx), nil
}

// AgendaEntry is a service scheduled in a month with its client's name.
type AgendaEntry struct {
	Service    core.Service
	ClientName string
}

// Agenda lists the services of a company whose service date falls in
// year/month, by date.
func (s *BillingService) Agenda(ctx context.Context, companyID string, year, month int) ([]AgendaEntry, error) {
	clients, err := s.store.ListClients(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("agenda: list clients: %w", err)
	}
	services, err := s.store.ListServices(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("agenda: list services: %w", err)
	}

	book := &Book{CompanyID: companyID, Clients: clients, Services: services}
	var out []AgendaEntry
	for _, svc := range ServicesInMonth(services, year, month) {
		out = append(out, AgendaEntry{Service: svc, ClientName: book.ClientName(svc.ClientID)})
	}
	return out, nil
}

// SearchServices returns the services of a company whose client name
// contains term.
func (s *BillingService) SearchServices(ctx context.Context, companyID, term string) ([]core.Service, error) {
	clients, err := s.store.ListClients(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("search services: %w", err)
	}
	services, err := s.store.ListServices(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("search services: %w", err)
	}
	return SearchServicesByClientName(services, clients, term), nil
}
