package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cobranca/internal/core"
	"cobranca/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.Store = (*Repository)(nil)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "cobranca.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedClient(t *testing.T, repo *Repository) core.Client {
	t.Helper()
	c, err := repo.SaveClient(context.Background(), core.Client{CompanyID: "co", Name: "Maria", Email: "maria@example.com"})
	require.NoError(t, err)
	return c
}

func testService(clientID string) core.Service {
	return core.Service{
		CompanyID:        "co",
		ClientID:         clientID,
		Description:      "Site institucional",
		Amount:           core.Money{Cents: 1000},
		PaymentMethod:    core.PaymentBoleto,
		FirstPaymentDate: core.NewDate(2024, 1, 31),
		ServiceDate:      core.NewDate(2024, 1, 2),
		InstallmentCount: 2,
	}
}

func testSchedule() []core.ScheduleEntry {
	return []core.ScheduleEntry{
		{Number: 1, Amount: core.Money{Cents: 500}, DueDate: core.NewDate(2024, 1, 31)},
		{Number: 2, Amount: core.Money{Cents: 500}, DueDate: core.NewDate(2024, 2, 29)},
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cobranca.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	assert.NoError(t, RunMigrations(path))
}

func TestCompanies(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.GetCompanyByUser(ctx, "user-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	saved, err := repo.SaveCompany(ctx, core.Company{UserID: "user-1", SubscriptionPlanID: "plan", Name: "Aurora"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := repo.GetCompanyByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	_, err = repo.SaveCompany(ctx, core.Company{UserID: "user-2", Name: "No plan"})
	assert.ErrorIs(t, err, core.ErrMissingPlan)
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for _, name := range []string{"Zeca", "Ana"} {
		_, err := repo.SaveClient(ctx, core.Client{CompanyID: "co", Name: name})
		require.NoError(t, err)
	}
	_, err := repo.SaveClient(ctx, core.Client{CompanyID: "other", Name: "Bruno"})
	require.NoError(t, err)

	list, err := repo.ListClients(ctx, "co")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)

	renamed := list[0]
	renamed.Name = "Ana Paula"
	_, err = repo.SaveClient(ctx, renamed)
	require.NoError(t, err)
	got, err := repo.GetClient(ctx, renamed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", got.Name)

	_, err = repo.SaveClient(ctx, core.Client{ID: "missing", CompanyID: "co", Name: "X"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c := seedClient(t, repo)

	svc, insts, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)
	require.Len(t, insts, 2)

	got, err := repo.GetService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc, got)
	assert.True(t, got.FirstPaymentDate.Equal(core.NewDate(2024, 1, 31)))

	stored, err := repo.ListInstallments(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, insts, stored)
	assert.Equal(t, core.NewDate(2024, 2, 29), stored[1].DueDate)

	_, _, err = repo.SaveService(ctx, testService("missing"), testSchedule())
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.ListInstallments(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveServiceReplacesSchedule(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c := seedClient(t, repo)

	svc, insts, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)
	_, err = repo.MarkInstallmentPaid(ctx, insts[0].ID, time.Now())
	require.NoError(t, err)

	one := []core.ScheduleEntry{{Number: 1, Amount: core.Money{Cents: 1000}, DueDate: core.NewDate(2024, 3, 1)}}
	replaced, newInsts, err := repo.SaveService(ctx, svc, one)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, replaced.ID)
	assert.Equal(t, 1, replaced.InstallmentCount)
	require.Len(t, newInsts, 1)

	stored, err := repo.ListInstallments(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsPaid())

	ghost := testService(c.ID)
	ghost.ID = "missing"
	_, _, err = repo.SaveService(ctx, ghost, one)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveServiceKeepsUnchangedPayments(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c := seedClient(t, repo)

	svc, insts, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)
	paidAt := time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)
	_, err = repo.MarkInstallmentPaid(ctx, insts[0].ID, paidAt)
	require.NoError(t, err)

	svc.Description = "Site institucional v2"
	_, _, err = repo.SaveService(ctx, svc, testSchedule())
	require.NoError(t, err)

	stored, err := repo.ListInstallments(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.True(t, stored[0].IsPaid())
	assert.True(t, stored[0].PaidAt.Equal(paidAt))
	assert.False(t, stored[1].IsPaid())

	changed := testSchedule()
	changed[0].Amount = core.Money{Cents: 400}
	changed[1].Amount = core.Money{Cents: 600}
	_, _, err = repo.SaveService(ctx, svc, changed)
	require.NoError(t, err)
	stored, err = repo.ListInstallments(ctx, svc.ID)
	require.NoError(t, err)
	assert.False(t, stored[0].IsPaid(), "a row with a new amount starts unpaid")
}

func TestMarkInstallmentPaidKeepsFirstPayment(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c := seedClient(t, repo)
	_, insts, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)

	first := time.Date(2024, 2, 1, 9, 30, 0, 123, time.UTC)
	paid, err := repo.MarkInstallmentPaid(ctx, insts[0].ID, first)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(first))

	again, err := repo.MarkInstallmentPaid(ctx, insts[0].ID, first.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.PaidAt)
	assert.True(t, again.PaidAt.Equal(first))

	_, err = repo.MarkInstallmentPaid(ctx, "missing", first)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c := seedClient(t, repo)

	a, _, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)
	b, _, err := repo.SaveService(ctx, testService(c.ID), testSchedule())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteService(ctx, a.ID))
	_, err = repo.GetService(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteService(ctx, a.ID), core.ErrNotFound)

	require.NoError(t, repo.DeleteClient(ctx, c.ID))
	_, err = repo.GetService(ctx, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	list, err := repo.ListServices(ctx, "co")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.DeleteClient(ctx, c.ID), core.ErrNotFound)
}
