// Package sqlite implements the billing store ports on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"cobranca/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

type Repository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dbPath, creating its directory
// when needed, and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions serial.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %q: %w", kind, id, err)
}

// Companies

func (r *Repository) GetCompanyByUser(ctx context.Context, userID string) (core.Company, error) {
	var c core.Company
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, subscription_plan_id, name, logo_url, pix_key
		   FROM companies WHERE user_id = ?`, userID).
		Scan(&c.ID, &c.UserID, &c.SubscriptionPlanID, &c.Name, &c.LogoURL, &c.PixKey)
	if err != nil {
		return core.Company{}, notFound("company of user", userID, err)
	}
	return c, nil
}

// SaveCompany creates or replaces a company.
func (r *Repository) SaveCompany(ctx context.Context, c core.Company) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, user_id, subscription_plan_id, name, logo_url, pix_key)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id,
		   subscription_plan_id = excluded.subscription_plan_id,
		   name = excluded.name,
		   logo_url = excluded.logo_url,
		   pix_key = excluded.pix_key`,
		c.ID, c.UserID, c.SubscriptionPlanID, c.Name, c.LogoURL, c.PixKey)
	if err != nil {
		return core.Company{}, fmt.Errorf("save company: %w", err)
	}
	return c, nil
}

// Clients

const clientColumns = `id, company_id, name, email, phone_number`

func scanClient(s scanner) (core.Client, error) {
	var c core.Client
	err := s.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.PhoneNumber)
	return c, err
}

// ListClients returns the clients of a company ordered by name.
func (r *Repository) ListClients(ctx context.Context, companyID string) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE company_id = ? ORDER BY name, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetClient(ctx context.Context, id string) (core.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return core.Client{}, notFound("client", id, err)
	}
	return c, nil
}

// SaveClient creates a client, or updates it when c.ID names an existing one.
func (r *Repository) SaveClient(ctx context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.CompanyID, c.Name, c.Email, c.PhoneNumber)
		if err != nil {
			return core.Client{}, fmt.Errorf("create client: %w", err)
		}
		return c, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET company_id = ?, name = ?, email = ?, phone_number = ? WHERE id = ?`,
		c.CompanyID, c.Name, c.Email, c.PhoneNumber, c.ID)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Client{}, fmt.Errorf("client %q: %w", c.ID, core.ErrNotFound)
	}
	return c, nil
}

// DeleteClient removes a client with all of its services and installments.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM installments WHERE service_id IN (SELECT id FROM services WHERE client_id = ?)`, id); err != nil {
			return fmt.Errorf("delete installments of client: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE client_id = ?`, id); err != nil {
			return fmt.Errorf("delete services of client: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("client %q: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// Services

const serviceColumns = `id, company_id, client_id, description, amount_cents, payment_method,
	first_payment_date, service_date, installment_count, notification_template`

func scanService(s scanner) (core.Service, error) {
	var (
		svc             core.Service
		method          string
		first, serviced string
	)
	err := s.Scan(&svc.ID, &svc.CompanyID, &svc.ClientID, &svc.Description, &svc.Amount.Cents,
		&method, &first, &serviced, &svc.InstallmentCount, &svc.NotificationTemplate)
	if err != nil {
		return core.Service{}, err
	}
	svc.PaymentMethod = core.PaymentMethod(method)
	if svc.FirstPaymentDate, err = core.ParseISODate(first); err != nil {
		return core.Service{}, fmt.Errorf("first payment date of service %s: %w", svc.ID, err)
	}
	if svc.ServiceDate, err = core.ParseISODate(serviced); err != nil {
		return core.Service{}, fmt.Errorf("service date of service %s: %w", svc.ID, err)
	}
	return svc, nil
}

// ListServices returns the services of a company ordered by service date.
func (r *Repository) ListServices(ctx context.Context, companyID string) ([]core.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE company_id = ? ORDER BY service_date, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []core.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (r *Repository) GetService(ctx context.Context, id string) (core.Service, error) {
	svc, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		return core.Service{}, notFound("service", id, err)
	}
	return svc, nil
}

// SaveService stores svc with the given schedule in one transaction. An
// existing service is replaced together with all of its installments; rows
// whose number, amount and due date are unchanged keep their payment.
func (r *Repository) SaveService(ctx context.Context, svc core.Service, schedule []core.ScheduleEntry) (core.Service, []core.Installment, error) {
	if err := svc.Validate(); err != nil {
		return core.Service{}, nil, err
	}

	var out []core.Installment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM clients WHERE id = ?`, svc.ClientID).Scan(&exists)
		if err != nil {
			return notFound("client", svc.ClientID, err)
		}

		var previous []core.Installment
		if svc.ID != "" {
			if previous, err = listInstallments(ctx, tx, svc.ID); err != nil {
				return err
			}
			if err := deleteServiceTx(ctx, tx, svc.ID); err != nil {
				return err
			}
		} else {
			svc.ID = uuid.NewString()
		}
		svc.InstallmentCount = len(schedule)
		svc.CustomInstallments = nil

		_, err = tx.ExecContext(ctx,
			`INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			svc.ID, svc.CompanyID, svc.ClientID, svc.Description, svc.Amount.Cents,
			string(svc.PaymentMethod), svc.FirstPaymentDate.String(), svc.ServiceDate.String(),
			svc.InstallmentCount, svc.NotificationTemplate)
		if err != nil {
			return fmt.Errorf("insert service: %w", err)
		}

		out = make([]core.Installment, 0, len(schedule))
		for _, e := range schedule {
			inst := core.Installment{
				ID:        uuid.NewString(),
				ServiceID: svc.ID,
				Number:    e.Number,
				Amount:    e.Amount,
				DueDate:   e.DueDate,
			}
			core.CarryPayment(&inst, previous)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO installments (`+installmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				inst.ID, inst.ServiceID, inst.Number, inst.Amount.Cents, inst.DueDate.String(),
				formatTimestamp(inst.NotifiedAt), formatTimestamp(inst.PaidAt))
			if err != nil {
				return fmt.Errorf("insert installment %d: %w", inst.Number, err)
			}
			out = append(out, inst)
		}
		return nil
	})
	if err != nil {
		return core.Service{}, nil, err
	}
	return svc, out, nil
}

// DeleteService removes a service and its installments.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return deleteServiceTx(ctx, tx, id)
	})
}

func deleteServiceTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM installments WHERE service_id = ?`, id); err != nil {
		return fmt.Errorf("delete installments of service: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("service %q: %w", id, core.ErrNotFound)
	}
	return nil
}

// Installments

const installmentColumns = `id, service_id, number, amount_cents, due_date, notified_at, paid_at`

func scanInstallment(s scanner) (core.Installment, error) {
	var (
		inst     core.Installment
		due      string
		notified sql.NullString
		paid     sql.NullString
	)
	if err := s.Scan(&inst.ID, &inst.ServiceID, &inst.Number, &inst.Amount.Cents, &due, &notified, &paid); err != nil {
		return core.Installment{}, err
	}
	var err error
	if inst.DueDate, err = core.ParseISODate(due); err != nil {
		return core.Installment{}, fmt.Errorf("due date of installment %s: %w", inst.ID, err)
	}
	if inst.NotifiedAt, err = parseTimestamp(notified); err != nil {
		return core.Installment{}, fmt.Errorf("notified at of installment %s: %w", inst.ID, err)
	}
	if inst.PaidAt, err = parseTimestamp(paid); err != nil {
		return core.Installment{}, fmt.Errorf("paid at of installment %s: %w", inst.ID, err)
	}
	return inst, nil
}

func parseTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timestampLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timestampLayout)
}

func listInstallments(ctx context.Context, q queryer, serviceID string) ([]core.Installment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE service_id = ? ORDER BY number`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var out []core.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ListInstallments returns the installments of a service ordered by number.
func (r *Repository) ListInstallments(ctx context.Context, serviceID string) ([]core.Installment, error) {
	if _, err := r.GetService(ctx, serviceID); err != nil {
		return nil, err
	}
	return listInstallments(ctx, r.db, serviceID)
}

// MarkInstallmentPaid sets paid_at to at unless it is already set, and
// returns the stored row.
func (r *Repository) MarkInstallmentPaid(ctx context.Context, id string, at time.Time) (core.Installment, error) {
	var inst core.Installment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE installments SET paid_at = ? WHERE id = ? AND paid_at IS NULL`,
			at.UTC().Format(timestampLayout), id)
		if err != nil {
			return fmt.Errorf("mark installment paid: %w", err)
		}
		inst, err = scanInstallment(tx.QueryRowContext(ctx,
			`SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id))
		if err != nil {
			return notFound("installment", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Installment{}, err
	}
	return inst, nil
}
