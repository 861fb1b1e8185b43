package store

import (
	"context"
	"time"

	"cobranca/internal/core"
)

// Ports for the record store the billing core reads from and writes to.
// Adapters return core.ErrNotFound (possibly wrapped) for absent records.
type (
	ClientReader interface {
		ListClients(ctx context.Context, companyID string) ([]core.Client, error)
		GetClient(ctx context.Context, id string) (core.Client, error)
	}

	// ClientWriter saves clients. Deleting a client also deletes its services
	// and their installments.
	ClientWriter interface {
		SaveClient(ctx context.Context, c core.Client) (core.Client, error)
		DeleteClient(ctx context.Context, id string) error
	}

	ServiceReader interface {
		ListServices(ctx context.Context, companyID string) ([]core.Service, error)
		GetService(ctx context.Context, id string) (core.Service, error)
	}

	// ServiceWriter stores a service together with its full schedule. Saving a
	// service that already has an id replaces it and all of its installments.
	ServiceWriter interface {
		SaveService(ctx context.Context, s core.Service, schedule []core.ScheduleEntry) (core.Service, []core.Installment, error)
		DeleteService(ctx context.Context, id string) error
	}

	InstallmentReader interface {
		// ListInstallments returns the installments of one service.
		ListInstallments(ctx context.Context, serviceID string) ([]core.Installment, error)
	}

	// InstallmentPayer flips an installment to paid. Marking an installment
	// that is already paid returns it unchanged.
	InstallmentPayer interface {
		MarkInstallmentPaid(ctx context.Context, id string, at time.Time) (core.Installment, error)
	}

	CompanyReader interface {
		GetCompanyByUser(ctx context.Context, userID string) (core.Company, error)
	}

	CompanyWriter interface {
		SaveCompany(ctx context.Context, c core.Company) (core.Company, error)
	}

	Store interface {
		ClientReader
		ClientWriter
		ServiceReader
		ServiceWriter
		InstallmentReader
		InstallmentPayer
		CompanyReader
		CompanyWriter
	}
)
