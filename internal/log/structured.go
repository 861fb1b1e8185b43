package log

import (
	"context"
	"time"
)

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogServiceScheduled logs a service saved together with its schedule.
func (sl *StructuredLogger) LogServiceScheduled(ctx context.Context, op, serviceID, clientID string, amountCents int64, method string, installments int, custom bool) {
	fields := NewFields().
		WithService(serviceID, amountCents, method, installments).
		WithClient(clientID).
		WithOperation(op)
	fields[FieldCustom] = custom

	sl.billing().InfoContext(ctx, "Service scheduled", fields.ToSlice()...)
}

// LogInstallmentPaid logs a mark-as-paid. alreadyPaid is true when the
// installment had been paid before and was left unchanged.
func (sl *StructuredLogger) LogInstallmentPaid(ctx context.Context, installmentID, serviceID string, amountCents int64, alreadyPaid bool) {
	fields := NewFields().
		WithInstallment(installmentID, amountCents).
		WithOperation(OpMarkPaid)
	fields[FieldServiceID] = serviceID

	if alreadyPaid {
		sl.billing().WarnContext(ctx, "Installment was already paid", fields.ToSlice()...)
		return
	}
	sl.billing().InfoContext(ctx, "Installment marked as paid", fields.ToSlice()...)
}

// LogBookLoaded logs the end of a company load.
func (sl *StructuredLogger) LogBookLoaded(ctx context.Context, companyID string, services, installments int, took time.Duration) {
	fields := NewFields().
		WithCompany(companyID).
		WithOperation(OpLoad)
	fields[FieldCount] = services
	fields[FieldInstallments] = installments
	fields[FieldDuration] = took.Milliseconds()

	sl.billing().DebugContext(ctx, "Company book loaded", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}

func (sl *StructuredLogger) billing() *Logger {
	return sl.logger.WithComponent(ComponentBilling)
}
