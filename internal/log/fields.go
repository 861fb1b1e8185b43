package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldCompanyID     = "company_id"
	FieldClientID      = "client_id"
	FieldServiceID     = "service_id"
	FieldInstallmentID = "installment_id"
	FieldInstallments  = "installments"
	FieldAmountCents   = "amount_cents"
	FieldPaymentMethod = "payment_method"
	FieldCustom        = "custom_schedule"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldStatusFilter  = "status_filter"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldPath          = "path"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentBilling   = "billing"
	ComponentSchedule  = "schedule"
	ComponentAggregate = "aggregate"
	ComponentStore     = "store"
	ComponentCache     = "cache"
	ComponentConfig    = "config"
	ComponentReport    = "report"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpMarkPaid = "mark_paid"
	OpValidate = "validate"
	OpLoad     = "load"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeSchedule      = "schedule_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeStore         = "store_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category.
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCompany adds the company id.
func (f LogFields) WithCompany(id string) LogFields {
	f[FieldCompanyID] = id
	return f
}

// WithClient adds the client id.
func (f LogFields) WithClient(id string) LogFields {
	f[FieldClientID] = id
	return f
}

// WithService adds service related fields
func (f LogFields) WithService(id string, amountCents int64, method string, installments int) LogFields {
	f[FieldServiceID] = id
	f[FieldAmountCents] = amountCents
	f[FieldPaymentMethod] = method
	f[FieldInstallments] = installments
	return f
}

// WithInstallment adds installment related fields
func (f LogFields) WithInstallment(id string, amountCents int64) LogFields {
	f[FieldInstallmentID] = id
	f[FieldAmountCents] = amountCents
	return f
}

// WithPeriod adds year and month. A month of 0 means the whole year.
func (f LogFields) WithPeriod(year, month int) LogFields {
	f[FieldYear] = year
	if month != 0 {
		f[FieldMonth] = month
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
