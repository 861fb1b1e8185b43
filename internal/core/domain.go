package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PaymentPIX        PaymentMethod = "PIX"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentBoleto     PaymentMethod = "BOLETO"
)

// MaxInstallments is the largest installment count a service may be split into.
const MaxInstallments = 12

type (
	PaymentMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Company struct {
		ID                 string `json:"id,omitempty"`
		UserID             string `json:"userId"`
		SubscriptionPlanID string `json:"subscriptionPlanId"`
		Name               string `json:"name"`
		LogoURL            string `json:"urlLogo,omitempty"`
		PixKey             string `json:"pixCode,omitempty"`
	}

	Client struct {
		ID          string `json:"id,omitempty"`
		CompanyID   string `json:"companyId"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
	}

	Service struct {
		ID                   string          `json:"id,omitempty"`
		CompanyID            string          `json:"companyId"`
		ClientID             string          `json:"clientId"`
		Description          string          `json:"description"`
		Amount               Money           `json:"amount"`
		PaymentMethod        PaymentMethod   `json:"paymentMethod"`
		FirstPaymentDate     Date            `json:"firstPaymentDate"`
		ServiceDate          Date            `json:"serviceDate"`
		InstallmentCount     int             `json:"installments"`
		NotificationTemplate string          `json:"templateNotificationMessage,omitempty"`
		CustomInstallments   []ScheduleEntry `json:"customInstallments,omitempty"`
	}

	// ScheduleEntry is one row of a payment schedule before the store assigns
	// it an identity.
	ScheduleEntry struct {
		Number  int   `json:"installmentNumber"`
		Amount  Money `json:"amount"`
		DueDate Date  `json:"dueDate"`
	}

	Installment struct {
		ID         string     `json:"id,omitempty"`
		ServiceID  string     `json:"serviceId"`
		Number     int        `json:"installmentNumber"`
		Amount     Money      `json:"amount"`
		DueDate    Date       `json:"dueDate"`
		NotifiedAt *time.Time `json:"notificatedAt,omitempty"`
		PaidAt     *time.Time `json:"paidAt,omitempty"`
	}
)

var (
	ErrInvalidDateFormat       = errors.New("invalid date format")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrIncompleteSchedule      = errors.New("incomplete schedule")
	ErrAmountMismatch          = errors.New("installment amounts do not match service amount")
	ErrNotFound                = errors.New("not found")
	ErrInvalidInstallmentCount = errors.New("invalid installment count")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrEmptyDescription        = errors.New("empty description")
	ErrEmptyClient             = errors.New("empty client")
	ErrEmptyName               = errors.New("empty name")
	ErrMissingPlan             = errors.New("missing subscription plan")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Before reports whether d is a strictly earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

// InMonth reports whether d falls in the given year and month (1-12).
func (d Date) InMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

// AddMonths moves d forward by n calendar months, keeping the day of month
// when the target month has it and clamping to its last day otherwise.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), time.Month(d.Month()+n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := DaysInMonth(first.Year(), int(first.Month())); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// String returns the ISO calendar form yyyy-mm-dd.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(isoLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDateFormat)
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.Cents = cents
	return nil
}

// Label returns the human readable name shown for a payment method.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentPIX:
		return "PIX"
	case PaymentCreditCard:
		return "Cartão de Crédito"
	case PaymentBoleto:
		return "Boleto"
	default:
		return string(p)
	}
}

func (p PaymentMethod) Validate() error {
	switch p {
	case PaymentPIX, PaymentCreditCard, PaymentBoleto:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, string(p))
	}
}

// IsPaid reports whether the installment has been marked as paid.
func (i Installment) IsPaid() bool {
	return i.PaidAt != nil
}

// Entry returns the schedule row the installment was created from.
func (i Installment) Entry() ScheduleEntry {
	return ScheduleEntry{Number: i.Number, Amount: i.Amount, DueDate: i.DueDate}
}

// CarryPayment copies the paid and notified timestamps onto inst from the
// previous installment with the same number, amount and due date, if any.
func CarryPayment(inst *Installment, previous []Installment) {
	for _, p := range previous {
		if p.Number == inst.Number && p.Amount == inst.Amount && p.DueDate.Equal(inst.DueDate) {
			inst.PaidAt = p.PaidAt
			inst.NotifiedAt = p.NotifiedAt
			return
		}
	}
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.SubscriptionPlanID) == "" {
		return ErrMissingPlan
	}
	return nil
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}

// Validate checks the fields every service needs regardless of how its
// schedule is produced. Schedule consistency is checked by the generator and
// the custom schedule validator.
func (s Service) Validate() error {
	if strings.TrimSpace(s.ClientID) == "" {
		return ErrEmptyClient
	}
	if len(strings.TrimSpace(s.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(s.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.PaymentMethod.Validate(); err != nil {
		return err
	}
	if err := s.FirstPaymentDate.Validate(); err != nil {
		return fmt.Errorf("invalid first payment date: %w", err)
	}
	if err := s.ServiceDate.Validate(); err != nil {
		return fmt.Errorf("invalid service date: %w", err)
	}
	if len(s.CustomInstallments) == 0 {
		if s.InstallmentCount < 1 || s.InstallmentCount > MaxInstallments {
			return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidInstallmentCount, s.InstallmentCount, MaxInstallments)
		}
	}
	return nil
}

// HasCustomSchedule reports whether the service carries a manually edited
// schedule instead of relying on generation.
func (s Service) HasCustomSchedule() bool {
	return len(s.CustomInstallments) > 0
}
