package services

import (
	"fmt"
	"strings"
	"time"

	"cobranca/internal/core"
)

// PaymentStatus is derived from an installment every time it is needed and
// never stored.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusOverdue PaymentStatus = "overdue"
	StatusPending PaymentStatus = "pending"
)

// Label returns the text shown for the status.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPaid:
		return "Pago"
	case StatusOverdue:
		return "Vencido"
	case StatusPending:
		return "Pendente"
	default:
		return string(s)
	}
}

// Classify derives the status of an installment at instant now. A paid
// installment is always paid. Otherwise it is overdue when its due date is
// strictly before the civil date of now in now's location, and pending when it
// is due today or later. Time of day never matters.
func Classify(inst core.Installment, now time.Time) PaymentStatus {
	if inst.IsPaid() {
		return StatusPaid
	}
	if inst.DueDate.Before(core.DateOf(now)) {
		return StatusOverdue
	}
	return StatusPending
}

// StatusFilter selects installments of a month list by status.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterPaid    StatusFilter = "paid"
	FilterPending StatusFilter = "pending"
	FilterOverdue StatusFilter = "overdue"
)

// ParseStatusFilter reads a filter name. An empty string means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPaid, FilterPending, FilterOverdue:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter: %q", s)
	}
}

// Matches reports whether an installment with status st passes the filter.
func (f StatusFilter) Matches(st PaymentStatus) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterPaid:
		return st == StatusPaid
	case FilterPending:
		return st == StatusPending
	case FilterOverdue:
		return st == StatusOverdue
	default:
		return false
	}
}
