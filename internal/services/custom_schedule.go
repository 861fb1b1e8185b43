package services

import (
	"fmt"

	"cobranca/internal/core"
)

// ValidateCustomSchedule checks a manually edited schedule against the
// service amount and count. On success it returns a copy renumbered 1..N in
// list order; on failure nothing is returned and the input is left untouched.
func ValidateCustomSchedule(amount core.Money, count int, entries []core.ScheduleEntry) ([]core.ScheduleEntry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no installments", core.ErrIncompleteSchedule)
	}
	if len(entries) > core.MaxInstallments {
		return nil, fmt.Errorf("%w: %d installments (max %d)", core.ErrIncompleteSchedule, len(entries), core.MaxInstallments)
	}
	if count != len(entries) {
		return nil, fmt.Errorf("%w: %d installments for a count of %d", core.ErrIncompleteSchedule, len(entries), count)
	}

	var sum int64
	for i, e := range entries {
		if e.DueDate.IsEmpty() || e.Amount.Cents <= 0 {
			return nil, fmt.Errorf("%w: installment %d is missing due date or amount", core.ErrIncompleteSchedule, i+1)
		}
		sum += e.Amount.Cents
	}

	// Amounts are whole cents, so staying under the one cent tolerance means
	// matching exactly.
	if sum != amount.Cents {
		return nil, fmt.Errorf("%w: installments sum %s, service amount %s",
			core.ErrAmountMismatch, core.Money{Cents: sum}, amount)
	}

	return renumber(entries), nil
}

func renumber(entries []core.ScheduleEntry) []core.ScheduleEntry {
	out := make([]core.ScheduleEntry, len(entries))
	for i, e := range entries {
		e.Number = i + 1
		out[i] = e
	}
	return out
}

// ScheduleBuilder holds a schedule while it is being edited. Rows are always
// numbered 1..N in their current order.
type ScheduleBuilder struct {
	entries []core.ScheduleEntry
}

// NewScheduleBuilder creates a builder with the given rows.
func NewScheduleBuilder(entries ...core.ScheduleEntry) *ScheduleBuilder {
	return &ScheduleBuilder{entries: renumber(entries)}
}

// SeedScheduleBuilder starts an edit from the generated default schedule.
func SeedScheduleBuilder(amount core.Money, count int, first core.Date) (*ScheduleBuilder, error) {
	entries, err := GenerateSchedule(amount, count, first)
	if err != nil {
		return nil, err
	}
	return &ScheduleBuilder{entries: entries}, nil
}

// Len returns the number of rows.
func (b *ScheduleBuilder) Len() int {
	return len(b.entries)
}

// Add appends an empty row with the next number and returns its index.
func (b *ScheduleBuilder) Add() int {
	b.entries = append(b.entries, core.ScheduleEntry{Number: len(b.entries) + 1})
	return len(b.entries) - 1
}

// Remove deletes the row at index i and renumbers the rest.
func (b *ScheduleBuilder) Remove(i int) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.entries = renumber(append(b.entries[:i:i], b.entries[i+1:]...))
	return nil
}

// SetAmount sets the amount of row i.
func (b *ScheduleBuilder) SetAmount(i int, amount core.Money) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.entries[i].Amount = amount
	return nil
}

// SetAmountText sets the amount of row i from user input.
func (b *ScheduleBuilder) SetAmountText(i int, text string) error {
	return b.SetAmount(i, core.Money{Cents: core.ParseCurrencyText(text)})
}

// SetDueDate sets the due date of row i.
func (b *ScheduleBuilder) SetDueDate(i int, due core.Date) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.entries[i].DueDate = due
	return nil
}

// SetDueDateText sets the due date of row i from dd/mm/yyyy input. An invalid
// date clears the row's due date and is reported.
func (b *ScheduleBuilder) SetDueDateText(i int, text string) error {
	if err := b.check(i); err != nil {
		return err
	}
	due, err := core.ParseDisplay(text)
	b.entries[i].DueDate = due
	return err
}

// Entries returns a copy of the current rows.
func (b *ScheduleBuilder) Entries() []core.ScheduleEntry {
	out := make([]core.ScheduleEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Total is the running sum of the rows.
func (b *ScheduleBuilder) Total() core.Money {
	return ScheduleTotal(b.entries)
}

// Validate checks the rows against the service amount.
func (b *ScheduleBuilder) Validate(amount core.Money) ([]core.ScheduleEntry, error) {
	return ValidateCustomSchedule(amount, len(b.entries), b.entries)
}

func (b *ScheduleBuilder) check(i int) error {
	if i < 0 || i >= len(b.entries) {
		return fmt.Errorf("installment index %d out of range [0,%d)", i, len(b.entries))
	}
	return nil
}
