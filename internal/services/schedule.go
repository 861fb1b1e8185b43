// Package services provides business logic and orchestration services.
//
// This file implements installment generation. How the cents that do not
// divide evenly are distributed is a strategy, so changing the business rule
// does not touch the generator itself.
package services

import (
	"fmt"

	"cobranca/internal/core"
)

// AmountSplitter is the strategy interface for dividing a service amount into
// installment amounts. Implementations must return exactly count values that
// sum to total.
type AmountSplitter interface {
	Split(total int64, count int) []int64
}

// RemainderToLast gives every installment floor(total/count) and adds what is
// left over to the last one.
type RemainderToLast struct{}

// Split implements AmountSplitter.
func (RemainderToLast) Split(total int64, count int) []int64 {
	base := total / int64(count)
	out := make([]int64, count)
	for i := range out {
		out[i] = base
	}
	out[count-1] = total - base*int64(count-1)
	return out
}

// RemainderSpread gives the leftover cents one by one to the first
// installments, so no two amounts differ by more than one cent.
type RemainderSpread struct{}

// Split implements AmountSplitter.
func (RemainderSpread) Split(total int64, count int) []int64 {
	base := total / int64(count)
	rest := total % int64(count)
	out := make([]int64, count)
	for i := range out {
		out[i] = base
		if int64(i) < rest {
			out[i]++
		}
	}
	return out
}

// DefaultSplitter is used by GenerateSchedule.
var DefaultSplitter AmountSplitter = RemainderToLast{}

// GenerateSchedule derives the default payment schedule of a service: count
// installments, monthly spaced from first, numbered 1..count.
func GenerateSchedule(amount core.Money, count int, first core.Date) ([]core.ScheduleEntry, error) {
	return GenerateScheduleWith(DefaultSplitter, amount, count, first)
}

// GenerateScheduleWith is GenerateSchedule with an explicit splitting strategy.
func GenerateScheduleWith(splitter AmountSplitter, amount core.Money, count int, first core.Date) ([]core.ScheduleEntry, error) {
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	if count < 1 || count > core.MaxInstallments {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", core.ErrInvalidInstallmentCount, count, core.MaxInstallments)
	}
	if err := first.Validate(); err != nil {
		return nil, fmt.Errorf("first due date: %w", err)
	}

	amounts := splitter.Split(amount.Cents, count)
	entries := make([]core.ScheduleEntry, count)
	for i := range entries {
		// Always offset from first so a clamped 29 Feb does not drag
		// March down to the 29th.
		entries[i] = core.ScheduleEntry{
			Number:  i + 1,
			Amount:  core.Money{Cents: amounts[i]},
			DueDate: first.AddMonths(i),
		}
	}
	return entries, nil
}

// ScheduleTotal sums the amounts of a schedule.
func ScheduleTotal(entries []core.ScheduleEntry) core.Money {
	var total core.Money
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
