package services

import (
	"sort"
	"strings"
	"time"

	"cobranca/internal/core"
)

// FilterByStatus keeps the installments whose status at now passes f. The
// input is not modified.
func FilterByStatus(list []core.Installment, f StatusFilter, now time.Time) []core.Installment {
	out := make([]core.Installment, 0, len(list))
	for _, inst := range list {
		if f.Matches(Classify(inst, now)) {
			out = append(out, inst)
		}
	}
	return out
}

// SortByDueDate returns a copy ordered by due date, then installment number.
func SortByDueDate(list []core.Installment) []core.Installment {
	out := append([]core.Installment(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// SortByNumber returns a copy ordered by installment number.
func SortByNumber(list []core.Installment) []core.Installment {
	out := append([]core.Installment(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// MonthView is what the dashboard shows for one month.
type MonthView struct {
	Totals       core.MonthlyTotals // always over the whole month
	Filter       StatusFilter
	Installments []core.Installment // filtered, by due date
	Overdue      core.Money
	NotYetDue    core.Money
}

// BuildMonthView computes the totals of year/month and the filtered list to
// display. Filtering never changes Totals.
func BuildMonthView(idx InstallmentIndex, year, month int, f StatusFilter, now time.Time) MonthView {
	all := InstallmentsInMonth(idx, year, month)
	return monthView(all, monthlyTotals(all, year, month), f, now)
}

// monthView builds the view of all, the installments of one month, around
// totals that were already computed for it.
func monthView(all []core.Installment, totals core.MonthlyTotals, f StatusFilter, now time.Time) MonthView {
	v := MonthView{
		Totals:       totals,
		Filter:       f,
		Installments: SortByDueDate(FilterByStatus(all, f, now)),
	}
	for _, inst := range all {
		switch Classify(inst, now) {
		case StatusOverdue:
			v.Overdue = v.Overdue.Add(inst.Amount)
		case StatusPending:
			v.NotYetDue = v.NotYetDue.Add(inst.Amount)
		}
	}
	return v
}

// ServicesInMonth is the agenda of a month: services whose service date falls
// in year/month, ordered by that date.
func ServicesInMonth(services []core.Service, year, month int) []core.Service {
	var out []core.Service
	for _, s := range services {
		if s.ServiceDate.InMonth(year, month) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ServiceDate.Before(out[j].ServiceDate)
	})
	return out
}

// SearchServicesByClientName keeps the services whose client name contains
// term, ignoring case. An empty term keeps everything. Services whose client
// is unknown never match a non-empty term.
func SearchServicesByClientName(services []core.Service, clients []core.Client, term string) []core.Service {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]core.Service(nil), services...)
	}

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = strings.ToLower(c.Name)
	}

	var out []core.Service
	for _, s := range services {
		if name, ok := names[s.ClientID]; ok && strings.Contains(name, term) {
			out = append(out, s)
		}
	}
	return out
}
