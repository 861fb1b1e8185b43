package services

import (
	"sort"

	"cobranca/internal/core"

	"github.com/shopspring/decimal"
)

// InstallmentIndex groups installments by the id of the service they belong
// to, the shape the store hands them out in.
type InstallmentIndex map[string][]core.Installment

// Flatten returns every installment of the index. Services are visited in id
// order so the result does not depend on map iteration.
func (idx InstallmentIndex) Flatten() []core.Installment {
	ids := make([]string, 0, len(idx))
	n := 0
	for id, list := range idx {
		ids = append(ids, id)
		n += len(list)
	}
	sort.Strings(ids)

	out := make([]core.Installment, 0, n)
	for _, id := range ids {
		out = append(out, idx[id]...)
	}
	return out
}

// Only returns the sub-index of the given services.
func (idx InstallmentIndex) Only(serviceIDs ...string) InstallmentIndex {
	out := make(InstallmentIndex, len(serviceIDs))
	for _, id := range serviceIDs {
		if list, ok := idx[id]; ok {
			out[id] = list
		}
	}
	return out
}

// InstallmentsInMonth returns the installments due in year/month, in index
// order.
func InstallmentsInMonth(idx InstallmentIndex, year, month int) []core.Installment {
	var out []core.Installment
	for _, inst := range idx.Flatten() {
		if inst.DueDate.InMonth(year, month) {
			out = append(out, inst)
		}
	}
	return out
}

// MonthlyTotalsFor sums the installments due in year/month. PendingAmount is
// everything not yet received, overdue or not.
func MonthlyTotalsFor(idx InstallmentIndex, year, month int) core.MonthlyTotals {
	return monthlyTotals(InstallmentsInMonth(idx, year, month), year, month)
}

func monthlyTotals(list []core.Installment, year, month int) core.MonthlyTotals {
	t := core.MonthlyTotals{Year: year, Month: month}
	for _, inst := range list {
		t.InstallmentCount++
		t.TotalRevenue = t.TotalRevenue.Add(inst.Amount)
		if inst.IsPaid() {
			t.PaidCount++
			t.PaidAmount = t.PaidAmount.Add(inst.Amount)
		}
	}
	t.PendingAmount = t.TotalRevenue.Sub(t.PaidAmount)
	t.PendingCount = t.InstallmentCount - t.PaidCount
	t.PaymentRate = paymentRate(t.PaidAmount, t.TotalRevenue)
	return t
}

// MonthlySeries returns the totals of every month of year, January first.
func MonthlySeries(idx InstallmentIndex, year int) [12]core.MonthlyTotals {
	var byMonth [12][]core.Installment
	for _, inst := range idx.Flatten() {
		if !inst.DueDate.IsEmpty() && inst.DueDate.Year() == year {
			m := inst.DueDate.Month() - 1
			byMonth[m] = append(byMonth[m], inst)
		}
	}

	var series [12]core.MonthlyTotals
	for i := range series {
		series[i] = monthlyTotals(byMonth[i], year, i+1)
	}
	return series
}

// AnnualTotalsFor sums the installments due in year.
//
// AverageMonthlyRevenue always divides by 12, a straight run rate, while
// AverageMonthlyReceived divides only by the months that saw a payment. A
// year without installments yields all zeros.
func AnnualTotalsFor(idx InstallmentIndex, year int) core.AnnualTotals {
	t := core.AnnualTotals{Year: year}
	series := MonthlySeries(idx, year)
	for _, m := range series {
		if m.InstallmentCount > 0 {
			t.MonthsWithData++
		}
		if m.PaidCount > 0 {
			t.MonthsWithPayments++
		}
		t.InstallmentCount += m.InstallmentCount
		t.PaidCount += m.PaidCount
		t.TotalRevenue = t.TotalRevenue.Add(m.TotalRevenue)
		t.TotalReceived = t.TotalReceived.Add(m.PaidAmount)
	}

	t.PendingAmount = t.TotalRevenue.Sub(t.TotalReceived)
	t.AverageMonthlyRevenue = t.TotalRevenue.DivRound(12)
	t.AverageMonthlyReceived = t.TotalReceived.DivRound(int64(t.MonthsWithPayments))
	t.PaymentRate = paymentRate(t.TotalReceived, t.TotalRevenue)
	return t
}

// paymentRate is paid/total as a rounded percentage, 0 when total is 0.
func paymentRate(paid, total core.Money) int {
	if total.Cents == 0 {
		return 0
	}
	pct := decimal.NewFromInt(paid.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total.Cents)).
		Round(0)
	return int(pct.IntPart())
}

// CompanyTotals compares what was contracted with what was collected.
type CompanyTotals struct {
	ContractedRevenue core.Money // sum of service amounts
	TotalReceived     core.Money // sum of paid installments
	Outstanding       core.Money
	ServiceCount      int
}

// CompanyTotalsFor computes the company wide totals of the given services.
func CompanyTotalsFor(services []core.Service, idx InstallmentIndex) CompanyTotals {
	var t CompanyTotals
	for _, s := range services {
		t.ServiceCount++
		t.ContractedRevenue = t.ContractedRevenue.Add(s.Amount)
	}
	for _, inst := range idx.Flatten() {
		if inst.IsPaid() {
			t.TotalReceived = t.TotalReceived.Add(inst.Amount)
		}
	}
	t.Outstanding = t.ContractedRevenue.Sub(t.TotalReceived)
	return t
}

// ServiceProgress is one service of a client with its installments ordered by
// number.
type ServiceProgress struct {
	Service      core.Service
	Installments []core.Installment
	PaidAmount   core.Money
	PaidCount    int
}

// Done reports whether every installment of the service is paid.
func (p ServiceProgress) Done() bool {
	return len(p.Installments) > 0 && p.PaidCount == len(p.Installments)
}

// ClientSummary is the detail view of one client.
type ClientSummary struct {
	Client            core.Client
	Services          []ServiceProgress
	ContractedRevenue core.Money
	TotalPaid         core.Money
	Outstanding       core.Money
	PaidCount         int
	PendingCount      int
}

// SummarizeClient builds the detail of client from the company's services.
// Services of other clients are ignored.
func SummarizeClient(client core.Client, services []core.Service, idx InstallmentIndex) ClientSummary {
	sum := ClientSummary{Client: client}
	for _, s := range services {
		if s.ClientID != client.ID {
			continue
		}
		p := ServiceProgress{Service: s, Installments: SortByNumber(idx[s.ID])}
		for _, inst := range p.Installments {
			if inst.IsPaid() {
				p.PaidCount++
				p.PaidAmount = p.PaidAmount.Add(inst.Amount)
			} else {
				sum.PendingCount++
			}
		}
		sum.PaidCount += p.PaidCount
		sum.TotalPaid = sum.TotalPaid.Add(p.PaidAmount)
		sum.ContractedRevenue = sum.ContractedRevenue.Add(s.Amount)
		sum.Services = append(sum.Services, p)
	}
	sum.Outstanding = sum.ContractedRevenue.Sub(sum.TotalPaid)
	return sum
}
