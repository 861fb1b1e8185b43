package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"cobranca/internal/core"
	"cobranca/internal/services"
)

type report struct {
	billing *services.BillingService
	out     io.Writer
	money   *core.CurrencyFormatter
}

func (r *report) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
}

func (r *report) dashboard(ctx context.Context, companyID string, year, month int, f services.StatusFilter) error {
	d, err := r.billing.Dashboard(ctx, companyID, year, month, f)
	if err != nil {
		return err
	}
	now := r.billing.Now()
	t := d.View.Totals

	fmt.Fprintf(r.out, "%02d/%04d\n", month, year)
	w := r.table()
	fmt.Fprintf(w, "Receita\t%s\n", r.money.Format(t.TotalRevenue))
	fmt.Fprintf(w, "Recebido\t%s\n", r.money.Format(t.PaidAmount))
	fmt.Fprintf(w, "Pendente\t%s\t(vencido %s, a vencer %s)\n",
		r.money.Format(t.PendingAmount), r.money.Format(d.View.Overdue), r.money.Format(d.View.NotYetDue))
	fmt.Fprintf(w, "Taxa de pagamento\t%d%%\n", t.PaymentRate)
	fmt.Fprintf(w, "Parcelas\t%d pagas / %d pendentes\n", t.PaidCount, t.PendingCount)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nParcelas (%s)\n", f)
	w = r.table()
	fmt.Fprintln(w, "Vencimento\tNº\tValor\tStatus")
	for _, inst := range d.View.Installments {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			inst.DueDate.Display(), inst.Number, r.money.Format(inst.Amount), services.Classify(inst, now).Label())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	a := d.Annual
	fmt.Fprintf(r.out, "\nAno %04d\n", year)
	w = r.table()
	fmt.Fprintf(w, "Receita\t%s\n", r.money.Format(a.TotalRevenue))
	fmt.Fprintf(w, "Recebido\t%s\n", r.money.Format(a.TotalReceived))
	fmt.Fprintf(w, "Pendente\t%s\n", r.money.Format(a.PendingAmount))
	fmt.Fprintf(w, "Média mensal\t%s\n", r.money.Format(a.AverageMonthlyRevenue))
	fmt.Fprintf(w, "Média recebida\t%s\t(%d meses com pagamento)\n", r.money.Format(a.AverageMonthlyReceived), a.MonthsWithPayments)
	fmt.Fprintf(w, "Taxa de pagamento\t%d%%\n", a.PaymentRate)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	w = r.table()
	fmt.Fprintln(w, "Mês\tReceita\tRecebido\tPendente")
	for _, m := range d.Series {
		fmt.Fprintf(w, "%02d\t%s\t%s\t%s\n", m.Month,
			r.money.Format(m.TotalRevenue), r.money.Format(m.PaidAmount), r.money.Format(m.PendingAmount))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c := d.Company
	fmt.Fprintf(r.out, "\nContratado %s, recebido %s, em aberto %s (%d serviços)\n",
		r.money.Format(c.ContractedRevenue), r.money.Format(c.TotalReceived), r.money.Format(c.Outstanding), c.ServiceCount)
	return nil
}

func (r *report) client(ctx context.Context, clientID string) error {
	s, err := r.billing.ClientDetail(ctx, clientID)
	if err != nil {
		return err
	}
	now := r.billing.Now()

	fmt.Fprintf(r.out, "%s <%s> %s\n", s.Client.Name, s.Client.Email, s.Client.PhoneNumber)
	fmt.Fprintf(r.out, "Contratado %s, pago %s, em aberto %s (%d pagas, %d pendentes)\n",
		r.money.Format(s.ContractedRevenue), r.money.Format(s.TotalPaid), r.money.Format(s.Outstanding),
		s.PaidCount, s.PendingCount)

	for _, p := range s.Services {
		fmt.Fprintf(r.out, "\n%s (%s, %s) %d/%d pagas\n", p.Service.Description,
			p.Service.PaymentMethod.Label(), r.money.Format(p.Service.Amount), p.PaidCount, len(p.Installments))
		w := r.table()
		for _, inst := range p.Installments {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", inst.Number, inst.DueDate.Display(),
				r.money.Format(inst.Amount), services.Classify(inst, now).Label())
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (r *report) agenda(ctx context.Context, companyID string, year, month int) error {
	entries, err := r.billing.Agenda(ctx, companyID, year, month)
	if err != nil {
		return err
	}
	w := r.table()
	fmt.Fprintln(w, "Data\tCliente\tServiço\tValor")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Service.ServiceDate.Display(), e.ClientName,
			e.Service.Description, r.money.Format(e.Service.Amount))
	}
	return w.Flush()
}

func (r *report) search(ctx context.Context, companyID, term string) error {
	found, err := r.billing.SearchServices(ctx, companyID, term)
	if err != nil {
		return err
	}
	w := r.table()
	fmt.Fprintln(w, "ID\tData\tServiço\tValor\tParcelas")
	for _, s := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.ServiceDate.Display(), s.Description,
			r.money.Format(s.Amount), s.InstallmentCount)
	}
	return w.Flush()
}

func (r *report) pay(ctx context.Context, installmentID string) error {
	inst, err := r.billing.MarkPaid(ctx, installmentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Parcela %d de %s paga em %s\n", inst.Number, r.money.Format(inst.Amount),
		core.DateOf(inst.PaidAt.In(r.billing.Now().Location())).Display())
	return nil
}
