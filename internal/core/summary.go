package core

// MonthlyTotals is the collection summary of the installments due in one
// year+month.
type MonthlyTotals struct {
	Year             int
	Month            int // 1-12
	TotalRevenue     Money
	PaidAmount       Money
	PendingAmount    Money // overdue and not yet due together
	InstallmentCount int
	PaidCount        int
	PendingCount     int
	PaymentRate      int // percent of TotalRevenue already received, rounded
}

// Healthy reports whether more has been collected than is still open.
func (m MonthlyTotals) Healthy() bool {
	return m.PaidAmount.Cents > m.PendingAmount.Cents
}

// AnnualTotals is the collection summary of the installments due in one year.
type AnnualTotals struct {
	Year                   int
	TotalRevenue           Money
	TotalReceived          Money
	PendingAmount          Money
	AverageMonthlyRevenue  Money // TotalRevenue / 12
	AverageMonthlyReceived Money // TotalReceived / MonthsWithPayments
	MonthsWithData         int
	MonthsWithPayments     int
	InstallmentCount       int
	PaidCount              int
	PaymentRate            int
}
