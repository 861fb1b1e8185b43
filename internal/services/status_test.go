package services

import (
	"testing"
	"time"

	"cobranca/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	paidAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		inst core.Installment
		want PaymentStatus
	}{
		{
			name: "due yesterday unpaid is overdue",
			inst: core.Installment{DueDate: core.NewDate(2024, 6, 14)},
			want: StatusOverdue,
		},
		{
			name: "due yesterday paid is paid",
			inst: core.Installment{DueDate: core.NewDate(2024, 6, 14), PaidAt: &paidAt},
			want: StatusPaid,
		},
		{
			name: "due today is pending",
			inst: core.Installment{DueDate: core.NewDate(2024, 6, 15)},
			want: StatusPending,
		},
		{
			name: "due tomorrow is pending",
			inst: core.Installment{DueDate: core.NewDate(2024, 6, 16)},
			want: StatusPending,
		},
		{
			name: "paid in the future is still paid",
			inst: core.Installment{DueDate: core.NewDate(2030, 1, 1), PaidAt: &paidAt},
			want: StatusPaid,
		},
		{
			name: "long overdue",
			inst: core.Installment{DueDate: core.NewDate(2020, 1, 1)},
			want: StatusOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.inst, now)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	due := core.Installment{DueDate: core.NewDate(2024, 6, 15)}

	assert.Equal(t, StatusPending, Classify(due, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, StatusPending, Classify(due, time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, StatusOverdue, Classify(due, time.Date(2024, 6, 16, 0, 0, 1, 0, time.UTC)))
}

func TestClassify_UsesLocalCivilDate(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	due := core.Installment{DueDate: core.NewDate(2024, 6, 15)}

	// 02:00 UTC on the 16th is still the 15th in Brazil.
	instant := time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusOverdue, Classify(due, instant))
	assert.Equal(t, StatusPending, Classify(due, instant.In(saoPaulo)))
}

func TestPaymentStatusLabel(t *testing.T) {
	assert.Equal(t, "Pago", StatusPaid.Label())
	assert.Equal(t, "Vencido", StatusOverdue.Label())
	assert.Equal(t, "Pendente", StatusPending.Label())
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in   string
		want StatusFilter
		ok   bool
	}{
		{"", FilterAll, true},
		{"all", FilterAll, true},
		{"PAID", FilterPaid, true},
		{" pending ", FilterPending, true},
		{"overdue", FilterOverdue, true},
		{"late", "", false},
	}
	for _, tt := range tests {
		got, err := ParseStatusFilter(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestStatusFilterMatches(t *testing.T) {
	statuses := []PaymentStatus{StatusPaid, StatusPending, StatusOverdue}
	for _, st := range statuses {
		assert.True(t, FilterAll.Matches(st))
	}
	assert.True(t, FilterPaid.Matches(StatusPaid))
	assert.False(t, FilterPaid.Matches(StatusOverdue))
	assert.True(t, FilterOverdue.Matches(StatusOverdue))
	assert.False(t, FilterOverdue.Matches(StatusPending))
	assert.True(t, FilterPending.Matches(StatusPending))
	assert.False(t, FilterPending.Matches(StatusPaid))
}
