package services

import (
	"testing"

	"cobranca/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(cents int64, due core.Date) core.ScheduleEntry {
	return core.ScheduleEntry{Amount: core.Money{Cents: cents}, DueDate: due}
}

func TestValidateCustomSchedule(t *testing.T) {
	jan := core.NewDate(2024, 1, 10)
	feb := core.NewDate(2024, 2, 10)
	mar := core.NewDate(2024, 3, 10)

	tests := []struct {
		name    string
		amount  int64
		count   int
		entries []core.ScheduleEntry
		want    error
	}{
		{
			name:    "exact sum",
			amount:  10000,
			count:   3,
			entries: []core.ScheduleEntry{entry(3000, jan), entry(3000, feb), entry(4000, mar)},
		},
		{
			name:    "one cent short",
			amount:  10000,
			count:   3,
			entries: []core.ScheduleEntry{entry(3333, jan), entry(3333, feb), entry(3333, mar)},
			want:    core.ErrAmountMismatch,
		},
		{
			name:    "one cent over",
			amount:  10000,
			count:   2,
			entries: []core.ScheduleEntry{entry(5000, jan), entry(5001, feb)},
			want:    core.ErrAmountMismatch,
		},
		{
			name:    "sum does not match",
			amount:  10000,
			count:   3,
			entries: []core.ScheduleEntry{entry(3000, jan), entry(3000, feb), entry(5000, mar)},
			want:    core.ErrAmountMismatch,
		},
		{
			name:    "missing due date",
			amount:  10000,
			count:   2,
			entries: []core.ScheduleEntry{entry(5000, jan), entry(5000, core.Date{})},
			want:    core.ErrIncompleteSchedule,
		},
		{
			name:    "zero amount",
			amount:  10000,
			count:   2,
			entries: []core.ScheduleEntry{entry(10000, jan), entry(0, feb)},
			want:    core.ErrIncompleteSchedule,
		},
		{
			name:    "negative amount",
			amount:  10000,
			count:   2,
			entries: []core.ScheduleEntry{entry(10100, jan), entry(-100, feb)},
			want:    core.ErrIncompleteSchedule,
		},
		{
			name:   "empty schedule",
			amount: 10000,
			count:  0,
			want:   core.ErrIncompleteSchedule,
		},
		{
			name:    "count disagrees with entries",
			amount:  10000,
			count:   3,
			entries: []core.ScheduleEntry{entry(5000, jan), entry(5000, feb)},
			want:    core.ErrIncompleteSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCustomSchedule(core.Money{Cents: tt.amount}, tt.count, tt.entries)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.entries))
			for i, e := range got {
				assert.Equal(t, i+1, e.Number)
			}
		})
	}
}

func TestValidateCustomSchedule_ThreeWaySplit(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	_, err := ValidateCustomSchedule(core.Money{Cents: 10000}, 3,
		[]core.ScheduleEntry{entry(3000, d), entry(3000, d), entry(4000, d)})
	assert.NoError(t, err)

	_, err = ValidateCustomSchedule(core.Money{Cents: 10000}, 3,
		[]core.ScheduleEntry{entry(3000, d), entry(3000, d), entry(3999, d)})
	assert.ErrorIs(t, err, core.ErrAmountMismatch)
}

func TestValidateCustomSchedule_RenumbersWithoutMutatingInput(t *testing.T) {
	in := []core.ScheduleEntry{
		{Number: 7, Amount: core.Money{Cents: 600}, DueDate: core.NewDate(2024, 3, 1)},
		{Number: 2, Amount: core.Money{Cents: 400}, DueDate: core.NewDate(2024, 1, 1)},
	}
	got, err := ValidateCustomSchedule(core.Money{Cents: 1000}, 2, in)
	require.NoError(t, err)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, int64(600), got[0].Amount.Cents)
	assert.Equal(t, 2, got[1].Number)
	assert.Equal(t, 7, in[0].Number)
}

func TestScheduleBuilder_AddRemove(t *testing.T) {
	b, err := SeedScheduleBuilder(core.Money{Cents: 9000}, 3, core.NewDate(2024, 1, 15))
	require.NoError(t, err)
	require.Equal(t, 3, b.Len())

	idx := b.Add()
	assert.Equal(t, 3, idx)
	added := b.Entries()[idx]
	assert.Equal(t, 4, added.Number)
	assert.Zero(t, added.Amount.Cents)
	assert.True(t, added.DueDate.IsEmpty())

	_, err = b.Validate(core.Money{Cents: 9000})
	assert.ErrorIs(t, err, core.ErrIncompleteSchedule, "new row must be filled first")

	require.NoError(t, b.Remove(1))
	entries := b.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Number, entries[1].Number, entries[2].Number})
	assert.Equal(t, core.NewDate(2024, 1, 15), entries[0].DueDate)
	assert.Equal(t, core.NewDate(2024, 3, 15), entries[1].DueDate)
	assert.True(t, entries[2].DueDate.IsEmpty())

	require.NoError(t, b.SetAmountText(2, "30,00"))
	require.NoError(t, b.SetDueDateText(2, "15/04/2024"))
	assert.Equal(t, int64(9000), b.Total().Cents)

	got, err := b.Validate(core.Money{Cents: 9000})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestScheduleBuilder_InvalidEdits(t *testing.T) {
	b := NewScheduleBuilder(entry(1000, core.NewDate(2024, 1, 1)))

	assert.Error(t, b.Remove(5))
	assert.Error(t, b.SetAmount(-1, core.Money{Cents: 1}))
	assert.Error(t, b.SetDueDate(1, core.NewDate(2024, 1, 1)))

	err := b.SetDueDateText(0, "31/02/2024")
	assert.ErrorIs(t, err, core.ErrInvalidDateFormat)
	assert.True(t, b.Entries()[0].DueDate.IsEmpty(), "invalid input clears the date")
}

func TestScheduleBuilder_EntriesIsACopy(t *testing.T) {
	b := NewScheduleBuilder(entry(1000, core.NewDate(2024, 1, 1)))
	e := b.Entries()
	e[0].Amount = core.Money{Cents: 1}
	assert.Equal(t, int64(1000), b.Total().Cents)
}
