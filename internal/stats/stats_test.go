package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange(t *testing.T) {
	cases := []struct {
		name     string
		current  int
		previous int
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"growth from zero clamps to 100", 10, 0, 100},
		{"moderate growth keeps one decimal", 15, 10, 50.0},
		{"drop keeps one decimal", 9, 10, -10.0},
		{"large drop truncates", 5, 500, -99.0},
		{"large growth truncates", 31, 10, 210},
		{"rounding to one decimal", 1, 3, -66.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Change(tc.current, tc.previous), 1e-9)
		})
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+50.0%", FormatChange(50.0))
	assert.Equal(t, "-66.7%", FormatChange(-66.7))
	assert.Equal(t, "+210%", FormatChange(210))
	assert.Equal(t, "+0.0%", FormatChange(0))
}

func TestPeriodShiftClampsMonthEnd(t *testing.T) {
	loc := time.UTC
	mar31 := time.Date(2026, time.March, 31, 12, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2026, time.February, 28, 12, 0, 0, 0, loc), PeriodMonth.Shift(mar31))
	assert.Equal(t, time.Date(2025, time.December, 31, 12, 0, 0, 0, loc), PeriodQuarter.Shift(mar31))

	// Leap year keeps Feb 29.
	mar31leap := time.Date(2024, time.March, 31, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, loc), PeriodMonth.Shift(mar31leap))
}

func TestPeriodShiftSimplePeriods(t *testing.T) {
	loc := time.UTC
	base := time.Date(2026, time.June, 15, 9, 30, 0, 0, loc)

	assert.Equal(t, base.Add(-24*time.Hour), PeriodDay.Shift(base))
	assert.Equal(t, base.AddDate(0, 0, -7), PeriodWeek.Shift(base))
	assert.Equal(t, time.Date(2025, time.June, 15, 9, 30, 0, 0, loc), PeriodYear.Shift(base))
}

func TestPeriodValid(t *testing.T) {
	for _, p := range []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, Period("decade").Valid())
}

func TestParseCustomRange(t *testing.T) {
	from, to, err := ParseCustomRange("01-02-2026 15-02-2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.Local), from)
	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.Local), to)
}

func TestParseCustomRangeNormalizesOrder(t *testing.T) {
	from, to, err := ParseCustomRange("  15-02-2026   01-02-2026 ")
	require.NoError(t, err)
	assert.True(t, from.Before(to))
	assert.Equal(t, 1, from.Day())
}

func TestParseCustomRangeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "01-02-2026", "01-02-2026 02-03-2026 04-05-2026", "вчера сегодня", "2026-02-01 2026-02-15"} {
		_, _, err := ParseCustomRange(in)
		assert.Error(t, err, in)
	}
}

type fakeCounter struct {
	now    time.Time
	counts map[string][2]int // table+type -> [current, previous]
	calls  int
}

func (f *fakeCounter) CountRecords(_ context.Context, table string, from, to time.Time, consType string) (int, error) {
	f.calls++
	pair := f.counts[table+"/"+consType]
	// The current-period query always ends at now; the previous one earlier.
	if to.Equal(f.now) {
		return pair[0], nil
	}
	return pair[1], nil
}

func TestServiceForPeriod(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	counter := &fakeCounter{now: now, counts: map[string][2]int{
		"appointments/online":  {15, 10},
		"appointments/offline": {4, 8},
		"callbacks/":           {3, 0},
		"feedbacks/":           {2, 5},
		"users/":               {20, 20},
	}}
	svc := NewService(counter)

	s, err := svc.ForPeriod(context.Background(), PeriodWeek, now)
	require.NoError(t, err)

	assert.Equal(t, 15, s.OnlineAppointments.Count)
	assert.True(t, s.OnlineAppointments.HasChange)
	assert.InDelta(t, 50.0, s.OnlineAppointments.Change, 1e-9)

	assert.Equal(t, 4, s.OfflineAppointments.Count)
	assert.InDelta(t, -50.0, s.OfflineAppointments.Change, 1e-9)

	assert.InDelta(t, 100.0, s.Callbacks.Change, 1e-9)

	assert.Equal(t, 2, s.Feedbacks.Count)
	assert.False(t, s.Feedbacks.HasChange, "feedback change is never computed")

	assert.InDelta(t, 0.0, s.NewUsers.Change, 1e-9)
}

func TestServiceForRangeSkipsChange(t *testing.T) {
	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 16, 0, 0, 0, 0, time.UTC)
	counter := &fakeCounter{now: to, counts: map[string][2]int{
		"appointments/online": {7, 99},
	}}
	svc := NewService(counter)

	s, err := svc.ForRange(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, 7, s.OnlineAppointments.Count)
	assert.False(t, s.OnlineAppointments.HasChange)
	assert.False(t, s.NewUsers.HasChange)
	assert.Equal(t, from, s.From)
	assert.Equal(t, to, s.To)
	// Five tables, one query each.
	assert.Equal(t, 5, counter.calls)
}
