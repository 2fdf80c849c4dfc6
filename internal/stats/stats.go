// Package stats computes usage statistics over booking and CRM records:
// absolute counts for a period and percentage change against the preceding
// period of identical length.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Period is one of the canned statistic periods.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Shift returns t moved back by one period length. Month-based periods use
// a fixed calendar offset with end-of-month clamping (Mar 31 minus one month
// is Feb 28), matching how the reports have always been computed; whether
// they should calendar-align instead is an open domain question.
func (p Period) Shift(t time.Time) time.Time {
	switch p {
	case PeriodDay:
		return t.Add(-24 * time.Hour)
	case PeriodWeek:
		return t.AddDate(0, 0, -7)
	case PeriodMonth:
		return addMonths(t, -1)
	case PeriodQuarter:
		return addMonths(t, -3)
	case PeriodYear:
		return addMonths(t, -12)
	}
	return t
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	}
	return false
}

// addMonths shifts by whole months, clamping the day to the target month's
// last day instead of letting the date normalize forward.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Change computes the percentage change of current versus previous using
// (current/previous)*100 - 100. A zero previous period yields 0 when the
// current count is also zero, otherwise growth is clamped to 100. Results
// keep one decimal below magnitude 100 and are truncated to whole numbers
// at or above it.
func Change(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	change := float64(current)/float64(previous)*100 - 100
	if math.Abs(change) < 100 {
		return math.Round(change*10) / 10
	}
	return math.Trunc(change)
}

// FormatChange renders a change value with a leading sign.
func FormatChange(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) >= 100 {
		return fmt.Sprintf("%+d%%", int(v))
	}
	return fmt.Sprintf("%+.1f%%", v)
}

// Line is one statistic row: a count and, for canned periods, its change.
type Line struct {
	Count     int
	Change    float64
	HasChange bool
}

// Summary aggregates the counts shown to admins and broadcast on schedule.
// Feedback change is intentionally not computed.
type Summary struct {
	OnlineAppointments  Line
	OfflineAppointments Line
	Callbacks           Line
	Feedbacks           Line
	NewUsers            Line

	From time.Time
	To   time.Time
}

// Counter is the record-counting slice of the storage layer.
type Counter interface {
	CountRecords(ctx context.Context, table string, from, to time.Time, consultationType string) (int, error)
}

// Record tables countable for statistics.
const (
	TableAppointments = "appointments"
	TableCallbacks    = "callbacks"
	TableFeedbacks    = "feedbacks"
	TableUsers        = "users"
)

// Service computes summaries against the storage layer.
type Service struct {
	counter Counter
}

// NewService builds a statistics service.
func NewService(counter Counter) *Service {
	return &Service{counter: counter}
}

// ForPeriod computes the summary for one canned period ending now, with
// change against the immediately preceding period of identical length.
func (s *Service) ForPeriod(ctx context.Context, p Period, now time.Time) (Summary, error) {
	from := p.Shift(now)
	prevFrom := p.Shift(from)
	return s.summary(ctx, from, now, true, prevFrom)
}

// ForRange computes absolute counts for a custom period. No change is
// reported: a custom range has no well-defined preceding period.
func (s *Service) ForRange(ctx context.Context, from, to time.Time) (Summary, error) {
	return s.summary(ctx, from, to, false, time.Time{})
}

func (s *Service) summary(ctx context.Context, from, to time.Time, withChange bool, prevFrom time.Time) (Summary, error) {
	out := Summary{From: from, To: to}

	line := func(table, consType string, changeable bool) (Line, error) {
		count, err := s.counter.CountRecords(ctx, table, from, to, consType)
		if err != nil {
			return Line{}, fmt.Errorf("stats: count %s: %w", table, err)
		}
		l := Line{Count: count}
		if withChange && changeable {
			prev, err := s.counter.CountRecords(ctx, table, prevFrom, from, consType)
			if err != nil {
				return Line{}, fmt.Errorf("stats: count previous %s: %w", table, err)
			}
			l.Change = Change(count, prev)
			l.HasChange = true
		}
		return l, nil
	}

	var err error
	if out.OnlineAppointments, err = line(TableAppointments, "online", true); err != nil {
		return Summary{}, err
	}
	if out.OfflineAppointments, err = line(TableAppointments, "offline", true); err != nil {
		return Summary{}, err
	}
	if out.Callbacks, err = line(TableCallbacks, "", true); err != nil {
		return Summary{}, err
	}
	if out.Feedbacks, err = line(TableFeedbacks, "", false); err != nil {
		return Summary{}, err
	}
	if out.NewUsers, err = line(TableUsers, "", true); err != nil {
		return Summary{}, err
	}
	return out, nil
}
