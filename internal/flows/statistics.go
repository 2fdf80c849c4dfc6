package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkamenev/clinicbot/internal/fsm"
	"github.com/mkamenev/clinicbot/internal/stats"
)

const stPeriod fsm.State = "period"

// Canned periods are a plain callback handled by ShowPeriodStats; only the
// custom range needs a conversation to collect the two dates.
func newStatisticsFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindStatistics, stPeriod)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsPrivileged(ctx, userID)
	}
	f.Denied = deniedHandler(KeyStatsMenu)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		return editAnchor(t, textEnterStatsPeriod, backToMenuMarkup(KeyStatsMenu))
	}

	f.On(stPeriod, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		from, to, err := stats.ParseCustomRange(t.Event.Text)
		if err != nil {
			return editAnchor(t, textBadStatsPeriod, backToMenuMarkup(KeyStatsMenu))
		}
		// Both bounds are parsed at midnight and the upper bound is
		// exclusive, so the end day itself is not counted.
		summary, err := env.Stats.ForRange(ctx, from, to)
		if err != nil {
			return err
		}
		t.End()
		return editAnchor(t, FormatSummary(summary, periodRangeTitle(from, to)),
			backToMenuMarkup(KeyStatsMenu))
	})

	return f
}

// ShowPeriodStats renders a canned-period summary into the pressed menu
// message. It is wired as a registry callback, not a flow.
func (env *Env) ShowPeriodStats(ctx context.Context, p stats.Period, userID int64, messageID int, r fsm.Renderer) error {
	ok, err := env.Access.IsPrivileged(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return r.Edit(messageID, textLackOfPrivileges, backToMenuMarkup(KeyStatsMenu))
	}
	summary, err := env.Stats.ForPeriod(ctx, p, time.Now())
	if err != nil {
		return err
	}
	return r.Edit(messageID, FormatSummary(summary, PeriodTitle(p)), backToMenuMarkup(KeyStatsMenu))
}

// PeriodTitle names a canned period in report headers.
func PeriodTitle(p stats.Period) string {
	switch p {
	case stats.PeriodDay:
		return "за день"
	case stats.PeriodWeek:
		return "за неделю"
	case stats.PeriodMonth:
		return "за месяц"
	case stats.PeriodQuarter:
		return "за квартал"
	case stats.PeriodYear:
		return "за год"
	}
	return string(p)
}

func periodRangeTitle(from, to time.Time) string {
	return fmt.Sprintf("за период %s — %s",
		from.Format(stats.OutputDateLayout), to.Format(stats.OutputDateLayout))
}

// FormatSummary renders a statistics summary as the admin-facing report.
// The scheduler reuses it for broadcast messages.
func FormatSummary(s stats.Summary, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика %s\n\n", title)
	writeLine(&b, "Онлайн-записи", s.OnlineAppointments)
	writeLine(&b, "Очные записи", s.OfflineAppointments)
	writeLine(&b, "Обратные звонки", s.Callbacks)
	writeLine(&b, "Отзывы", s.Feedbacks)
	writeLine(&b, "Новые пользователи", s.NewUsers)
	return b.String()
}

func writeLine(b *strings.Builder, label string, l stats.Line) {
	if l.HasChange {
		fmt.Fprintf(b, "%s: %d (%s)\n", label, l.Count, stats.FormatChange(l.Change))
		return
	}
	fmt.Fprintf(b, "%s: %d\n", label, l.Count)
}
