package logger

import (
	"testing"

	"log/slog"
)

// Component loggers must be usable before InitLogger runs, otherwise any
// package that logs during its own setup (or under go test) crashes.
func TestComponentLoggersUsableBeforeInit(t *testing.T) {
	components := map[string]*slog.Logger{
		"L":          L,
		"DB":         DB,
		"TG":         TG,
		"MIG":        MIG,
		"TWire":      TWire,
		"Cache":      Cache,
		"Sched":      Sched,
		"FSM":        FSM,
		"SVCDoctors": SVCDoctors,
		"SVCAdmins":  SVCAdmins,
		"SVCBooking": SVCBooking,
		"SVCStats":   SVCStats,
		"Links":      Links,
	}
	for name, logg := range components {
		if logg == nil {
			t.Fatalf("logger %s is nil before InitLogger", name)
		}
		if logg.Handler() == nil {
			t.Fatalf("logger %s has nil handler before InitLogger", name)
		}
	}
	FSM.LogAttrs(Background(), slog.LevelDebug, "pre-init", slog.String("status", "ok"))
}
