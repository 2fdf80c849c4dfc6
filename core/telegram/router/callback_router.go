package router

import (
	"time"

	tg "github.com/mkamenev/clinicbot/core/telegram"
	"github.com/mkamenev/clinicbot/core/telegram/callbacks"
	"github.com/mkamenev/clinicbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackFSM lets an active conversation claim a callback before the
// registry sees it. CallbackHandler reports whether the press was consumed;
// unconsumed presses (menu navigation, stale keyboards) fall through to the
// registry lookup.
type CallbackFSM interface {
	InProgress(userID int64) bool
	CallbackHandler(c tele.Context, key, payload string) (bool, error)
}

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the active
// conversation first and the registry second.
func CallbackRoute(fsmMgr CallbackFSM, reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, payload := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			var handled bool
			err := handleWithSummary(c, "fsm."+name, start, "", "", func() error {
				var ferr error
				handled, ferr = fsmMgr.CallbackHandler(c, key, payload)
				return ferr
			}, extras...)
			if handled || err != nil {
				return err
			}
		}

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
