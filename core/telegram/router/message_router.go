package router

import (
	"time"

	tg "github.com/mkamenev/clinicbot/core/telegram"
	"github.com/mkamenev/clinicbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text, document and photo
// updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	UnknownPhoto    tele.HandlerFunc
}

// TextRoutes builds handlers for text, document and photo routing.
// The routes perform the same logic previously wired via RegisterTextRouter.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	// Documents and photos share the routing shape: an active conversation
	// claims the update, otherwise the unknown fallback runs.
	mediaHandler := func(fsmName, unknownName string, unknown tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
				return handleWithSummary(c, fsmName, start, "", "", func() error {
					return fsmMgr.ManagerHandler(c)
				})
			}
			if unknown != nil {
				return handleWithSummary(c, unknownName, start, "", "", func() error {
					return unknown(c)
				})
			}
			logHandlerSummary(c, unknownName, start, "skip", "ok", nil)
			return nil
		}
	}
	docHandler := mediaHandler("fsm_document", "unexpected_document", opts.UnknownDocument)
	photoHandler := mediaHandler("fsm_photo", "unexpected_photo", opts.UnknownPhoto)

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
	}
}
