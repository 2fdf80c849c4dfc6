package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends plain text to the current recipient through the async
// dispatcher when one is wired.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if rm != nil {
			return c.Send(text, rm)
		}
		return c.Send(text)
	})
}

// EditOrSendText edits the originating message in place, falling back to a
// new message when there is nothing to edit.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	if rm != nil {
		return c.EditOrSend(text, rm)
	}
	return c.EditOrSend(text)
}
