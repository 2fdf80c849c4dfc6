// Package callbacks parses telebot callback data into key and payload.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the callback key and payload. Telebot encodes button data as
// "\f<key>|<payload>" and, for handlers registered per unique, strips the
// prefix itself, leaving cb.Unique and cb.Data already split. Generic
// OnCallback handlers still see the raw form.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	key = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// Key returns the callback key of the pressed button, or "" when the update
// carries no callback.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}

// Payload returns the callback payload of the pressed button.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
