package app

import (
	"context"
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// botHandle holds the bot instance, which only exists once the Telegram
// runtime is up. Flows and the scheduler receive the handle at construction
// time and it is bound on start.
type botHandle struct {
	bot atomic.Pointer[tele.Bot]
}

func (h *botHandle) Bind(b *tele.Bot) {
	h.bot.Store(b)
}

func (h *botHandle) get() (*tele.Bot, error) {
	b := h.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("app: telegram runtime is not started")
	}
	return b, nil
}

// notifier posts plain messages to fixed chats: operations alerts and
// statistic broadcasts.
type notifier struct {
	handle *botHandle
}

func (n *notifier) Notify(_ context.Context, chatID int64, text string) error {
	bot, err := n.handle.get()
	if err != nil {
		return err
	}
	_, err = bot.Send(&tele.Chat{ID: chatID}, text)
	return err
}

// invoiceSender issues Telegram payment invoices for online consultations.
type invoiceSender struct {
	handle   *botHandle
	token    string
	currency string
}

func (s *invoiceSender) SendInvoice(_ context.Context, userID int64, title, description, payload string, amountMinor int) error {
	bot, err := s.handle.get()
	if err != nil {
		return err
	}
	invoice := tele.Invoice{
		Title:       title,
		Description: description,
		Payload:     payload,
		Currency:    s.currency,
		Token:       s.token,
		Prices: []tele.Price{
			{Label: title, Amount: amountMinor},
		},
	}
	_, err = bot.Send(&tele.Chat{ID: userID}, &invoice)
	return err
}
