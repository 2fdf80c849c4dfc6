package app

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/internal/fsm"
)

// renderer adapts one update's tele.Context to the flow rendering interface.
// All edits target messages in the sender's private chat.
type renderer struct {
	c tele.Context
}

func (r renderer) chatRef(messageID int) *tele.Message {
	return &tele.Message{ID: messageID, Chat: r.c.Chat()}
}

func (r renderer) Send(text string, kb *tele.ReplyMarkup) (int, error) {
	msg, err := r.c.Bot().Send(r.c.Recipient(), text, kb)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (r renderer) Edit(messageID int, text string, kb *tele.ReplyMarkup) error {
	_, err := r.c.Bot().Edit(r.chatRef(messageID), text, kb)
	return err
}

func (r renderer) EditMarkup(messageID int, kb *tele.ReplyMarkup) error {
	_, err := r.c.Bot().EditReplyMarkup(r.chatRef(messageID), kb)
	return err
}

func (r renderer) Delete(messageID int) error {
	return r.c.Bot().Delete(r.chatRef(messageID))
}

func (r renderer) SendPhoto(path, caption string, kb *tele.ReplyMarkup) (int, error) {
	photo := &tele.Photo{File: tele.FromDisk(path), Caption: caption}
	msg, err := r.c.Bot().Send(r.c.Recipient(), photo, kb)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (r renderer) Download(fileID, path string) error {
	return r.c.Bot().Download(&tele.File{FileID: fileID}, path)
}

func senderName(u *tele.User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// messageEvent converts an incoming text or document update.
func messageEvent(c tele.Context) fsm.Event {
	sender := c.Sender()
	ev := fsm.Event{
		Type:     fsm.EventMessage,
		UserID:   sender.ID,
		Username: sender.Username,
		FullName: senderName(sender),
	}
	if msg := c.Message(); msg != nil {
		ev.MessageID = msg.ID
		ev.Text = msg.Text
		if msg.Document != nil {
			ev.Type = fsm.EventDocument
			ev.FileID = msg.Document.FileID
		} else if msg.Photo != nil {
			// Compressed photos arrive as a photo update, not a document;
			// flows reject them with a re-prompt.
			ev.FileID = msg.Photo.FileID
		}
	}
	return ev
}

// buttonEvent converts a callback press with its parsed key and payload.
func buttonEvent(c tele.Context, key, payload string) fsm.Event {
	sender := c.Sender()
	ev := fsm.Event{
		Type:     fsm.EventButton,
		UserID:   sender.ID,
		Username: sender.Username,
		FullName: senderName(sender),
		Button:   key,
		Payload:  payload,
	}
	if cb := c.Callback(); cb != nil && cb.Message != nil {
		ev.MessageID = cb.Message.ID
	}
	return ev
}

// paymentEvent converts a successful payment update.
func paymentEvent(c tele.Context) fsm.Event {
	sender := c.Sender()
	ev := fsm.Event{
		Type:     fsm.EventPayment,
		UserID:   sender.ID,
		Username: sender.Username,
		FullName: senderName(sender),
	}
	if msg := c.Message(); msg != nil {
		ev.MessageID = msg.ID
		if msg.Payment != nil {
			ev.Payload = msg.Payment.Payload
		}
	}
	return ev
}
