package fsm

import tele "gopkg.in/telebot.v4"

// Kind identifies one of the supported conversation flows.
type Kind string

const (
	KindDoctorCreate Kind = "doctor_create"
	KindDoctorUpdate Kind = "doctor_update"
	KindDoctorDelete Kind = "doctor_delete"
	KindDoctorCard   Kind = "doctor_card"
	KindAdminCreate  Kind = "admin_create"
	KindAdminDelete  Kind = "admin_delete"
	KindAppointment  Kind = "appointment"
	KindCallback     Kind = "callback_request"
	KindFeedback     Kind = "feedback"
	KindStatistics   Kind = "statistics"
)

// State identifies a finite-state-machine step scoped to one flow.
type State string

// EventType classifies inbound updates the engine can route.
type EventType int

const (
	EventMessage EventType = iota
	EventButton
	EventDocument
	EventPayment
)

// Event is one inbound user action, already decoupled from the transport.
// Button presses carry the callback key and the payload after the first
// separator; documents carry the Telegram file id.
type Event struct {
	Type      EventType
	UserID    int64
	MessageID int

	Text    string
	Button  string
	Payload string

	FileID   string
	Username string
	FullName string
}

// Renderer abstracts the outbound side of a conversation. One renderer is
// bound to the user the triggering update came from; implementations live in
// the transport layer, tests use a recording fake.
type Renderer interface {
	Send(text string, kb *tele.ReplyMarkup) (int, error)
	Edit(messageID int, text string, kb *tele.ReplyMarkup) error
	EditMarkup(messageID int, kb *tele.ReplyMarkup) error
	Delete(messageID int) error
	SendPhoto(path, caption string, kb *tele.ReplyMarkup) (int, error)
	Download(fileID, path string) error
}
