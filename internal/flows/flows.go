// Package flows defines the conversational flows of the clinic bot as
// declarative state machines: doctor create/update/delete and card viewing,
// admin create/delete, appointment booking, callback request, feedback, and
// statistics. Each flow is a transition table over the fsm engine; all
// external effects go through the interfaces in this file.
package flows

import (
	"context"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
	"github.com/mkamenev/clinicbot/internal/stats"
)

// Callback keys shared between flow transition guards and menu keyboards.
// Payloads follow after telebot's separator and are parsed by the transport
// adapter before events reach the engine.
const (
	// Menu navigation. Pressing any of these cancels an active flow.
	KeyMainMenu     = "menu"
	KeyAdminPanel   = "admin_panel"
	KeyDoctorsMenu  = "doctors_settings"
	KeyStatsMenu    = "stats_menu"
	KeyAdminsMenu   = "admins_menu"
	KeyContacts     = "contacts"
	KeyInstruction  = "instruction"

	// Flow entries.
	KeyDoctorCreate = "doctor_create"
	KeyDoctorUpdate = "doctor_update"
	KeyDoctorDelete = "doctor_delete"
	KeyDoctorShow   = "doctor_show"
	KeyAdminCreate  = "admin_create"
	KeyAdminDelete  = "admin_delete"
	KeyAppointment  = "appointment"
	KeyCallbackReq  = "callback_req"
	KeyFeedback     = "feedback"
	KeyStatsCustom  = "stats_custom"
	KeyStatsPeriod  = "stats_period"

	// In-flow buttons.
	KeySpecPick   = "spec_pick"
	KeySpecNew    = "spec_new"
	KeySpecDone   = "spec_done"
	KeyExpChoice  = "exp_choice"
	KeyDegree     = "degree"
	KeyQual       = "qual"
	KeyConfirm    = "confirm"
	KeyNavPrev    = "nav_prev"
	KeyNavNext    = "nav_next"
	KeyConsType   = "cons_type"
	KeyDoctorPick = "doctor_pick"
	KeyDTChoice   = "dt_choice"
	KeyComType    = "com_type"
	KeyPay        = "pay"
	KeyDocSection = "doc_section"
	KeySpecAction = "spec_action"
	KeyAdminPick  = "adm_pick"
	KeyPrivilege  = "priv"
	KeyCardBack   = "back_to_doctors"
)

// NavigationKeys lists every menu key that cancels an active flow.
func NavigationKeys() []string {
	return []string{
		KeyMainMenu, KeyAdminPanel, KeyDoctorsMenu,
		KeyStatsMenu, KeyAdminsMenu, KeyContacts, KeyInstruction,
	}
}

// payload value used when a selection is skipped.
const payloadNone = "none"

// DataAccess is the storage slice the flows mutate and read.
type DataAccess interface {
	AdminIDs(ctx context.Context, privilege domain.PrivilegeLevel) ([]int64, error)
	Admins(ctx context.Context) ([]domain.Admin, error)
	CreateAdmin(ctx context.Context, admin domain.Admin) error
	DeleteAdmin(ctx context.Context, tgUID int64) error

	SpecialityTitles(ctx context.Context) ([]string, error)
	CreateDoctor(ctx context.Context, doctor domain.Doctor) (int64, error)
	Doctors(ctx context.Context, speciality string) ([]domain.Doctor, error)
	DoctorByID(ctx context.Context, id int64) (domain.Doctor, error)
	DoctorSpecialities(ctx context.Context, doctorID int64) ([]domain.SpecialityPrice, error)
	AddDoctorSpecialities(ctx context.Context, doctorID int64, pairs []domain.SpecialityPrice) error
	RemoveDoctorSpecialities(ctx context.Context, doctorID int64, titles []string) error
	UpdateDoctorProfile(ctx context.Context, doctorID int64, name, photo, description *string) error
	DeleteDoctor(ctx context.Context, doctorID int64) error

	CreateAppointment(ctx context.Context, a domain.Appointment) error
	CreateCallback(ctx context.Context, c domain.Callback) error
	CreateFeedback(ctx context.Context, f domain.Feedback) error
}

// RefCache is the coordinator slice used for reads and invalidation.
type RefCache interface {
	AdminIDs(ctx context.Context) ([]int64, error)
	PrivilegedAdminIDs(ctx context.Context) ([]int64, error)
	SpecialityTitles(ctx context.Context) ([]string, error)
	Invalidate(ctx context.Context, keys ...cache.Key) error
}

// Access gates privileged flows.
type Access interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	IsPrivileged(ctx context.Context, userID int64) (bool, error)
}

// LinkProvider produces conference links, best effort.
type LinkProvider interface {
	Generate(ctx context.Context) (string, error)
}

// PaymentProvider sends the consultation invoice. Payment confirmation
// arrives back as an fsm.EventPayment event.
type PaymentProvider interface {
	SendInvoice(ctx context.Context, userID int64, title, description, payload string, amountMinor int) error
}

// Notifier posts out-of-band messages: operations alerts and scheduled
// statistic broadcasts.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Config carries the flow-relevant settings.
type Config struct {
	SuperAdminID int64
	OpsChatID    int64
	PageSize     int
	SpecsPerRow  int
	PhotoDir     string
	PhotoExt     string
}

// Env bundles the collaborators every flow definition closes over.
type Env struct {
	Data     DataAccess
	Cache    RefCache
	Access   Access
	Stats    *stats.Service
	Links    LinkProvider
	Payments PaymentProvider
	Notify   Notifier
	Cfg      Config
}

// RegisterAll wires the flow definitions and the global cancel keys into the
// engine.
func RegisterAll(e *fsm.Engine, env *Env) {
	e.CancelOn(NavigationKeys()...)
	e.Register(newDoctorCreateFlow(env))
	e.Register(newDoctorUpdateFlow(env))
	e.Register(newDoctorDeleteFlow(env))
	e.Register(newDoctorCardFlow(env))
	e.Register(newAdminCreateFlow(env))
	e.Register(newAdminDeleteFlow(env))
	e.Register(newAppointmentFlow(env))
	e.Register(newCallbackFlow(env))
	e.Register(newFeedbackFlow(env))
	e.Register(newStatisticsFlow(env))
}

// EntryKinds maps flow-entry callback keys to flow kinds for the transport
// wiring.
func EntryKinds() map[string]fsm.Kind {
	return map[string]fsm.Kind{
		KeyDoctorCreate: fsm.KindDoctorCreate,
		KeyDoctorUpdate: fsm.KindDoctorUpdate,
		KeyDoctorDelete: fsm.KindDoctorDelete,
		KeyDoctorShow:   fsm.KindDoctorCard,
		KeyAdminCreate:  fsm.KindAdminCreate,
		KeyAdminDelete:  fsm.KindAdminDelete,
		KeyAppointment:  fsm.KindAppointment,
		KeyCallbackReq:  fsm.KindCallback,
		KeyFeedback:     fsm.KindFeedback,
		KeyStatsCustom:  fsm.KindStatistics,
	}
}

// deniedHandler renders the fixed lack-of-privileges screen with a back
// button into the given section.
func deniedHandler(section string) fsm.Handler {
	return func(_ context.Context, t *fsm.Turn) error {
		return t.Render.Edit(t.Event.MessageID, textLackOfPrivileges, backToMenuMarkup(section))
	}
}

// cleanupMessages deletes the collected intermediate messages.
func cleanupMessages(t *fsm.Turn) {
	for _, id := range t.Session.DrainMessages() {
		_ = t.Render.Delete(id)
	}
}

// dropUserMessage removes the user's answer to keep the dialog a single
// edited screen.
func dropUserMessage(t *fsm.Turn) {
	_ = t.Render.Delete(t.Event.MessageID)
}

// editAnchor rewrites the flow's anchor message.
func editAnchor(t *fsm.Turn, text string, kb *markup) error {
	return t.Render.Edit(t.Session.LastMsgID, text, kb)
}
