package flows

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
	"github.com/mkamenev/clinicbot/internal/stats"
)

// recordingRenderer captures outbound texts so tests assert on the last
// rendered screen instead of on Telegram calls.
type recordingRenderer struct {
	texts       []string
	photos      []string
	deleted     []int
	markupEdits int
	nextID      int

	photoErr error
}

func (r *recordingRenderer) Send(text string, _ *tele.ReplyMarkup) (int, error) {
	r.texts = append(r.texts, text)
	r.nextID++
	return r.nextID, nil
}

func (r *recordingRenderer) Edit(_ int, text string, _ *tele.ReplyMarkup) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingRenderer) EditMarkup(int, *tele.ReplyMarkup) error {
	r.markupEdits++
	return nil
}

func (r *recordingRenderer) Delete(id int) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingRenderer) SendPhoto(path, caption string, _ *tele.ReplyMarkup) (int, error) {
	if r.photoErr != nil {
		return 0, r.photoErr
	}
	r.photos = append(r.photos, path)
	r.texts = append(r.texts, caption)
	r.nextID++
	return r.nextID, nil
}

func (r *recordingRenderer) Download(string, string) error { return nil }

func (r *recordingRenderer) last() string {
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type fakeData struct {
	adminIDs []int64
	admins   []domain.Admin
	titles   []string
	doctors  []domain.Doctor
	specs    map[int64][]domain.SpecialityPrice

	createdAdmins  []domain.Admin
	deletedAdmins  []int64
	createdDoctors []domain.Doctor
	deletedDoctors []int64
	addedSpecs     map[int64][]domain.SpecialityPrice
	removedSpecs   map[int64][]string
	appointments   []domain.Appointment
	callbacks      []domain.Callback
	feedbacks      []domain.Feedback
	profileUpdates int
}

func newFakeData() *fakeData {
	return &fakeData{
		specs:        make(map[int64][]domain.SpecialityPrice),
		addedSpecs:   make(map[int64][]domain.SpecialityPrice),
		removedSpecs: make(map[int64][]string),
	}
}

func (f *fakeData) AdminIDs(context.Context, domain.PrivilegeLevel) ([]int64, error) {
	return f.adminIDs, nil
}

func (f *fakeData) Admins(context.Context) ([]domain.Admin, error) { return f.admins, nil }

func (f *fakeData) CreateAdmin(_ context.Context, a domain.Admin) error {
	f.createdAdmins = append(f.createdAdmins, a)
	return nil
}

func (f *fakeData) DeleteAdmin(_ context.Context, tgUID int64) error {
	f.deletedAdmins = append(f.deletedAdmins, tgUID)
	return nil
}

func (f *fakeData) SpecialityTitles(context.Context) ([]string, error) { return f.titles, nil }

func (f *fakeData) CreateDoctor(_ context.Context, d domain.Doctor) (int64, error) {
	f.createdDoctors = append(f.createdDoctors, d)
	return int64(len(f.createdDoctors)), nil
}

func (f *fakeData) Doctors(_ context.Context, speciality string) ([]domain.Doctor, error) {
	if speciality == "" {
		return f.doctors, nil
	}
	var out []domain.Doctor
	for _, d := range f.doctors {
		for _, sp := range f.specs[d.ID] {
			if sp.Title == speciality {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeData) DoctorByID(_ context.Context, id int64) (domain.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Doctor{}, errors.New("doctor not found")
}

func (f *fakeData) DoctorSpecialities(_ context.Context, doctorID int64) ([]domain.SpecialityPrice, error) {
	return f.specs[doctorID], nil
}

func (f *fakeData) AddDoctorSpecialities(_ context.Context, doctorID int64, pairs []domain.SpecialityPrice) error {
	f.addedSpecs[doctorID] = append(f.addedSpecs[doctorID], pairs...)
	return nil
}

func (f *fakeData) RemoveDoctorSpecialities(_ context.Context, doctorID int64, titles []string) error {
	f.removedSpecs[doctorID] = append(f.removedSpecs[doctorID], titles...)
	return nil
}

func (f *fakeData) UpdateDoctorProfile(_ context.Context, _ int64, _, _, _ *string) error {
	f.profileUpdates++
	return nil
}

func (f *fakeData) DeleteDoctor(_ context.Context, doctorID int64) error {
	f.deletedDoctors = append(f.deletedDoctors, doctorID)
	return nil
}

func (f *fakeData) CreateAppointment(_ context.Context, a domain.Appointment) error {
	f.appointments = append(f.appointments, a)
	return nil
}

func (f *fakeData) CreateCallback(_ context.Context, c domain.Callback) error {
	f.callbacks = append(f.callbacks, c)
	return nil
}

func (f *fakeData) CreateFeedback(_ context.Context, fb domain.Feedback) error {
	f.feedbacks = append(f.feedbacks, fb)
	return nil
}

type fakeRefCache struct {
	data        *fakeData
	invalidated []cache.Key
}

func (f *fakeRefCache) AdminIDs(ctx context.Context) ([]int64, error) {
	return f.data.AdminIDs(ctx, "")
}

func (f *fakeRefCache) PrivilegedAdminIDs(ctx context.Context) ([]int64, error) {
	return f.data.AdminIDs(ctx, domain.PrivilegeHigh)
}

func (f *fakeRefCache) SpecialityTitles(ctx context.Context) ([]string, error) {
	return f.data.SpecialityTitles(ctx)
}

func (f *fakeRefCache) Invalidate(_ context.Context, keys ...cache.Key) error {
	f.invalidated = append(f.invalidated, keys...)
	return nil
}

// fixedCounter makes every statistics line count the same known value and
// remembers the queried bounds.
type fixedCounter struct {
	n     int
	froms []time.Time
	tos   []time.Time
}

func (f *fixedCounter) CountRecords(_ context.Context, _ string, from, to time.Time, _ string) (int, error) {
	f.froms = append(f.froms, from)
	f.tos = append(f.tos, to)
	return f.n, nil
}

type fakeAccess struct {
	admin      bool
	privileged bool
}

func (f *fakeAccess) IsAdmin(context.Context, int64) (bool, error)      { return f.admin, nil }
func (f *fakeAccess) IsPrivileged(context.Context, int64) (bool, error) { return f.privileged, nil }

type fakeLinks struct {
	url string
	err error
}

func (f *fakeLinks) Generate(context.Context) (string, error) { return f.url, f.err }

type sentInvoice struct {
	userID      int64
	amountMinor int
}

type fakePayments struct {
	invoices []sentInvoice
}

func (f *fakePayments) SendInvoice(_ context.Context, userID int64, _, _, _ string, amountMinor int) error {
	f.invoices = append(f.invoices, sentInvoice{userID: userID, amountMinor: amountMinor})
	return nil
}

type notification struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, notification{chatID: chatID, text: text})
	return nil
}

// harness drives registered flows through the engine the way the transport
// adapter would.
type harness struct {
	t        *testing.T
	engine   *fsm.Engine
	data     *fakeData
	cache    *fakeRefCache
	access   *fakeAccess
	links    *fakeLinks
	payments *fakePayments
	notify   *fakeNotifier
	render   *recordingRenderer
	counter  *fixedCounter

	userID   int64
	username string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	data := newFakeData()
	h := &harness{
		t:        t,
		engine:   fsm.NewEngine(fsm.NewMemoryStore()),
		data:     data,
		cache:    &fakeRefCache{data: data},
		access:   &fakeAccess{admin: true, privileged: true},
		links:    &fakeLinks{url: "https://meet.example.com/room"},
		payments: &fakePayments{},
		notify:   &fakeNotifier{},
		render:   &recordingRenderer{},
		counter:  &fixedCounter{n: 5},
		userID:   100,
	}
	env := &Env{
		Data:     data,
		Cache:    h.cache,
		Access:   h.access,
		Stats:    stats.NewService(h.counter),
		Links:    h.links,
		Payments: h.payments,
		Notify:   h.notify,
		Cfg: Config{
			SuperAdminID: 1,
			OpsChatID:    -4200,
			PageSize:     10,
			SpecsPerRow:  2,
			PhotoDir:     t.TempDir(),
			PhotoExt:     ".jpg",
		},
	}
	RegisterAll(h.engine, env)
	return h
}

func (h *harness) start(kind fsm.Kind) {
	h.t.Helper()
	ev := fsm.Event{Type: fsm.EventButton, UserID: h.userID, MessageID: 1, Username: h.username}
	require.NoError(h.t, h.engine.Start(context.Background(), kind, ev, h.render))
}

func (h *harness) press(key, payload string) {
	h.t.Helper()
	ev := fsm.Event{
		Type: fsm.EventButton, UserID: h.userID, MessageID: 1,
		Button: key, Payload: payload, Username: h.username,
	}
	_, err := h.engine.Dispatch(context.Background(), ev, h.render)
	require.NoError(h.t, err)
}

func (h *harness) say(text string) {
	h.t.Helper()
	ev := fsm.Event{Type: fsm.EventMessage, UserID: h.userID, MessageID: 2, Text: text, Username: h.username}
	_, err := h.engine.Dispatch(context.Background(), ev, h.render)
	require.NoError(h.t, err)
}

func (h *harness) upload(fileID string) {
	h.t.Helper()
	ev := fsm.Event{Type: fsm.EventDocument, UserID: h.userID, MessageID: 2, FileID: fileID}
	_, err := h.engine.Dispatch(context.Background(), ev, h.render)
	require.NoError(h.t, err)
}

// photo mimics a compressed photo update: a plain message carrying a file id.
func (h *harness) photo(fileID string) {
	h.t.Helper()
	ev := fsm.Event{Type: fsm.EventMessage, UserID: h.userID, MessageID: 2, FileID: fileID}
	_, err := h.engine.Dispatch(context.Background(), ev, h.render)
	require.NoError(h.t, err)
}

func (h *harness) pay() {
	h.t.Helper()
	ev := fsm.Event{Type: fsm.EventPayment, UserID: h.userID, MessageID: 1, Username: h.username}
	_, err := h.engine.Dispatch(context.Background(), ev, h.render)
	require.NoError(h.t, err)
}

func (h *harness) inProgress() bool {
	return h.engine.InProgress(context.Background(), h.userID)
}

func TestToggleSpeciality(t *testing.T) {
	sc := &fsm.DoctorScratch{Pool: []string{"Кардиолог", "Невролог"}}

	assert.True(t, toggleSpeciality(sc, "0"))
	assert.Equal(t, []string{"Кардиолог"}, sc.Selected)

	assert.True(t, toggleSpeciality(sc, "1"))
	assert.True(t, toggleSpeciality(sc, "0"))
	assert.Equal(t, []string{"Невролог"}, sc.Selected)

	assert.False(t, toggleSpeciality(sc, "5"), "stale index is ignored")
	assert.False(t, toggleSpeciality(sc, "мусор"))
}

func TestMergeNewSpecialities(t *testing.T) {
	sc := &fsm.DoctorScratch{Pool: []string{"Кардиолог"}}
	mergeNewSpecialities(sc, "кардиолог, лор")

	assert.Equal(t, []string{"Кардиолог", "Лор"}, sc.Pool, "only unknown titles extend the pool")
	assert.Equal(t, []string{"Кардиолог", "Лор"}, sc.Selected, "mentioned titles become selected")
}

func TestDoctorCreateFlow(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог", "Невролог"}

	h.start(fsm.KindDoctorCreate)
	h.press(KeySpecPick, "0")
	h.say("лор")
	h.press(KeySpecDone, "")
	h.say("Иванов Иван Иванович")
	h.upload("file-1")
	h.say("Опытный специалист.")
	h.press(KeyExpChoice, "no")
	h.press(KeyDegree, payloadNone)
	h.press(KeyQual, payloadNone)
	h.say("2000")
	h.say("1500")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.createdDoctors, 1)
	d := h.data.createdDoctors[0]
	assert.Equal(t, "Иванов Иван Иванович", d.Name)
	assert.NotEmpty(t, d.Photo)
	assert.Nil(t, d.Experience)
	assert.Nil(t, d.ScienceDegree)
	assert.Equal(t, []domain.SpecialityPrice{
		{Title: "Кардиолог", Price: 2000},
		{Title: "Лор", Price: 1500},
	}, d.Specialities, "prices pair with selections in order")

	assert.Contains(t, h.cache.invalidated, cache.KeySpecialities)
	assert.False(t, h.inProgress())
	assert.Equal(t, textDoctorCreated, h.render.last())
}

func TestDoctorCreateRequiresSelection(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог"}

	h.start(fsm.KindDoctorCreate)
	h.press(KeySpecDone, "")

	assert.Equal(t, textNoSpecialitySelected, h.render.last())
	assert.True(t, h.inProgress(), "rejection re-prompts instead of advancing")
}

func TestDoctorCreateRejectsBadPrice(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог"}

	h.start(fsm.KindDoctorCreate)
	h.press(KeySpecPick, "0")
	h.press(KeySpecDone, "")
	h.say("Иванов Иван")
	h.upload("file-1")
	h.say("Описание.")
	h.press(KeyExpChoice, "no")
	h.press(KeyDegree, payloadNone)
	h.press(KeyQual, payloadNone)
	h.say("бесплатно")

	assert.Contains(t, h.render.last(), textBadInteger)
	assert.Empty(t, h.data.createdDoctors)

	h.say("1800")
	h.press(KeyConfirm, "yes")
	require.Len(t, h.data.createdDoctors, 1)
	assert.Equal(t, 1800, h.data.createdDoctors[0].Specialities[0].Price)
}

func TestDoctorCreateRejectsCompressedPhoto(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог"}

	h.start(fsm.KindDoctorCreate)
	h.press(KeySpecPick, "0")
	h.press(KeySpecDone, "")
	h.say("Иванов Иван")
	h.photo("photo-1")

	assert.Equal(t, textPhotoAsDocument, h.render.last())
	assert.True(t, h.inProgress())

	h.upload("file-1")

	assert.Equal(t, textEnterDescription, h.render.last())
}

func TestDoctorCreateDeniedWithoutAdminRights(t *testing.T) {
	h := newHarness(t)
	h.access.admin = false

	h.start(fsm.KindDoctorCreate)

	assert.Equal(t, textLackOfPrivileges, h.render.last())
	assert.False(t, h.inProgress(), "denied entry creates no session")
}

func TestDoctorUpdateKeepsLastSpeciality(t *testing.T) {
	h := newHarness(t)
	h.data.doctors = []domain.Doctor{{ID: 7, Name: "Петров П. П."}}
	h.data.specs[7] = []domain.SpecialityPrice{
		{Title: "Кардиолог", Price: 2000},
		{Title: "Терапевт", Price: 1500},
	}

	h.start(fsm.KindDoctorUpdate)
	h.press(KeyDoctorPick, "7")
	h.press(KeyDocSection, "specs")
	h.press(KeySpecAction, "delete")
	h.press(KeySpecPick, "0")
	h.press(KeySpecPick, "1")
	h.press(KeySpecDone, "")

	assert.Equal(t, textCannotDeleteAllSpecs, h.render.last())
	assert.Empty(t, h.data.removedSpecs[7], "nothing is removed when the doctor would be left bare")

	// Deselect one and retry.
	h.press(KeySpecPick, "1")
	h.press(KeySpecDone, "")

	assert.Equal(t, []string{"Кардиолог"}, h.data.removedSpecs[7])
	assert.Contains(t, h.cache.invalidated, cache.KeySpecialities)
}

func TestDoctorUpdateAddsSpecialitiesWithPrices(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог", "Невролог"}
	h.data.doctors = []domain.Doctor{{ID: 7, Name: "Петров П. П."}}
	h.data.specs[7] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 2000}}

	h.start(fsm.KindDoctorUpdate)
	h.press(KeyDoctorPick, "7")
	h.press(KeyDocSection, "specs")
	h.press(KeySpecAction, "add")
	// The pool excludes specialities the doctor already has, so index 0 is
	// the neurologist.
	h.press(KeySpecPick, "0")
	h.press(KeySpecDone, "")
	h.say("1700")

	assert.Equal(t, []domain.SpecialityPrice{{Title: "Невролог", Price: 1700}}, h.data.addedSpecs[7])
	assert.Contains(t, h.cache.invalidated, cache.KeySpecialities)
}

func TestAdminCreateDuplicateAborts(t *testing.T) {
	h := newHarness(t)
	h.data.adminIDs = []int64{555}

	h.start(fsm.KindAdminCreate)
	h.say("555")

	assert.Equal(t, textAdminExists, h.render.last())
	assert.False(t, h.inProgress())
	assert.Empty(t, h.data.createdAdmins)
	assert.Empty(t, h.cache.invalidated)
}

func TestAdminCreateDefaultsToLowPrivilege(t *testing.T) {
	h := newHarness(t)
	h.userID = 100 // not the super admin

	h.start(fsm.KindAdminCreate)
	h.say("777")
	h.say("Сидорова Анна")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.createdAdmins, 1)
	a := h.data.createdAdmins[0]
	assert.Equal(t, int64(777), a.TgUID)
	assert.Equal(t, domain.PrivilegeLow, a.Privilege, "only the super admin may grant more")
	assert.Contains(t, h.cache.invalidated, cache.KeyAdmins)
	assert.Contains(t, h.cache.invalidated, cache.KeyPrivAdmins)
	assert.False(t, h.inProgress())
}

func TestAdminCreateSuperAdminPicksPrivilege(t *testing.T) {
	h := newHarness(t)
	h.userID = 1 // the super admin

	h.start(fsm.KindAdminCreate)
	h.say("777")
	h.say("Сидорова Анна")

	assert.Equal(t, textChoosePrivilege, h.render.last())

	h.press(KeyPrivilege, "high")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.createdAdmins, 1)
	assert.Equal(t, domain.PrivilegeHigh, h.data.createdAdmins[0].Privilege)
}

func TestAdminDeleteFlow(t *testing.T) {
	h := newHarness(t)
	h.data.admins = []domain.Admin{{TgUID: 555, Name: "Иванов"}}

	h.start(fsm.KindAdminDelete)
	h.press(KeyAdminPick, "555")
	h.press(KeyConfirm, "yes")

	assert.Equal(t, []int64{555}, h.data.deletedAdmins)
	assert.Contains(t, h.cache.invalidated, cache.KeyAdmins)
	assert.False(t, h.inProgress())
}

func TestOfflineBooking(t *testing.T) {
	h := newHarness(t)

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "offline")
	h.say("Болит спина")
	h.press(KeyDTChoice, "yes")
	h.say("Завтра в 10:00")

	assert.Equal(t, textChooseComType, h.render.last(), "offline clients also choose how to be contacted")

	h.press(KeyComType, "call")
	h.say("89161234567")
	h.say("Иванов Иван")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.appointments, 1)
	a := h.data.appointments[0]
	assert.Equal(t, domain.ConsultationOffline, a.ConsultationType)
	assert.Equal(t, domain.CommunicationCall, a.Communication)
	assert.Equal(t, "+79161234567", a.Phone)
	assert.Equal(t, "Болит спина", a.UserRequest)
	assert.Equal(t, "Завтра в 10:00", a.PreferableDT)
	assert.Zero(t, a.DoctorID, "offline bookings are not tied to a doctor")
	assert.Empty(t, h.payments.invoices)
	assert.Equal(t, textOfflineDone, h.render.last())
	assert.False(t, h.inProgress())
}

func TestOfflineBookingChatCommunication(t *testing.T) {
	h := newHarness(t)
	h.username = "ivan"

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "offline")
	h.say("Болит спина")
	h.press(KeyDTChoice, "no")
	h.press(KeyComType, "chat")
	h.say("Иванов Иван")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.appointments, 1)
	a := h.data.appointments[0]
	assert.Equal(t, domain.CommunicationChat, a.Communication)
	assert.Equal(t, "ivan", a.Username)
	assert.Empty(t, a.Phone, "chat with a public username skips the phone step")
	assert.False(t, h.inProgress())
}

func TestOnlineBookingWithPayment(t *testing.T) {
	h := newHarness(t)
	h.username = "ivan"
	h.data.titles = []string{"Кардиолог"}
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П."}}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "online")
	h.press(KeySpecPick, "0")
	h.press(KeyDoctorPick, "3")
	h.say("Ничего не беспокоит, профилактика")
	h.press(KeyDTChoice, "no")
	h.press(KeyComType, "chat")
	// A public username skips the phone step.
	h.say("Иванов Иван")
	h.press(KeyPay, "")

	require.Len(t, h.payments.invoices, 1)
	assert.Equal(t, 150000, h.payments.invoices[0].amountMinor, "invoice amount is in kopecks")
	assert.Empty(t, h.data.appointments, "nothing is recorded until payment confirms")

	h.pay()

	require.Len(t, h.data.appointments, 1)
	a := h.data.appointments[0]
	assert.Equal(t, domain.ConsultationOnline, a.ConsultationType)
	assert.Equal(t, int64(3), a.DoctorID)
	assert.Equal(t, "ivan", a.Username)
	assert.Empty(t, a.Phone)
	assert.Equal(t, "https://meet.example.com/room", a.ConferenceLink)
	assert.Contains(t, h.render.last(), a.ConferenceLink)
	assert.False(t, h.inProgress())
}

func TestOnlineBookingSurvivesLinkOutage(t *testing.T) {
	h := newHarness(t)
	h.username = "ivan"
	h.links.err = errors.New("generator down")
	h.data.titles = []string{"Кардиолог"}
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П."}}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "online")
	h.press(KeySpecPick, "0")
	h.press(KeyDoctorPick, "3")
	h.say("Запрос")
	h.press(KeyDTChoice, "no")
	h.press(KeyComType, "chat")
	h.say("Иванов Иван")
	h.press(KeyPay, "")
	h.pay()

	require.Len(t, h.data.appointments, 1, "a paid appointment is never lost")
	assert.Empty(t, h.data.appointments[0].ConferenceLink)
	assert.Equal(t, textOnlineDoneNoLink, h.render.last())

	require.Len(t, h.notify.sent, 1)
	assert.Equal(t, int64(-4200), h.notify.sent[0].chatID)
}

func TestOnlineChatWithoutUsernameAsksPhone(t *testing.T) {
	h := newHarness(t)
	h.username = ""
	h.data.titles = []string{"Кардиолог"}
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П."}}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "online")
	h.press(KeySpecPick, "0")
	h.press(KeyDoctorPick, "3")
	h.say("Запрос")
	h.press(KeyDTChoice, "no")
	h.press(KeyComType, "chat")

	assert.Equal(t, textEnterPhone, h.render.last(), "chat without a username falls back to a phone number")
}

func TestOnlineBookingShowsDoctorCards(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог"}
	h.data.doctors = []domain.Doctor{
		{ID: 3, Name: "Петров П. П.", Photo: "abc", Description: "Кардиолог высшей категории."},
		{ID: 4, Name: "Сидоров С. С.", Photo: "def", Description: "Стаж 20 лет."},
	}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}
	h.data.specs[4] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 2500}}

	h.start(fsm.KindAppointment)
	h.press(KeyConsType, "online")
	h.press(KeySpecPick, "0")

	require.Len(t, h.render.photos, 2, "one photo card per doctor")
	assert.Contains(t, h.render.photos[0], "abc.jpg")
	assert.Contains(t, h.render.last(), "Сидоров С. С.")

	h.press(KeyDoctorPick, "4")

	assert.Equal(t, textEnterRequest, h.render.last())
	assert.Len(t, h.render.deleted, 2, "cards are removed once a doctor is picked")
}

func TestDoctorCardFlow(t *testing.T) {
	h := newHarness(t)
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П.", Photo: "abc", Description: "Описание."}}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}

	h.start(fsm.KindDoctorCard)

	assert.Equal(t, textChooseDoctorCard, h.render.last())

	h.press(KeyDoctorPick, "3")

	require.Len(t, h.render.photos, 1)
	assert.Contains(t, h.render.photos[0], "abc.jpg")
	out := h.render.last()
	assert.Contains(t, out, "Петров П. П.")
	assert.Contains(t, out, "Кардиолог — 1500 руб.")
	assert.True(t, h.inProgress())

	h.press(KeyCardBack, "")

	assert.Equal(t, textChooseDoctorCard, h.render.last())
}

func TestDoctorCardFallsBackToTextWithoutPhoto(t *testing.T) {
	h := newHarness(t)
	h.render.photoErr = errors.New("no such file")
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П.", Photo: "abc", Description: "Описание."}}
	h.data.specs[3] = []domain.SpecialityPrice{{Title: "Кардиолог", Price: 1500}}

	h.start(fsm.KindDoctorCard)
	h.press(KeyDoctorPick, "3")

	assert.Empty(t, h.render.photos)
	assert.Contains(t, h.render.last(), "Петров П. П.", "a broken gallery file degrades to a text card")
}

func TestDoctorCardFlowIsGated(t *testing.T) {
	h := newHarness(t)
	h.access.admin = false
	h.data.doctors = []domain.Doctor{{ID: 3, Name: "Петров П. П."}}

	h.start(fsm.KindDoctorCard)

	assert.Equal(t, textLackOfPrivileges, h.render.last())
	assert.False(t, h.inProgress())
}

func TestSpecialityToggleRefreshesMarkupOnly(t *testing.T) {
	h := newHarness(t)
	h.data.titles = []string{"Кардиолог", "Лор"}

	h.start(fsm.KindDoctorCreate)
	before := h.render.last()
	h.press(KeySpecPick, "0")

	assert.Equal(t, 1, h.render.markupEdits, "toggling refreshes the keyboard in place")
	assert.Equal(t, before, h.render.last(), "the prompt text is untouched")
}

func TestCallbackFlow(t *testing.T) {
	h := newHarness(t)
	h.username = "ivan"

	h.start(fsm.KindCallback)
	h.say("Иванов Иван")
	h.say("не скажу")

	assert.Equal(t, textBadPhone, h.render.last())
	assert.Empty(t, h.data.callbacks)

	h.say("8 (916) 123-45-67")

	require.Len(t, h.data.callbacks, 1)
	c := h.data.callbacks[0]
	assert.Equal(t, "Иванов Иван", c.FullName)
	assert.Equal(t, "+79161234567", c.Phone)
	assert.Equal(t, "ivan", c.Username)
	assert.False(t, h.inProgress())
}

func TestFeedbackFlow(t *testing.T) {
	h := newHarness(t)

	h.start(fsm.KindFeedback)
	h.say("Отличная клиника!")
	h.press(KeyConfirm, "yes")

	require.Len(t, h.data.feedbacks, 1)
	assert.Equal(t, "Отличная клиника!", h.data.feedbacks[0].Message)
	assert.Equal(t, textFeedbackDone, h.render.last())
	assert.False(t, h.inProgress())
}

func TestMenuNavigationCancelsFlow(t *testing.T) {
	h := newHarness(t)

	h.start(fsm.KindFeedback)
	require.True(t, h.inProgress())

	h.press(KeyMainMenu, "")

	assert.False(t, h.inProgress(), "menu keys abandon the conversation")
	assert.Empty(t, h.data.feedbacks)
}

func TestDoctorDeleteFlow(t *testing.T) {
	h := newHarness(t)
	h.data.doctors = []domain.Doctor{{ID: 7, Name: "Петров П. П."}}

	h.start(fsm.KindDoctorDelete)
	h.press(KeyDoctorPick, "7")

	assert.Contains(t, h.render.last(), "Петров П. П.")

	h.press(KeyConfirm, "yes")

	assert.Equal(t, []int64{7}, h.data.deletedDoctors)
	assert.Contains(t, h.cache.invalidated, cache.KeySpecialities)
	assert.False(t, h.inProgress())
}

func TestStatisticsCustomRange(t *testing.T) {
	h := newHarness(t)

	h.start(fsm.KindStatistics)
	h.say("вчера и сегодня")

	assert.Equal(t, textBadStatsPeriod, h.render.last())
	assert.True(t, h.inProgress())

	h.say("01-03-2026 31-03-2026")

	out := h.render.last()
	assert.Contains(t, out, "за период 01/03/2026 — 31/03/2026")
	assert.Contains(t, out, "Онлайн-записи: 5")
	assert.False(t, h.inProgress())
}

func TestStatisticsCustomRangeEndExclusive(t *testing.T) {
	h := newHarness(t)

	h.start(fsm.KindStatistics)
	h.say("01-03-2026 10-03-2026")

	wantFrom := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)
	wantTo := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
	require.NotEmpty(t, h.counter.tos)
	for i := range h.counter.tos {
		assert.True(t, h.counter.froms[i].Equal(wantFrom), "lower bound %v", h.counter.froms[i])
		assert.True(t, h.counter.tos[i].Equal(wantTo), "upper bound %v", h.counter.tos[i])
	}
}

func TestStatisticsFlowIsGated(t *testing.T) {
	h := newHarness(t)
	h.access.privileged = false

	h.start(fsm.KindStatistics)

	assert.Equal(t, textLackOfPrivileges, h.render.last())
	assert.False(t, h.inProgress())
}

func TestFormatSummaryLayout(t *testing.T) {
	s := stats.Summary{
		OnlineAppointments:  stats.Line{Count: 15, Change: 50.0, HasChange: true},
		OfflineAppointments: stats.Line{Count: 4, Change: -50.0, HasChange: true},
		Callbacks:           stats.Line{Count: 3, Change: 100, HasChange: true},
		Feedbacks:           stats.Line{Count: 2},
		NewUsers:            stats.Line{Count: 20, HasChange: true},
	}
	out := FormatSummary(s, "за неделю")

	assert.True(t, strings.HasPrefix(out, "📊 Статистика за неделю"))
	assert.Contains(t, out, "Онлайн-записи: 15 (+50.0%)")
	assert.Contains(t, out, "Отзывы: 2\n", "feedback has no change column")
}
