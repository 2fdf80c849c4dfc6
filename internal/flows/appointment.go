package flows

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	bkConsType   fsm.State = "cons_type"
	bkSpeciality fsm.State = "speciality"
	bkDoctor     fsm.State = "doctor"
	bkRequest    fsm.State = "request"
	bkDTChoice   fsm.State = "dt_choice"
	bkDateTime   fsm.State = "datetime"
	bkComType    fsm.State = "com_type"
	bkPhone      fsm.State = "phone"
	bkName       fsm.State = "full_name"
	bkConfirm    fsm.State = "confirm"
	bkPayment    fsm.State = "payment"
)

func newAppointmentFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindAppointment, bkConsType)

	renderSpecPage := func(t *fsm.Turn) error {
		sc := t.Session.Booking
		p := Pager{Page: sc.Page, PageSize: env.Cfg.PageSize, Total: sc.Total}
		return editAnchor(t, textChooseSpeciality, specialityPageMarkup(sc.Pool, p, KeyMainMenu))
	}

	// afterDT leads into the communication choice. Both consultation formats
	// ask it; only speciality, doctor and payment are online-only steps.
	afterDT := func(t *fsm.Turn) error {
		t.Advance(bkComType)
		return editAnchor(t, textChooseComType, comTypeMarkup())
	}

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		t.Session.Booking = &fsm.BookingScratch{Username: t.Event.Username}
		return editAnchor(t, textChooseConsType, consTypeMarkup())
	}

	f.On(bkConsType, fsm.OnButton(KeyConsType), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		switch t.Event.Payload {
		case string(domain.ConsultationOnline):
			sc.ConsultationType = string(domain.ConsultationOnline)
			pool, err := env.Cache.SpecialityTitles(ctx)
			if err != nil {
				return err
			}
			if len(pool) == 0 {
				t.End()
				return editAnchor(t, textNoSpecialities, backToMenuMarkup(KeyMainMenu))
			}
			sc.Pool, sc.Page, sc.Total = pool, 0, len(pool)
			t.Advance(bkSpeciality)
			return renderSpecPage(t)
		case string(domain.ConsultationOffline):
			sc.ConsultationType = string(domain.ConsultationOffline)
			t.Advance(bkRequest)
			return editAnchor(t, textEnterRequest, backToMenuMarkup(KeyMainMenu))
		}
		return nil
	})

	pageNav := func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		page, err := strconv.Atoi(t.Event.Payload)
		if err != nil || page < 0 || page*env.Cfg.PageSize >= sc.Total {
			return nil
		}
		sc.Page = page
		return renderSpecPage(t)
	}
	f.On(bkSpeciality, fsm.OnButton(KeyNavPrev), pageNav)
	f.On(bkSpeciality, fsm.OnButton(KeyNavNext), pageNav)

	f.On(bkSpeciality, fsm.OnButton(KeySpecPick), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		i, err := strconv.Atoi(t.Event.Payload)
		if err != nil || i < 0 || i >= len(sc.Pool) {
			return nil
		}
		sc.Speciality = sc.Pool[i]
		doctors, err := env.Data.Doctors(ctx, sc.Speciality)
		if err != nil {
			return err
		}
		if len(doctors) == 0 {
			return editAnchor(t, textNoDoctors, backToMenuMarkup(KeyMainMenu))
		}
		if err := editAnchor(t, textChosenSpeciality(sc.Speciality), backToMenuMarkup(KeyMainMenu)); err != nil {
			return err
		}
		// One photo card per doctor, each carrying its own choose button.
		// Cards are deleted once a doctor is picked.
		sc.Doctors = sc.Doctors[:0]
		for _, d := range doctors {
			sc.Doctors = append(sc.Doctors, fsm.DoctorRef{ID: d.ID, Name: d.Name})
			specs, err := env.Data.DoctorSpecialities(ctx, d.ID)
			if err != nil {
				return err
			}
			var price int
			for _, sp := range specs {
				if sp.Title == sc.Speciality {
					price = sp.Price
				}
			}
			msgID, err := sendDoctorCard(ctx, env, t, d, specs, doctorPickMarkup(d.ID, price))
			if err != nil {
				return err
			}
			t.Session.RememberMessage(msgID)
		}
		t.Advance(bkDoctor)
		return nil
	})

	f.On(bkDoctor, fsm.OnButton(KeyDoctorPick), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		id, err := strconv.ParseInt(t.Event.Payload, 10, 64)
		if err != nil {
			return nil
		}
		for _, ref := range sc.Doctors {
			if ref.ID == id {
				sc.DoctorID, sc.DoctorName = ref.ID, ref.Name
			}
		}
		if sc.DoctorID != id {
			return nil
		}
		specs, err := env.Data.DoctorSpecialities(ctx, id)
		if err != nil {
			return err
		}
		for _, sp := range specs {
			if sp.Title == sc.Speciality {
				sc.Price = sp.Price
			}
		}
		cleanupMessages(t)
		t.Advance(bkRequest)
		return editAnchor(t, textEnterRequest, backToMenuMarkup(KeyMainMenu))
	})

	f.On(bkRequest, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Booking.Request = strings.TrimSpace(t.Event.Text)
		t.Advance(bkDTChoice)
		return editAnchor(t, textAskPreferableDT, yesNoMarkup(KeyDTChoice, KeyMainMenu))
	})

	f.On(bkDTChoice, fsm.OnButtonPayload(KeyDTChoice, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		t.Advance(bkDateTime)
		return editAnchor(t, textEnterDT, backToMenuMarkup(KeyMainMenu))
	})
	f.On(bkDTChoice, fsm.OnButtonPayload(KeyDTChoice, "no"), func(ctx context.Context, t *fsm.Turn) error {
		return afterDT(t)
	})

	f.On(bkDateTime, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Booking.PreferableDT = strings.TrimSpace(t.Event.Text)
		return afterDT(t)
	})

	f.On(bkComType, fsm.OnButton(KeyComType), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		switch t.Event.Payload {
		case string(domain.CommunicationCall):
			sc.Communication = string(domain.CommunicationCall)
			t.Advance(bkPhone)
			return editAnchor(t, textEnterPhone, backToMenuMarkup(KeyMainMenu))
		case string(domain.CommunicationChat):
			sc.Communication = string(domain.CommunicationChat)
			// Without a public @username there is nowhere to write; fall
			// back to collecting a phone number.
			if t.Event.Username != "" {
				sc.Username = t.Event.Username
				t.Advance(bkName)
				return editAnchor(t, textEnterFullName, backToMenuMarkup(KeyMainMenu))
			}
			t.Advance(bkPhone)
			return editAnchor(t, textEnterPhone, backToMenuMarkup(KeyMainMenu))
		}
		return nil
	})

	f.On(bkPhone, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		if !CheckPhone(t.Event.Text) {
			return editAnchor(t, textBadPhone, backToMenuMarkup(KeyMainMenu))
		}
		t.Session.Booking.Phone = StandardizePhone(t.Event.Text)
		t.Advance(bkName)
		return editAnchor(t, textEnterFullName, backToMenuMarkup(KeyMainMenu))
	})

	f.On(bkName, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		sc := t.Session.Booking
		sc.FullName = strings.TrimSpace(t.Event.Text)
		if sc.ConsultationType == string(domain.ConsultationOffline) {
			t.Advance(bkConfirm)
			summary := textBookingSummary(sc.ConsultationType, sc.Speciality, sc.DoctorName,
				sc.Request, sc.PreferableDT, 0) + "\n" + textConfirmBooking
			return editAnchor(t, summary, confirmMarkup(KeyMainMenu))
		}
		t.Advance(bkPayment)
		return editAnchor(t, fmt.Sprintf(textPayPrompt, sc.Price), payMarkup())
	})

	f.On(bkConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		if err := env.Data.CreateAppointment(ctx, bookingRecord(t.Session.Booking, t.Event.UserID)); err != nil {
			return err
		}
		cleanupMessages(t)
		t.End()
		return editAnchor(t, textOfflineDone, backToMenuMarkup(KeyMainMenu))
	})

	f.On(bkPayment, fsm.OnButton(KeyPay), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		title := fmt.Sprintf("Онлайн-консультация: %s", sc.Speciality)
		description := fmt.Sprintf("Приём у врача %s", sc.DoctorName)
		return env.Payments.SendInvoice(ctx, t.Event.UserID, title, description,
			"appointment", sc.Price*100)
	})

	f.On(bkPayment, fsm.OnPayment(), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Booking
		record := bookingRecord(sc, t.Event.UserID)

		// The conference link is best effort: a generator outage must not
		// lose a paid appointment. Operations get a heads-up instead.
		link, err := env.Links.Generate(ctx)
		if err != nil {
			logger.Links.LogAttrs(ctx, slog.LevelError, "link.generate_failed",
				slog.Int64("user_id", t.Event.UserID), slog.Any("error", err))
			alert := fmt.Sprintf("Не удалось создать ссылку на консультацию для записи (клиент %d, врач %s).",
				t.Event.UserID, sc.DoctorName)
			if nerr := env.Notify.Notify(ctx, env.Cfg.OpsChatID, alert); nerr != nil {
				logger.Links.LogAttrs(ctx, slog.LevelError, "link.alert_failed", slog.Any("error", nerr))
			}
		} else {
			record.ConferenceLink = link
		}

		if err := env.Data.CreateAppointment(ctx, record); err != nil {
			return err
		}
		cleanupMessages(t)
		t.End()
		if record.ConferenceLink != "" {
			return editAnchor(t, fmt.Sprintf(textOnlineDoneLink, record.ConferenceLink), backToMenuMarkup(KeyMainMenu))
		}
		return editAnchor(t, textOnlineDoneNoLink, backToMenuMarkup(KeyMainMenu))
	})

	return f
}

func bookingRecord(sc *fsm.BookingScratch, userID int64) domain.Appointment {
	return domain.Appointment{
		TgUID:            userID,
		Username:         sc.Username,
		FullName:         sc.FullName,
		Phone:            sc.Phone,
		ConsultationType: domain.ConsultationType(sc.ConsultationType),
		Communication:    domain.CommunicationType(sc.Communication),
		UserRequest:      sc.Request,
		DoctorID:         sc.DoctorID,
		PreferableDT:     sc.PreferableDT,
	}
}
