package flows

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const cardDoctor fsm.State = "card_doctor"

// doctorPhotoPath locates a stored gallery photo by its file name.
func doctorPhotoPath(env *Env, photo string) string {
	return filepath.Join(env.Cfg.PhotoDir, photo+env.Cfg.PhotoExt)
}

// sendDoctorCard sends the doctor's photo with the profile as the caption.
// A missing gallery file degrades to a plain text card.
func sendDoctorCard(ctx context.Context, env *Env, t *fsm.Turn, d domain.Doctor,
	specs []domain.SpecialityPrice, kb *markup) (int, error) {
	caption := textDoctorCard(d, specs)
	id, err := t.Render.SendPhoto(doctorPhotoPath(env, d.Photo), caption, kb)
	if err != nil {
		logger.SVCDoctors.LogAttrs(ctx, slog.LevelWarn, "doctor.card_photo_failed",
			slog.Int64("doctor_id", d.ID), slog.Any("error", err))
		return t.Render.Send(caption, kb)
	}
	return id, nil
}

// The card viewer shows an admin a doctor the way clients see them during
// booking. A photo cannot be attached by editing, so the anchor message is
// replaced on every step.
func newDoctorCardFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindDoctorCard, cardDoctor)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsAdmin(ctx, userID)
	}
	f.Denied = deniedHandler(KeyDoctorsMenu)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		doctors, err := env.Data.Doctors(ctx, "")
		if err != nil {
			return err
		}
		if len(doctors) == 0 {
			t.End()
			return editAnchor(t, textNoDoctors, backToMenuMarkup(KeyDoctorsMenu))
		}
		return editAnchor(t, textChooseDoctorCard, doctorsListMarkup(doctors, KeyDoctorPick, KeyDoctorsMenu))
	}

	f.On(cardDoctor, fsm.OnButton(KeyDoctorPick), func(ctx context.Context, t *fsm.Turn) error {
		id, err := strconv.ParseInt(t.Event.Payload, 10, 64)
		if err != nil {
			return nil
		}
		d, err := env.Data.DoctorByID(ctx, id)
		if err != nil {
			return err
		}
		specs, err := env.Data.DoctorSpecialities(ctx, id)
		if err != nil {
			return err
		}
		_ = t.Render.Delete(t.Session.LastMsgID)
		msgID, err := sendDoctorCard(ctx, env, t, d, specs, cardMarkup())
		if err != nil {
			return err
		}
		t.Session.LastMsgID = msgID
		return nil
	})

	f.On(cardDoctor, fsm.OnButton(KeyCardBack), func(ctx context.Context, t *fsm.Turn) error {
		doctors, err := env.Data.Doctors(ctx, "")
		if err != nil {
			return err
		}
		_ = t.Render.Delete(t.Session.LastMsgID)
		msgID, err := t.Render.Send(textChooseDoctorCard,
			doctorsListMarkup(doctors, KeyDoctorPick, KeyDoctorsMenu))
		if err != nil {
			return err
		}
		t.Session.LastMsgID = msgID
		return nil
	})

	return f
}
