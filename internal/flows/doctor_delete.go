package flows

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	ddDocSelect fsm.State = "doc_select"
	ddConfirm   fsm.State = "confirm"
)

func newDoctorDeleteFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindDoctorDelete, ddDocSelect)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsAdmin(ctx, userID)
	}
	f.Denied = deniedHandler(KeyAdminPanel)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		doctors, err := env.Data.Doctors(ctx, "")
		if err != nil {
			return err
		}
		if len(doctors) == 0 {
			t.End()
			return editAnchor(t, textNoDoctors, backToMenuMarkup(KeyDoctorsMenu))
		}
		t.Session.Doctor = &fsm.DoctorScratch{}
		return editAnchor(t, textChooseDoctor, doctorsListMarkup(doctors, KeyDoctorPick, KeyDoctorsMenu))
	}

	f.On(ddDocSelect, fsm.OnButton(KeyDoctorPick), func(ctx context.Context, t *fsm.Turn) error {
		id, err := strconv.ParseInt(t.Event.Payload, 10, 64)
		if err != nil {
			return nil
		}
		d, err := env.Data.DoctorByID(ctx, id)
		if err != nil {
			return err
		}
		t.Session.Doctor.DoctorID = d.ID
		t.Session.Doctor.DoctorName = d.Name
		t.Advance(ddConfirm)
		return editAnchor(t, fmt.Sprintf(textConfirmDeleteDoctor, d.Name), confirmMarkup(KeyDoctorsMenu))
	})

	f.On(ddConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		if err := env.Data.DeleteDoctor(ctx, t.Session.Doctor.DoctorID); err != nil {
			return err
		}
		if err := env.Cache.Invalidate(ctx, cache.KeySpecialities); err != nil {
			return err
		}
		t.End()
		return editAnchor(t, textDoctorDeleted, backToMenuMarkup(KeyDoctorsMenu))
	})

	return f
}
