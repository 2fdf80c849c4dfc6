package flows

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	duDocSelect   fsm.State = "doc_select"
	duSection     fsm.State = "section"
	duName        fsm.State = "edit_name"
	duPhoto       fsm.State = "edit_photo"
	duDescription fsm.State = "edit_description"
	duSpecAction  fsm.State = "spec_action"
	duSpecEdit    fsm.State = "spec_edit"
	duPrice       fsm.State = "spec_price"
)

func newDoctorUpdateFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindDoctorUpdate, duDocSelect)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsAdmin(ctx, userID)
	}
	f.Denied = deniedHandler(KeyAdminPanel)

	// showSection reloads the doctor card and renders the section picker.
	showSection := func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		d, err := env.Data.DoctorByID(ctx, sc.DoctorID)
		if err != nil {
			return err
		}
		specs, err := env.Data.DoctorSpecialities(ctx, sc.DoctorID)
		if err != nil {
			return err
		}
		t.Advance(duSection)
		return editAnchor(t, textDoctorCard(d, specs)+"\n"+textChooseSection, sectionMarkup())
	}

	renderSelection := func(t *fsm.Turn, text string) error {
		sc := t.Session.Doctor
		return editAnchor(t, text,
			specSelectionMarkup(sc.Pool, sc.Selected, env.Cfg.SpecsPerRow, sc.Action == "add", KeyDoctorsMenu))
	}

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

	f.On(duDocSelect, fsm.OnButton(KeyDoctorPick), func(ctx context.Context, t *fsm.Turn) error {
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
		return showSection(ctx, t)
	})

	f.On(duSection, fsm.OnButton(KeyDocSection), func(ctx context.Context, t *fsm.Turn) error {
		switch t.Event.Payload {
		case "name":
			t.Advance(duName)
			return editAnchor(t, textEnterDoctorName, backToMenuMarkup(KeyDoctorsMenu))
		case "photo":
			t.Advance(duPhoto)
			return editAnchor(t, textSendDoctorPhoto, backToMenuMarkup(KeyDoctorsMenu))
		case "description":
			t.Advance(duDescription)
			return editAnchor(t, textEnterDescription, backToMenuMarkup(KeyDoctorsMenu))
		case "specs":
			t.Advance(duSpecAction)
			return editAnchor(t, textChooseSpecAction, specActionMarkup())
		}
		return nil
	})

	f.On(duName, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		name := strings.TrimSpace(t.Event.Text)
		if err := env.Data.UpdateDoctorProfile(ctx, t.Session.Doctor.DoctorID, &name, nil, nil); err != nil {
			return err
		}
		t.Session.Doctor.DoctorName = name
		return showSection(ctx, t)
	})

	f.On(duPhoto, fsm.OnDocument(), func(ctx context.Context, t *fsm.Turn) error {
		name, err := saveDoctorPhoto(env, t)
		if err != nil {
			return err
		}
		dropUserMessage(t)
		if err := env.Data.UpdateDoctorProfile(ctx, t.Session.Doctor.DoctorID, nil, &name, nil); err != nil {
			return err
		}
		return showSection(ctx, t)
	})
	f.On(duPhoto, fsm.OnAnyMessage(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		return editAnchor(t, textPhotoAsDocument, backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(duDescription, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		description := strings.TrimSpace(t.Event.Text)
		if err := env.Data.UpdateDoctorProfile(ctx, t.Session.Doctor.DoctorID, nil, nil, &description); err != nil {
			return err
		}
		return showSection(ctx, t)
	})

	f.On(duSpecAction, fsm.OnButton(KeySpecAction), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		specs, err := env.Data.DoctorSpecialities(ctx, sc.DoctorID)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(specs))
		for _, s := range specs {
			existing = append(existing, s.Title)
		}
		sc.Existing = existing
		sc.Selected = nil

		switch t.Event.Payload {
		case "add":
			catalog, err := env.Cache.SpecialityTitles(ctx)
			if err != nil {
				return err
			}
			sc.Action = "add"
			sc.Pool = sc.Pool[:0]
			for _, title := range catalog {
				if !slices.Contains(existing, title) {
					sc.Pool = append(sc.Pool, title)
				}
			}
		case "delete":
			sc.Action = "delete"
			sc.Pool = existing
		default:
			return nil
		}
		t.Advance(duSpecEdit)
		return renderSelection(t, textChooseSpecialities)
	})

	f.On(duSpecEdit, fsm.OnButton(KeySpecPick), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		if !toggleSpeciality(sc, t.Event.Payload) {
			return nil
		}
		return t.Render.EditMarkup(t.Session.LastMsgID,
			specSelectionMarkup(sc.Pool, sc.Selected, env.Cfg.SpecsPerRow, sc.Action == "add", KeyDoctorsMenu))
	})
	f.On(duSpecEdit, fsm.OnButton(KeySpecNew), func(ctx context.Context, t *fsm.Turn) error {
		if t.Session.Doctor.Action != "add" {
			return nil
		}
		return renderSelection(t, textEnterNewSpecialities)
	})
	f.On(duSpecEdit, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		if t.Session.Doctor.Action != "add" {
			return nil
		}
		mergeNewSpecialities(t.Session.Doctor, t.Event.Text)
		return renderSelection(t, textChooseSpecialities)
	})
	f.On(duSpecEdit, fsm.OnButton(KeySpecDone), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		if len(sc.Selected) == 0 {
			return renderSelection(t, textNoSpecialitySelected)
		}
		if sc.Action == "delete" {
			// The doctor must keep at least one speciality; reject before
			// touching storage.
			if len(sc.Selected) >= len(sc.Existing) {
				return renderSelection(t, textCannotDeleteAllSpecs)
			}
			if err := env.Data.RemoveDoctorSpecialities(ctx, sc.DoctorID, sc.Selected); err != nil {
				return err
			}
			if err := env.Cache.Invalidate(ctx, cache.KeySpecialities); err != nil {
				return err
			}
			return showSection(ctx, t)
		}
		sc.NoPrice = slices.Clone(sc.Selected)
		sc.Prices = nil
		t.Advance(duPrice)
		return editAnchor(t, textEnterPrice(sc.NoPrice[0]), backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(duPrice, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		sc := t.Session.Doctor
		n, ok := CheckInteger(t.Event.Text)
		if !ok {
			return editAnchor(t, textBadInteger+"\n"+textEnterPrice(sc.NoPrice[0]), backToMenuMarkup(KeyDoctorsMenu))
		}
		sc.Prices = append(sc.Prices, n)
		sc.NoPrice = sc.NoPrice[1:]
		if len(sc.NoPrice) > 0 {
			return editAnchor(t, textEnterPrice(sc.NoPrice[0]), backToMenuMarkup(KeyDoctorsMenu))
		}
		pairs := make([]domain.SpecialityPrice, len(sc.Selected))
		for i, title := range sc.Selected {
			pairs[i] = domain.SpecialityPrice{Title: title, Price: sc.Prices[i]}
		}
		if err := env.Data.AddDoctorSpecialities(ctx, sc.DoctorID, pairs); err != nil {
			return err
		}
		if err := env.Cache.Invalidate(ctx, cache.KeySpecialities); err != nil {
			return err
		}
		return showSection(ctx, t)
	})

	return f
}
