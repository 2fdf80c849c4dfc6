package flows

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	dcSpecSelect  fsm.State = "spec_select"
	dcName        fsm.State = "name"
	dcPhoto       fsm.State = "photo"
	dcDescription fsm.State = "description"
	dcExpChoice   fsm.State = "exp_choice"
	dcExperience  fsm.State = "experience"
	dcDegree      fsm.State = "degree"
	dcQual        fsm.State = "qual"
	dcPrice       fsm.State = "price"
	dcConfirm     fsm.State = "confirm"
)

// toggleSpeciality flips pool entry i in the selection. Out-of-range
// payloads from stale keyboards are ignored.
func toggleSpeciality(sc *fsm.DoctorScratch, payload string) bool {
	i, err := strconv.Atoi(payload)
	if err != nil || i < 0 || i >= len(sc.Pool) {
		return false
	}
	title := sc.Pool[i]
	if idx := slices.Index(sc.Selected, title); idx >= 0 {
		sc.Selected = slices.Delete(sc.Selected, idx, idx+1)
	} else {
		sc.Selected = append(sc.Selected, title)
	}
	return true
}

// mergeNewSpecialities parses the comma-separated answer and adds titles the
// catalog does not know yet. Ad-hoc titles start out selected.
func mergeNewSpecialities(sc *fsm.DoctorScratch, text string) {
	for _, item := range ProcessInput(text, ",") {
		if slices.Contains(sc.Pool, item) {
			if !slices.Contains(sc.Selected, item) {
				sc.Selected = append(sc.Selected, item)
			}
			continue
		}
		sc.Pool = append(sc.Pool, item)
		sc.Selected = append(sc.Selected, item)
	}
}

// saveDoctorPhoto downloads the uploaded document under a random name and
// returns the stored file name without extension.
func saveDoctorPhoto(env *Env, t *fsm.Turn) (string, error) {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := t.Render.Download(t.Event.FileID, doctorPhotoPath(env, name)); err != nil {
		return "", err
	}
	return name, nil
}

func newDoctorCreateFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindDoctorCreate, dcSpecSelect)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsAdmin(ctx, userID)
	}
	f.Denied = deniedHandler(KeyAdminPanel)

	renderSelection := func(t *fsm.Turn, text string) error {
		sc := t.Session.Doctor
		return editAnchor(t, text,
			specSelectionMarkup(sc.Pool, sc.Selected, env.Cfg.SpecsPerRow, true, KeyDoctorsMenu))
	}

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		pool, err := env.Cache.SpecialityTitles(ctx)
		if err != nil {
			return err
		}
		t.Session.Doctor = &fsm.DoctorScratch{Pool: pool}
		return renderSelection(t, textChooseSpecialities)
	}

	f.On(dcSpecSelect, fsm.OnButton(KeySpecPick), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		if !toggleSpeciality(sc, t.Event.Payload) {
			return nil
		}
		// Only the check marks change, the prompt text stays.
		return t.Render.EditMarkup(t.Session.LastMsgID,
			specSelectionMarkup(sc.Pool, sc.Selected, env.Cfg.SpecsPerRow, true, KeyDoctorsMenu))
	})
	f.On(dcSpecSelect, fsm.OnButton(KeySpecNew), func(ctx context.Context, t *fsm.Turn) error {
		return renderSelection(t, textEnterNewSpecialities)
	})
	f.On(dcSpecSelect, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		mergeNewSpecialities(t.Session.Doctor, t.Event.Text)
		return renderSelection(t, textChooseSpecialities)
	})
	f.On(dcSpecSelect, fsm.OnButton(KeySpecDone), func(ctx context.Context, t *fsm.Turn) error {
		if len(t.Session.Doctor.Selected) == 0 {
			return renderSelection(t, textNoSpecialitySelected)
		}
		t.Advance(dcName)
		return editAnchor(t, textEnterDoctorName, backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(dcName, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Doctor.Name = strings.TrimSpace(t.Event.Text)
		t.Advance(dcPhoto)
		return editAnchor(t, textSendDoctorPhoto, backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(dcPhoto, fsm.OnDocument(), func(ctx context.Context, t *fsm.Turn) error {
		name, err := saveDoctorPhoto(env, t)
		if err != nil {
			return err
		}
		dropUserMessage(t)
		t.Session.Doctor.Photo = name
		t.Advance(dcDescription)
		return editAnchor(t, textEnterDescription, backToMenuMarkup(KeyDoctorsMenu))
	})
	f.On(dcPhoto, fsm.OnAnyMessage(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		return editAnchor(t, textPhotoAsDocument, backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(dcDescription, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Doctor.Description = strings.TrimSpace(t.Event.Text)
		t.Advance(dcExpChoice)
		return editAnchor(t, textAskExperience, yesNoMarkup(KeyExpChoice, KeyDoctorsMenu))
	})

	f.On(dcExpChoice, fsm.OnButtonPayload(KeyExpChoice, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		t.Advance(dcExperience)
		return editAnchor(t, textEnterExperience, backToMenuMarkup(KeyDoctorsMenu))
	})
	f.On(dcExpChoice, fsm.OnButtonPayload(KeyExpChoice, "no"), func(ctx context.Context, t *fsm.Turn) error {
		t.Advance(dcDegree)
		return editAnchor(t, textChooseDegree, degreeMarkup(KeyDoctorsMenu))
	})

	f.On(dcExperience, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		n, ok := CheckInteger(t.Event.Text)
		if !ok {
			return editAnchor(t, textBadInteger+"\n"+textEnterExperience, backToMenuMarkup(KeyDoctorsMenu))
		}
		t.Session.Doctor.Experience = &n
		t.Advance(dcDegree)
		return editAnchor(t, textChooseDegree, degreeMarkup(KeyDoctorsMenu))
	})

	f.On(dcDegree, fsm.OnButton(KeyDegree), func(ctx context.Context, t *fsm.Turn) error {
		if t.Event.Payload != payloadNone {
			v := t.Event.Payload
			t.Session.Doctor.ScienceDegree = &v
		}
		t.Advance(dcQual)
		return editAnchor(t, textChooseQual, qualMarkup(KeyDoctorsMenu))
	})

	f.On(dcQual, fsm.OnButton(KeyQual), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		if t.Event.Payload != payloadNone {
			v := t.Event.Payload
			sc.QualCategory = &v
		}
		sc.NoPrice = slices.Clone(sc.Selected)
		sc.Prices = nil
		t.Advance(dcPrice)
		return editAnchor(t, textEnterPrice(sc.NoPrice[0]), backToMenuMarkup(KeyDoctorsMenu))
	})

	f.On(dcPrice, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
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
		t.Advance(dcConfirm)
		summary := textDoctorSummary(&DoctorScratchView{
			Name:          sc.Name,
			Description:   sc.Description,
			Experience:    sc.Experience,
			ScienceDegree: sc.ScienceDegree,
			QualCategory:  sc.QualCategory,
			Selected:      sc.Selected,
			Prices:        sc.Prices,
		})
		return editAnchor(t, summary, confirmMarkup(KeyDoctorsMenu))
	})

	f.On(dcConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Doctor
		doctor := domain.Doctor{
			Name:          sc.Name,
			Photo:         sc.Photo,
			Description:   sc.Description,
			Experience:    sc.Experience,
			ScienceDegree: sc.ScienceDegree,
			QualCategory:  sc.QualCategory,
		}
		for i, title := range sc.Selected {
			doctor.Specialities = append(doctor.Specialities,
				domain.SpecialityPrice{Title: title, Price: sc.Prices[i]})
		}
		if _, err := env.Data.CreateDoctor(ctx, doctor); err != nil {
			return err
		}
		if err := env.Cache.Invalidate(ctx, cache.KeySpecialities); err != nil {
			return err
		}
		cleanupMessages(t)
		t.End()
		return editAnchor(t, textDoctorCreated, backToMenuMarkup(KeyDoctorsMenu))
	})

	return f
}
