package flows

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	adSelect  fsm.State = "select"
	adConfirm fsm.State = "confirm"
)

func newAdminDeleteFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindAdminDelete, adSelect)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsPrivileged(ctx, userID)
	}
	f.Denied = deniedHandler(KeyAdminsMenu)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		admins, err := env.Data.Admins(ctx)
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			t.End()
			return editAnchor(t, textNoAdmins, backToMenuMarkup(KeyAdminsMenu))
		}
		t.Session.Admin = &fsm.AdminScratch{}
		return editAnchor(t, textChooseAdmin, adminsListMarkup(admins))
	}

	f.On(adSelect, fsm.OnButton(KeyAdminPick), func(ctx context.Context, t *fsm.Turn) error {
		uid, err := strconv.ParseInt(t.Event.Payload, 10, 64)
		if err != nil {
			return nil
		}
		t.Session.Admin.UID = uid
		t.Advance(adConfirm)
		return editAnchor(t, fmt.Sprintf(textConfirmDelAdmin, uid), confirmMarkup(KeyAdminsMenu))
	})

	f.On(adConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		if err := env.Data.DeleteAdmin(ctx, t.Session.Admin.UID); err != nil {
			return err
		}
		if err := env.Cache.Invalidate(ctx, cache.KeyAdmins, cache.KeyPrivAdmins); err != nil {
			return err
		}
		t.End()
		return editAnchor(t, textAdminDeleted, backToMenuMarkup(KeyAdminsMenu))
	})

	return f
}
