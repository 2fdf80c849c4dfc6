package flows

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	acUID       fsm.State = "uid"
	acName      fsm.State = "name"
	acPrivilege fsm.State = "privilege"
	acConfirm   fsm.State = "confirm"
)

func privilegeLabel(p string) string {
	if p == string(domain.PrivilegeHigh) {
		return "высокие"
	}
	return "обычные"
}

func newAdminCreateFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindAdminCreate, acUID)
	f.Gate = func(ctx context.Context, userID int64) (bool, error) {
		return env.Access.IsPrivileged(ctx, userID)
	}
	f.Denied = deniedHandler(KeyAdminsMenu)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		t.Session.Admin = &fsm.AdminScratch{}
		return editAnchor(t, textEnterAdminUID, backToMenuMarkup(KeyAdminsMenu))
	}

	f.On(acUID, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		n, ok := CheckInteger(t.Event.Text)
		if !ok {
			return editAnchor(t, textBadInteger+"\n"+textEnterAdminUID, backToMenuMarkup(KeyAdminsMenu))
		}
		// Duplicate check goes against storage, not the cache: a stale
		// cache entry must not allow a second row for the same UID.
		ids, err := env.Data.AdminIDs(ctx, "")
		if err != nil {
			return err
		}
		if slices.Contains(ids, int64(n)) {
			t.End()
			return editAnchor(t, textAdminExists, backToMenuMarkup(KeyAdminsMenu))
		}
		t.Session.Admin.UID = int64(n)
		t.Advance(acName)
		return editAnchor(t, textEnterAdminName, backToMenuMarkup(KeyAdminsMenu))
	})

	f.On(acName, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		sc := t.Session.Admin
		sc.Name = strings.TrimSpace(t.Event.Text)
		// Only the super admin grants high privileges; everyone else
		// creates low-privilege admins without being asked.
		if t.Event.UserID == env.Cfg.SuperAdminID {
			t.Advance(acPrivilege)
			return editAnchor(t, textChoosePrivilege, privilegeMarkup())
		}
		sc.Privilege = string(domain.PrivilegeLow)
		t.Advance(acConfirm)
		return editAnchor(t,
			fmt.Sprintf(textConfirmAdmin, sc.UID, sc.Name, privilegeLabel(sc.Privilege)),
			confirmMarkup(KeyAdminsMenu))
	})

	f.On(acPrivilege, fsm.OnButton(KeyPrivilege), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Admin
		switch t.Event.Payload {
		case string(domain.PrivilegeHigh), string(domain.PrivilegeLow):
			sc.Privilege = t.Event.Payload
		default:
			return nil
		}
		t.Advance(acConfirm)
		return editAnchor(t,
			fmt.Sprintf(textConfirmAdmin, sc.UID, sc.Name, privilegeLabel(sc.Privilege)),
			confirmMarkup(KeyAdminsMenu))
	})

	f.On(acConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		sc := t.Session.Admin
		admin := domain.Admin{
			TgUID:     sc.UID,
			Name:      sc.Name,
			Privilege: domain.PrivilegeLevel(sc.Privilege),
		}
		if err := env.Data.CreateAdmin(ctx, admin); err != nil {
			return err
		}
		if err := env.Cache.Invalidate(ctx, cache.KeyAdmins, cache.KeyPrivAdmins); err != nil {
			return err
		}
		t.End()
		return editAnchor(t, textAdminCreated, backToMenuMarkup(KeyAdminsMenu))
	})

	return f
}
