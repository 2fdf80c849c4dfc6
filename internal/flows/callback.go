package flows

import (
	"context"
	"strings"

	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	cbName  fsm.State = "name"
	cbPhone fsm.State = "phone"
)

func newCallbackFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindCallback, cbName)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		t.Session.Callback = &fsm.CallbackScratch{}
		return editAnchor(t, textEnterCallbackName, backToMenuMarkup(KeyMainMenu))
	}

	f.On(cbName, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Callback.FullName = strings.TrimSpace(t.Event.Text)
		t.Advance(cbPhone)
		return editAnchor(t, textEnterCallbackPhone, backToMenuMarkup(KeyMainMenu))
	})

	f.On(cbPhone, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		if !CheckPhone(t.Event.Text) {
			return editAnchor(t, textBadPhone, backToMenuMarkup(KeyMainMenu))
		}
		sc := t.Session.Callback
		sc.Phone = StandardizePhone(t.Event.Text)
		record := domain.Callback{
			TgUID:    t.Event.UserID,
			Username: t.Event.Username,
			FullName: sc.FullName,
			Phone:    sc.Phone,
		}
		if err := env.Data.CreateCallback(ctx, record); err != nil {
			return err
		}
		t.End()
		return editAnchor(t, textCallbackDone, backToMenuMarkup(KeyMainMenu))
	})

	return f
}
