package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkamenev/clinicbot/internal/domain"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const (
	fbMessage fsm.State = "message"
	fbConfirm fsm.State = "confirm"
)

func newFeedbackFlow(env *Env) *fsm.Flow {
	f := fsm.NewFlow(fsm.KindFeedback, fbMessage)

	f.Begin = func(ctx context.Context, t *fsm.Turn) error {
		t.Session.Feedback = &fsm.FeedbackScratch{}
		return editAnchor(t, textEnterFeedback, backToMenuMarkup(KeyMainMenu))
	}

	f.On(fbMessage, fsm.OnText(), func(ctx context.Context, t *fsm.Turn) error {
		dropUserMessage(t)
		t.Session.Feedback.Message = strings.TrimSpace(t.Event.Text)
		t.Advance(fbConfirm)
		return editAnchor(t, fmt.Sprintf(textConfirmFeedback, t.Session.Feedback.Message),
			confirmMarkup(KeyMainMenu))
	})

	f.On(fbConfirm, fsm.OnButtonPayload(KeyConfirm, "yes"), func(ctx context.Context, t *fsm.Turn) error {
		record := domain.Feedback{
			TgUID:    t.Event.UserID,
			Username: t.Event.Username,
			Message:  t.Session.Feedback.Message,
		}
		if err := env.Data.CreateFeedback(ctx, record); err != nil {
			return err
		}
		t.End()
		return editAnchor(t, textFeedbackDone, backToMenuMarkup(KeyMainMenu))
	})

	return f
}
