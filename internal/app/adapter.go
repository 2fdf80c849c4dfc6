package app

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/core/telegram/helpers"
	"github.com/mkamenev/clinicbot/core/telegram/keyboard"
	"github.com/mkamenev/clinicbot/internal/flows"
	"github.com/mkamenev/clinicbot/internal/fsm"
)

const textFlowFailure = "Что-то пошло не так. Попробуйте начать заново из главного меню."

// engineAdapter bridges the conversation engine into the router interfaces:
// text and document updates while a session is active, and callback presses
// that the session claims.
type engineAdapter struct {
	engine *fsm.Engine
}

func (a *engineAdapter) InProgress(userID int64) bool {
	return a.engine.InProgress(context.Background(), userID)
}

// ManagerHandler feeds a text or document update into the active session.
func (a *engineAdapter) ManagerHandler(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	_, err := a.engine.Dispatch(ctx, messageEvent(c), renderer{c: c})
	return notifyFlowFailure(ctx, a.engine, c, err)
}

// CallbackHandler feeds a button press into the active session. Unclaimed
// presses report false so the registry can route menu navigation.
func (a *engineAdapter) CallbackHandler(c tele.Context, key, payload string) (bool, error) {
	ctx := helpers.BuildContext(c)
	outcome, err := a.engine.Dispatch(ctx, buttonEvent(c, key, payload), renderer{c: c})
	return outcome == fsm.OutcomeHandled, notifyFlowFailure(ctx, a.engine, c, err)
}

// PaymentHandler feeds a successful payment into the active session.
func (a *engineAdapter) PaymentHandler(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	_, err := a.engine.Dispatch(ctx, paymentEvent(c), renderer{c: c})
	return notifyFlowFailure(ctx, a.engine, c, err)
}

// notifyFlowFailure drops whatever session is left after a mid-flow failure
// and tells the user to start over. The original error is returned so the
// transport still logs it.
func notifyFlowFailure(ctx context.Context, engine *fsm.Engine, c tele.Context, err error) error {
	if err == nil {
		return nil
	}
	if aerr := engine.Abort(ctx, c.Sender().ID); aerr != nil {
		logger.FSM.LogAttrs(ctx, slog.LevelWarn, "flow.abort_failed", slog.Any("error", aerr))
	}
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "⬅️ В главное меню", Unique: flows.KeyMainMenu},
	})
	if serr := c.Send(textFlowFailure, markup); serr != nil {
		logger.FSM.LogAttrs(ctx, slog.LevelWarn, "flow.failure_notice_failed", slog.Any("error", serr))
	}
	return err
}
