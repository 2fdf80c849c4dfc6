package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type nopRenderer struct{}

func (nopRenderer) Send(string, *tele.ReplyMarkup) (int, error)       { return 1, nil }
func (nopRenderer) Edit(int, string, *tele.ReplyMarkup) error         { return nil }
func (nopRenderer) EditMarkup(int, *tele.ReplyMarkup) error           { return nil }
func (nopRenderer) Delete(int) error                                  { return nil }
func (nopRenderer) SendPhoto(string, string, *tele.ReplyMarkup) (int, error) { return 1, nil }
func (nopRenderer) Download(string, string) error                     { return nil }

func buttonEvent(userID int64, key, payload string) Event {
	return Event{Type: EventButton, UserID: userID, Button: key, Payload: payload, MessageID: 10}
}

func textEvent(userID int64, text string) Event {
	return Event{Type: EventMessage, UserID: userID, Text: text, MessageID: 11}
}

func testFlow(kind Kind, trace *[]string) *Flow {
	f := NewFlow(kind, "first")
	f.Begin = func(_ context.Context, t *Turn) error {
		*trace = append(*trace, "begin")
		return nil
	}
	f.On("first", OnText(), func(_ context.Context, t *Turn) error {
		*trace = append(*trace, "text:"+t.Event.Text)
		t.Advance("second")
		return nil
	})
	f.On("second", OnButtonPayload("go", "done"), func(_ context.Context, t *Turn) error {
		*trace = append(*trace, "finish")
		t.End()
		return nil
	})
	return f
}

func TestEngineRunsTransitionsInOrder(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())

	var trace []string
	f := NewFlow("order", "s")
	f.On("s", OnText(), func(context.Context, *Turn) error {
		trace = append(trace, "first")
		return nil
	})
	f.On("s", OnAnyMessage(), func(context.Context, *Turn) error {
		trace = append(trace, "second")
		return nil
	})
	e.Register(f)

	require.NoError(t, e.Start(ctx, "order", buttonEvent(1, "entry", ""), nopRenderer{}))
	out, err := e.Dispatch(ctx, textEvent(1, "hello"), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, out)
	assert.Equal(t, []string{"first"}, trace, "first registered guard wins")
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var trace []string
	e.Register(testFlow("lifecycle", &trace))

	require.NoError(t, e.Start(ctx, "lifecycle", buttonEvent(7, "entry", ""), nopRenderer{}))
	assert.True(t, e.InProgress(ctx, 7))

	out, err := e.Dispatch(ctx, textEvent(7, "answer"), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, out)

	out, err = e.Dispatch(ctx, buttonEvent(7, "go", "done"), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, out)
	assert.False(t, e.InProgress(ctx, 7), "session is deleted after End")
	assert.Equal(t, []string{"begin", "text:answer", "finish"}, trace)
}

func TestEngineDropsUnmatchedMessages(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var trace []string
	e.Register(testFlow("drop", &trace))

	require.NoError(t, e.Start(ctx, "drop", buttonEvent(2, "entry", ""), nopRenderer{}))

	// Advance to "second", which only accepts a button.
	_, err := e.Dispatch(ctx, textEvent(2, "answer"), nopRenderer{})
	require.NoError(t, err)

	out, err := e.Dispatch(ctx, textEvent(2, "unexpected"), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, out)
	assert.True(t, e.InProgress(ctx, 2), "session survives a dropped message")
}

func TestEngineForeignButtonFallsThrough(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var trace []string
	e.Register(testFlow("foreign", &trace))

	require.NoError(t, e.Start(ctx, "foreign", buttonEvent(3, "entry", ""), nopRenderer{}))
	out, err := e.Dispatch(ctx, buttonEvent(3, "some_menu", ""), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, out)
	assert.True(t, e.InProgress(ctx, 3))
}

func TestEngineCancelFromAnyState(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var trace []string
	e.Register(testFlow("cancel", &trace))
	e.CancelOn("menu")

	require.NoError(t, e.Start(ctx, "cancel", buttonEvent(4, "entry", ""), nopRenderer{}))
	_, err := e.Dispatch(ctx, textEvent(4, "answer"), nopRenderer{})
	require.NoError(t, err)

	out, err := e.Dispatch(ctx, buttonEvent(4, "menu", ""), nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, out, "cancel is not consumed so navigation can render")
	assert.False(t, e.InProgress(ctx, 4))
}

func TestEngineStartSupersedesSession(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var first, second []string
	e.Register(testFlow("one", &first))
	e.Register(testFlow("two", &second))

	require.NoError(t, e.Start(ctx, "one", buttonEvent(5, "entry", ""), nopRenderer{}))
	require.NoError(t, e.Start(ctx, "two", buttonEvent(5, "entry", ""), nopRenderer{}))

	_, err := e.Dispatch(ctx, textEvent(5, "answer"), nopRenderer{})
	require.NoError(t, err)
	assert.Empty(t, first[1:], "superseded flow sees no events past its begin")
	assert.Equal(t, []string{"begin", "text:answer"}, second)
}

func TestEngineGateDenied(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())

	denied := false
	f := NewFlow("gated", "s")
	f.Gate = func(context.Context, int64) (bool, error) { return false, nil }
	f.Denied = func(context.Context, *Turn) error {
		denied = true
		return nil
	}
	f.On("s", OnText(), func(context.Context, *Turn) error { return nil })
	e.Register(f)

	require.NoError(t, e.Start(ctx, "gated", buttonEvent(6, "entry", ""), nopRenderer{}))
	assert.True(t, denied)
	assert.False(t, e.InProgress(ctx, 6), "no session is created for a denied user")
}

type failingStore struct{}

func (failingStore) Get(context.Context, int64) (*Session, error) {
	return nil, ErrStoreUnavailable
}
func (failingStore) Set(context.Context, *Session) error    { return ErrStoreUnavailable }
func (failingStore) Delete(context.Context, int64) error    { return ErrStoreUnavailable }

func TestEngineFailsClosedOnStoreErrors(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(failingStore{})
	var trace []string
	e.Register(testFlow("down", &trace))

	assert.True(t, e.InProgress(ctx, 8), "store outage counts as in progress")

	_, err := e.Dispatch(ctx, textEvent(8, "answer"), nopRenderer{})
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}

func TestEngineReleasesUserLocks(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(NewMemoryStore())
	var trace []string
	e.Register(testFlow("locks", &trace))

	require.NoError(t, e.Start(ctx, "locks", buttonEvent(9, "entry", ""), nopRenderer{}))
	_, err := e.Dispatch(ctx, textEvent(9, "answer"), nopRenderer{})
	require.NoError(t, err)

	e.mu.Lock()
	held := len(e.userLocks)
	e.mu.Unlock()
	assert.Zero(t, held, "idle users keep no lock entry")
}
