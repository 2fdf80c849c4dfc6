package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/internal/fsm"
)

// downStore fails every session operation, as a Redis outage would.
type downStore struct{}

func (downStore) Get(context.Context, int64) (*fsm.Session, error) {
	return nil, fsm.ErrStoreUnavailable
}
func (downStore) Set(context.Context, *fsm.Session) error { return fsm.ErrStoreUnavailable }
func (downStore) Delete(context.Context, int64) error     { return fsm.ErrStoreUnavailable }

// stubContext implements just the tele.Context surface the adapter touches.
// The embedded interface stays nil; unexpected calls panic loudly.
type stubContext struct {
	tele.Context
	values map[string]interface{}
	sent   []string
}

func newStubContext() *stubContext {
	return &stubContext{values: make(map[string]interface{})}
}

func (s *stubContext) Update() tele.Update { return tele.Update{ID: 1} }
func (s *stubContext) Sender() *tele.User  { return &tele.User{ID: 7} }
func (s *stubContext) Chat() *tele.Chat    { return &tele.Chat{ID: 7} }
func (s *stubContext) Message() *tele.Message {
	return &tele.Message{ID: 2, Text: "привет", Chat: &tele.Chat{ID: 7}}
}
func (s *stubContext) Callback() *tele.Callback      { return nil }
func (s *stubContext) Get(key string) interface{}    { return s.values[key] }
func (s *stubContext) Set(key string, v interface{}) { s.values[key] = v }
func (s *stubContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

func TestManagerHandlerInformsUserOnStoreFailure(t *testing.T) {
	adapter := &engineAdapter{engine: fsm.NewEngine(downStore{})}
	c := newStubContext()

	err := adapter.ManagerHandler(c)

	require.ErrorIs(t, err, fsm.ErrStoreUnavailable)
	require.NotEmpty(t, c.sent, "user must be told the conversation broke")
	assert.Equal(t, textFlowFailure, c.sent[len(c.sent)-1])
}

func TestCallbackHandlerInformsUserOnStoreFailure(t *testing.T) {
	adapter := &engineAdapter{engine: fsm.NewEngine(downStore{})}
	c := newStubContext()

	handled, err := adapter.CallbackHandler(c, "some_key", "")

	require.ErrorIs(t, err, fsm.ErrStoreUnavailable)
	assert.False(t, handled)
	require.NotEmpty(t, c.sent)
	assert.Equal(t, textFlowFailure, c.sent[len(c.sent)-1])
}

func TestManagerHandlerQuietOnSuccess(t *testing.T) {
	adapter := &engineAdapter{engine: fsm.NewEngine(fsm.NewMemoryStore())}
	c := newStubContext()

	err := adapter.ManagerHandler(c)

	require.NoError(t, err)
	assert.Empty(t, c.sent, "no failure notice without a failure")
}
