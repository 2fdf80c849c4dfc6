package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mkamenev/clinicbot/core/logger"
)

// Guard decides whether a transition claims an incoming event.
type Guard func(ev Event) bool

// Handler executes one claimed transition. It mutates the session scratch,
// performs side effects, and picks the next state through the Turn.
type Handler func(ctx context.Context, t *Turn) error

// Turn is the working context of a single transition execution. When the
// handler neither advances nor ends, the session stays in the same state
// (validation re-prompt).
type Turn struct {
	Session *Session
	Event   Event
	Render  Renderer

	next  State
	moved bool
	ended bool
}

// Advance moves the session to the given state once the handler returns.
func (t *Turn) Advance(s State) {
	t.next = s
	t.moved = true
}

// End terminates the flow: the session is deleted after the handler returns.
func (t *Turn) End() {
	t.ended = true
	t.moved = false
}

// Transition couples an event guard with its handler. Within a state,
// transitions are tried in registration order; the first matching guard wins.
type Transition struct {
	Guard  Guard
	Handle Handler
}

// Flow is the static definition of one conversation: entry state, optional
// privilege gate, entry prompt, and the per-state transition table. Every
// non-terminal state must register at least one transition.
type Flow struct {
	Kind  Kind
	Entry State

	// Gate is evaluated on flow entry; when it reports false, Denied renders
	// the refusal and no session is created.
	Gate   func(ctx context.Context, userID int64) (bool, error)
	Denied Handler

	// Begin prepares scratch data and renders the first prompt.
	Begin Handler

	transitions map[State][]Transition
}

// NewFlow declares a flow positioned at its entry state.
func NewFlow(kind Kind, entry State) *Flow {
	return &Flow{
		Kind:        kind,
		Entry:       entry,
		transitions: make(map[State][]Transition),
	}
}

// On registers a transition out of the given state. Registration order is
// resolution priority.
func (f *Flow) On(state State, g Guard, h Handler) *Flow {
	if g == nil || h == nil {
		return f
	}
	f.transitions[state] = append(f.transitions[state], Transition{Guard: g, Handle: h})
	return f
}

// Outcome reports how Dispatch treated an event.
type Outcome int

const (
	// OutcomeNone means the event was not consumed; the transport may route
	// it to commands or menu navigation.
	OutcomeNone Outcome = iota
	// OutcomeHandled means a transition executed.
	OutcomeHandled
	// OutcomeDropped means an active session existed but no transition
	// claimed the event; it is silently ignored.
	OutcomeDropped
)

// Engine routes events into flow transitions while holding a per-user lock,
// so events of one user are processed strictly one at a time while different
// users proceed concurrently.
type Engine struct {
	store      Store
	flows      map[Kind]*Flow
	cancelKeys map[string]struct{}

	mu        sync.Mutex
	userLocks map[int64]*userLock
}

// userLock is reference counted so the lock map does not grow by one entry
// per user forever.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates an engine over the given session store.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:      store,
		flows:      make(map[Kind]*Flow),
		cancelKeys: make(map[string]struct{}),
		userLocks:  make(map[int64]*userLock),
	}
}

// Register adds a flow definition. Registering the same kind twice panics:
// flow tables are wired once at startup and a duplicate is a programming
// error.
func (e *Engine) Register(f *Flow) {
	if f == nil {
		return
	}
	if _, exists := e.flows[f.Kind]; exists {
		panic(fmt.Sprintf("fsm: flow %q registered twice", f.Kind))
	}
	e.flows[f.Kind] = f
}

// CancelOn declares callback keys that cancel any active flow from any
// state. The event itself is not consumed, so the transport still renders
// the menu the key points at.
func (e *Engine) CancelOn(keys ...string) {
	for _, k := range keys {
		if k != "" {
			e.cancelKeys[k] = struct{}{}
		}
	}
}

func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &userLock{}
		e.userLocks[userID] = lock
	}
	lock.refs++
	e.mu.Unlock()
	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		e.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(e.userLocks, userID)
		}
		e.mu.Unlock()
	}
}

// Start enters a flow for the user, superseding any session that exists.
// The gate, when present, is evaluated against live data before any session
// state is touched.
func (e *Engine) Start(ctx context.Context, kind Kind, ev Event, r Renderer) error {
	unlock := e.lockUser(ev.UserID)
	defer unlock()

	f, ok := e.flows[kind]
	if !ok {
		return fmt.Errorf("fsm: unknown flow %q", kind)
	}

	if err := e.store.Delete(ctx, ev.UserID); err != nil {
		return err
	}

	if f.Gate != nil {
		allowed, err := f.Gate(ctx, ev.UserID)
		if err != nil {
			return fmt.Errorf("fsm: gate for %q: %w", kind, err)
		}
		if !allowed {
			logger.FSM.LogAttrs(ctx, slog.LevelInfo, "flow.denied",
				slog.String("flow", string(kind)),
				slog.Int64("user_id", ev.UserID),
			)
			if f.Denied != nil {
				t := &Turn{Session: NewSession(ev.UserID, kind, f.Entry), Event: ev, Render: r}
				return f.Denied(ctx, t)
			}
			return nil
		}
	}

	sess := NewSession(ev.UserID, kind, f.Entry)
	sess.LastMsgID = ev.MessageID
	t := &Turn{Session: sess, Event: ev, Render: r}
	if f.Begin != nil {
		if err := f.Begin(ctx, t); err != nil {
			return err
		}
	}
	if t.ended {
		return nil
	}
	if t.moved {
		sess.State = t.next
	}
	logger.FSM.LogAttrs(ctx, slog.LevelDebug, "flow.start",
		slog.String("flow", string(kind)),
		slog.String("state", string(sess.State)),
		slog.Int64("user_id", ev.UserID),
	)
	return e.store.Set(ctx, sess)
}

// Dispatch routes an event into the user's active flow, if any. Store
// failures are returned as-is so the transport can fail closed.
func (e *Engine) Dispatch(ctx context.Context, ev Event, r Renderer) (Outcome, error) {
	unlock := e.lockUser(ev.UserID)
	defer unlock()

	sess, err := e.store.Get(ctx, ev.UserID)
	if err != nil {
		return OutcomeNone, err
	}
	if sess == nil {
		return OutcomeNone, nil
	}

	if ev.Type == EventButton {
		if _, cancel := e.cancelKeys[ev.Button]; cancel {
			logger.FSM.LogAttrs(ctx, slog.LevelDebug, "flow.cancel",
				slog.String("flow", string(sess.Flow)),
				slog.String("state", string(sess.State)),
				slog.Int64("user_id", ev.UserID),
			)
			return OutcomeNone, e.store.Delete(ctx, ev.UserID)
		}
	}

	f, ok := e.flows[sess.Flow]
	if !ok {
		// Stale session from a retired flow definition.
		return OutcomeNone, e.store.Delete(ctx, ev.UserID)
	}

	for _, tr := range f.transitions[sess.State] {
		if !tr.Guard(ev) {
			continue
		}
		t := &Turn{Session: sess, Event: ev, Render: r}
		if err := tr.Handle(ctx, t); err != nil {
			return OutcomeHandled, err
		}
		if t.ended {
			return OutcomeHandled, e.store.Delete(ctx, ev.UserID)
		}
		if t.moved {
			sess.State = t.next
		}
		return OutcomeHandled, e.store.Set(ctx, sess)
	}

	// Foreign button presses from stale screens fall through to the menu
	// navigation registry; unexpected messages are dropped.
	if ev.Type == EventButton {
		return OutcomeNone, nil
	}
	logger.FSM.LogAttrs(ctx, slog.LevelDebug, "event.dropped",
		slog.String("flow", string(sess.Flow)),
		slog.String("state", string(sess.State)),
		slog.Int64("user_id", ev.UserID),
	)
	return OutcomeDropped, nil
}

// InProgress reports whether the user has an active session. Store errors
// count as in-progress so the transport fails closed instead of treating the
// user as idle.
func (e *Engine) InProgress(ctx context.Context, userID int64) bool {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		return true
	}
	return sess != nil
}

// Abort deletes the user's session unconditionally.
func (e *Engine) Abort(ctx context.Context, userID int64) error {
	unlock := e.lockUser(userID)
	defer unlock()
	return e.store.Delete(ctx, userID)
}
