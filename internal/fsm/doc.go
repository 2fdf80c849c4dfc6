// Package fsm drives multi-step Telegram conversations.
//
// Each flow is a declarative transition table over opaque states; the engine
// resolves (current state, incoming event) to the first matching transition,
// drops events no transition claims, and keeps exactly one live session per
// user in a pluggable store.
package fsm
