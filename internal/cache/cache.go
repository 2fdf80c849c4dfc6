// Package cache is a read-through cache for slow-changing reference data:
// admin id sets and the speciality catalog. Values are repopulated from the
// database on miss and explicitly invalidated after mutations; when the
// cache backend itself is down, reads degrade to direct database queries.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
)

// Key identifies one cached reference-data set.
type Key string

const (
	KeyAdmins       Key = "admins"
	KeyPrivAdmins   Key = "priv_admins"
	KeySpecialities Key = "specialities"
)

// Keys lists every cache key, in refresh order.
func Keys() []Key {
	return []Key{KeyAdmins, KeyPrivAdmins, KeySpecialities}
}

// ErrorKind classifies cache failures so degraded mode is an intentional
// branch rather than a catch-all.
type ErrorKind int

const (
	// KindBackend: the cache backend is unreachable. Recoverable, reads
	// fall back to the source of truth.
	KindBackend ErrorKind = iota
	// KindSource: the source-of-truth query failed. Not recoverable here.
	KindSource
)

// Error wraps a cache failure with its kind and key.
type Error struct {
	Kind ErrorKind
	Key  Key
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBackend:
		return fmt.Sprintf("cache backend, key %q: %v", e.Key, e.Err)
	default:
		return fmt.Sprintf("cache source, key %q: %v", e.Key, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Backend is the raw key-value store behind the coordinator.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Source provides the authoritative reference data.
type Source interface {
	AdminIDs(ctx context.Context, privilege domain.PrivilegeLevel) ([]int64, error)
	SpecialityTitles(ctx context.Context) ([]string, error)
}

// Coordinator implements read-through caching with explicit invalidation.
type Coordinator struct {
	backend Backend
	source  Source
	ttl     time.Duration
}

// New builds a coordinator. ttl bounds staleness between invalidations.
func New(backend Backend, source Source, ttl time.Duration) *Coordinator {
	return &Coordinator{backend: backend, source: source, ttl: ttl}
}

// AdminIDs returns the cached set of all admin Telegram ids.
func (c *Coordinator) AdminIDs(ctx context.Context) ([]int64, error) {
	return readAs[[]int64](ctx, c, KeyAdmins)
}

// PrivilegedAdminIDs returns the cached set of high-privilege admin ids.
func (c *Coordinator) PrivilegedAdminIDs(ctx context.Context) ([]int64, error) {
	return readAs[[]int64](ctx, c, KeyPrivAdmins)
}

// SpecialityTitles returns the cached speciality catalog.
func (c *Coordinator) SpecialityTitles(ctx context.Context) ([]string, error) {
	return readAs[[]string](ctx, c, KeySpecialities)
}

// Invalidate recomputes and stores the given keys from the source of truth.
// Callers invoke it right after any mutation of admins or specialities.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...Key) error {
	for _, key := range keys {
		value, err := c.load(ctx, key)
		if err != nil {
			return err
		}
		if err := c.store(ctx, key, value); err != nil {
			// The next read repopulates; staleness stays bounded by TTL.
			logger.Cache.LogAttrs(ctx, slog.LevelWarn, "invalidate.store_failed",
				slog.String("key", string(key)),
				slog.String("err", err.Error()),
			)
		}
		logger.Cache.LogAttrs(ctx, slog.LevelDebug, "invalidate",
			slog.String("key", string(key)),
		)
	}
	return nil
}

// RefreshAll unconditionally recomputes every known key. The scheduler runs
// it daily as a safety net against missed invalidations.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	return c.Invalidate(ctx, Keys()...)
}

func readAs[T any](ctx context.Context, c *Coordinator, key Key) (T, error) {
	var zero T
	raw, err := c.read(ctx, key)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, &Error{Kind: KindBackend, Key: key, Err: err}
	}
	return out, nil
}

// read returns the JSON-encoded value for a key, repopulating from source on
// miss and degrading to a direct source read when the backend errs.
func (c *Coordinator) read(ctx context.Context, key Key) (string, error) {
	raw, found, err := c.backend.Get(ctx, string(key))
	if err != nil {
		logger.Cache.LogAttrs(ctx, slog.LevelWarn, "backend.degraded",
			slog.String("key", string(key)),
			slog.String("err", err.Error()),
		)
		return c.load(ctx, key)
	}
	if found {
		return raw, nil
	}
	value, err := c.load(ctx, key)
	if err != nil {
		return "", err
	}
	if err := c.store(ctx, key, value); err != nil {
		logger.Cache.LogAttrs(ctx, slog.LevelWarn, "backend.store_failed",
			slog.String("key", string(key)),
			slog.String("err", err.Error()),
		)
	}
	return value, nil
}

// load queries the source of truth and encodes the value.
func (c *Coordinator) load(ctx context.Context, key Key) (string, error) {
	var (
		value any
		err   error
	)
	switch key {
	case KeyAdmins:
		value, err = c.source.AdminIDs(ctx, "")
	case KeyPrivAdmins:
		value, err = c.source.AdminIDs(ctx, domain.PrivilegeHigh)
	case KeySpecialities:
		value, err = c.source.SpecialityTitles(ctx)
	default:
		err = fmt.Errorf("unknown key")
	}
	if err != nil {
		return "", &Error{Kind: KindSource, Key: key, Err: err}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", &Error{Kind: KindSource, Key: key, Err: err}
	}
	return string(data), nil
}

func (c *Coordinator) store(ctx context.Context, key Key, value string) error {
	if err := c.backend.Set(ctx, string(key), value, c.ttl); err != nil {
		return &Error{Kind: KindBackend, Key: key, Err: err}
	}
	return nil
}
