package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkamenev/clinicbot/internal/domain"
)

type memBackend struct {
	values map[string]string
	down   bool
	sets   int
}

func newMemBackend() *memBackend {
	return &memBackend{values: make(map[string]string)}
}

func (b *memBackend) Get(_ context.Context, key string) (string, bool, error) {
	if b.down {
		return "", false, errors.New("backend down")
	}
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *memBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	if b.down {
		return errors.New("backend down")
	}
	b.sets++
	b.values[key] = value
	return nil
}

type fakeSource struct {
	admins     []int64
	privileged []int64
	titles     []string
	calls      int
	fail       bool
}

func (s *fakeSource) AdminIDs(_ context.Context, privilege domain.PrivilegeLevel) ([]int64, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("db down")
	}
	if privilege == domain.PrivilegeHigh {
		return s.privileged, nil
	}
	return s.admins, nil
}

func (s *fakeSource) SpecialityTitles(_ context.Context) ([]string, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("db down")
	}
	return s.titles, nil
}

func TestCoordinatorReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	source := &fakeSource{titles: []string{"Кардиолог", "Невролог"}}
	c := New(backend, source, time.Hour)

	titles, err := c.SpecialityTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Кардиолог", "Невролог"}, titles)
	assert.Equal(t, 1, source.calls)

	// Second read is served from the backend.
	_, err = c.SpecialityTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestCoordinatorInvalidateRefreshes(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	source := &fakeSource{admins: []int64{1}}
	c := New(backend, source, time.Hour)

	ids, err := c.AdminIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	source.admins = []int64{1, 2}
	require.NoError(t, c.Invalidate(ctx, KeyAdmins))

	ids, err = c.AdminIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids, "invalidate recomputes eagerly")
}

func TestCoordinatorDegradesWhenBackendDown(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	backend.down = true
	source := &fakeSource{admins: []int64{5}}
	c := New(backend, source, time.Hour)

	ids, err := c.AdminIDs(ctx)
	require.NoError(t, err, "backend outage falls back to the source")
	assert.Equal(t, []int64{5}, ids)

	_, err = c.AdminIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "every degraded read hits the source")
}

func TestCoordinatorSurfacesSourceFailure(t *testing.T) {
	ctx := context.Background()
	c := New(newMemBackend(), &fakeSource{fail: true}, time.Hour)

	_, err := c.SpecialityTitles(ctx)
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindSource, cerr.Kind)
	assert.Equal(t, KeySpecialities, cerr.Key)
}

func TestCoordinatorRefreshAll(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	source := &fakeSource{admins: []int64{1}, privileged: []int64{1}, titles: []string{"ЛОР"}}
	c := New(backend, source, time.Hour)

	require.NoError(t, c.RefreshAll(ctx))
	assert.Len(t, backend.values, len(Keys()))
}
