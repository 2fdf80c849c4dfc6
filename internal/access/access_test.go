package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdminSets struct {
	admins     []int64
	privileged []int64
	err        error
	calls      int
}

func (f *fakeAdminSets) AdminIDs(context.Context) ([]int64, error) {
	f.calls++
	return f.admins, f.err
}

func (f *fakeAdminSets) PrivilegedAdminIDs(context.Context) ([]int64, error) {
	f.calls++
	return f.privileged, f.err
}

func TestCheckerSuperAdminBypassesCache(t *testing.T) {
	ctx := context.Background()
	sets := &fakeAdminSets{err: errors.New("cache down")}
	c := NewChecker(sets, 42)

	ok, err := c.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsPrivileged(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Zero(t, sets.calls, "super-admin checks never touch the cache")
}

func TestCheckerIsAdmin(t *testing.T) {
	ctx := context.Background()
	sets := &fakeAdminSets{admins: []int64{10, 20}, privileged: []int64{10}}
	c := NewChecker(sets, 1)

	ok, err := c.IsAdmin(ctx, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsAdmin(ctx, 30)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckerIsPrivileged(t *testing.T) {
	ctx := context.Background()
	sets := &fakeAdminSets{admins: []int64{10, 20}, privileged: []int64{10}}
	c := NewChecker(sets, 1)

	ok, err := c.IsPrivileged(ctx, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	// A low-privilege admin is not privileged.
	ok, err = c.IsPrivileged(ctx, 20)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckerPropagatesCacheErrors(t *testing.T) {
	ctx := context.Background()
	sets := &fakeAdminSets{err: errors.New("cache down")}
	c := NewChecker(sets, 1)

	ok, err := c.IsAdmin(ctx, 10)
	require.Error(t, err)
	assert.False(t, ok)
}
