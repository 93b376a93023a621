package lockmgr

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaveland/bunnysync/internal/storageapi/fake"
)

func TestAcquire_WritesLockfile(t *testing.T) {
	client := fake.New()

	handle, err := Acquire(context.Background(), client, ".bunnysync.lock", false)
	require.NoError(t, err)
	require.NotNil(t, handle)

	body, ok := client.Get(".bunnysync.lock")
	require.True(t, ok)

	var doc document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotEmpty(t, doc.Owner)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestAcquire_FailsWhenAlreadyLockedWithoutForce(t *testing.T) {
	client := fake.New()
	client.Seed(".bunnysync.lock", []byte(`{"owner":"other"}`))

	_, err := Acquire(context.Background(), client, ".bunnysync.lock", false)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAcquire_ForceOverridesExistingLock(t *testing.T) {
	client := fake.New()
	client.Seed(".bunnysync.lock", []byte(`{"owner":"other"}`))

	handle, err := Acquire(context.Background(), client, ".bunnysync.lock", true)
	require.NoError(t, err)
	require.NotNil(t, handle)

	body, _ := client.Get(".bunnysync.lock")
	var doc document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotEqual(t, "other", doc.Owner)
}

func TestRelease_RemovesLockfile(t *testing.T) {
	client := fake.New()

	handle, err := Acquire(context.Background(), client, ".bunnysync.lock", false)
	require.NoError(t, err)

	require.NoError(t, handle.Release(context.Background()))

	_, ok := client.Get(".bunnysync.lock")
	assert.False(t, ok)
}

func TestRelease_IsIdempotent(t *testing.T) {
	client := fake.New()

	handle, err := Acquire(context.Background(), client, ".bunnysync.lock", false)
	require.NoError(t, err)

	require.NoError(t, handle.Release(context.Background()))
	assert.NoError(t, handle.Release(context.Background()))
}
