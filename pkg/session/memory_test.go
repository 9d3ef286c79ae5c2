package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(time.Hour)
	s.Role = "gestor"
	s.Credentials.Cookies = map[string]string{"connect.sid": "abc"}
	require.NoError(t, store.Save(ctx, s))

	// 修改原对象不影响已保存副本
	s.Credentials.Cookies["connect.sid"] = "changed"

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "gestor", got.Role)
	assert.Equal(t, "abc", got.Credentials.Cookies["connect.sid"])

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiredSessionsAreHiddenAndSwept(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	live := New(time.Hour)
	dead := New(time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, dead))

	_, err := store.Get(ctx, dead.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, store.Sweep(time.Now()))
	assert.Equal(t, 1, store.Len())
}

func TestSession_Clear(t *testing.T) {
	s := New(time.Hour)
	s.Role = "formando"
	s.Credentials.Token = "tok"
	s.User = []byte(`{"id":1}`)

	s.Clear()

	assert.True(t, s.Credentials.Empty())
	assert.Empty(t, s.Role)
	assert.Nil(t, s.User)
	assert.NotEmpty(t, s.ID)
}

func TestSession_DirtyTracking(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(time.Hour)
	assert.False(t, s.Dirty())

	s.SetRole("gestor")
	assert.True(t, s.Dirty())
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Dirty())

	got.SetRole("gestor")
	assert.False(t, got.Dirty())
}

func TestSession_Rotate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := New(time.Minute)
	s.Credentials.Token = "tok"
	require.NoError(t, store.Save(ctx, s))
	oldID := s.ID

	s.Rotate(time.Hour)
	s.Rotate(time.Hour)

	assert.NotEqual(t, oldID, s.ID)
	assert.Equal(t, oldID, s.PreviousID(), "the first pre-rotation id is the one to drop")
	assert.Equal(t, "tok", s.Credentials.Token)
	assert.True(t, s.ExpiresAt.After(time.Now().Add(50*time.Minute)))
	assert.True(t, s.Dirty())

	require.NoError(t, store.Save(ctx, s))
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PreviousID())
}

func TestSession_End(t *testing.T) {
	s := New(time.Hour)
	s.Credentials.Token = "tok"
	s.End()

	assert.True(t, s.Ended())
	assert.True(t, s.Credentials.Empty())
}
