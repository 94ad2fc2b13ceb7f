package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/config"
	"identity-service/internal/model"
	"identity-service/internal/pkg/password"
	"identity-service/internal/platform/database"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestRepo(t *testing.T) (*UserRepository, *password.Hasher) {
	t.Helper()
	db, err := database.New(context.Background(), config.StorageConfig{
		Driver:   config.DriverSQLite,
		Location: config.MemoryLocation,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	hasher := password.NewHasher(password.Params{N: 1024, R: 8, P: 1, KeyLen: 64})
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewUserRepository(db, hasher, 16, WithClock(clock.Now)), hasher
}

func TestInsert_ThenSelect(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), created.ID)
	assert.Equal(t, "connor", created.UID)
	assert.NotEmpty(t, created.Created)
	assert.Equal(t, created.Created, created.Edited)

	got, err := repo.Select(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestInsert_StoresSaltedDigest(t *testing.T) {
	repo, hasher := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, model.Credential{UID: "jade", Pwd: "icecream"})
	require.NoError(t, err)

	connor, err := repo.FindByUID(ctx, "connor")
	require.NoError(t, err)
	jade, err := repo.FindByUID(ctx, "jade")
	require.NoError(t, err)

	assert.Len(t, connor.Salt, 32)
	assert.NotEqual(t, "icecream", connor.Pass)
	assert.NotEqual(t, connor.Salt, jade.Salt)
	assert.NotEqual(t, connor.Pass, jade.Pass, "same password must not produce the same digest")
	assert.True(t, hasher.Verify("icecream", connor.Salt, connor.Pass))
	assert.False(t, hasher.Verify("wrong", connor.Salt, connor.Pass))
}

func TestInsert_DuplicateUIDConflicts(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "other"})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
	assert.NotContains(t, err.Error(), "connor")

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Count)
}

func TestInsert_UIDIsCaseSensitive(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "a"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, model.Credential{UID: "Connor", Pwd: "a"})
	assert.NoError(t, err)
}

func TestSelectAll(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty.Users)
	assert.Empty(t, empty.Users)
	assert.Equal(t, 0, empty.Count)

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(ctx, model.Credential{UID: fmt.Sprintf("user%d", i), Pwd: "pwd"})
		require.NoError(t, err)
	}

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, all.Count)
	require.Len(t, all.Users, 3)
	for i, u := range all.Users {
		assert.Equal(t, uint64(i+1), u.ID)
		assert.Equal(t, fmt.Sprintf("user%d", i), u.UID)
	}
}

func TestSelect_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Select(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestUpdate_ChangesOnlyUIDAndEdited(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)
	before, err := repo.FindByUID(ctx, "connor")
	require.NoError(t, err)

	uid := "jade"
	updated, err := repo.Update(ctx, created.ID, model.UserPatch{UID: &uid})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "jade", updated.UID)
	assert.Equal(t, created.Created, updated.Created)
	assert.NotEqual(t, created.Edited, updated.Edited)

	after, err := repo.FindByUID(ctx, "jade")
	require.NoError(t, err)
	assert.Equal(t, before.Salt, after.Salt)
	assert.Equal(t, before.Pass, after.Pass)

	got, err := repo.Select(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdate_EmptyPatchStillTouchesEdited(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, model.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "connor", updated.UID)
	assert.NotEqual(t, created.Edited, updated.Edited)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	uid := "jade"
	_, err := repo.Update(context.Background(), 7, model.UserPatch{UID: &uid})
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestUpdate_ToTakenUIDConflicts(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "a"})
	require.NoError(t, err)
	jade, err := repo.Insert(ctx, model.Credential{UID: "jade", Pwd: "b"})
	require.NoError(t, err)

	uid := "connor"
	_, err = repo.Update(ctx, jade.ID, model.UserPatch{UID: &uid})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Select(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	err = repo.Delete(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	// ids are not reused after a delete
	next, err := repo.Insert(ctx, model.Credential{UID: "connor", Pwd: "icecream"})
	require.NoError(t, err)
	assert.Greater(t, next.ID, created.ID)
}

func TestInsert_NegativeSaltLengthFails(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.saltBytes = -1

	_, err := repo.Insert(context.Background(), model.Credential{UID: "connor", Pwd: "icecream"})
	assert.True(t, errors.Is(err, password.ErrInvalidArgument), "got %v", err)
}
