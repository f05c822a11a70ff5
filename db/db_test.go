package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/scimatic/scimcheck/libs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenWithDialector(sqlite.Open(":memory:"))
	require.NoError(t, err)

	return store
}

func TestOpen_RequiresServerAndName(t *testing.T) {
	_, err := Open(libs.EnvironmentProfile{Name: libs.EnvironmentNonOEM})

	var confErr *libs.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "db_server", confErr.Setting)
}

func TestEnsureUser_CreatesAndIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	account := &UserAccount{
		UserName:      "FIXTURE1",
		InstitutionID: "101",
		DisplayName:   "Fixture One",
		Email:         "fixture1@example.com",
		Active:        true,
	}

	require.NoError(t, store.EnsureUser(ctx, account))
	require.NotZero(t, account.ID)
	firstID := account.ID

	again := &UserAccount{UserName: "FIXTURE1", InstitutionID: "101"}
	require.NoError(t, store.EnsureUser(ctx, again))
	assert.Equal(t, firstID, again.ID, "a second ensure must find the existing row")
	assert.Equal(t, "Fixture One", again.DisplayName)
}

func TestEnsureUser_ScopedByInstitution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &UserAccount{UserName: "SHARED1", InstitutionID: "101"}
	second := &UserAccount{UserName: "SHARED1", InstitutionID: "102"}

	require.NoError(t, store.EnsureUser(ctx, first))
	require.NoError(t, store.EnsureUser(ctx, second))

	assert.NotEqual(t, first.ID, second.ID, "the same username in two institutions is two rows")
}

func TestUserExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.UserExists(ctx, "NOBODY1", "101")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.EnsureUser(ctx, &UserAccount{UserName: "SOMEBODY1", InstitutionID: "101"}))

	exists, err = store.UserExists(ctx, "SOMEBODY1", "101")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.UserExists(ctx, "SOMEBODY1", "102")
	require.NoError(t, err)
	assert.False(t, exists, "existence checks are institution scoped")
}

func TestRemoveUser_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureUser(ctx, &UserAccount{UserName: "EPHEMERAL1", InstitutionID: "101"}))
	require.NoError(t, store.RemoveUser(ctx, "EPHEMERAL1", "101"))

	exists, err := store.UserExists(ctx, "EPHEMERAL1", "101")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.RemoveUser(ctx, "EPHEMERAL1", "101"), "removing an absent row is not an error")
}
