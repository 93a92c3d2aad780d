package user

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paihq/pai/internal/test_utils"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *UserRepoImpl) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	return ctx, NewUserRepo(db)
}

func storedUser(username string) User {
	return User{
		Uid:          "uid-" + username,
		Username:     username,
		DisplayName:  "User " + username,
		Subscription: SubscriptionTrialing,
		Settings:     Settings{Timezone: "Europe/Warsaw", Currency: "PLN"},
	}
}

func TestUserRepoImpl_CreateAndGet(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	u := storedUser("alice")
	u.Settings.GoogleCalendar.CalendarId = "primary"

	// when
	id, err := repo.CreateUser(ctx, u, "hash-1")
	require.NoError(t, err)

	// then
	byId, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	u.Id = id
	assert.Equal(t, u, byId)

	byToken, err := repo.GetUserByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, u, byToken)

	_, err = repo.GetUserByTokenHash(ctx, "hash-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetUser(ctx, id+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoImpl_Update(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	id, err := repo.CreateUser(ctx, storedUser("alice"), "hash-1")
	require.NoError(t, err)

	updated, err := repo.UpdateUser(ctx, id, User{
		DisplayName: "Alice A.",
		Settings:    Settings{Timezone: "UTC", Currency: "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "EUR", updated.Settings.Currency)
	assert.Empty(t, updated.Settings.GoogleCalendar.CalendarId)

	require.NoError(t, repo.UpdateSubscription(ctx, id, SubscriptionPastDue))
	require.NoError(t, repo.UpdateTokenHash(ctx, id, "hash-2"))
	stored, err := repo.GetUserByTokenHash(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionPastDue, stored.Subscription)

	_, err = repo.UpdateUser(ctx, id+100, User{DisplayName: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdateSubscription(ctx, id+100, SubscriptionActive), ErrUserNotFound)
}

func TestUserRepoImpl_DeleteAndAvailability(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	id, err := repo.CreateUser(ctx, storedUser("alice"), "hash-1")
	require.NoError(t, err)

	available, err := repo.IsUsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, available)

	require.NoError(t, repo.DeleteUser(ctx, id))
	assert.ErrorIs(t, repo.DeleteUser(ctx, id), ErrUserNotFound)

	available, err = repo.IsUsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, available)
}
