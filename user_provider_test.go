package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProvider_VerifyIdentity(t *testing.T) {
	t.Run("valid credentials resolve an identity", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewUsersRepository(db)
		provider := auth.NewUserProvider(repo)

		user := seedUser(t, db, seedUserOptions{username: "valid", verified: true})

		identity, err := provider.VerifyIdentity(context.Background(), user.Email, testPassword)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, user.Username, identity.Username())
		assert.True(t, identity.Verified())
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewUsersRepository(db)
		provider := auth.NewUserProvider(repo)

		user := seedUser(t, db, seedUserOptions{username: "fumbler"})

		_, err := provider.VerifyIdentity(context.Background(), user.Email, "not-the-password")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

		found, getErr := repo.GetByIdentifier(context.Background(), user.ID.String())
		require.NoError(t, getErr)
		assert.Equal(t, 1, found.LoginAttempts)
	})

	t.Run("unknown identifier reads as bad credentials", func(t *testing.T) {
		db := setupTestDB(t)
		provider := auth.NewUserProvider(auth.NewUsersRepository(db))

		_, err := provider.VerifyIdentity(context.Background(), "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("too many attempts trips the cooldown", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewUsersRepository(db)
		provider := auth.NewUserProvider(repo)

		user := seedUser(t, db, seedUserOptions{username: "locked"})
		for i := 0; i <= auth.MaxLoginAttempts; i++ {
			require.NoError(t, repo.TrackAttemptedLogin(context.Background(), user))
			user.LoginAttempts++
		}

		_, err := provider.VerifyIdentity(context.Background(), user.Email, testPassword)
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
	})

	t.Run("stale attempts reset after the cooldown window", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewUsersRepository(db)
		provider := auth.NewUserProvider(repo)

		user := seedUser(t, db, seedUserOptions{username: "patient"})
		stale := time.Now().Add(-48 * time.Hour)
		_, err := db.NewUpdate().
			Model((*auth.User)(nil)).
			Set("login_attempts = ?", auth.MaxLoginAttempts+3).
			Set("login_attempt_at = ?", stale).
			Where("id = ?", user.ID).
			Exec(context.Background())
		require.NoError(t, err)

		identity, err := provider.VerifyIdentity(context.Background(), user.Email, testPassword)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("custom validator can reject the account", func(t *testing.T) {
		db := setupTestDB(t)
		provider := auth.NewUserProvider(auth.NewUsersRepository(db))
		provider.Validator = func(u *auth.User) error {
			if !u.IsVerified {
				return auth.ErrNotVerified
			}
			return nil
		}

		user := seedUser(t, db, seedUserOptions{username: "unverified"})

		_, err := provider.VerifyIdentity(context.Background(), user.Email, testPassword)
		assert.ErrorIs(t, err, auth.ErrNotVerified)
	})
}

func TestUserProvider_LoadIdentity(t *testing.T) {
	t.Run("resolves a live subject", func(t *testing.T) {
		db := setupTestDB(t)
		provider := auth.NewUserProvider(auth.NewUsersRepository(db))

		user := seedUser(t, db, seedUserOptions{username: "subject", verified: true})

		identity, err := provider.LoadIdentity(context.Background(), user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.Username, identity.Username())
	})

	t.Run("missing subject is not found", func(t *testing.T) {
		db := setupTestDB(t)
		provider := auth.NewUserProvider(auth.NewUsersRepository(db))

		_, err := provider.LoadIdentity(context.Background(), "nobody")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("archived subject is not found", func(t *testing.T) {
		db := setupTestDB(t)
		repo := auth.NewUsersRepository(db)
		provider := auth.NewUserProvider(repo)

		user := seedUser(t, db, seedUserOptions{username: "archived"})
		_, err := db.NewUpdate().
			Model((*auth.User)(nil)).
			Set("deleted_at = ?", time.Now()).
			Where("id = ?", user.ID).
			Exec(context.Background())
		require.NoError(t, err)

		_, err = provider.LoadIdentity(context.Background(), user.ID.String())
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}
