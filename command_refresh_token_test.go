package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type refreshFixture struct {
	db      *bun.DB
	repo    auth.RepositoryManager
	handler *auth.RefreshTokenHandler
	sink    *recordingSink
}

func newRefreshFixture(t *testing.T, cfg auth.Config) refreshFixture {
	t.Helper()

	db := setupTestDB(t)
	service := auth.NewTokenService(cfg, nil)
	repo := auth.NewRepositoryManager(db, service, cfg)
	sink := &recordingSink{}

	return refreshFixture{
		db:      db,
		repo:    repo,
		handler: auth.NewRefreshTokenHandler(repo, service, cfg).WithActivitySink(sink),
		sink:    sink,
	}
}

func (fx refreshFixture) issueFor(t *testing.T, user *auth.User) *auth.RefreshToken {
	t.Helper()
	record, err := fx.repo.RefreshTokens().Issue(context.Background(), auth.NewIdentityFromUser(user))
	require.NoError(t, err)
	return record
}

func TestRefreshTokenHandler_Execute(t *testing.T) {
	t.Run("rotation on use returns a fresh pair and burns the old token", func(t *testing.T) {
		fx := newRefreshFixture(t, testConfig())
		user := seedUser(t, fx.db, seedUserOptions{username: "refresher", verified: true})
		record := fx.issueFor(t, user)

		result, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: record.Token,
		})
		require.NoError(t, err)
		require.True(t, result.Success)
		require.NotNil(t, result.Payload)
		assert.NotEmpty(t, result.Payload.Token)
		assert.NotEmpty(t, result.Payload.RefreshToken)
		assert.NotEqual(t, record.Token, result.Payload.RefreshToken)

		// presenting the consumed token again fails
		replay, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: record.Token,
		})
		require.NoError(t, err)
		assert.False(t, replay.Success)
		require.Contains(t, replay.Errors, auth.NonFieldErrors)
		assert.Equal(t, "TOKEN_REVOKED", replay.Errors[auth.NonFieldErrors][0].Code)

		events := fx.sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, auth.ActivityEventTokenRefreshed, events[0].EventType)
	})

	t.Run("rotation disabled keeps the presented token usable", func(t *testing.T) {
		cfg := testConfig()
		cfg.RotateOnUse = false

		fx := newRefreshFixture(t, cfg)
		user := seedUser(t, fx.db, seedUserOptions{username: "stable"})
		record := fx.issueFor(t, user)

		first, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: record.Token,
		})
		require.NoError(t, err)
		require.True(t, first.Success)
		assert.Empty(t, first.Payload.RefreshToken)

		second, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: record.Token,
		})
		require.NoError(t, err)
		assert.True(t, second.Success)
	})

	t.Run("unknown token fails", func(t *testing.T) {
		fx := newRefreshFixture(t, testConfig())

		result, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: "never-issued",
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		require.Contains(t, result.Errors, auth.NonFieldErrors)
		assert.Equal(t, "TOKEN_NOT_FOUND", result.Errors[auth.NonFieldErrors][0].Code)
	})

	t.Run("revoked token fails", func(t *testing.T) {
		fx := newRefreshFixture(t, testConfig())
		user := seedUser(t, fx.db, seedUserOptions{username: "revokee"})
		record := fx.issueFor(t, user)

		require.NoError(t, fx.repo.RefreshTokens().Revoke(context.Background(), record.Token))

		result, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{
			RefreshToken: record.Token,
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "TOKEN_REVOKED", result.Errors[auth.NonFieldErrors][0].Code)
	})

	t.Run("missing token fails validation", func(t *testing.T) {
		fx := newRefreshFixture(t, testConfig())

		result, err := fx.handler.Execute(context.Background(), auth.RefreshTokenMessage{})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Errors, "refreshToken")
	})
}
