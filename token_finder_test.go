package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-authguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextTokenFinder(t *testing.T) {
	t.Run("reads the stashed raw token", func(t *testing.T) {
		ctx := auth.WithRawToken(context.Background(), "raw-token")

		token, err := auth.ContextTokenFinder(ctx)
		require.NoError(t, err)
		assert.Equal(t, "raw-token", token)
	})

	t.Run("errors when nothing was stashed", func(t *testing.T) {
		_, err := auth.ContextTokenFinder(context.Background())
		assert.Error(t, err)
	})

	t.Run("an empty stash counts as missing", func(t *testing.T) {
		ctx := auth.WithRawToken(context.Background(), "")
		_, err := auth.ContextTokenFinder(ctx)
		assert.Error(t, err)
	})
}

func TestStaticTokenFinder(t *testing.T) {
	finder := auth.StaticTokenFinder("fixed")
	token, err := finder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", token)

	_, err = auth.StaticTokenFinder("")(context.Background())
	assert.Error(t, err)
}
