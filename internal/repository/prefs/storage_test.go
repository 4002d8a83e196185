package prefs_test

import (
	"context"
	"testing"
	"todoTracker/internal/kv/inmemory"
	"todoTracker/internal/models/settings"
	"todoTracker/internal/repository/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefs_Theme(t *testing.T) {
	ctx := context.Background()

	t.Run("success - default when missing", func(t *testing.T) {
		s := prefs.New(inmemory.New())
		assert.Equal(t, settings.ThemeLight, s.Theme(ctx))
	})

	t.Run("success - set and read", func(t *testing.T) {
		s := prefs.New(inmemory.New())
		require.NoError(t, s.SetTheme(ctx, settings.ThemeDark))
		assert.Equal(t, settings.ThemeDark, s.Theme(ctx))
	})

	t.Run("success - unknown stored value falls back", func(t *testing.T) {
		store := inmemory.New()
		require.NoError(t, store.Set(ctx, prefs.ThemeKey, []byte("sepia")))
		assert.Equal(t, settings.DefaultTheme, prefs.New(store).Theme(ctx))
	})
}
