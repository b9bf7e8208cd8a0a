package config

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/i18n"
)

func setupConfigTest(t *testing.T) (*config.Config, *i18n.Translations, string) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	return cfg, translations, path
}

func runConfig(t *testing.T, cfg *config.Config, translations *i18n.Translations, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	factory := NewConfigCommandFactory(WithOutput(out))
	app := &cli.Command{Commands: []*cli.Command{factory.CreateCommand(translations, cfg)}}

	err := app.Run(context.Background(), append([]string{"llmcost", "config"}, args...))
	return out.String(), err
}

func TestConfigShow(t *testing.T) {
	// Arrange
	cfg, translations, path := setupConfigTest(t)

	// Act
	out, err := runConfig(t, cfg, translations, "show")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "   language: en\n")
	assert.Contains(t, out, "   decimal_places: 8\n")
	assert.Contains(t, out, "   default_stt_model: whisper-1\n")
	assert.Contains(t, out, "   concurrency: 4\n")
	assert.Contains(t, out, "   budget: 0\n")
	assert.Contains(t, out, path)
}

func TestConfigSet(t *testing.T) {
	t.Run("should persist a valid value", func(t *testing.T) {
		// Arrange
		cfg, translations, path := setupConfigTest(t)

		// Act
		out, err := runConfig(t, cfg, translations, "set", "budget", "2.5")

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out, "budget = 2.5")

		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2.5, loaded.Budget)
	})

	t.Run("should switch language", func(t *testing.T) {
		cfg, translations, path := setupConfigTest(t)

		_, err := runConfig(t, cfg, translations, "set", "language", "es")

		require.NoError(t, err)
		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "es", loaded.Language)
	})

	t.Run("should reject an invalid value and keep the file", func(t *testing.T) {
		cfg, translations, path := setupConfigTest(t)

		_, err := runConfig(t, cfg, translations, "set", "decimal_places", "99")

		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 8, loaded.DecimalPlaces)
		assert.Equal(t, 8, cfg.DecimalPlaces)
	})

	t.Run("should reject an unknown key", func(t *testing.T) {
		cfg, translations, _ := setupConfigTest(t)

		_, err := runConfig(t, cfg, translations, "set", "api_key", "x")

		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
	})

	t.Run("should require key and value", func(t *testing.T) {
		cfg, translations, _ := setupConfigTest(t)

		_, err := runConfig(t, cfg, translations, "set", "budget")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decimal_places")
	})
}
