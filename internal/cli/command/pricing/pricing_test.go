package pricing

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/pricing"
)

func runPricing(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	catalog, err := pricing.DefaultCatalog()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	factory := NewPricingCommandFactory(catalog, WithOutput(out), WithErrorOutput(io.Discard))
	app := &cli.Command{Commands: []*cli.Command{factory.CreateCommand(translations, config.Default())}}

	err = app.Run(context.Background(), append([]string{"llmcost", "pricing"}, args...))
	return out.String(), err
}

func TestPricingList(t *testing.T) {
	out, err := runPricing(t, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "gemini (updated ")
	assert.Contains(t, out, "openai (updated 2025-11-17)")
	assert.Less(t, bytes.Index([]byte(out), []byte("gemini (")), bytes.Index([]byte(out), []byte("openai (")))
	assert.Regexp(t, `Model\s+Tier\s+Input\s+Cached\s+Output\s+Unit`, out)
	assert.Regexp(t, `gpt-4\.1\s+priority\s+3\.500\s+0\.875\s+14\.000\s+\$/M`, out)
	assert.Regexp(t, `whisper-1\s+default\s+0\.0001\s+-\s+-\s+\$/s`, out)
	assert.Regexp(t, `gemini-3-pro-preview\s+default\s+2\.000\s+-\s+12\.000\s+\$/M`, out)
}

func TestPricingList_Provider(t *testing.T) {
	t.Run("only the requested table", func(t *testing.T) {
		out, err := runPricing(t, "list", "--provider", "openai")

		require.NoError(t, err)
		assert.Contains(t, out, "openai (updated")
		assert.NotContains(t, out, "gemini (updated")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := runPricing(t, "ls", "--provider", "anthropic")

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnsupportedProvider)
	})
}

func TestPricingShow(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		absent   []string
	}{
		{
			name: "dated snapshot with tier",
			args: []string{"show", "--tier", "priority", "gpt-4.1-2025-04-14"},
			contains: []string{
				"gpt-4.1 (openai)",
				"   Tier: priority\n",
				"   Input: 3.500 $/M\n",
				"   Cached: 0.875 $/M\n",
				"   Output: 14.000 $/M\n",
				"   Currency: dollar\n",
			},
			absent: []string{"priced as"},
		},
		{
			name: "transcription model",
			args: []string{"show", "whisper-1"},
			contains: []string{
				"whisper-1 (openai)",
				"   Input: 0.0001 $/s\n",
			},
			absent: []string{"Output:", "Cached:"},
		},
		{
			name: "unknown gemini model priced by family",
			args: []string{"show", "gemini-2.5-pro"},
			contains: []string{
				"gemini-3-pro-preview (gemini)",
				"   Output: 12.000 $/M\n",
				"gemini-2.5-pro is not in the table, priced as gemini-3-pro-preview",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runPricing(t, tt.args...)

			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPricingShow_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no model", args: []string{"show"}, wantErr: errors.ErrMissingModelName},
		{name: "unknown openai model", args: []string{"show", "gpt-99"}, wantErr: errors.ErrUnknownModel},
		{name: "unknown tier", args: []string{"show", "--tier", "flex", "gpt-4.1"}, wantErr: errors.ErrUnknownTier},
		{name: "unsupported provider", args: []string{"show", "--provider", "anthropic", "claude"}, wantErr: errors.ErrUnsupportedProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runPricing(t, tt.args...)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out)
		})
	}
}

func TestInferProvider(t *testing.T) {
	catalog, err := pricing.DefaultCatalog()
	require.NoError(t, err)
	f := NewPricingCommandFactory(catalog)

	assert.Equal(t, "openai", string(f.inferProvider("gpt-4.1-nano-2025-04-14")))
	assert.Equal(t, "openai", string(f.inferProvider("whisper-1")))
	assert.Equal(t, "gemini", string(f.inferProvider("gemini-3-flash-preview")))
	assert.Equal(t, "gemini", string(f.inferProvider("gemini-1.5-flash")))
	assert.Equal(t, "openai", string(f.inferProvider("o9-mystery")))
}
