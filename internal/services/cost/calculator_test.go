package cost

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	legacygenai "github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	apperrors "github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/models"
	"github.com/thomas-vilte/llmcost/internal/pricing"
)

func newTestCalculator(t *testing.T) (*Calculator, *bytes.Buffer) {
	t.Helper()
	catalog, err := pricing.DefaultCatalog()
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewCalculator(catalog, WithLogger(logger)), &buf
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func TestCalculator_Compute_OpenAIResponses(t *testing.T) {
	calc, _ := newTestCalculator(t)

	resp := decode(t, `{
		"model": "gpt-4.1-nano-2025-04-14",
		"service_tier": "default",
		"usage": {
			"input_tokens": 1000,
			"input_tokens_details": {"cached_tokens": 200},
			"output_tokens": 50
		}
	}`)

	p, err := calc.Compute(resp)
	require.NoError(t, err)

	assert.InDelta(t, 0.00008, p.InputPrice, delta)
	assert.InDelta(t, 0.000005, p.InputCachedPrice, delta)
	assert.InDelta(t, 0.00002, p.OutputPrice, delta)
	assert.InDelta(t, 0.000105, p.TotalPrice, delta)
	assert.Equal(t, 800, p.InputTokens)
	assert.Equal(t, 200, p.InputCachedTokens)
	assert.Equal(t, 50, p.OutputTokens)
	assert.Equal(t, models.ProviderOpenAI, p.Provider)
	assert.Equal(t, "gpt-4.1-nano", p.Model)
	assert.Equal(t, "default", p.Tier)
	assert.False(t, p.Approximate)
}

func TestCalculator_Compute_OpenAITypedResponse(t *testing.T) {
	calc, _ := newTestCalculator(t)

	resp := responses.Response{
		Model:       "gpt-4.1-nano-2025-04-14",
		ServiceTier: "default",
		Usage: responses.ResponseUsage{
			InputTokens:        1000,
			InputTokensDetails: responses.ResponseUsageInputTokensDetails{CachedTokens: 200},
			OutputTokens:       50,
		},
	}

	for name, r := range map[string]any{"value": resp, "pointer": &resp} {
		t.Run(name, func(t *testing.T) {
			p, err := calc.Compute(r)
			require.NoError(t, err)
			assert.InDelta(t, 0.000105, p.TotalPrice, delta)
		})
	}
}

func TestCalculator_Compute_Transcription(t *testing.T) {
	calc, _ := newTestCalculator(t)

	resp := decode(t, `{"text": "hello", "usage": {"type": "duration", "seconds": 23}}`)

	p, err := calc.Compute(resp, WithSTTModel("whisper-1"))
	require.NoError(t, err)

	assert.InDelta(t, 0.0023, p.InputPrice, delta)
	assert.Zero(t, p.InputCachedPrice)
	assert.Zero(t, p.OutputPrice)
	assert.InDelta(t, 0.0023, p.TotalPrice, delta)
	assert.Equal(t, 23, p.InputTokens)
	assert.Equal(t, "whisper-1", p.Model)

	t.Run("without model", func(t *testing.T) {
		_, err := calc.Compute(resp)
		assert.True(t, errors.Is(err, apperrors.ErrMissingModelName))
	})

	t.Run("explicit provider", func(t *testing.T) {
		p, err := calc.Compute(resp, WithProvider(models.ProviderOpenAI), WithSTTModel("whisper-1"))
		require.NoError(t, err)
		assert.InDelta(t, 0.0023, p.TotalPrice, delta)
	})
}

func TestCalculator_Compute_Gemini(t *testing.T) {
	calc, logs := newTestCalculator(t)

	t.Run("typed response", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			ModelVersion: "gemini-3-pro-preview",
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:        2000,
				CandidatesTokenCount:    500,
				CachedContentTokenCount: 400,
			},
		}

		p, err := calc.Compute(resp)
		require.NoError(t, err)

		assert.InDelta(t, 0.004, p.InputPrice, delta)
		assert.InDelta(t, 0.006, p.OutputPrice, delta)
		assert.InDelta(t, 0.01, p.TotalPrice, delta)
		assert.Zero(t, p.InputCachedTokens, "cached tokens are not read for gemini")
		assert.Equal(t, models.ProviderGemini, p.Provider)
		assert.False(t, p.Approximate)
	})

	t.Run("legacy sdk response defaults to flash", func(t *testing.T) {
		resp := &legacygenai.GenerateContentResponse{
			UsageMetadata: &legacygenai.UsageMetadata{
				PromptTokenCount:     1000,
				CandidatesTokenCount: 100,
			},
		}

		p, err := calc.Compute(resp)
		require.NoError(t, err)

		assert.InDelta(t, 0.0005, p.InputPrice, delta)
		assert.InDelta(t, 0.0003, p.OutputPrice, delta)
		assert.Equal(t, DefaultGeminiModel, p.Model)
	})

	t.Run("unknown model priced by family", func(t *testing.T) {
		logs.Reset()
		resp := decode(t, `{
			"model": "gemini-2.5-pro",
			"usageMetadata": {"promptTokenCount": 2000, "candidatesTokenCount": 500}
		}`)

		p, err := calc.Compute(resp)
		require.NoError(t, err)

		assert.Equal(t, "gemini-3-pro-preview", p.Model)
		assert.True(t, p.Approximate)
		assert.InDelta(t, 0.01, p.TotalPrice, delta)
		assert.Contains(t, logs.String(), "level=WARN")
		assert.Contains(t, logs.String(), "priced_as=gemini-3-pro-preview")
	})
}

func TestCalculator_Compute_Errors(t *testing.T) {
	calc, _ := newTestCalculator(t)

	tests := []struct {
		name string
		resp any
		opts []ComputeOption
		want error
	}{
		{
			name: "unknown model",
			resp: decode(t, `{"model": "gpt-99", "service_tier": "default", "usage": {"input_tokens": 1, "output_tokens": 1}}`),
			want: apperrors.ErrUnknownModel,
		},
		{
			name: "unknown tier",
			resp: decode(t, `{"model": "gpt-5-pro", "service_tier": "flex", "usage": {"input_tokens": 1, "output_tokens": 1}}`),
			want: apperrors.ErrUnknownTier,
		},
		{
			name: "auto tier is not a price tier",
			resp: decode(t, `{"model": "gpt-5", "service_tier": "auto", "usage": {"input_tokens": 1, "output_tokens": 1}}`),
			want: apperrors.ErrUnknownTier,
		},
		{
			name: "missing model",
			resp: decode(t, `{"service_tier": "default", "usage": {"input_tokens": 1, "output_tokens": 1}}`),
			want: apperrors.ErrMissingModelName,
		},
		{
			name: "not a response",
			resp: 42,
			want: apperrors.ErrProviderDetection,
		},
		{
			name: "empty map",
			resp: map[string]any{},
			want: apperrors.ErrProviderDetection,
		},
		{
			name: "unsupported provider",
			resp: map[string]any{},
			opts: []ComputeOption{WithProvider("anthropic")},
			want: apperrors.ErrUnsupportedProvider,
		},
		{
			name: "token usage against a per second price",
			resp: decode(t, `{"model": "whisper-1", "usage": {"input_tokens": 10, "output_tokens": 1}}`),
			want: apperrors.ErrMalformedUsage,
		},
		{
			name: "duration against a per token price",
			resp: decode(t, `{"usage": {"seconds": 10}}`),
			opts: []ComputeOption{WithSTTModel("gpt-4.1")},
			want: apperrors.ErrMalformedUsage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := calc.Compute(tt.resp, tt.opts...)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCalculator_Price(t *testing.T) {
	calc, _ := newTestCalculator(t)

	u := models.TokenUsage(800, 200, 50)
	u.Shape = models.ShapeOpenAILLM
	u.Model = "gpt-4.1-nano"

	p, err := calc.Price(u)
	require.NoError(t, err)
	assert.Equal(t, "default", p.Tier)
	assert.InDelta(t, 0.000105, p.TotalPrice, delta)

	u.Tier = "priority"
	p, err = calc.Price(u)
	require.NoError(t, err)
	assert.Equal(t, "priority", p.Tier)
	assert.InDelta(t, 0.00021, p.TotalPrice, delta)
}

func TestNewDefaultCalculator(t *testing.T) {
	calc, err := NewDefaultCalculator()
	require.NoError(t, err)
	require.NotNil(t, calc)

	p, err := calc.Compute(map[string]any{"usage": map[string]any{"seconds": 60.0}}, WithSTTModel("whisper-1"))
	require.NoError(t, err)
	assert.InDelta(t, 0.006, p.TotalPrice, delta)
}
