package cost

import (
	"encoding/json"
	"math"

	legacygenai "github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/responses"
	"google.golang.org/genai"

	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/models"
)

// DefaultGeminiModel prices Gemini responses that do not say which model
// produced them.
const DefaultGeminiModel = "gemini-3-flash-preview"

// Classify decides which extraction routine reads resp. With an explicit
// provider only the LLM/STT split of OpenAI is inferred.
//
// Supported values are *genai.GenerateContentResponse from both Gemini SDKs,
// responses.Response from openai-go (value or pointer) and map[string]any as
// produced by decoding a JSON response body.
func Classify(resp any, explicit models.Provider) (models.Shape, error) {
	switch explicit {
	case "":
		return detect(resp)
	case models.ProviderGemini:
		if hasGeminiUsage(resp) {
			return models.ShapeGemini, nil
		}
		return "", errors.ErrMalformedUsage.WithDetail("%T has no Gemini usage metadata", resp)
	case models.ProviderOpenAI:
		switch r := resp.(type) {
		case *responses.Response, responses.Response:
			return models.ShapeOpenAILLM, nil
		case map[string]any:
			if hasDuration(r) {
				return models.ShapeOpenAISTT, nil
			}
			return models.ShapeOpenAILLM, nil
		}
		return "", errors.ErrProviderDetection.WithDetail("%T is not an OpenAI response", resp)
	default:
		return "", errors.ErrUnsupportedProvider.WithContext("provider", string(explicit)).WithDetail("%q", explicit)
	}
}

func detect(resp any) (models.Shape, error) {
	if hasGeminiUsage(resp) {
		return models.ShapeGemini, nil
	}

	switch r := resp.(type) {
	case *responses.Response, responses.Response:
		return models.ShapeOpenAILLM, nil
	case map[string]any:
		if _, ok := r["service_tier"]; ok {
			return models.ShapeOpenAILLM, nil
		}
		if hasDuration(r) {
			return models.ShapeOpenAISTT, nil
		}
		if _, ok := subMap(r, "usage"); ok {
			return models.ShapeOpenAILLM, nil
		}
	}
	return "", errors.ErrProviderDetection.WithDetail("%T", resp)
}

func hasGeminiUsage(resp any) bool {
	switch r := resp.(type) {
	case *genai.GenerateContentResponse, *legacygenai.GenerateContentResponse:
		return true
	case map[string]any:
		_, ok := subMap(r, "usage_metadata", "usageMetadata")
		return ok
	}
	return false
}

func hasDuration(m map[string]any) bool {
	usage, ok := subMap(m, "usage")
	if !ok {
		return false
	}
	_, ok = usage["seconds"]
	return ok
}

// ExtractUsage reads the billing counters of resp as the given shape.
// sttModel names the model when the response has none.
func ExtractUsage(resp any, shape models.Shape, sttModel string) (models.Usage, error) {
	var (
		u   models.Usage
		err error
	)
	switch shape {
	case models.ShapeGemini:
		u, err = geminiUsage(resp)
	case models.ShapeOpenAILLM:
		u, err = openAILLMUsage(resp, sttModel)
	case models.ShapeOpenAISTT:
		u, err = openAISTTUsage(resp, sttModel)
	default:
		return models.Usage{}, errors.ErrProviderDetection.WithDetail("unknown shape %q", shape)
	}
	if err != nil {
		return models.Usage{}, err
	}
	u.Shape = shape
	return u, nil
}

// Cached tokens are not read for Gemini: its prices carry no cache discount.
func geminiUsage(resp any) (models.Usage, error) {
	var prompt, candidates int64
	model := ""

	switch r := resp.(type) {
	case *genai.GenerateContentResponse:
		if r == nil || r.UsageMetadata == nil {
			return models.Usage{}, errors.ErrMalformedUsage.WithDetail("Gemini response without usage metadata")
		}
		prompt = int64(r.UsageMetadata.PromptTokenCount)
		candidates = int64(r.UsageMetadata.CandidatesTokenCount)
		model = r.ModelVersion
	case *legacygenai.GenerateContentResponse:
		if r == nil || r.UsageMetadata == nil {
			return models.Usage{}, errors.ErrMalformedUsage.WithDetail("Gemini response without usage metadata")
		}
		prompt = int64(r.UsageMetadata.PromptTokenCount)
		candidates = int64(r.UsageMetadata.CandidatesTokenCount)
	case map[string]any:
		meta, ok := subMap(r, "usage_metadata", "usageMetadata")
		if !ok {
			return models.Usage{}, errors.ErrMalformedUsage.WithDetail("Gemini response without usage metadata")
		}
		var err error
		if prompt, _, err = intField(meta, "prompt_token_count", "promptTokenCount"); err != nil {
			return models.Usage{}, err
		}
		if candidates, _, err = intField(meta, "candidates_token_count", "candidatesTokenCount"); err != nil {
			return models.Usage{}, err
		}
		model = stringField(r, "model", "model_version", "modelVersion")
	default:
		return models.Usage{}, errors.ErrProviderDetection.WithDetail("%T is not a Gemini response", resp)
	}

	if model == "" {
		model = DefaultGeminiModel
	}
	return tokenUsage(model, "", prompt, 0, candidates)
}

func openAILLMUsage(resp any, fallbackModel string) (models.Usage, error) {
	switch r := resp.(type) {
	case *responses.Response:
		if r == nil {
			return models.Usage{}, errors.ErrMalformedUsage.WithDetail("nil OpenAI response")
		}
		return openAIResponseUsage(*r, fallbackModel)
	case responses.Response:
		return openAIResponseUsage(r, fallbackModel)
	case map[string]any:
		return openAIMapUsage(r, fallbackModel)
	}
	return models.Usage{}, errors.ErrProviderDetection.WithDetail("%T is not an OpenAI response", resp)
}

func openAIResponseUsage(r responses.Response, fallbackModel string) (models.Usage, error) {
	model := string(r.Model)
	if model == "" {
		model = fallbackModel
	}
	if model == "" {
		return models.Usage{}, errors.ErrMissingModelName.
			WithDetail("response has no model field").
			WithSuggestion("Price the full API response body, it carries the model name")
	}
	return tokenUsage(model, string(r.ServiceTier),
		r.Usage.InputTokens,
		r.Usage.InputTokensDetails.CachedTokens,
		r.Usage.OutputTokens)
}

// openAIMapUsage reads a Responses API body. Chat Completions names
// (prompt_tokens, completion_tokens, prompt_tokens_details) are accepted too.
func openAIMapUsage(m map[string]any, fallbackModel string) (models.Usage, error) {
	model := stringField(m, "model")
	if model == "" {
		model = fallbackModel
	}
	if model == "" {
		return models.Usage{}, errors.ErrMissingModelName.
			WithDetail("response has no model field").
			WithSuggestion("Price the full API response body, it carries the model name")
	}

	usage, ok := subMap(m, "usage")
	if !ok {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("response has no usage")
	}

	input, found, err := intField(usage, "input_tokens", "prompt_tokens")
	if err != nil {
		return models.Usage{}, err
	}
	if !found {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("usage has no input_tokens")
	}
	output, found, err := intField(usage, "output_tokens", "completion_tokens")
	if err != nil {
		return models.Usage{}, err
	}
	if !found {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("usage has no output_tokens")
	}

	var cached int64
	if details, ok := subMap(usage, "input_tokens_details", "prompt_tokens_details"); ok {
		if cached, _, err = intField(details, "cached_tokens"); err != nil {
			return models.Usage{}, err
		}
	}

	return tokenUsage(model, stringField(m, "service_tier"), input, cached, output)
}

func openAISTTUsage(resp any, model string) (models.Usage, error) {
	m, ok := resp.(map[string]any)
	if !ok {
		return models.Usage{}, errors.ErrProviderDetection.WithDetail("%T is not a transcription record", resp)
	}
	if model == "" {
		return models.Usage{}, errors.ErrMissingModelName.
			WithSuggestion("Transcription responses carry no model, pass it with --stt-model")
	}

	usage, ok := subMap(m, "usage")
	if !ok {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("transcription has no usage")
	}
	seconds, found, err := numberField(usage, "seconds")
	if err != nil {
		return models.Usage{}, err
	}
	if !found {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("transcription usage has no seconds")
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return models.Usage{}, errors.ErrMalformedUsage.WithDetail("invalid duration %v", seconds)
	}

	u := models.DurationUsage(seconds)
	u.Model = model
	return u, nil
}

// tokenUsage splits the reported input into its uncached and cached parts.
func tokenUsage(model, tier string, input, cached, output int64) (models.Usage, error) {
	if input < 0 || cached < 0 || output < 0 {
		return models.Usage{}, errors.ErrMalformedUsage.
			WithDetail("negative token count (input=%d cached=%d output=%d)", input, cached, output)
	}
	uncached := input - cached
	if uncached < 0 {
		return models.Usage{}, errors.ErrMalformedUsage.
			WithDetail("cached tokens %d exceed input tokens %d", cached, input)
	}

	u := models.TokenUsage(int(uncached), int(cached), int(output))
	u.Model = model
	u.Tier = tier
	return u, nil
}

func subMap(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numberField(m map[string]any, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true, nil
		case float32:
			return float64(n), true, nil
		case int:
			return float64(n), true, nil
		case int32:
			return float64(n), true, nil
		case int64:
			return float64(n), true, nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return 0, true, errors.ErrMalformedUsage.WithError(err).WithDetail("field %s", k)
			}
			return f, true, nil
		default:
			return 0, true, errors.ErrMalformedUsage.WithDetail("field %s is %T, want a number", k, v)
		}
	}
	return 0, false, nil
}

// intField reads integers without a float round trip. Other numbers must be
// whole and fit in an int64.
func intField(m map[string]any, keys ...string) (int64, bool, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int:
			return int64(n), true, nil
		case int32:
			return int64(n), true, nil
		case int64:
			return n, true, nil
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true, nil
			}
		}

		f, _, err := numberField(m, k)
		if err != nil {
			return 0, true, err
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, true, errors.ErrMalformedUsage.WithDetail("token count %v is not an integer", f)
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, true, errors.ErrMalformedUsage.WithDetail("token count %v is out of range", f)
		}
		return int64(f), true, nil
	}
	return 0, false, nil
}
