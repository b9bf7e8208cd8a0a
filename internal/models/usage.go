package models

// Provider identifies the vendor whose pricing table applies to a response.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Shape is the closed set of response layouts the extractor knows how to read.
type Shape string

const (
	ShapeOpenAILLM Shape = "openai_llm"
	ShapeOpenAISTT Shape = "openai_stt"
	ShapeGemini    Shape = "gemini"
)

// Provider returns the pricing namespace of the shape.
func (s Shape) Provider() Provider {
	if s == ShapeGemini {
		return ProviderGemini
	}
	return ProviderOpenAI
}

type UsageKind int

const (
	UsageTokens UsageKind = iota
	UsageDuration
)

func (k UsageKind) String() string {
	if k == UsageDuration {
		return "duration"
	}
	return "tokens"
}

// Usage is the provider-agnostic record a price is computed from. Token
// fields are only meaningful for UsageTokens, DurationSeconds only for
// UsageDuration.
type Usage struct {
	Kind              UsageKind `json:"kind"`
	InputTokens       int       `json:"input_tokens,omitempty"`
	CachedInputTokens int       `json:"cached_input_tokens,omitempty"`
	OutputTokens      int       `json:"output_tokens,omitempty"`
	DurationSeconds   float64   `json:"duration_seconds,omitempty"`

	Shape Shape  `json:"shape"`
	Model string `json:"model"`
	Tier  string `json:"tier,omitempty"`
}

// TokenUsage builds a token based usage record.
func TokenUsage(input, cached, output int) Usage {
	return Usage{
		Kind:              UsageTokens,
		InputTokens:       input,
		CachedInputTokens: cached,
		OutputTokens:      output,
	}
}

// DurationUsage builds a duration based usage record.
func DurationUsage(seconds float64) Usage {
	return Usage{
		Kind:            UsageDuration,
		DurationSeconds: seconds,
	}
}

// TotalTokens is the number of billed tokens, cached included.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.CachedInputTokens + u.OutputTokens
}
