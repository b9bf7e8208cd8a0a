package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypePricing       ErrorType = "PRICING"
	TypeUsage         ErrorType = "USAGE"
	TypeProvider      ErrorType = "PROVIDER"
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if detail, ok := e.Context["detail"].(string); ok && detail != "" {
			msg += fmt.Sprintf(" - %s", detail)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same kind of AppError. The With*
// builders return copies, so identity alone would never match a sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

// WithDetail is shorthand for WithContext("detail", ...), the one context
// entry that Error() prints.
func (e *AppError) WithDetail(format string, args ...interface{}) *AppError {
	return e.WithContext("detail", fmt.Sprintf(format, args...))
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Pricing errors
var (
	ErrUnknownModel = NewAppError(TypePricing, "unknown model", nil).
			WithSuggestion("List known models with: llmcost pricing list")

	ErrUnknownTier = NewAppError(TypePricing, "service tier not available for model", nil).
			WithSuggestion("Check the tiers listed for the model: llmcost pricing list")

	ErrCurrencyMismatch = NewAppError(TypePricing, "cannot add prices with different currencies", nil)

	ErrCatalogInvalid = NewAppError(TypeInternal, "pricing catalog is invalid", nil)
)

// Usage errors
var (
	ErrMissingModelName = NewAppError(TypeUsage, "model name is required", nil).
				WithSuggestion("Name the model the usage was billed for")

	ErrMalformedUsage = NewAppError(TypeUsage, "malformed usage counters", nil)

	ErrReadResponse = NewAppError(TypeUsage, "failed to read response", nil).
			WithSuggestion("Responses must be JSON objects, one per file")
)

// Provider errors
var (
	ErrProviderDetection = NewAppError(TypeProvider, "unable to determine provider from response", nil).
				WithSuggestion("Specify the provider explicitly: --provider openai|gemini")

	ErrUnsupportedProvider = NewAppError(TypeProvider, "provider not supported", nil).
				WithSuggestion("Supported providers: openai, gemini")
)

// Configuration errors
var (
	ErrConfigInvalid = NewAppError(TypeConfiguration, "configuration is invalid", nil).
				WithSuggestion("Inspect it with: llmcost config show")
)
