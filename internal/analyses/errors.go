package analyses

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownKind    = errors.New("unknown analysis kind")
	ErrInvalidAppID   = errors.New("invalid app id")
	ErrInvalidOptions = errors.New("invalid analysis options")
	ErrNoReviews      = errors.New("no reviews to analyse")

	// ErrSchemaMismatch wraps model output that does not fit the kind's shape.
	ErrSchemaMismatch = errors.New("llm output schema mismatch")
)

const (
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeUpstream          = "UPSTREAM_ERROR"
	ErrorCodeNoReviews         = "NO_REVIEWS"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)
