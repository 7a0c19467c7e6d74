package models

import "errors"

// Custom errors
var (
	// ErrArtifactMissing indicates a model or calibrator artifact is absent;
	// the depending stage is skipped, never fatal
	ErrArtifactMissing = errors.New("artifact missing")

	// ErrCacheUnavailable indicates the cache store failed or its breaker
	// is open; the cache is bypassed transparently
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrDeadlineExceeded indicates the request budget is exhausted
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrCircuitOpen indicates a guarded call was rejected without
	// invoking the wrapped function
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrCorruptCacheRow indicates an unparseable cached payload;
	// treated as a miss and deleted
	ErrCorruptCacheRow = errors.New("corrupt cache row")

	// ErrMalformedInput indicates non-finite or non-normalizable
	// probabilities; the distribution resets to uniform
	ErrMalformedInput = errors.New("malformed input")

	// ErrModelUnavailable indicates an estimator could not score the
	// match and signalled absence rather than raising
	ErrModelUnavailable = errors.New("model unavailable")
)
