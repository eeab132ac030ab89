package advisor

import "errors"

// ErrQuotaExceeded indicates the model provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("advisor quota exceeded")

// ErrNotConfigured indicates no API credential was supplied; callers short-circuit to empty results.
var ErrNotConfigured = errors.New("advisor not configured")
