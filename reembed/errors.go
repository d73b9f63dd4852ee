package reembed

import "errors"

// ErrInvalidMaxAttempts is returned when RetryWithBackoff is called with a
// non-positive attempt count.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
