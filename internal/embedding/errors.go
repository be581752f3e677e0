package embedding

import "errors"

var (
	// ErrEmptyText is returned when the text is empty after trimming. It never reaches a provider.
	ErrEmptyText = errors.New("embedding text is empty")
	// ErrAuthentication means the credential is missing or was rejected. Not retryable.
	ErrAuthentication = errors.New("embedding provider authentication failed")
	// ErrRateLimited means the provider throttled the request. Retryable.
	ErrRateLimited = errors.New("embedding provider rate limited")
	// ErrTransient covers network failures and provider-side 5xx responses. Retryable.
	ErrTransient = errors.New("embedding provider transient failure")
	// ErrProvider means the provider answered with something unusable. Not retryable.
	ErrProvider = errors.New("embedding provider error")
	// ErrUnavailable is returned once retries for a retryable failure are exhausted.
	ErrUnavailable = errors.New("embedding provider unavailable")
)

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// IsUnconfigured reports whether err stems from a missing or invalid credential.
func IsUnconfigured(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsUnavailable reports whether err means the provider cannot currently serve requests,
// either because it is unreachable or because it is not configured.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || IsUnconfigured(err)
}

// Kind returns a short label for err, for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrEmptyText):
		return "empty_text"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrProvider):
		return "provider"
	default:
		return "unknown"
	}
}
