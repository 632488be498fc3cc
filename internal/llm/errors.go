package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/solatis/policykeeper/internal/types"
)

// APIError is a non-success response from the text-generation service.
type APIError struct {
	StatusCode int
	Status     string // service status string, e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("text generation api: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("text generation api: %d: %s", e.StatusCode, e.Message)
}

// rateLimitKeywords match throttling reported only in free text.
// The service is inconsistent about status codes, so both signals are checked.
var rateLimitKeywords = []string{
	"rate limit",
	"rate-limit",
	"ratelimit",
	"quota",
	"too many requests",
	"resource exhausted",
	"resource_exhausted",
	"429",
}

// IsRateLimit reports whether err signals throttling by status code or message keyword.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range rateLimitKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// Classify wraps a transport error as types.ErrRateLimited or types.ErrUpstream.
// The original error stays in the chain so context cancellation remains detectable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrRateLimited) || errors.Is(err, types.ErrUpstream) {
		return err
	}
	if IsRateLimit(err) {
		return fmt.Errorf("%w: %w", types.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", types.ErrUpstream, err)
}
