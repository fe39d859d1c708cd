package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and
// wraps it with kind. Rate limiting, 5xx and deadlines are also marked
// domain.ErrProviderTransient so callers retry them.
func parseAPIError(err error, kind error, what string) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return wrapStatus(reqErr.HTTPStatusCode,
			fmt.Errorf("%s API error %d: %s: %w", what, reqErr.HTTPStatusCode, detail, kind))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return wrapStatus(apiErr.HTTPStatusCode,
			fmt.Errorf("%s API error %d: %s: %w", what, apiErr.HTTPStatusCode, apiErr.Message, kind))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out: %w: %w", what, kind, domain.ErrProviderTransient)
	}

	return fmt.Errorf("%s request failed: %w: %w", what, kind, err)
}

func wrapStatus(status int, err error) error {
	if IsTransientStatus(status) {
		return fmt.Errorf("%w: %w", err, domain.ErrProviderTransient)
	}
	return err
}

// IsTransientStatus reports whether an HTTP status is worth a retry.
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
