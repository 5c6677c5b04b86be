package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spigell/cv-refiner/internal/utils"
)

// ErrRateLimited is wrapped by backends when the provider asks the caller to slow down.
var ErrRateLimited = errors.New("rate limited by model provider")

// Generator sends one system instruction plus one user prompt to a model and returns its text.
type Generator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// StatusError is a non-2xx response from a model provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model provider returned status %d: %s", e.Code, utils.TruncateForLog(e.Body, 300))
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// IsRateLimited reports whether err carries a rate limit signal.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

// IsPermanent reports whether err is a client-side rejection that retries cannot fix.
func IsPermanent(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}
