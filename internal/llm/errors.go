package llm

import (
	"errors"
	"fmt"
)

// maxErrorBody bounds the upstream body kept on an HTTPError.
const maxErrorBody = 2048

var (
	// ErrUpstreamUnavailable is returned on connection errors, timeouts and
	// cancellation of the outbound call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamHTTP matches any *HTTPError.
	ErrUpstreamHTTP = errors.New("upstream http error")

	// ErrUpstreamResponseMalformed is returned when the provider answers
	// with a body that is not valid JSON.
	ErrUpstreamResponseMalformed = errors.New("upstream response malformed")
)

// HTTPError is returned when the provider answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func newHTTPError(status int, body []byte) *HTTPError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPError{StatusCode: status, Body: string(body)}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is ErrUpstreamHTTP.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUpstreamHTTP
}

// IsUpstream reports whether err came from the AI provider call.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamHTTP) ||
		errors.Is(err, ErrUpstreamResponseMalformed)
}

// ErrorClass names the kind of provider failure without any upstream text,
// for example "http_error:502". It is safe to publish.
func ErrorClass(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("http_error:%d", httpErr.StatusCode)
	}
	return outcomeOf(err)
}
