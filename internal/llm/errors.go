package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrMissingAPIKey is returned before any network I/O when no key is configured.
	ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set in environment variables.")
	// ErrMalformedResponse is returned when a 2xx body is not valid JSON.
	ErrMalformedResponse = errors.New("provider returned a malformed JSON body")
)

// HTTPError is a non-2xx answer from the provider.
type HTTPError struct {
	StatusCode int
	Reason     string
	URL        string
	// Body is the error body when it is valid JSON, otherwise the raw text
	// encoded as a JSON string.
	Body json.RawMessage
}

func newHTTPError(resp *http.Response, url string, body []byte) *HTTPError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Reason:     reason,
		URL:        url,
		Body:       errorBody(body),
	}
}

func (e *HTTPError) Error() string {
	class := "HTTP Error"
	switch {
	case e.StatusCode >= 400 && e.StatusCode < 500:
		class = "Client Error"
	case e.StatusCode >= 500 && e.StatusCode < 600:
		class = "Server Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, class, e.Reason, e.URL)
}

// errorBody keeps JSON bodies as-is and wraps anything else as a JSON string.
func errorBody(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}

// NetworkError is a transport-level failure: timeout, refused connection, DNS,
// or a body that could not be read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
