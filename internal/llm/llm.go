package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Client sends a single question to an OpenAI-compatible chat-completions
// endpoint and returns the provider's JSON body untouched.
type Client interface {
	ChatCompletion(ctx context.Context, question, model string, timeout time.Duration) (json.RawMessage, error)
}
