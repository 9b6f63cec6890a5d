package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultChatTimeout     = 30 * time.Second
	defaultChatTemperature = 0.2
	defaultMaxTokens       = 512
	systemPrompt           = "You are a helpful assistant."
)

// Settings configures a ChatClient.
type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ChatClient posts to <BaseURL>/chat/completions with a bearer token.
type ChatClient struct {
	apiKey   string
	endpoint string
	model    string
	client   *openai.Client
}

// NewChatClient builds a client. A missing API key is reported per call so
// that callers can surface it as a result instead of failing at startup.
func NewChatClient(s Settings) *ChatClient {
	base := strings.TrimRight(s.BaseURL, "/") + "/"
	cli := openai.NewClient(
		option.WithAPIKey(s.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	)
	return &ChatClient{
		apiKey:   s.APIKey,
		endpoint: base + "chat/completions",
		model:    s.Model,
		client:   &cli,
	}
}

// Endpoint returns the chat-completions URL requests are sent to.
func (c *ChatClient) Endpoint() string {
	return c.endpoint
}

// ChatCompletion issues one POST and returns the raw JSON body on 2xx.
func (c *ChatClient) ChatCompletion(ctx context.Context, question, model string, timeout time.Duration) (json.RawMessage, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil chat client")
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = c.model
	}
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// A **http.Response destination skips typed decoding and is filled
	// before the status check, so error bodies stay readable.
	var resp *http.Response
	err := c.client.Post(reqCtx, "chat/completions", buildParams(question, model), &resp)
	if resp == nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.Response != nil {
			resp = apiErr.Response
		}
	}
	if resp == nil {
		if err == nil {
			err = errors.New("empty response")
		}
		if ctxErr := reqCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &NetworkError{Err: readErr}
	}

	// openai-go only reports >= 400; 1xx and 3xx are mapped here.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp, c.endpoint, respBody)
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, truncate(string(respBody), 200))
	}
	return json.RawMessage(respBody), nil
}

func buildParams(question, model string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    buildMessages(systemPrompt, question),
		Temperature: openai.Float(defaultChatTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	}
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
