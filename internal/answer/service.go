package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"llm-qa/internal/llm"
	"llm-qa/internal/metrics"
	"llm-qa/internal/textnorm"
)

// Options overrides the service defaults for one call. Zero values keep the defaults.
type Options struct {
	Model   string
	Timeout time.Duration
}

// Service answers questions through an llm.Client.
type Service struct {
	llm      llm.Client
	log      *slog.Logger
	defaults Options
}

// NewService builds a Service with a default model and provider timeout.
func NewService(client llm.Client, model string, timeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		llm: client,
		log: log,
		defaults: Options{
			Model:   model,
			Timeout: timeout,
		},
	}
}

// Model returns the default model.
func (s *Service) Model() string {
	return s.defaults.Model
}

// GetAnswer validates the question, sends it unmodified to the provider and
// packages the outcome. It never returns an error; failures are tagged in
// the Result.
func (s *Service) GetAnswer(ctx context.Context, question string, opts Options) (res Result) {
	merged := s.merge(opts)
	res.ID = uuid.NewString()
	res.Model = merged.Model
	log := s.log.With("call_id", res.ID, "model", merged.Model)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic recovered", "panic", rec)
			res = failed(res, KindUnexpected, nil, fmt.Sprint(rec))
		}
		metrics.AnswersTotal.WithLabelValues(outcome(res)).Inc()
	}()

	if strings.TrimSpace(question) == "" {
		return failed(res, KindValidation, nil, EmptyQuestionMessage)
	}

	// Metadata only: the provider always receives the original question.
	norm := textnorm.Normalize(question)

	start := time.Now()
	raw, err := s.llm.ChatCompletion(ctx, question, merged.Model, merged.Timeout)
	metrics.ProviderRequestDuration.WithLabelValues(merged.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		kind, body, msg := classify(err)
		log.Warn("provider call failed", "kind", kind, "err", err)
		return failed(res, kind, body, msg)
	}

	res.OK = true
	res.Answer = llm.ExtractAnswer(raw)
	res.Raw = raw
	res.Preprocessed = &norm
	log.Info("answer ready", "tokens", len(norm.Tokens), "answer_chars", len(res.Answer))
	return res
}

func (s *Service) merge(opts Options) Options {
	out := s.defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Timeout > 0 {
		out.Timeout = opts.Timeout
	}
	return out
}

// classify maps a provider client error to a Kind, the raw body to surface
// and the user-facing message.
func classify(err error) (Kind, []byte, string) {
	var httpErr *llm.HTTPError
	var netErr *llm.NetworkError
	switch {
	case errors.As(err, &httpErr):
		return KindProviderHTTP, httpErr.Body, "Provider HTTP error: " + httpErr.Error()
	case errors.Is(err, llm.ErrMissingAPIKey):
		return KindConfiguration, nil, err.Error()
	case errors.As(err, &netErr):
		return KindNetwork, nil, err.Error()
	default:
		return KindUnexpected, nil, err.Error()
	}
}

func failed(res Result, kind Kind, raw []byte, msg string) Result {
	res.OK = false
	res.Answer = ""
	res.Raw = raw
	res.Error = msg
	res.Kind = kind
	res.Preprocessed = nil
	return res
}

func outcome(res Result) string {
	if res.OK {
		return "ok"
	}
	return string(res.Kind)
}
