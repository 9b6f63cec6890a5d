// Package answer turns a question into a uniform Result. Every failure of
// the provider call is recovered here and reported through Result.Kind, so
// callers only need to inspect Result.OK.
package answer

import (
	"encoding/json"

	"llm-qa/internal/textnorm"
)

// Kind tags why a Result is not OK.
type Kind string

const (
	KindNone          Kind = ""
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindNetwork       Kind = "network"
	KindProviderHTTP  Kind = "provider_http"
	KindUnexpected    Kind = "unexpected"
)

// EmptyQuestionMessage is the Result.Error of a blank question.
const EmptyQuestionMessage = "Empty question."

// Upstream reports whether the failure came from the provider or the
// network between us and it.
func (k Kind) Upstream() bool {
	return k == KindNetwork || k == KindProviderHTTP
}

// Result is the outcome of one GetAnswer call.
type Result struct {
	OK     bool
	Answer string
	// Raw is the provider body on success, the provider error body on an
	// HTTP failure, and nil otherwise.
	Raw   json.RawMessage
	Error string
	Kind  Kind
	// Model is the model the question was sent to.
	Model string
	// ID correlates the call's log lines.
	ID           string
	Preprocessed *textnorm.Normalized
}

// MarshalJSON renders the result with null raw/error when absent.
func (r Result) MarshalJSON() ([]byte, error) {
	var errMsg *string
	if r.Error != "" {
		errMsg = &r.Error
	}
	return json.Marshal(struct {
		OK           bool                 `json:"ok"`
		Answer       string               `json:"answer"`
		Raw          json.RawMessage      `json:"raw"`
		Error        *string              `json:"error"`
		Kind         Kind                 `json:"kind,omitempty"`
		Model        string               `json:"model,omitempty"`
		ID           string               `json:"id,omitempty"`
		Preprocessed *textnorm.Normalized `json:"preprocessed,omitempty"`
	}{r.OK, r.Answer, r.Raw, errMsg, r.Kind, r.Model, r.ID, r.Preprocessed})
}
