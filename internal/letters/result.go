package letters

import "errors"

// Kind distinguishes the three outcomes of a generation attempt.
type Kind int

const (
	// KindGenerated means the upstream model produced the letter.
	KindGenerated Kind = iota
	// KindFellBack means the deterministic template was used instead.
	KindFellBack
	// KindFailed means no letter is returned and the caller must report an error.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindGenerated:
		return "generated"
	case KindFellBack:
		return "fallback"
	case KindFailed:
		return "failed"
	}
	return "unknown"
}

// FallbackReason records why the template was used.
type FallbackReason string

// Fallback reasons.
const (
	ReasonNoCredentials     FallbackReason = "no_credentials"
	ReasonUpstreamError     FallbackReason = "upstream_error"
	ReasonPromptUnavailable FallbackReason = "prompt_unavailable"
)

// FailureKind classifies a failed generation.
type FailureKind string

// Failure kinds.
const (
	FailureAuthentication      FailureKind = "authentication_failure"
	FailureUpstreamRateLimited FailureKind = "upstream_rate_limited"
	FailureEmptyResponse       FailureKind = "empty_upstream_response"
)

// ErrEmptyResponse is the cause recorded for FailureEmptyResponse.
var ErrEmptyResponse = errors.New("upstream returned an empty letter")

// Result is the outcome of Generator.Generate.
type Result struct {
	Kind    Kind
	Text    string
	Reason  FallbackReason // set when Kind is KindFellBack
	Failure FailureKind    // set when Kind is KindFailed
	Err     error          // upstream cause, if any
}

// Generated wraps a letter produced by the upstream model.
func Generated(text string) Result {
	return Result{Kind: KindGenerated, Text: text}
}

// FellBack wraps a template letter and the reason it was used.
func FellBack(text string, reason FallbackReason, cause error) Result {
	return Result{Kind: KindFellBack, Text: text, Reason: reason, Err: cause}
}

// Failed reports a generation that must surface as an error.
func Failed(kind FailureKind, cause error) Result {
	return Result{Kind: KindFailed, Failure: kind, Err: cause}
}

// OK reports whether the result carries a letter.
func (r Result) OK() bool {
	return r.Kind != KindFailed && r.Text != ""
}
