// Package completion holds the chat completion result model.
package completion

import (
	"errors"
)

// NoResponseText is the legacy rendering of a reply without choices.
const NoResponseText = "No response generated."

// Kind classifies a completion failure.
type Kind string

// Failure kinds.
const (
	KindSecret    Kind = "secret"
	KindTransport Kind = "transport"
	KindDecode    Kind = "decode"
	KindUpstream  Kind = "upstream"
	KindNoChoices Kind = "no_choices"
)

// Result is either a reply (OK) or a failure with a kind and message.
type Result struct {
	ok      bool
	text    string
	kind    Kind
	message string
}

// Success creates a successful result carrying the reply text.
func Success(text string) Result {
	return Result{ok: true, text: text}
}

// Failure creates a failed result.
func Failure(kind Kind, message string) Result {
	return Result{kind: kind, message: message}
}

// NoChoices creates the failure returned when the provider sent no choices.
func NoChoices() Result {
	return Failure(KindNoChoices, NoResponseText)
}

// OK reports whether the result carries a reply.
func (r Result) OK() bool { return r.ok }

// Text returns the reply text. Empty for failures.
func (r Result) Text() string { return r.text }

// Kind returns the failure kind. Empty for successes.
func (r Result) Kind() Kind { return r.kind }

// Message returns the failure message. Empty for successes.
func (r Result) Message() string { return r.message }

// String renders the result the way the legacy string-only entry point did:
// the reply, the no-response sentinel, or "Error: <message>".
func (r Result) String() string {
	switch {
	case r.ok:
		return r.text
	case r.kind == KindNoChoices:
		return NoResponseText
	default:
		return "Error: " + r.message
	}
}

// Error is a classified provider failure. Its message is the cause's message unchanged.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, defaulting to KindTransport.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransport
}
