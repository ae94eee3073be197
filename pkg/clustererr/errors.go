// Package clustererr defines the error kinds the core raises (spec §7):
// ConfigError, AdapterError, NetworkError, StateError, AuthError, Cancelled,
// and Internal. Each kind carries enough context for the orchestrator to
// decide whether to retry and for the end-of-run summary to report it.
package clustererr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error for retry and reporting decisions.
type Kind string

const (
	Config  Kind = "ConfigError"
	Adapter Kind = "AdapterError"
	Network Kind = "NetworkError"
	State   Kind = "StateError"
	Auth    Kind = "AuthError"
	Cancel  Kind = "Cancelled"
	Intern  Kind = "Internal"
)

// Error is a tagged error carrying its Kind and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Machine string // optional: the machine this error is attached to
	Msg     string
	Cause   error
}

func (e *Error) Error() string {
	if e.Machine != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Machine, e.Msg, e.Cause)
		}
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Machine, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// ConfigError reports bad YAML, unresolved extends, cycles, or unknown keys.
func ConfigError(format string, args ...interface{}) *Error { return newf(Config, format, args...) }

// WrapConfig attaches Config kind to an underlying parse/merge error.
func WrapConfig(cause error, format string, args ...interface{}) *Error {
	return wrapf(Config, cause, format, args...)
}

// AdapterError reports a tool invocation failure: not found, non-zero exit,
// or unparseable output.
func AdapterError(format string, args ...interface{}) *Error { return newf(Adapter, format, args...) }

// WrapAdapter attaches Adapter kind to an underlying exec error.
func WrapAdapter(cause error, format string, args ...interface{}) *Error {
	return wrapf(Adapter, cause, format, args...)
}

// NetworkError reports ssh timeouts or unreachable hosts.
func NetworkError(format string, args ...interface{}) *Error { return newf(Network, format, args...) }

// WrapNetwork attaches Network kind to an underlying transport error.
func WrapNetwork(cause error, format string, args ...interface{}) *Error {
	return wrapf(Network, cause, format, args...)
}

// StateErr reports an invalid lifecycle transition or marker inconsistency.
func StateErr(format string, args ...interface{}) *Error { return newf(State, format, args...) }

// AuthErr reports a registry login failure. Never retried.
func AuthErr(format string, args ...interface{}) *Error { return newf(Auth, format, args...) }

// WrapAuth attaches Auth kind to an underlying login error.
func WrapAuth(cause error, format string, args ...interface{}) *Error {
	return wrapf(Auth, cause, format, args...)
}

// Internal reports a programmer error or unexpected invariant violation.
func Internal(format string, args ...interface{}) *Error { return newf(Intern, format, args...) }

// ErrCancelled is returned (wrapped) when a context is cancelled mid-operation.
var ErrCancelled = &Error{Kind: Cancel, Msg: "operation cancelled"}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// transientPatterns are substrings that mark an AdapterError as transient and
// thus eligible for retry (spec §7); every NetworkError is transient.
var transientPatterns = []string{
	"connection refused",
	"i/o timeout",
	"VM is restarting",
	"no route to host",
	"EOF",
	"temporary failure",
}

// IsTransient reports whether err is retry-eligible: any NetworkError, or an
// AdapterError matching the known-transient pattern set in spec §7. AuthError
// is never transient.
func IsTransient(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case Network:
		return true
	case Adapter:
		msg := err.Error()
		for _, p := range transientPatterns {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
