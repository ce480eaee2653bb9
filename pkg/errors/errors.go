package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies a QueryError.
type Kind string

const (
	// KindAborted means the compiler proved the result empty without querying.
	KindAborted Kind = "aborted"
	// KindConfiguration means the caller set parameters that cannot be honored.
	KindConfiguration Kind = "configuration"
	// KindUpstream means a required collaborator was unavailable.
	KindUpstream Kind = "upstream"
)

// ErrAborted matches every aborted query via errors.Is.
var ErrAborted = stderrors.New("query aborted")

// QueryError is returned by the query compiler and its stages.
type QueryError struct {
	Kind        Kind
	Param       string
	ElementType string
	Dependency  string
	Message     string
	cause       error
}

// Abort creates an aborted-query signal.
func Abort(reason string) *QueryError {
	return &QueryError{Kind: KindAborted, Message: reason}
}

// Abortf creates an aborted-query signal with a formatted reason.
func Abortf(format string, args ...any) *QueryError {
	return Abort(fmt.Sprintf(format, args...))
}

// NewConfigurationError creates a caller-misuse error.
func NewConfigurationError(msg string) *QueryError {
	return &QueryError{Kind: KindConfiguration, Message: msg}
}

// NewConfigurationErrorf creates a caller-misuse error with a formatted message.
func NewConfigurationErrorf(format string, args ...any) *QueryError {
	return NewConfigurationError(fmt.Sprintf(format, args...))
}

// NewUpstreamError reports that dependency was required but unavailable.
func NewUpstreamError(dependency string, msg string) *QueryError {
	return &QueryError{Kind: KindUpstream, Dependency: dependency, Message: msg}
}

// WrapUpstreamError wraps a collaborator failure.
func WrapUpstreamError(dependency string, err error) *QueryError {
	if err == nil {
		return nil
	}
	return &QueryError{Kind: KindUpstream, Dependency: dependency, Message: err.Error(), cause: err}
}

func (e *QueryError) Error() string {
	path := []string{}
	if e.ElementType != "" {
		path = append(path, fmt.Sprintf("element type '%s'", e.ElementType))
	}
	if e.Param != "" {
		path = append(path, fmt.Sprintf("param '%s'", e.Param))
	}
	if e.Dependency != "" {
		path = append(path, fmt.Sprintf("dependency '%s'", e.Dependency))
	}

	msg := e.Message
	if e.Kind == KindAborted {
		msg = "query aborted: " + msg
	}

	if len(path) == 0 {
		return msg
	}
	return strings.Join(path, " -> ") + ": " + msg
}

func (e *QueryError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, ErrAborted) match aborted query errors.
func (e *QueryError) Is(target error) bool {
	return target == ErrAborted && e.Kind == KindAborted
}

func (e *QueryError) AddParam(param string) *QueryError {
	e.Param = param
	return e
}

func (e *QueryError) AddElementType(elementType string) *QueryError {
	e.ElementType = elementType
	return e
}

// ToHTTPError converts the error for HTTP-speaking callers.
func (e *QueryError) ToHTTPError() *httperror.HTTPError {
	code := http.StatusInternalServerError
	switch e.Kind {
	case KindConfiguration:
		code = http.StatusBadRequest
	case KindUpstream:
		code = http.StatusServiceUnavailable
	case KindAborted:
		code = http.StatusNoContent
	}
	return httperror.NewHTTPError(code, e.Error()).
		AddMetaValue("kind", string(e.Kind)).
		AddMetaValue("param", e.Param).
		AddMetaValue("element_type", e.ElementType)
}

// IsQueryError reports whether err is, or wraps, a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return stderrors.As(err, &qe)
}

// IsAborted reports whether err is an aborted-query signal.
func IsAborted(err error) bool {
	return stderrors.Is(err, ErrAborted)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return kindOf(err) == KindConfiguration
}

// IsUpstream reports whether err is an upstream dependency error.
func IsUpstream(err error) bool {
	return kindOf(err) == KindUpstream
}

func kindOf(err error) Kind {
	var qe *QueryError
	if stderrors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}
