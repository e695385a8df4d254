package nestform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/nestform/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnsupportedKey  = "unsupported_key"
	CodeValueBeforeKey  = "value_before_key"
	CodeDepthExceeded   = "depth_exceeded"
	CodeUnsupportedType = "unsupported_type"
	// Reference decoder
	CodeMalformedKey = "malformed_key"
	CodeConflict     = "conflict"
	// Document sources
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
)

// Sentinels matched by errors.Is against an *Error of the same code.
var (
	ErrUnsupportedKeyType = errors.New("unsupported key type for nested form key")
	ErrValueBeforeKey     = errors.New("value serialized before key")
	ErrDepthExceeded      = errors.New("max depth exceeded")
	ErrUnsupportedType    = errors.New("unsupported type")
	ErrMalformedKey       = errors.New("malformed bracket key")
	ErrConflict           = errors.New("conflicting key path")
	ErrParse              = errors.New("parse error")
	ErrDuplicateKey       = errors.New("duplicate key")
)

var _sentinels = map[string]error{
	CodeUnsupportedKey:  ErrUnsupportedKeyType,
	CodeValueBeforeKey:  ErrValueBeforeKey,
	CodeDepthExceeded:   ErrDepthExceeded,
	CodeUnsupportedType: ErrUnsupportedType,
	CodeMalformedKey:    ErrMalformedKey,
	CodeConflict:        ErrConflict,
	CodeParseError:      ErrParse,
	CodeDuplicateKey:    ErrDuplicateKey,
}

// Error is the single error type returned by the encoder, the reference
// decoder and the document sources.
type Error struct {
	Code string // One of the codes listed above.
	// Path is the bracket key prefix where the failure happened ("" at the
	// top level).
	Path string
	// Kind is the offending node kind, when one applies (for example the
	// kind of a rejected map key).
	Kind    Kind
	Message string
	Cause   error // Optional: underlying error.
}

// Error renders "message (kind) at path".
func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString("nestform: ")
	b.WriteString(e.Message)
	if e.Code == CodeUnsupportedKey || e.Code == CodeUnsupportedType {
		fmt.Fprintf(b, " (%s)", e.Kind)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %q", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the code sentinel and the cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if s, ok := _sentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewError builds an *Error with the translated message for code.
func NewError(code, path string, kind Kind) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Kind:    kind,
		Message: i18n.T(code, map[string]string{"kind": kind.String()}),
	}
}

// AsError extracts an *Error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
