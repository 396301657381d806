package xmp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindBadParam
	KindBadValue
	KindInternalFailure
	KindBadSchema
	KindBadXPath
	KindBadOptions
	KindBadIndex
	KindBadSerialize
	KindBadXML
	KindBadRDF
	KindBadXMP
	KindBadStream
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindBadParam:
		return "BADPARAM"
	case KindBadValue:
		return "BADVALUE"
	case KindInternalFailure:
		return "INTERNALFAILURE"
	case KindBadSchema:
		return "BADSCHEMA"
	case KindBadXPath:
		return "BADXPATH"
	case KindBadOptions:
		return "BADOPTIONS"
	case KindBadIndex:
		return "BADINDEX"
	case KindBadSerialize:
		return "BADSERIALIZE"
	case KindBadXML:
		return "BADXML"
	case KindBadRDF:
		return "BADRDF"
	case KindBadXMP:
		return "BADXMP"
	case KindBadStream:
		return "BADSTREAM"
	default:
		return "UNKNOWN"
	}
}

// Error is the single error type returned by the metadata engine
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Errorf builds an *Error of the given kind
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps err as an *Error of the given kind
func WrapError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) ErrorKind {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Kind
	}
	return KindUnknown
}

// Kind sentinels usable with errors.Is.
var (
	ErrBadXPath     = &Error{Kind: KindBadXPath}
	ErrBadRDF       = &Error{Kind: KindBadRDF}
	ErrBadXMP       = &Error{Kind: KindBadXMP}
	ErrBadSchema    = &Error{Kind: KindBadSchema}
	ErrBadParam     = &Error{Kind: KindBadParam}
	ErrBadOptions   = &Error{Kind: KindBadOptions}
	ErrBadValue     = &Error{Kind: KindBadValue}
	ErrBadIndex     = &Error{Kind: KindBadIndex}
	ErrBadSerialize = &Error{Kind: KindBadSerialize}
	ErrBadStream    = &Error{Kind: KindBadStream}
	ErrBadXML       = &Error{Kind: KindBadXML}
)
