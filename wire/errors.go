package wire

import (
	"errors"
	"fmt"
	"strconv"
)

// Error types for control protocol decoding.
// Like the rest of this package they carry enough state for a transport
// to decide whether the connection can still be used.

// ErrIncomplete is matched by every *IncompleteError.
//
//	if errors.Is(err, wire.ErrIncomplete) {
//	    // read more bytes and call again with the longer buffer
//	}
var ErrIncomplete = errors.New("wire: incomplete reply")

// IncompleteError means the buffer ends before the reply does.
// It is not a failure: the caller must retry with more bytes.
type IncompleteError struct {
	// Needed is the minimum number of extra bytes required, or 0 when the
	// decoder cannot tell (e.g. while scanning for a terminator).
	Needed int
}

func (e *IncompleteError) Error() string {
	if e.Needed > 0 {
		return "wire: incomplete reply: need " + strconv.Itoa(e.Needed) + " more bytes"
	}
	return ErrIncomplete.Error()
}

// Is makes errors.Is(err, ErrIncomplete) true.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// ShouldCloseConnection returns false - the stream is intact, just short
func (e *IncompleteError) ShouldCloseConnection() bool {
	return false
}

func incomplete(needed int) error {
	return &IncompleteError{Needed: needed}
}

// IsIncomplete reports whether err means "retry later with more bytes".
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// ErrorKind classifies malformed input.
type ErrorKind uint8

const (
	// MalformedStatusCode: the line does not start with exactly 3 ASCII digits
	MalformedStatusCode ErrorKind = iota + 1
	// MalformedSeparator: the byte after the code is not ' ', '-' or '+'
	MalformedSeparator
	// InvalidEncoding: reply text that must be UTF-8 is not
	InvalidEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedStatusCode:
		return "malformed status code"
	case MalformedSeparator:
		return "malformed separator"
	case InvalidEncoding:
		return "invalid encoding"
	default:
		return "unknown error"
	}
}

// ParseError reports bytes that can never become a valid reply, however
// many more bytes arrive.
//
// Connection handling: the stream position is lost, CLOSE the connection
type ParseError struct {
	Kind ErrorKind
	// Offset is the position in the decoded buffer where the problem was found
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: %s at offset %d", e.Kind, e.Offset)
}

// ShouldCloseConnection returns true - the reply stream is out of sync
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// Sentinel errors for well-known failure status codes.
// A *ReplyError wraps one of these when its code is known.
var (
	ErrOperationUnnecessary = errors.New("operation was unnecessary")
	ErrResourceExhausted    = errors.New("resource exhausted")
	ErrSyntax               = errors.New("syntax error: protocol")
	ErrUnrecognizedCommand  = errors.New("unrecognized command")
	ErrUnimplementedCommand = errors.New("unimplemented command")
	ErrSyntaxArgument       = errors.New("syntax error in command argument")
	ErrUnrecognizedArgument = errors.New("unrecognized command argument")
	ErrAuthRequired         = errors.New("authentication required")
	ErrBadAuthentication    = errors.New("bad authentication")
	ErrUnspecified          = errors.New("unspecified error")
	ErrInternal             = errors.New("internal error")
	ErrUnrecognizedEntity   = errors.New("unrecognized entity")
	ErrInvalidConfigValue   = errors.New("invalid configuration value")
	ErrInvalidDescriptor    = errors.New("invalid descriptor")
	ErrUnmanagedEntity      = errors.New("unmanaged entity")
	ErrUnknownStatus        = errors.New("unknown status code")
)

var statusErrors = map[StatusCode]error{
	StatusOperationUnnecessary: ErrOperationUnnecessary,
	StatusResourceExhausted:    ErrResourceExhausted,
	StatusSyntaxError:          ErrSyntax,
	StatusUnrecognizedCommand:  ErrUnrecognizedCommand,
	StatusUnimplementedCommand: ErrUnimplementedCommand,
	StatusSyntaxErrorArgument:  ErrSyntaxArgument,
	StatusUnrecognizedArgument: ErrUnrecognizedArgument,
	StatusAuthRequired:         ErrAuthRequired,
	StatusBadAuthentication:    ErrBadAuthentication,
	StatusUnspecified:          ErrUnspecified,
	StatusInternalError:        ErrInternal,
	StatusUnrecognizedEntity:   ErrUnrecognizedEntity,
	StatusInvalidConfigValue:   ErrInvalidConfigValue,
	StatusInvalidDescriptor:    ErrInvalidDescriptor,
	StatusUnmanagedEntity:      ErrUnmanagedEntity,
}

// ReplyError is a well-formed reply whose status code is not a success.
// The daemon answered, so the connection can be REUSED.
type ReplyError struct {
	Code    StatusCode
	Message string
}

func (e *ReplyError) Error() string {
	return strconv.Itoa(int(e.Code)) + " " + e.Message
}

// Unwrap returns the sentinel error for the status code.
func (e *ReplyError) Unwrap() error {
	if err, ok := statusErrors[e.Code]; ok {
		return err
	}
	return ErrUnknownStatus
}

// ShouldCloseConnection returns false - failure replies keep the stream in sync
func (e *ReplyError) ShouldCloseConnection() bool {
	return false
}

// ErrorWithConnectionState is implemented by every error type of this
// package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns false for nil, *IncompleteError and *ReplyError. Unknown error
// types are treated conservatively and return true.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}

// ErrMalformedChallenge is returned by AuthChallengeReply.Err when a
// success reply lacks a usable server hash or nonce.
var ErrMalformedChallenge = errors.New("wire: malformed AUTHCHALLENGE reply")
