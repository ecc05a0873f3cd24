package wire

import "unicode/utf8"

// Reply decodes the response to one command. There is one implementation
// per response shape; Command.NewReply tells which one applies.
//
// Decode parses a single reply body at the start of buf and returns the
// bytes after it. Errors follow the same rules as ReadBody. An
// implementation must copy out everything it keeps: buf is only valid
// for the duration of the call.
type Reply interface {
	Decode(buf []byte) (rest []byte, err error)
}

// BasicReply is a reply that either succeeds or fails.
// It is the response shape of most commands.
type BasicReply struct {
	// Code is the status code of the first line
	Code StatusCode

	// Message is the text of the first line, for failures only
	Message string
}

var _ Reply = (*BasicReply)(nil)

// Decode implements Reply.
//
// A first line with a 2xx code is a success. Anything else is a failure
// carrying the first line's text, which must be valid UTF-8.
func (r *BasicReply) Decode(buf []byte) ([]byte, error) {
	body, next, err := readBody(buf, 0)
	if err != nil {
		return buf, err
	}

	first := body[0]
	*r = BasicReply{Code: first.Code}
	if !first.Code.IsSuccess() {
		msg, err := text(buf, first.Content)
		if err != nil {
			return buf, err
		}
		r.Message = msg
	}
	return buf[next:], nil
}

// Ok reports whether the reply is a success.
func (r *BasicReply) Ok() bool {
	return r.Code.IsSuccess()
}

// Err returns nil on success and a *ReplyError otherwise.
func (r *BasicReply) Err() error {
	if r.Ok() {
		return nil
	}
	return &ReplyError{Code: r.Code, Message: r.Message}
}

// text copies a view into an owned string, checking it is UTF-8.
// buf is the decoded buffer, used to compute the error offset.
func text(buf, view []byte) (string, error) {
	if !utf8.Valid(view) {
		return "", &ParseError{Kind: InvalidEncoding, Offset: offsetOf(buf, view)}
	}
	return string(view), nil
}

// offsetOf returns the position of view inside buf, which it must share
// its backing array with.
func offsetOf(buf, view []byte) int {
	if len(view) == 0 || len(buf) == 0 {
		return 0
	}
	return cap(buf) - cap(view)
}
