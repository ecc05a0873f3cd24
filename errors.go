package torcontrol

import (
	"errors"

	"github.com/pior/torcontrol/wire"
)

var (
	ErrConnectionClosed   = errors.New("torcontrol: connection closed")
	ErrPoolClosed         = errors.New("torcontrol: pool closed")
	ErrClientClosed       = errors.New("torcontrol: client closed")
	ErrNoAuthMethod       = errors.New("torcontrol: no usable authentication method")
	ErrBadCookie          = errors.New("torcontrol: authentication cookie must be 32 bytes")
	ErrServerHashMismatch = errors.New("torcontrol: SAFECOOKIE server hash mismatch")
	ErrNoEventHandler     = errors.New("torcontrol: no event handler configured")
)

// ConnectionError is an I/O failure on the control socket.
//
// Connection handling: the connection is unusable, CLOSE it
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return "torcontrol: " + e.Op + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the socket failed
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ShouldCloseConnection reports whether err leaves a connection unusable.
// A *wire.ReplyError does not: the daemon answered and the stream is in
// sync.
func ShouldCloseConnection(err error) bool {
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}
	return wire.ShouldCloseConnection(err)
}

// replyError returns the failure carried by a decoded reply, if any.
func replyError(reply wire.Reply) error {
	if r, ok := reply.(interface{ Err() error }); ok {
		return r.Err()
	}
	return nil
}
