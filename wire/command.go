package wire

import (
	"fmt"
	"io"
)

// Command is a control protocol command.
//
// AppendCommand appends the wire form, a CRLF-terminated
// KEYWORD[ token]* line, to dst. NewReply returns a fresh decoder for the
// response shape of the command.
type Command interface {
	AppendCommand(dst []byte) []byte
	NewReply() Reply
}

// Keyword is a command without arguments whose response is a BasicReply:
// Keyword(CmdQuit), Keyword(CmdTakeOwnership), Keyword(CmdDropGuards).
type Keyword string

func (k Keyword) AppendCommand(dst []byte) []byte {
	dst = append(dst, k...)
	return append(dst, CRLF...)
}

func (Keyword) NewReply() Reply { return &BasicReply{} }

// GetConf queries configuration values.
//
// Wire format: GETCONF <name>*\r\n
type GetConf struct {
	Names []string
}

// NewGetConf creates a GETCONF command for names.
func NewGetConf(names ...string) *GetConf {
	return &GetConf{Names: names}
}

// Add appends a configuration name to the query.
func (c *GetConf) Add(name string) *GetConf {
	c.Names = append(c.Names, name)
	return c
}

func (c *GetConf) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdGetConf...)
	for _, name := range c.Names {
		dst = append(dst, ' ')
		dst = append(dst, name...)
	}
	return append(dst, CRLF...)
}

func (*GetConf) NewReply() Reply { return &KeywordReply{} }

// ConfValue is one key[="value"] argument of SETCONF / RESETCONF.
type ConfValue struct {
	Key   string
	Value string

	// HasValue is false to reset the option to its default
	HasValue bool
}

// SetConf changes configuration values. With Reset it renders RESETCONF,
// which resets options without a value to their default instead of
// clearing them.
//
// Wire format: SETCONF <key>[="<value>"]*\r\n
type SetConf struct {
	Values []ConfValue
	Reset  bool
}

// NewSetConf creates an empty SETCONF command.
func NewSetConf() *SetConf {
	return &SetConf{}
}

// NewResetConf creates an empty RESETCONF command.
func NewResetConf() *SetConf {
	return &SetConf{Reset: true}
}

// Add sets key to value.
func (c *SetConf) Add(key, value string) *SetConf {
	c.Values = append(c.Values, ConfValue{Key: key, Value: value, HasValue: true})
	return c
}

// AddDefault resets key without giving a value.
func (c *SetConf) AddDefault(key string) *SetConf {
	c.Values = append(c.Values, ConfValue{Key: key})
	return c
}

func (c *SetConf) AppendCommand(dst []byte) []byte {
	if c.Reset {
		dst = append(dst, CmdResetConf...)
	} else {
		dst = append(dst, CmdSetConf...)
	}
	for _, v := range c.Values {
		dst = append(dst, ' ')
		dst = append(dst, v.Key...)
		if v.HasValue {
			dst = append(dst, '=')
			dst = appendQuoted(dst, []byte(v.Value))
		}
	}
	return append(dst, CRLF...)
}

func (*SetConf) NewReply() Reply { return &BasicReply{} }

// SetEvents replaces the set of events the connection is subscribed to.
// An empty list unsubscribes from everything.
//
// Wire format: SETEVENTS [EXTENDED] <event>*\r\n
type SetEvents struct {
	Events   []string
	Extended bool
}

// NewSetEvents creates a SETEVENTS command for events.
func NewSetEvents(events ...string) *SetEvents {
	return &SetEvents{Events: events}
}

func (c *SetEvents) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdSetEvents...)
	if c.Extended {
		dst = append(dst, " EXTENDED"...)
	}
	for _, e := range c.Events {
		dst = append(dst, ' ')
		dst = append(dst, e...)
	}
	return append(dst, CRLF...)
}

func (*SetEvents) NewReply() Reply { return &BasicReply{} }

// Authenticate proves the controller's identity.
//
// Wire format: AUTHENTICATE [<hex> | "<password>"]\r\n
type Authenticate struct {
	AuthData   []byte
	IsPassword bool
}

// NewCookieAuthenticate creates an AUTHENTICATE command carrying cookie
// (or a SAFECOOKIE client hash) as hex.
func NewCookieAuthenticate(cookie []byte) *Authenticate {
	return &Authenticate{AuthData: cookie}
}

// NewPasswordAuthenticate creates an AUTHENTICATE command carrying
// password as a quoted string.
func NewPasswordAuthenticate(password []byte) *Authenticate {
	return &Authenticate{AuthData: password, IsPassword: true}
}

// NewNullAuthenticate creates an AUTHENTICATE command without credentials.
func NewNullAuthenticate() *Authenticate {
	return &Authenticate{}
}

func (c *Authenticate) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdAuthenticate...)
	switch {
	case c.IsPassword:
		dst = append(dst, ' ')
		dst = appendQuoted(dst, c.AuthData)
	case len(c.AuthData) > 0:
		dst = append(dst, ' ')
		dst = appendHex(dst, c.AuthData)
	}
	return append(dst, CRLF...)
}

func (*Authenticate) NewReply() Reply { return &BasicReply{} }

// SaveConf writes the running configuration to the torrc.
//
// Wire format: SAVECONF [FORCE]\r\n
type SaveConf struct {
	Force bool
}

func (c *SaveConf) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdSaveConf...)
	if c.Force {
		dst = append(dst, " FORCE"...)
	}
	return append(dst, CRLF...)
}

func (*SaveConf) NewReply() Reply { return &BasicReply{} }

// Signals accepted by SIGNAL
const (
	SignalReload        = "RELOAD"
	SignalShutdown      = "SHUTDOWN"
	SignalDump          = "DUMP"
	SignalDebug         = "DEBUG"
	SignalHalt          = "HALT"
	SignalClearDNSCache = "CLEARDNSCACHE"
	SignalNewNym        = "NEWNYM"
	SignalHeartbeat     = "HEARTBEAT"
	SignalDormant       = "DORMANT"
	SignalActive        = "ACTIVE"
)

// Signal sends a signal to the daemon.
//
// Wire format: SIGNAL <name>\r\n
type Signal struct {
	Name string
}

func (c *Signal) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdSignal...)
	dst = append(dst, ' ')
	dst = append(dst, c.Name...)
	return append(dst, CRLF...)
}

func (*Signal) NewReply() Reply { return &BasicReply{} }

// GetInfo queries runtime information.
//
// Wire format: GETINFO <key>*\r\n
type GetInfo struct {
	Keys []string
}

// NewGetInfo creates a GETINFO command for keys.
func NewGetInfo(keys ...string) *GetInfo {
	return &GetInfo{Keys: keys}
}

func (c *GetInfo) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdGetInfo...)
	for _, k := range c.Keys {
		dst = append(dst, ' ')
		dst = append(dst, k...)
	}
	return append(dst, CRLF...)
}

func (*GetInfo) NewReply() Reply { return &KeywordReply{} }

// ProtocolInfo asks for the protocol version and the accepted
// authentication methods. It may be sent before authenticating.
//
// Wire format: PROTOCOLINFO 1\r\n
type ProtocolInfo struct{}

func (ProtocolInfo) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdProtocolInfo...)
	return append(dst, " 1"+CRLF...)
}

func (ProtocolInfo) NewReply() Reply { return &ProtocolInfoReply{} }

// AuthChallenge starts the SAFECOOKIE handshake with a client nonce.
//
// Wire format: AUTHCHALLENGE SAFECOOKIE <hex nonce>\r\n
type AuthChallenge struct {
	Nonce []byte
}

// NewAuthChallenge creates an AUTHCHALLENGE command with a NonceLength
// nonce read from rand.
func NewAuthChallenge(rand io.Reader) (*AuthChallenge, error) {
	nonce := make([]byte, NonceLength)
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, fmt.Errorf("wire: generating nonce: %w", err)
	}
	return &AuthChallenge{Nonce: nonce}, nil
}

// NewAuthChallengeWithNonce creates an AUTHCHALLENGE command with a copy
// of nonce.
func NewAuthChallengeWithNonce(nonce []byte) *AuthChallenge {
	return &AuthChallenge{Nonce: append([]byte(nil), nonce...)}
}

func (c *AuthChallenge) AppendCommand(dst []byte) []byte {
	dst = append(dst, CmdAuthChallenge...)
	dst = append(dst, " "+AuthSafeCookie+" "...)
	dst = appendHex(dst, c.Nonce)
	return append(dst, CRLF...)
}

func (*AuthChallenge) NewReply() Reply { return &AuthChallengeReply{} }
