package wire

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// Authentication methods announced in PROTOCOLINFO
const (
	AuthNull           = "NULL"
	AuthHashedPassword = "HASHEDPASSWORD"
	AuthCookie         = "COOKIE"
	AuthSafeCookie     = "SAFECOOKIE"
)

// ProtocolInfoReply is the response to PROTOCOLINFO:
//
//	250-PROTOCOLINFO 1
//	250-AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE="/run/tor/control.authcookie"
//	250-VERSION Tor="0.4.8.12"
//	250 OK
//
// Unknown lines are kept verbatim in OtherLines.
type ProtocolInfoReply struct {
	Code    StatusCode
	Message string

	ProtocolVersion string
	AuthMethods     []string
	CookieFile      string
	TorVersion      string
	OtherLines      []string
}

var _ Reply = (*ProtocolInfoReply)(nil)

// Decode implements Reply.
func (r *ProtocolInfoReply) Decode(buf []byte) ([]byte, error) {
	body, next, err := readBody(buf, 0)
	if err != nil {
		return buf, err
	}

	*r = ProtocolInfoReply{Code: body.Code()}
	if !r.Code.IsSuccess() {
		if r.Message, err = text(buf, body[0].Content); err != nil {
			return buf, err
		}
		return buf[next:], nil
	}

	for _, line := range body {
		content, err := text(buf, line.Content)
		if err != nil {
			return buf, err
		}
		keyword, args, _ := strings.Cut(content, " ")

		switch keyword {
		case "PROTOCOLINFO":
			r.ProtocolVersion = args
		case "AUTH":
			kvs, err := splitKeyValues([]byte(args))
			if err != nil {
				r.OtherLines = append(r.OtherLines, content)
				continue
			}
			for _, kv := range kvs {
				switch string(kv.key) {
				case "METHODS":
					r.AuthMethods = strings.Split(string(kv.value), ",")
				case "COOKIEFILE":
					r.CookieFile = string(kv.value)
				}
			}
		case "VERSION":
			kvs, err := splitKeyValues([]byte(args))
			if err == nil {
				for _, kv := range kvs {
					if string(kv.key) == "Tor" {
						r.TorVersion = string(kv.value)
					}
				}
			}
		case "OK":
		default:
			r.OtherLines = append(r.OtherLines, content)
		}
	}
	return buf[next:], nil
}

// Err returns nil on success and a *ReplyError otherwise.
func (r *ProtocolInfoReply) Err() error {
	if r.Code.IsSuccess() {
		return nil
	}
	return &ReplyError{Code: r.Code, Message: r.Message}
}

// HasAuthMethod reports whether the daemon accepts the given method.
func (r *ProtocolInfoReply) HasAuthMethod(method string) bool {
	for _, m := range r.AuthMethods {
		if m == method {
			return true
		}
	}
	return false
}

// AuthChallengeReply is the response to AUTHCHALLENGE:
//
//	250 AUTHCHALLENGE SERVERHASH=<64 hex> SERVERNONCE=<64 hex>
type AuthChallengeReply struct {
	Code    StatusCode
	Message string

	ServerHash  []byte
	ServerNonce []byte
}

var _ Reply = (*AuthChallengeReply)(nil)

var authChallengePrefix = []byte(CmdAuthChallenge + " ")

// Decode implements Reply.
//
// A success line that is not an AUTHCHALLENGE line, or that lacks valid
// hex for either field, still decodes; Err then returns
// ErrMalformedChallenge.
func (r *AuthChallengeReply) Decode(buf []byte) ([]byte, error) {
	body, next, err := readBody(buf, 0)
	if err != nil {
		return buf, err
	}

	first := body[0]
	*r = AuthChallengeReply{Code: first.Code}
	if !first.Code.IsSuccess() {
		if r.Message, err = text(buf, first.Content); err != nil {
			return buf, err
		}
		return buf[next:], nil
	}

	args, ok := bytes.CutPrefix(first.Content, authChallengePrefix)
	if !ok {
		return buf[next:], nil
	}
	kvs, err := splitKeyValues(args)
	if err != nil {
		return buf[next:], nil
	}
	for _, kv := range kvs {
		switch string(kv.key) {
		case "SERVERHASH":
			r.ServerHash, _ = hex.DecodeString(string(kv.value))
		case "SERVERNONCE":
			r.ServerNonce, _ = hex.DecodeString(string(kv.value))
		}
	}
	return buf[next:], nil
}

// Err returns nil when the reply carries both the server hash and nonce.
func (r *AuthChallengeReply) Err() error {
	if !r.Code.IsSuccess() {
		return &ReplyError{Code: r.Code, Message: r.Message}
	}
	if len(r.ServerHash) == 0 || len(r.ServerNonce) == 0 {
		return ErrMalformedChallenge
	}
	return nil
}
