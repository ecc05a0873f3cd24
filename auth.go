package torcontrol

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/pior/torcontrol/wire"
)

// HMAC keys of the SAFECOOKIE handshake
const (
	safeCookieServerKey = "Tor safe cookie authentication server-to-controller hash"
	safeCookieClientKey = "Tor safe cookie authentication controller-to-server hash"
)

const cookieLength = 32

// AuthConfig holds the credentials used to authenticate a connection.
// The zero value authenticates with NULL or with the cookie file the
// daemon announces.
type AuthConfig struct {
	// Password for HASHEDPASSWORD. Only used when non-empty.
	Password string

	// CookieFile overrides the path announced in PROTOCOLINFO.
	CookieFile string

	// Rand is the nonce source for SAFECOOKIE.
	// If nil, crypto/rand is used.
	Rand io.Reader
}

func (a AuthConfig) rand() io.Reader {
	if a.Rand != nil {
		return a.Rand
	}
	return rand.Reader
}

// Authenticate runs the authentication handshake on a fresh connection:
// PROTOCOLINFO, then the strongest method both sides support, in the
// order NULL, HASHEDPASSWORD, SAFECOOKIE, COOKIE.
func Authenticate(ctx context.Context, conn *Conn, cfg AuthConfig) error {
	var info wire.ProtocolInfoReply
	if err := conn.Exec(ctx, wire.ProtocolInfo{}, &info); err != nil {
		return err
	}
	if err := info.Err(); err != nil {
		return fmt.Errorf("torcontrol: protocolinfo: %w", err)
	}

	cookieFile := cfg.CookieFile
	if cookieFile == "" {
		cookieFile = info.CookieFile
	}

	switch {
	case info.HasAuthMethod(wire.AuthNull):
		return authenticate(ctx, conn, wire.NewNullAuthenticate())

	case info.HasAuthMethod(wire.AuthHashedPassword) && cfg.Password != "":
		return authenticate(ctx, conn, wire.NewPasswordAuthenticate([]byte(cfg.Password)))

	case info.HasAuthMethod(wire.AuthSafeCookie) && cookieFile != "":
		cookie, err := readCookie(cookieFile)
		if err != nil {
			return err
		}
		return safeCookie(ctx, conn, cookie, cfg.rand())

	case info.HasAuthMethod(wire.AuthCookie) && cookieFile != "":
		cookie, err := readCookie(cookieFile)
		if err != nil {
			return err
		}
		return authenticate(ctx, conn, wire.NewCookieAuthenticate(cookie))
	}

	return fmt.Errorf("%w: daemon offers %v", ErrNoAuthMethod, info.AuthMethods)
}

func authenticate(ctx context.Context, conn *Conn, cmd *wire.Authenticate) error {
	var reply wire.BasicReply
	if err := conn.Exec(ctx, cmd, &reply); err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return fmt.Errorf("torcontrol: authenticate: %w", err)
	}
	return nil
}

func safeCookie(ctx context.Context, conn *Conn, cookie []byte, random io.Reader) error {
	challenge, err := wire.NewAuthChallenge(random)
	if err != nil {
		return err
	}

	var reply wire.AuthChallengeReply
	if err := conn.Exec(ctx, challenge, &reply); err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return fmt.Errorf("torcontrol: authchallenge: %w", err)
	}

	serverHash, clientHash := safeCookieHashes(cookie, challenge.Nonce, reply.ServerNonce)
	if !hmac.Equal(serverHash, reply.ServerHash) {
		return ErrServerHashMismatch
	}
	return authenticate(ctx, conn, wire.NewCookieAuthenticate(clientHash))
}

// safeCookieHashes returns the hash the daemon must send and the hash the
// controller answers with, both over cookie | client nonce | server nonce.
func safeCookieHashes(cookie, clientNonce, serverNonce []byte) (server, client []byte) {
	msg := make([]byte, 0, len(cookie)+len(clientNonce)+len(serverNonce))
	msg = append(msg, cookie...)
	msg = append(msg, clientNonce...)
	msg = append(msg, serverNonce...)

	return hmacSHA256(safeCookieServerKey, msg), hmacSHA256(safeCookieClientKey, msg)
}

func hmacSHA256(key string, msg []byte) []byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(msg)
	return h.Sum(nil)
}

func readCookie(path string) ([]byte, error) {
	cookie, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("torcontrol: reading cookie: %w", err)
	}
	if len(cookie) != cookieLength {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrBadCookie, path, len(cookie))
	}
	return cookie, nil
}
