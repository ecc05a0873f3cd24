package wire

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicReply(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ok      bool
		code    StatusCode
		message string
		target  error
	}{
		{name: "ok", input: "250 OK\r\n", ok: true, code: 250},
		{name: "ok multiline", input: "250-first\r\n250 OK\r\n", ok: true, code: 250},
		{name: "unnecessary", input: "251 Operation was unnecessary\r\n", ok: true, code: 251},
		{name: "bad auth", input: "515 Authentication failed\r\n", code: 515, message: "Authentication failed", target: ErrBadAuthentication},
		{name: "auth required", input: "514 Authentication required.\r\n", code: 514, message: "Authentication required.", target: ErrAuthRequired},
		{name: "unrecognized", input: "510 Unrecognized command \"FOO\"\r\n", code: 510, message: "Unrecognized command \"FOO\"", target: ErrUnrecognizedCommand},
		{name: "unknown code", input: "599 weird\r\n", code: 599, message: "weird", target: ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r BasicReply
			rest, err := r.Decode([]byte(tt.input + "650 BW 1 2\r\n"))
			require.NoError(t, err)
			assert.Equal(t, "650 BW 1 2\r\n", string(rest))

			assert.Equal(t, tt.ok, r.Ok())
			assert.Equal(t, tt.code, r.Code)
			assert.Equal(t, tt.message, r.Message)
			if tt.ok {
				assert.NoError(t, r.Err())
				return
			}

			err = r.Err()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.False(t, ShouldCloseConnection(err))

			var rerr *ReplyError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.code, rerr.Code)
		})
	}
}

func TestBasicReply_MessageIsCopied(t *testing.T) {
	buf := []byte("552 Unrecognized key\r\n")
	var r BasicReply
	_, err := r.Decode(buf)
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 'x'
	}
	assert.Equal(t, "Unrecognized key", r.Message)
}

func TestBasicReply_InvalidEncoding(t *testing.T) {
	var r BasicReply
	rest, err := r.Decode([]byte("515 bad\xff\xfe\r\n"))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, InvalidEncoding, perr.Kind)
	assert.Equal(t, 4, perr.Offset)
	assert.True(t, ShouldCloseConnection(err))
	assert.Equal(t, "515 bad\xff\xfe\r\n", string(rest))
}

// Success text is not decoded, so it may hold any bytes.
func TestBasicReply_SuccessIgnoresEncoding(t *testing.T) {
	var r BasicReply
	_, err := r.Decode([]byte("250 \xff\r\n"))
	require.NoError(t, err)
	assert.True(t, r.Ok())
}

func TestBasicReply_Incomplete(t *testing.T) {
	input := "250-first\r\n250 OK\r\n"
	for i := 0; i < len(input); i++ {
		var r BasicReply
		rest, err := r.Decode([]byte(input[:i]))
		assert.True(t, IsIncomplete(err), "prefix %q", input[:i])
		assert.Equal(t, input[:i], string(rest))
	}
}

func TestKeywordReply_GetConf(t *testing.T) {
	input := "250-ORPort=9001\r\n" +
		"250-SocksPort\r\n" +
		"250-HiddenServicePort=80 127.0.0.1:8080\r\n" +
		"250-HiddenServicePort=443 127.0.0.1:8443\r\n" +
		"250 ContactInfo=\"tor admin <root@example.net>\"\r\n"

	var r KeywordReply
	rest, err := r.Decode([]byte(input))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.NoError(t, r.Err())
	require.Len(t, r.Entries, 5)

	v, ok := r.Get("ORPort")
	assert.True(t, ok)
	assert.Equal(t, "9001", v)

	assert.Equal(t, Entry{Key: "SocksPort"}, r.Entries[1])

	assert.Equal(t, []string{"80 127.0.0.1:8080", "443 127.0.0.1:8443"}, r.All("HiddenServicePort"))
	assert.Empty(t, r.All("SocksPort"))

	v, _ = r.Get("ContactInfo")
	assert.Equal(t, "tor admin <root@example.net>", v)

	_, ok = r.Get("Nickname")
	assert.False(t, ok)
}

func TestKeywordReply_GetInfoDataBlock(t *testing.T) {
	input := "250-version=0.4.8.12\r\n" +
		"250+config-text=\r\n" +
		"ORPort 9001\r\n" +
		"SocksPort 0\r\n" +
		".\r\n" +
		"250 OK\r\n"

	var r KeywordReply
	_, err := r.Decode([]byte(input))
	require.NoError(t, err)
	require.Len(t, r.Entries, 2)

	assert.Equal(t, map[string]string{
		"version":     "0.4.8.12",
		"config-text": "ORPort 9001\r\nSocksPort 0",
	}, r.Map())
	assert.True(t, r.Entries[1].HasValue)
}

func TestKeywordReply_Failure(t *testing.T) {
	var r KeywordReply
	_, err := r.Decode([]byte("552 Unrecognized configuration key \"Bogus\"\r\n"))
	require.NoError(t, err)
	assert.False(t, r.Ok())
	assert.Empty(t, r.Entries)
	assert.ErrorIs(t, r.Err(), ErrUnrecognizedEntity)
	assert.Equal(t, "Unrecognized configuration key \"Bogus\"", r.Message)
}

func TestProtocolInfoReply(t *testing.T) {
	input := "250-PROTOCOLINFO 1\r\n" +
		"250-AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE=\"/run/tor/control.authcookie\"\r\n" +
		"250-VERSION Tor=\"0.4.8.12\"\r\n" +
		"250-FUTURE thing\r\n" +
		"250 OK\r\n"

	var r ProtocolInfoReply
	rest, err := r.Decode([]byte(input))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.NoError(t, r.Err())

	assert.Equal(t, "1", r.ProtocolVersion)
	assert.Equal(t, []string{AuthCookie, AuthSafeCookie}, r.AuthMethods)
	assert.Equal(t, "/run/tor/control.authcookie", r.CookieFile)
	assert.Equal(t, "0.4.8.12", r.TorVersion)
	assert.Equal(t, []string{"FUTURE thing"}, r.OtherLines)

	assert.True(t, r.HasAuthMethod(AuthSafeCookie))
	assert.False(t, r.HasAuthMethod(AuthNull))
}

func TestProtocolInfoReply_Failure(t *testing.T) {
	var r ProtocolInfoReply
	_, err := r.Decode([]byte("513 No such version \"2\"\r\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Err(), ErrUnrecognizedArgument)
}

func TestAuthChallengeReply(t *testing.T) {
	hash := strings.Repeat("ab", 32)
	nonce := strings.Repeat("0f", 32)

	var r AuthChallengeReply
	_, err := r.Decode([]byte("250 AUTHCHALLENGE SERVERHASH=" + hash + " SERVERNONCE=" + nonce + "\r\n"))
	require.NoError(t, err)
	require.NoError(t, r.Err())
	assert.Len(t, r.ServerHash, 32)
	assert.Equal(t, byte(0xab), r.ServerHash[0])
	assert.Len(t, r.ServerNonce, 32)
	assert.Equal(t, byte(0x0f), r.ServerNonce[31])
}

func TestAuthChallengeReply_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing nonce", "250 AUTHCHALLENGE SERVERHASH=abcd\r\n"},
		{"bad hex", "250 AUTHCHALLENGE SERVERHASH=zz SERVERNONCE=00\r\n"},
		{"not a challenge", "250 OK\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r AuthChallengeReply
			_, err := r.Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.ErrorIs(t, r.Err(), ErrMalformedChallenge)
		})
	}
}

func TestAuthChallengeReply_Failure(t *testing.T) {
	var r AuthChallengeReply
	_, err := r.Decode([]byte("513 Invalid base16 client nonce\r\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Err(), ErrUnrecognizedArgument)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		keyword string
		text    string
	}{
		{"circ", "650 CIRC 5 BUILT $AAAA~relay\r\n", EventCirc, "5 BUILT $AAAA~relay"},
		{"bandwidth", "650 BW 1024 2048\r\n", EventBW, "1024 2048"},
		{"keyword only", "650 NETWORK_LIVENESS\r\n", EventNetworkLiveness, ""},
		{"conf changed", "650-CONF_CHANGED\r\n650-SocksPort=9050\r\n650 OK\r\n", EventConfChanged, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _, err := ReadBody([]byte(tt.input))
			require.NoError(t, err)

			ev := ParseEvent(body)
			assert.Equal(t, StatusAsyncEvent, ev.Code)
			assert.Equal(t, tt.keyword, ev.Keyword)
			assert.Equal(t, tt.text, ev.Text())
		})
	}
}

func TestParseEvent_Empty(t *testing.T) {
	ev := ParseEvent(nil)
	assert.Empty(t, ev.Keyword)
	assert.Empty(t, ev.Text())
}
