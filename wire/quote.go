package wire

import (
	"bytes"
	"errors"
)

var errBadQuotedString = errors.New("wire: malformed quoted string")

// appendQuoted appends data wrapped in double quotes.
// Embedded quotes, backslashes and CRLF are NOT escaped: callers must not
// pass such bytes, or the daemon will see a different command.
func appendQuoted(dst, data []byte) []byte {
	dst = append(dst, '"')
	dst = append(dst, data...)
	return append(dst, '"')
}

const hexDigits = "0123456789abcdef"

// appendHex appends data as lowercase hex, two digits per byte.
func appendHex(dst, data []byte) []byte {
	for _, b := range data {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return dst
}

// unquote decodes a quoted string at the start of s, returning the
// decoded value and the bytes after the closing quote.
// It understands the C-style escapes used by the daemon in replies.
func unquote(s []byte) ([]byte, []byte, error) {
	if len(s) == 0 || s[0] != '"' {
		return nil, s, errBadQuotedString
	}

	// Fast path: no escapes
	end := bytes.IndexByte(s[1:], '"')
	if end >= 0 && bytes.IndexByte(s[1:1+end], '\\') == -1 {
		return s[1 : 1+end], s[2+end:], nil
	}

	out := make([]byte, 0, len(s))
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			return out, s[i+1:], nil
		case '\\':
			i++
			if i >= len(s) {
				return nil, s, errBadQuotedString
			}
			switch e := s[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case '0', '1', '2', '3', '4', '5', '6', '7':
				// up to three octal digits
				v := int(e - '0')
				for n := 0; n < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
					i++
					v = v*8 + int(s[i]-'0')
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
		default:
			out = append(out, c)
		}
	}
	return nil, s, errBadQuotedString
}

// keyValue is one token of a reply line: KEY, KEY=value or KEY="value".
type keyValue struct {
	key      []byte
	value    []byte
	hasValue bool
}

// splitKeyValues tokenizes a reply line into space-separated key/value
// tokens. Quoted values may contain spaces.
func splitKeyValues(s []byte) ([]keyValue, error) {
	var out []keyValue
	for {
		s = bytes.TrimLeft(s, " ")
		if len(s) == 0 {
			return out, nil
		}

		end := bytes.IndexAny(s, " =")
		if end == -1 {
			out = append(out, keyValue{key: s})
			return out, nil
		}
		if s[end] == ' ' {
			out = append(out, keyValue{key: s[:end]})
			s = s[end:]
			continue
		}

		kv := keyValue{key: s[:end], hasValue: true}
		s = s[end+1:]
		if len(s) > 0 && s[0] == '"' {
			v, rest, err := unquote(s)
			if err != nil {
				return nil, err
			}
			kv.value = v
			s = rest
		} else {
			sp := bytes.IndexByte(s, ' ')
			if sp == -1 {
				sp = len(s)
			}
			kv.value = s[:sp]
			s = s[sp:]
		}
		out = append(out, kv)
	}
}
