package wire

import "bytes"

// Entry is one key/value pair of a KeywordReply.
type Entry struct {
	Key   string
	Value string

	// HasValue is false for a bare key, which GETCONF uses for options set
	// to their default value.
	HasValue bool
}

// KeywordReply is the response shape of GETCONF and GETINFO: one
// key[=value] pair per line, where a '+' line carries its value as a data
// block. A trailing "OK" line is not an entry.
type KeywordReply struct {
	Code    StatusCode
	Message string
	Entries []Entry
}

var _ Reply = (*KeywordReply)(nil)

// Decode implements Reply.
func (r *KeywordReply) Decode(buf []byte) ([]byte, error) {
	body, next, err := readBody(buf, 0)
	if err != nil {
		return buf, err
	}

	*r = KeywordReply{Code: body.Code()}
	if !r.Code.IsSuccess() {
		msg, err := text(buf, body[0].Content)
		if err != nil {
			return buf, err
		}
		r.Message = msg
		return buf[next:], nil
	}

	r.Entries = make([]Entry, 0, len(body))
	for i, line := range body {
		if i == len(body)-1 && bytes.Equal(line.Content, okBytes) {
			break
		}
		entry, err := parseEntry(buf, line)
		if err != nil {
			return buf, err
		}
		r.Entries = append(r.Entries, entry)
	}
	return buf[next:], nil
}

var okBytes = []byte("OK")

func parseEntry(buf []byte, line Line) (Entry, error) {
	key, value, found := bytes.Cut(line.Content, []byte("="))

	k, err := text(buf, key)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Key: k, HasValue: found}

	switch {
	case line.Kind == DataBlock:
		entry.Value = string(line.Data)
		entry.HasValue = true
	case len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"':
		if v, _, err := unquote(value); err == nil {
			value = v
		}
		entry.Value = string(value)
	default:
		v, err := text(buf, value)
		if err != nil {
			return Entry{}, err
		}
		entry.Value = v
	}
	return entry, nil
}

// Ok reports whether the reply is a success.
func (r *KeywordReply) Ok() bool {
	return r.Code.IsSuccess()
}

// Err returns nil on success and a *ReplyError otherwise.
func (r *KeywordReply) Err() error {
	if r.Ok() {
		return nil
	}
	return &ReplyError{Code: r.Code, Message: r.Message}
}

// Get returns the first value for key.
func (r *KeywordReply) Get(key string) (string, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// All returns every value for key, in reply order. Options that can be
// set several times (e.g. HiddenServicePort) come back as one line each.
func (r *KeywordReply) All(key string) []string {
	var values []string
	for _, e := range r.Entries {
		if e.Key == key && e.HasValue {
			values = append(values, e.Value)
		}
	}
	return values
}

// Map returns the entries as a map, keeping the last value of repeated
// keys.
func (r *KeywordReply) Map() map[string]string {
	m := make(map[string]string, len(r.Entries))
	for _, e := range r.Entries {
		m[e.Key] = e.Value
	}
	return m
}
