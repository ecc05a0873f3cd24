package wire

// SplitAsync peels off the leading run of asynchronous notifications
// (status 600-699) from buf.
//
// It returns the notifications oldest first and the remaining bytes.
// Scanning stops at the first body that does not start with '6', and
// also at the first one that fails to decode or is not complete yet: that
// error is not reported here. The remaining bytes then start at the
// failed body, and the reply decoder that runs next on them is the one
// that reports the real error or incompleteness. A half-received event
// must never hide the state of the reply the caller is waiting for.
func SplitAsync(buf []byte) ([]Body, []byte) {
	var events []Body
	pos := 0
	for pos < len(buf) && buf[pos] == '6' {
		body, next, err := readBody(buf, pos)
		if err != nil || !body.IsAsync() {
			break
		}
		events = append(events, body)
		pos = next
	}
	return events, buf[pos:]
}

// Read decodes the next reply for a pending command into r, collecting
// the asynchronous notifications that precede it.
//
// On success rest holds the bytes after the reply. On error rest holds
// the bytes at which the reply decode was attempted, that is buf without
// the returned notifications. An *IncompleteError means more bytes are
// needed: append them to the same buffer and call Read again.
//
// Read keeps no state between calls. A repeated call on a grown buffer
// returns the same notifications again; callers that already handled
// them can instead continue from rest, which is equivalent.
//
// The returned notifications reference buf; Clone them to keep them.
func Read(buf []byte, r Reply) (events []Body, rest []byte, err error) {
	if len(buf) == 0 {
		return nil, buf, incomplete(minLineLength)
	}

	events, rest = SplitAsync(buf)
	if len(rest) == 0 {
		return events, rest, incomplete(minLineLength)
	}

	after, err := r.Decode(rest)
	if err != nil {
		return events, rest, err
	}
	return events, after, nil
}
