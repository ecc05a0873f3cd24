package wire

// Body is the ordered, non-empty list of lines making up one reply.
// Every line but the last continues (Kind != Final); the last is Final.
//
// Status codes are not required to match across lines.
type Body []Line

// Code returns the status code of the first line, which classifies the
// whole body.
func (b Body) Code() StatusCode {
	if len(b) == 0 {
		return 0
	}
	return b[0].Code
}

// IsAsync reports whether the body is an asynchronous notification.
func (b Body) IsAsync() bool {
	return b.Code().IsAsync()
}

// Last returns the terminal line of the body.
func (b Body) Last() Line {
	if len(b) == 0 {
		return Line{}
	}
	return b[len(b)-1]
}

// Clone returns a deep copy of the body that no longer references the
// decoded buffer.
func (b Body) Clone() Body {
	if b == nil {
		return nil
	}

	size := 0
	for _, l := range b {
		size += len(l.Content) + len(l.Data)
	}

	// One backing array for all lines
	backing := make([]byte, 0, size)
	out := make(Body, len(b))
	for i, l := range b {
		out[i] = Line{Code: l.Code, Kind: l.Kind}

		start := len(backing)
		backing = append(backing, l.Content...)
		out[i].Content = backing[start:len(backing):len(backing)]

		if l.Data != nil {
			start = len(backing)
			backing = append(backing, l.Data...)
			out[i].Data = backing[start:len(backing):len(backing)]
		}
	}
	return out
}

// ReadBody decodes one complete reply body at the start of buf.
//
// Errors from individual lines are returned unchanged, including
// *IncompleteError. Nothing is consumed unless the whole body is present.
func ReadBody(buf []byte) (Body, []byte, error) {
	body, next, err := readBody(buf, 0)
	if err != nil {
		return nil, buf, err
	}
	return body, buf[next:], nil
}

func readBody(buf []byte, pos int) (Body, int, error) {
	var body Body
	for {
		line, next, err := readLine(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		pos = next
		body = append(body, line)
		if line.Kind == Final {
			return body, pos, nil
		}
	}
}
