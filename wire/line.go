package wire

import "bytes"

// Pre-allocated byte slices for scanning (avoid allocation in hot path)
var (
	crlfBytes       = []byte(CRLF)
	terminatorBytes = []byte(DataTerminator)
)

// minLineLength is the shortest possible reply line: "250 \r\n".
const minLineLength = statusCodeLen + 1 + len(CRLF)

// Line is one decoded reply line.
//
// Content and Data are views into the decoded buffer. They are only valid
// as long as that buffer is not modified; use Body.Clone to keep them.
type Line struct {
	// Code is the 3-digit status code
	Code StatusCode

	// Kind tells whether and how the body continues after this line
	Kind ContinuationKind

	// Content is the text between the separator and the CRLF
	Content []byte

	// Data is the data block of a '+' line, without its terminator.
	// It is nil for every other kind of line and empty (not nil) for an
	// empty block.
	Data []byte
}

// ReadLine decodes a single reply line at the start of buf.
// Line format: <code><sep><text>\r\n[<data>\r\n.\r\n]
//
// Returns the line and the bytes following it. The error is an
// *IncompleteError when buf ends before the line (or its data block)
// does, and a *ParseError when buf can never start a valid line.
func ReadLine(buf []byte) (Line, []byte, error) {
	line, next, err := readLine(buf, 0)
	if err != nil {
		return Line{}, buf, err
	}
	return line, buf[next:], nil
}

// readLine decodes the line starting at buf[pos:] and returns the
// offset of the first byte after it. Offsets are kept relative to buf so
// that a ParseError points at the right place in the caller's buffer.
func readLine(buf []byte, pos int) (Line, int, error) {
	avail := len(buf) - pos

	// Status code: exactly three ASCII digits
	if avail < statusCodeLen {
		return Line{}, pos, incomplete(minLineLength - avail)
	}
	var code StatusCode
	for i := range statusCodeLen {
		c := buf[pos+i]
		if c < '0' || c > '9' {
			return Line{}, pos, &ParseError{Kind: MalformedStatusCode, Offset: pos + i}
		}
		code = code*10 + StatusCode(c-'0')
	}

	// Separator
	if avail < statusCodeLen+1 {
		return Line{}, pos, incomplete(minLineLength - avail)
	}
	var kind ContinuationKind
	switch buf[pos+statusCodeLen] {
	case SepFinal:
		kind = Final
	case SepMultiline:
		kind = Multiline
	case SepDataBlock:
		kind = DataBlock
	default:
		return Line{}, pos, &ParseError{Kind: MalformedSeparator, Offset: pos + statusCodeLen}
	}

	// Content up to CRLF
	start := pos + statusCodeLen + 1
	end := bytes.Index(buf[start:], crlfBytes)
	if end == -1 {
		return Line{}, pos, incomplete(crlfShortfall(buf))
	}
	end += start

	line := Line{
		Code:    code,
		Kind:    kind,
		Content: buf[start:end],
	}
	next := end + len(CRLF)

	if kind == DataBlock {
		data, after, err := readDataBlock(buf, next)
		if err != nil {
			return Line{}, pos, err
		}
		line.Data = data
		next = after
	}

	return line, next, nil
}

// readDataBlock extracts the data block that starts at buf[pos:], right
// after the CRLF of its '+' line, and returns the offset after the
// terminator.
//
// The terminator is the full "\r\n.\r\n" sequence. Its leading CRLF ends
// the last data line, so the search starts at the CRLF of the '+' line
// itself: that is what makes an empty block ("\r\n.\r\n" right after
// the line) decode as zero bytes.
func readDataBlock(buf []byte, pos int) ([]byte, int, error) {
	from := pos - len(CRLF)
	idx := bytes.Index(buf[from:], terminatorBytes)
	if idx == -1 {
		return nil, pos, incomplete(0)
	}
	idx += from

	if idx < pos {
		// empty block
		return buf[pos:pos], idx + len(DataTerminator), nil
	}
	return buf[pos:idx], idx + len(DataTerminator), nil
}

// crlfShortfall reports 1 when buf already ends with the CR of a CRLF,
// and 0 (unknown) otherwise.
func crlfShortfall(buf []byte) int {
	if len(buf) > 0 && buf[len(buf)-1] == '\r' {
		return 1
	}
	return 0
}
