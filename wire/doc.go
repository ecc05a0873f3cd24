// Package wire implements the client side of the Tor control protocol on
// the wire: an incremental reply decoder and a command encoder.
//
// The package does no I/O and keeps no state between calls. Decoding
// functions take a byte buffer holding whatever has been received so far
// and either decode from it, report that more bytes are needed, or report
// that the bytes are malformed.
//
// # Replies
//
// A reply is one or more lines:
//
//	<3-digit code><sep><text>\r\n
//
// where sep is ' ' on the last line, '-' on a line followed by more
// lines, and '+' on a line that also carries a data block. A data block
// follows the line's CRLF and ends with "\r\n.\r\n".
//
// Lines are decoded by ReadLine, whole replies by ReadBody. Replies with
// a 6xx code are asynchronous notifications (events) that may show up
// at any point of the stream; SplitAsync peels them off the front of a
// buffer. Read combines both for a transport loop:
//
//	events, rest, err := wire.Read(buf, &reply)
//	switch {
//	case wire.IsIncomplete(err):
//	    // read more bytes into buf and call Read again
//	case err != nil:
//	    // malformed stream, close the connection
//	default:
//	    // reply is decoded, rest holds the following bytes
//	}
//
// # Outcomes
//
// Every decoding step ends in one of three ways:
//
//   - nil error: the value is decoded and the remaining bytes are returned
//   - *IncompleteError (errors.Is(err, ErrIncomplete)): retry with more bytes
//   - *ParseError: the input can never decode, whatever follows
//
// A reply that decodes fine but carries a failure code is not a decoding
// error: typed replies expose it through their Err method as a
// *ReplyError, which unwraps to a sentinel such as ErrBadAuthentication.
//
// # Typed replies
//
// Reply is implemented once per response shape: BasicReply (success or
// failure), KeywordReply (GETCONF, GETINFO), ProtocolInfoReply and
// AuthChallengeReply. Each Command knows its reply shape via NewReply.
//
// # Buffers
//
// Line and Body hold views into the decoded buffer. They must not be used
// once the buffer changes; Body.Clone makes an owned copy. Typed replies
// always own their data.
//
// # Commands
//
// WriteCommand and EncodeCommand render a Command:
//
//	wire.EncodeCommand(wire.NewGetConf("ORPort", "SocksPort"))
//	// "GETCONF ORPort SocksPort\r\n"
//
// Quoted arguments are written as-is between double quotes, without any
// escaping: values must not contain '"', '\\' or CRLF.
package wire
