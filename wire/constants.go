package wire

// Protocol delimiters
const (
	// CRLF terminates every reply line and every command line
	CRLF = "\r\n"

	// Space separates command tokens
	Space = " "

	// DataTerminator ends a data block. The block itself starts right
	// after the CRLF of its '+' line.
	DataTerminator = "\r\n.\r\n"
)

// Line separators (the byte following the status code)
const (
	SepFinal     byte = ' '
	SepMultiline byte = '-'
	SepDataBlock byte = '+'
)

// statusCodeLen is the fixed width of a status code on the wire.
const statusCodeLen = 3

// StatusCode is the 3-digit code that starts every reply line.
type StatusCode uint16

// Status codes with a fixed meaning in the control protocol.
const (
	StatusOK                   StatusCode = 250
	StatusOperationUnnecessary StatusCode = 251
	StatusResourceExhausted    StatusCode = 451
	StatusSyntaxError          StatusCode = 500
	StatusUnrecognizedCommand  StatusCode = 510
	StatusUnimplementedCommand StatusCode = 511
	StatusSyntaxErrorArgument  StatusCode = 512
	StatusUnrecognizedArgument StatusCode = 513
	StatusAuthRequired         StatusCode = 514
	StatusBadAuthentication    StatusCode = 515
	StatusUnspecified          StatusCode = 550
	StatusInternalError        StatusCode = 551
	StatusUnrecognizedEntity   StatusCode = 552
	StatusInvalidConfigValue   StatusCode = 553
	StatusInvalidDescriptor    StatusCode = 554
	StatusUnmanagedEntity      StatusCode = 555
	StatusAsyncEvent           StatusCode = 650
)

// IsSuccess reports whether the code is in the 2xx success class.
func (c StatusCode) IsSuccess() bool {
	return c >= 200 && c <= 299
}

// IsAsync reports whether the code is in the 6xx asynchronous
// notification class.
func (c StatusCode) IsAsync() bool {
	return c >= 600 && c <= 699
}

// ContinuationKind tells whether more lines follow a reply line.
type ContinuationKind uint8

const (
	// Final is the last line of a reply body
	Final ContinuationKind = iota
	// Multiline is followed by another line
	Multiline
	// DataBlock is followed by another line and carries a data block
	DataBlock
)

func (k ContinuationKind) String() string {
	switch k {
	case Final:
		return "final"
	case Multiline:
		return "multiline"
	case DataBlock:
		return "datablock"
	default:
		return "unknown"
	}
}

// Command keywords
const (
	CmdSetConf       = "SETCONF"
	CmdResetConf     = "RESETCONF"
	CmdGetConf       = "GETCONF"
	CmdSetEvents     = "SETEVENTS"
	CmdAuthenticate  = "AUTHENTICATE"
	CmdSaveConf      = "SAVECONF"
	CmdSignal        = "SIGNAL"
	CmdGetInfo       = "GETINFO"
	CmdProtocolInfo  = "PROTOCOLINFO"
	CmdAuthChallenge = "AUTHCHALLENGE"
	CmdTakeOwnership = "TAKEOWNERSHIP"
	CmdDropGuards    = "DROPGUARDS"
	CmdQuit          = "QUIT"
)

// NonceLength is the size of a client nonce generated for AUTHCHALLENGE.
const NonceLength = 32
