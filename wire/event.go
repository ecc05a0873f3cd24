package wire

import "bytes"

// Event keywords used with SETEVENTS
const (
	EventCirc            = "CIRC"
	EventStream          = "STREAM"
	EventORConn          = "ORCONN"
	EventBW              = "BW"
	EventNotice          = "NOTICE"
	EventWarn            = "WARN"
	EventErr             = "ERR"
	EventNewDesc         = "NEWDESC"
	EventAddrMap         = "ADDRMAP"
	EventStatusGeneral   = "STATUS_GENERAL"
	EventStatusClient    = "STATUS_CLIENT"
	EventConfChanged     = "CONF_CHANGED"
	EventHSDesc          = "HS_DESC"
	EventNetworkLiveness = "NETWORK_LIVENESS"
)

// Event is an asynchronous notification classified by its keyword.
// The rest of the payload is left undecoded in Body.
type Event struct {
	Code    StatusCode
	Keyword string
	Body    Body
}

// ParseEvent classifies an asynchronous reply body. The keyword is the
// first token of the first line ("650 CIRC 5 BUILT ..." gives "CIRC").
//
// The event references the same bytes as body.
func ParseEvent(body Body) Event {
	ev := Event{Code: body.Code(), Body: body}
	if len(body) == 0 {
		return ev
	}

	content := body[0].Content
	end := bytes.IndexAny(content, " =")
	if end == -1 {
		end = len(content)
	}
	ev.Keyword = string(content[:end])
	return ev
}

// Text returns the first line without its keyword.
func (e Event) Text() string {
	if len(e.Body) == 0 {
		return ""
	}
	content := e.Body[0].Content
	if len(content) <= len(e.Keyword) {
		return ""
	}
	return string(content[len(e.Keyword)+1:])
}
