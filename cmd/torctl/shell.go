package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pior/torcontrol"
	"github.com/pior/torcontrol/promexporter"
	"github.com/pior/torcontrol/wire"
)

const helpText = `Commands:
  getconf <key>...              - Show configuration values
  setconf <key>[=<value>]...    - Change configuration values
  resetconf <key>...            - Reset configuration values to their default
  getinfo <key>...              - Show runtime information
  signal <name>                 - Send a signal (NEWNYM, RELOAD, DUMP, ...)
  saveconf [force]              - Write the configuration to the torrc
  events [extended] <event>...  - Subscribe to events (no event unsubscribes)
  protocolinfo                  - Show version and authentication methods
  raw <command line>            - Send a command line as is
  stats                         - Show client statistics
  quit                          - Exit`

// shell runs one command line at a time against a client.
type shell struct {
	client  *torcontrol.Client
	metrics *promexporter.ClientMetrics
	timeout time.Duration

	mu  sync.Mutex // events are printed from another goroutine
	out io.Writer
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) printEvent(ev wire.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range ev.Body {
		fmt.Fprintf(s.out, "%d %s\n", line.Code, line.Content)
		if line.Data != nil {
			fmt.Fprintf(s.out, "%s\n", line.Data)
		}
	}
}

// exec runs a command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	command, args := strings.ToLower(parts[0]), parts[1:]
	start := time.Now()

	var err error
	var rawPrinted bool // a raw reply is printed as is, failure or not
	switch command {
	case "getconf":
		if len(args) == 0 {
			s.printf("Usage: getconf <key>...\n")
			return false
		}
		var reply *wire.KeywordReply
		reply, err = s.client.GetConf(ctx, args...)
		if err == nil {
			s.printEntries(reply)
		}

	case "setconf", "resetconf":
		if len(args) == 0 {
			s.printf("Usage: %s <key>[=<value>]...\n", command)
			return false
		}
		if command == "resetconf" {
			err = s.client.ResetConf(ctx, args...)
		} else {
			err = s.client.SetConf(ctx, parseConfValues(args)...)
		}

	case "getinfo":
		if len(args) == 0 {
			s.printf("Usage: getinfo <key>...\n")
			return false
		}
		var reply *wire.KeywordReply
		reply, err = s.client.GetInfo(ctx, args...)
		if err == nil {
			s.printEntries(reply)
		}

	case "signal":
		if len(args) != 1 {
			s.printf("Usage: signal <name>\n")
			return false
		}
		err = s.client.Signal(ctx, strings.ToUpper(args[0]))

	case "saveconf":
		force := len(args) == 1 && strings.EqualFold(args[0], "force")
		err = s.client.SaveConf(ctx, force)

	case "events":
		extended := len(args) > 0 && strings.EqualFold(args[0], "extended")
		if extended {
			args = args[1:]
		}
		for i := range args {
			args[i] = strings.ToUpper(args[i])
		}
		err = s.client.SetEvents(ctx, extended, args...)

	case "protocolinfo":
		var info *wire.ProtocolInfoReply
		info, err = s.client.ProtocolInfo(ctx)
		if err == nil {
			s.printf("Tor version: %s\n", info.TorVersion)
			s.printf("Auth methods: %s\n", strings.Join(info.AuthMethods, ","))
			if info.CookieFile != "" {
				s.printf("Cookie file: %s\n", info.CookieFile)
			}
		}

	case "raw":
		if len(args) == 0 {
			s.printf("Usage: raw <command line>\n")
			return false
		}
		var reply wire.Reply
		reply, err = s.client.Do(ctx, rawCommand(strings.Join(args, " ")))
		if raw, ok := reply.(*rawReply); ok {
			s.printBody(raw.body)
			rawPrinted = true
		}

	case "stats":
		s.printStats()
		return false

	case "help":
		s.printf("%s\n", helpText)
		return false

	case "quit", "exit":
		return true

	default:
		s.printf("Unknown command: %s. Type 'help' for available commands.\n", command)
		return false
	}

	if s.metrics != nil {
		s.metrics.RecordOperation(err)
	}

	duration := time.Since(start)
	if rawPrinted {
		return false
	}
	if err != nil {
		s.printf("Error: %v (took %v)\n", err, duration)
		return false
	}
	s.printf("OK (took %v)\n", duration)
	return false
}

// parseConfValues turns key=value arguments into SETCONF values. A key
// without '=' clears the option. Surrounding quotes are removed.
func parseConfValues(args []string) []wire.ConfValue {
	values := make([]wire.ConfValue, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if found && len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		values = append(values, wire.ConfValue{Key: key, Value: value, HasValue: found})
	}
	return values
}

func (s *shell) printEntries(reply *wire.KeywordReply) {
	for _, e := range reply.Entries {
		switch {
		case !e.HasValue:
			s.printf("%s (default)\n", e.Key)
		case strings.Contains(e.Value, "\n"):
			s.printf("%s=\n%s\n", e.Key, e.Value)
		default:
			s.printf("%s=%s\n", e.Key, e.Value)
		}
	}
}

func (s *shell) printBody(body wire.Body) {
	for _, line := range body {
		s.printf("%d%c%s\n", line.Code, separator(line.Kind), line.Content)
		if line.Data != nil {
			s.printf("%s\n.\n", line.Data)
		}
	}
}

func separator(kind wire.ContinuationKind) byte {
	switch kind {
	case wire.Multiline:
		return wire.SepMultiline
	case wire.DataBlock:
		return wire.SepDataBlock
	default:
		return wire.SepFinal
	}
}

func (s *shell) printStats() {
	stats := s.client.Stats()
	s.printf("Commands: %d (reply errors: %d, transport errors: %d)\n",
		stats.Commands, stats.ReplyErrors, stats.TransportErrors)
	s.printf("Events: %d (event connections: %d)\n", stats.Events, stats.EventConns)

	pool := s.client.PoolStats()
	s.printf("Pool: %d connections (%d active, %d idle), %d created, %d destroyed\n",
		pool.TotalConns, pool.ActiveConns, pool.IdleConns, pool.CreatedConns, pool.DestroyedConns)
	s.printf("Circuit breaker: %s\n", s.client.CircuitBreakerState())
}

// rawCommand sends a command line verbatim and keeps its whole reply.
type rawCommand string

func (c rawCommand) AppendCommand(dst []byte) []byte {
	dst = append(dst, c...)
	return append(dst, wire.CRLF...)
}

func (rawCommand) NewReply() wire.Reply { return &rawReply{} }

// rawReply keeps a copy of every line of the reply.
type rawReply struct {
	body wire.Body
}

func (r *rawReply) Decode(buf []byte) ([]byte, error) {
	body, rest, err := wire.ReadBody(buf)
	if err != nil {
		return buf, err
	}
	r.body = body.Clone()
	return rest, nil
}

func (r *rawReply) Ok() bool {
	return r.body.Code().IsSuccess()
}

func (r *rawReply) Err() error {
	if r.Ok() {
		return nil
	}
	return &wire.ReplyError{Code: r.body.Code(), Message: string(r.body[0].Content)}
}
