package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	historyFileName = ".torctl_history"
	historySize     = 500
)

// LineEditor reads command lines with readline when stdin is a terminal,
// and line by line from stdin otherwise (piped scripts, editors' shells).
type LineEditor struct {
	interactive bool
	rl          *readline.Instance
	scanner     *bufio.Scanner
	out         io.Writer
}

// NewLineEditor creates a LineEditor for stdin.
func NewLineEditor() *LineEditor {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && os.Getenv("INSIDE_EMACS") == ""
	if !interactive {
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath(),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		AutoComplete:           completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	return &LineEditor{interactive: true, rl: rl}
}

func newScannerEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{scanner: bufio.NewScanner(in), out: out}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("getconf"),
	readline.PcItem("setconf"),
	readline.PcItem("resetconf"),
	readline.PcItem("getinfo",
		readline.PcItem("version"),
		readline.PcItem("config-file"),
		readline.PcItem("traffic/read"),
		readline.PcItem("traffic/written"),
		readline.PcItem("circuit-status"),
		readline.PcItem("stream-status"),
	),
	readline.PcItem("signal",
		readline.PcItem("NEWNYM"),
		readline.PcItem("RELOAD"),
		readline.PcItem("DUMP"),
		readline.PcItem("CLEARDNSCACHE"),
		readline.PcItem("HEARTBEAT"),
	),
	readline.PcItem("saveconf", readline.PcItem("force")),
	readline.PcItem("events",
		readline.PcItem("extended"),
		readline.PcItem("BW"),
		readline.PcItem("CIRC"),
		readline.PcItem("STREAM"),
		readline.PcItem("NOTICE"),
		readline.PcItem("WARN"),
	),
	readline.PcItem("protocolinfo"),
	readline.PcItem("raw"),
	readline.PcItem("stats"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// GetLine reads one line. It returns io.EOF on Ctrl-D, Ctrl-C, or at the
// end of piped input.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		le.rl.SetPrompt(prompt)
		line, err := le.rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			le.rl.SaveToHistory(trimmed)
		}
		return line, nil
	}

	fmt.Fprint(le.out, prompt)
	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves the history. It is safe to call more than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline line editing is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
