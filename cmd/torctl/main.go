package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pior/torcontrol"
	"github.com/pior/torcontrol/promexporter"
	"golang.org/x/term"
)

func main() {
	var (
		addr        = flag.String("addr", torcontrol.DefaultAddr, "Control port address, or socket path with -network unix")
		network     = flag.String("network", "tcp", "Network: tcp or unix")
		askPassword = flag.Bool("password", false, "Prompt for the HashedControlPassword password")
		cookieFile  = flag.String("cookie", "", "Authentication cookie file (default: the one PROTOCOLINFO reports)")
		events      = flag.String("events", "", "Comma-separated events to subscribe to at startup")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-command timeout")
		usePuddle   = flag.Bool("puddle", false, "Use the puddle connection pool")
		breaker     = flag.Bool("breaker", false, "Enable the circuit breaker")
		metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9099)")
		verbose     = flag.Bool("v", false, "Log connection diagnostics to stderr")
	)
	flag.Parse()

	config := torcontrol.Config{
		Addr:    *addr,
		Network: *network,
		Auth:    torcontrol.AuthConfig{CookieFile: *cookieFile},
	}

	if *askPassword {
		password, err := readPassword()
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
		config.Auth.Password = password
	}

	if *verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if *usePuddle {
		config.Pool = torcontrol.NewPuddlePool
	}

	exporter := promexporter.NewExporter()

	if *breaker {
		settings := torcontrol.NewCircuitBreakerSettings(*addr, 1, time.Minute, 30*time.Second)
		settings.OnStateChange = exporter.ClientMetrics().OnStateChange()
		config.CircuitBreakerSettings = settings
	}

	sh := &shell{out: os.Stdout, timeout: *timeout, metrics: exporter.ClientMetrics()}
	config.EventHandler = exporter.EventMetrics().Wrap(sh.printEvent)

	client, err := torcontrol.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()
	sh.client = client

	if err := exporter.ClientMetrics().Watch(*addr, client); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	if *metricsAddr != "" {
		go func() {
			if err := exporter.ServeHTTP(*metricsAddr); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	info, err := client.ProtocolInfo(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}

	editor := NewLineEditor()
	defer editor.Close()

	if editor.IsInteractive() {
		fmt.Printf("Connected to Tor %s at %s (auth methods: %s)\n",
			info.TorVersion, *addr, strings.Join(info.AuthMethods, ","))
		fmt.Println("Type 'help' for available commands.")
		fmt.Println()
	}

	if *events != "" {
		sh.exec("events " + strings.ReplaceAll(*events, ",", " "))
	}

	for {
		line, err := editor.GetLine("tor> ")
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("Error reading input: %v", err)
			return
		}
		if sh.exec(line) {
			return
		}
	}
}

// readPassword prompts on the terminal without echo, or reads one line
// from stdin when it is not a terminal.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var password string
		_, err := fmt.Fscanln(os.Stdin, &password)
		return password, err
	}

	fmt.Fprint(os.Stderr, "Control port password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
