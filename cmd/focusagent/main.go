package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowbreak/focusagent/internal/agent"
	"github.com/flowbreak/focusagent/internal/config"
	"github.com/flowbreak/focusagent/internal/server"
	"github.com/flowbreak/focusagent/internal/store"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "analyze":
			runAnalyze(os.Args[2:])
			return
		case "chat":
			runChat(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("focusagent %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage(os.Stdout)
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `focusagent %s - focus session analyzer and chat agent

Analyzes the metrics of a tracked browsing session, keeps the latest
context per session in memory and answers questions about it.

Usage:
  focusagent [flags]               Start the server (default command)
  focusagent serve [flags]         Start the server (explicit)
  focusagent analyze [flags] FILE  Analyze a metrics document ("-" for stdin)
  focusagent chat FILE             Analyze FILE, then ask questions about it
  focusagent version               Show version information
  focusagent help                  Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8001)
  -store string       Session store: memory, sqlite or badger
                      (default "memory")

Analyze flags:
  -events             FILE holds {"events": [...]}; derive metrics first
  -session string     Session id for -events input (default "cli")

Chat commands:
  /load FILE          Analyze another metrics document
  /help               List commands
  /quit               Leave the chat

Environment variables:
  AGENT_HOST            Host to bind to
  AGENT_PORT            Port to listen on
  AGENT_STORE           Session store backend
  FOCUSAGENT_DATA_DIR   Data directory (config.json or config.yaml)

Configuration is read from ~/.focusagent/config.json, or from
~/.focusagent/config.yaml when there is no config.json.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	st := mustOpenStore(cfg)
	defer st.Close()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, agent.New(st),
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Printf("focusagent %s listening at http://%s (store: %s)\n",
		version, cfg.Addr(), cfg.Store)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("focusagent", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: focusagent [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	return cfg
}

func mustOpenStore(cfg config.Config) store.Store {
	st, err := store.Open(cfg.Store)
	if err != nil {
		log.Fatalf("opening %s store: %v", cfg.Store, err)
	}
	return st
}
