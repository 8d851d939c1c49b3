package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/flowbreak/focusagent/internal/agent"
	"github.com/flowbreak/focusagent/internal/attention"
	"github.com/flowbreak/focusagent/internal/focus"
	"github.com/flowbreak/focusagent/internal/payload"
	"github.com/flowbreak/focusagent/internal/store"
)

// AnalyzeConfig holds parsed CLI options for the analyze command.
type AnalyzeConfig struct {
	Path      string
	Events    bool
	SessionID string
}

func parseAnalyzeFlags(args []string) (AnalyzeConfig, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	events := fs.Bool(
		"events", false,
		`Input is {"events": [...]}; derive metrics first`,
	)
	sessionID := fs.String(
		"session", "cli",
		"Session id for -events input",
	)
	if err := fs.Parse(args); err != nil {
		return AnalyzeConfig{}, err
	}
	if fs.NArg() != 1 {
		return AnalyzeConfig{}, errors.New(
			"analyze takes exactly one FILE argument (\"-\" for stdin)",
		)
	}
	return AnalyzeConfig{
		Path:      fs.Arg(0),
		Events:    *events,
		SessionID: *sessionID,
	}, nil
}

func runAnalyze(args []string) {
	cfg, err := parseAnalyzeFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	data, err := readInput(cfg.Path, os.Stdin)
	if err != nil {
		log.Fatalf("reading %s: %v", cfg.Path, err)
	}

	a := agent.New(store.NewMemory())
	out, err := analyzeDocument(context.Background(), a, data, cfg)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("writing result: %v", err)
	}
}

// readInput returns the contents of path, or of stdin when path
// is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeMetrics parses a metrics document with the same rules
// the HTTP boundary applies.
func decodeMetrics(data []byte) (focus.SessionMetrics, error) {
	m, err := payload.DecodeMetrics(data)
	if err != nil {
		return m, fmt.Errorf("parsing metrics: %w", err)
	}
	return m, nil
}

type eventsResult struct {
	focus.Analysis
	Metrics attention.Derived `json:"metrics"`
}

// analyzeDocument runs the analyzer over one input document and
// returns the value to print.
func analyzeDocument(
	ctx context.Context, a *agent.Agent, data []byte, cfg AnalyzeConfig,
) (any, error) {
	if cfg.Events {
		var doc payload.Events
		if err := payload.Decode(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing events: %w", err)
		}
		derived := attention.Derive(doc.Events)
		res, err := a.Analyze(ctx, derived.Metrics(cfg.SessionID, doc.Events))
		if err != nil {
			return nil, err
		}
		return eventsResult{Analysis: res, Metrics: derived}, nil
	}

	m, err := decodeMetrics(data)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, m)
}
