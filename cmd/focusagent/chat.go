package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"

	"github.com/flowbreak/focusagent/internal/agent"
	"github.com/flowbreak/focusagent/internal/store"
)

const chatPrompt = "> "

var errQuit = errors.New("quit")

// repl is an interactive chat against one analyzed session at a
// time. Lines starting with "/" are commands, anything else is a
// question.
type repl struct {
	agent     *agent.Agent
	out       io.Writer
	sessionID string
	// prompt is printed before each line when reading from a
	// terminal.
	prompt bool
}

func runChat(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: focusagent chat FILE")
		os.Exit(2)
	}
	r := &repl{
		agent:  agent.New(store.NewMemory()),
		out:    os.Stdout,
		prompt: isTerminal(os.Stdin),
	}
	ctx := context.Background()
	if err := r.load(ctx, args[0]); err != nil {
		log.Fatalf("chat: %v", err)
	}
	fmt.Fprintln(r.out, `Ask about your session; "/help" lists commands.`)
	if err := r.run(ctx, os.Stdin); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

// run reads lines from in until EOF or /quit.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, chatPrompt)
		}
		if !sc.Scan() {
			if r.prompt {
				fmt.Fprintln(r.out)
			}
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		err := r.handle(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.ask(ctx, line)
	}
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	switch args[0] {
	case "/quit", "/exit":
		return errQuit
	case "/help":
		fmt.Fprintln(r.out, "/load FILE  analyze another metrics document")
		fmt.Fprintln(r.out, "/quit       leave the chat")
		return nil
	case "/load":
		if len(args) != 2 {
			return errors.New("usage: /load FILE")
		}
		return r.load(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %s", args[0])
	}
}

// load analyzes the metrics document at path and makes it the
// current session.
func (r *repl) load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := decodeMetrics(data)
	if err != nil {
		return err
	}
	res, err := r.agent.Analyze(ctx, m)
	if err != nil {
		return err
	}
	r.sessionID = m.SessionID
	fmt.Fprintf(r.out, "Session %s: %s\n%s\n",
		m.SessionID, res.PrimaryIssue, res.Summary)
	return nil
}

func (r *repl) ask(ctx context.Context, question string) error {
	ans, err := r.agent.Chat(ctx, r.sessionID, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, ans.Answer)
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
