package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/agent"
	"github.com/Cyclone1070/deskpal/internal/gateway"
	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/Cyclone1070/deskpal/internal/tool"
	"github.com/dustin/go-humanize"
)

// session is one interactive chat: the agent plus the terminal around it.
type session struct {
	agent   *agent.Agent
	backend Backend
	in      *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	render  func(string) string
}

func runChatWithOptions(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	stderr := &lockedWriter{w: opts.Stderr}

	e, err := loadEnv(stderr)
	if err != nil {
		return err
	}

	backend, err := opts.BackendFactory(ctx, e.cfg, e.http, e.logger)
	if err != nil {
		return err
	}
	if modelFlag != "" {
		backend.SetModel(modelFlag)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = baseDir
	}
	registry := tool.NewRegistry(e.cfg.Tools, baseDir, homeDir, e.logger)
	gw := gateway.New(registry, e.http, e.cfg, e.logger.With().Str("component", "gateway").Logger())

	events := make(chan agent.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(stderr, events)
	}()
	defer func() {
		close(events)
		<-done
	}()

	s := &session{
		agent:   agent.New(backend, gw, e.cfg, e.logger.With().Str("component", "agent").Logger(), agent.WithEvents(events)),
		backend: backend,
		in:      bufio.NewScanner(opts.Stdin),
		out:     opts.Stdout,
		errOut:  stderr,
		render:  newRenderer(opts.Plain, opts.Stdout),
	}

	// Single message mode
	if messageFlag != "" {
		reply := s.turn(ctx, messageFlag)
		if reply.Err != nil {
			return fmt.Errorf("agent error: %w", reply.Err)
		}
		return nil
	}

	// REPL mode
	fmt.Fprintln(s.out, titleStyle.Render("deskpal")+" "+dimStyle.Render(backend.Model()+"  (/help for commands)"))
	for {
		fmt.Fprint(s.out, "\n> ")
		if !s.in.Scan() {
			break
		}
		input := strings.TrimSpace(s.in.Text())
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") || input == "exit" || input == "quit" {
			if !s.command(ctx, input) {
				break
			}
			continue
		}
		s.turn(ctx, input)
	}
	return s.in.Err()
}

// turn answers one utterance and walks the user through any confirmation
// the model's tool calls ask for.
func (s *session) turn(ctx context.Context, input string) agent.Reply {
	var reply agent.Reply
	if streamFlag {
		reply = s.agent.Stream(ctx, input, func(tok string) { fmt.Fprint(s.out, tok) })
		fmt.Fprintln(s.out)
		if reply.Err != nil {
			fmt.Fprintln(s.errOut, errorStyle.Render(reply.Text))
		}
		return reply
	}

	reply = s.agent.Run(ctx, input)
	for reply.Stop == agent.StopNeedsConfirmation && len(reply.Confirmations) > 0 {
		s.print(reply)
		p := reply.Confirmations[0]
		if s.confirm(p) {
			reply = s.agent.ResumeConfirmed(ctx, p)
		} else {
			reply = s.agent.ResumeDeclined(ctx, p)
		}
	}
	s.print(reply)
	return reply
}

func (s *session) print(reply agent.Reply) {
	switch reply.Stop {
	case agent.StopTransportError, agent.StopBudgetExceeded:
		fmt.Fprintln(s.errOut, errorStyle.Render(reply.Text))
	case agent.StopNeedsConfirmation:
		// the prompt that follows carries the details
	default:
		fmt.Fprintln(s.out, s.render(reply.Text))
	}
}

// confirm asks the user to approve p. Anything but y/yes declines.
func (s *session) confirm(p agent.PendingConfirmation) bool {
	fmt.Fprintln(s.out, confirmStyle.Render(fmt.Sprintf("%s wants confirmation: %s", p.Call.Function, p.Message)))
	for k, v := range p.Payload {
		fmt.Fprintf(s.out, "  %s: %v\n", k, v)
	}
	fmt.Fprint(s.out, "Allow? [y/N] ")
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return answer == "y" || answer == "yes"
}

// command runs a slash command. It returns false when the REPL should exit.
func (s *session) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "exit", "quit":
		return false
	case "/clear":
		s.agent.ClearHistory()
		fmt.Fprintln(s.out, statusStyle.Render("history cleared"))
	case "/model":
		if arg == "" {
			current := s.backend.Model()
			for _, m := range s.backend.ModelNames(ctx) {
				marker := "  "
				if m == current {
					marker = "* "
				}
				fmt.Fprintln(s.out, marker+m)
			}
			return true
		}
		s.backend.SetModel(arg)
		fmt.Fprintln(s.out, statusStyle.Render("model set to "+s.backend.Model()))
	case "/prompt":
		if arg == "" {
			fmt.Fprintln(s.out, s.agent.Persona())
			return true
		}
		s.agent.SetSystemPrompt(arg)
		fmt.Fprintln(s.out, statusStyle.Render("system prompt updated"))
	case "/history":
		for _, m := range s.agent.History().Messages() {
			if m.Role == history.RoleSystem {
				continue
			}
			fmt.Fprintf(s.out, "%s %s: %s\n", dimStyle.Render(humanize.Time(m.Timestamp)), m.Role, m.Content)
		}
	case "/help":
		fmt.Fprintln(s.out, helpText)
	default:
		fmt.Fprintln(s.errOut, errorStyle.Render("unknown command: "+name))
	}
	return true
}

const helpText = `/clear           forget the conversation
/model [name]    list models or switch to name
/prompt [text]   show or replace the system prompt
/history         show the conversation
/quit            leave`
