package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Cyclone1070/deskpal/internal/agent"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// newRenderer returns the reply formatter. Markdown is rendered with glamour
// on a terminal and left as-is otherwise.
func newRenderer(plain bool, out io.Writer) func(string) string {
	if plain || !isTerminal(out) {
		return func(s string) string { return s }
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(s string) string { return s }
	}
	return func(s string) string {
		rendered, err := renderer.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(rendered, "\n")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// printEvents writes one status line per tool event until events is closed.
func printEvents(w io.Writer, events <-chan agent.Event) {
	for e := range events {
		switch ev := e.(type) {
		case agent.ToolStartEvent:
			fmt.Fprintln(w, toolStyle.Render(fmt.Sprintf("→ %s %s", ev.Tool, ev.Target)))
		case agent.ToolEndEvent:
			if ev.Result.Success {
				fmt.Fprintln(w, statusStyle.Render(fmt.Sprintf("✔ %s %s", ev.Tool, ev.Target)))
			} else if !ev.Result.RequiresConfirmation {
				fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✘ %s %s: %s", ev.Tool, ev.Target, ev.Result.Error)))
			}
		}
	}
}

// lockedWriter serialises writes from the logger and the event printer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
