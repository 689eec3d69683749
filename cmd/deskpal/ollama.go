package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/provider/ollama"
	"github.com/dustin/go-humanize"
)

// ErrServerUnavailable is returned by ping when the Ollama server does not answer.
var ErrServerUnavailable = errors.New("ollama server is not reachable")

func newOllama(opts Options) (*ollama.Client, error) {
	e, err := loadEnv(opts.Stderr)
	if err != nil {
		return nil, err
	}
	c := ollama.New(e.http, e.cfg, e.logger.With().Str("provider", "ollama").Logger())
	if modelFlag != "" {
		c.SetModel(modelFlag)
	}
	return c, nil
}

func runModelsWithOptions(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	c, err := newOllama(opts)
	if err != nil {
		return err
	}

	models := c.ListModels(ctx)
	if len(models) == 0 {
		fmt.Fprintln(opts.Stderr, errorStyle.Render("no models found on "+c.Host()+"; suggested models:"))
		for _, name := range ollama.FallbackModels {
			fmt.Fprintln(opts.Stdout, "  "+name)
		}
		return nil
	}

	current := c.Model()
	for _, m := range models {
		marker := "  "
		if m.Name == current {
			marker = "* "
		}
		fmt.Fprintf(opts.Stdout, "%s%-30s %10s  %s\n", marker, m.Name, humanize.Bytes(uint64(max(m.Size, 0))), humanize.Time(m.ModifiedAt))
	}
	return nil
}

func runPullWithOptions(ctx context.Context, opts Options, name string) error {
	opts = opts.withDefaults()
	c, err := newOllama(opts)
	if err != nil {
		return err
	}

	var last string
	for line := range c.PullModel(ctx, name) {
		last = line
		if strings.HasPrefix(line, "error: ") {
			fmt.Fprintln(opts.Stderr, errorStyle.Render(line))
			continue
		}
		fmt.Fprintln(opts.Stdout, line)
	}
	if strings.HasPrefix(last, "error: ") {
		return fmt.Errorf("pull %s: %s", name, strings.TrimPrefix(last, "error: "))
	}
	return nil
}

func runPingWithOptions(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	c, err := newOllama(opts)
	if err != nil {
		return err
	}

	if !c.IsAvailable(ctx) {
		fmt.Fprintln(opts.Stderr, errorStyle.Render(c.Host()+" is not reachable"))
		return ErrServerUnavailable
	}
	fmt.Fprintln(opts.Stdout, statusStyle.Render(c.Host()+" is up"))
	return nil
}

func runGenerateWithOptions(ctx context.Context, opts Options, prompt string) error {
	opts = opts.withDefaults()
	c, err := newOllama(opts)
	if err != nil {
		return err
	}

	_, err = c.Generate(ctx, prompt, systemFlag, func(tok string) { fmt.Fprint(opts.Stdout, tok) })
	fmt.Fprintln(opts.Stdout)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
