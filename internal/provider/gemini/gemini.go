// Package gemini is an alternative chat backend on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/rs/zerolog"
)

var (
	ErrNoCandidates   = errors.New("no candidates in response")
	ErrContentBlocked = errors.New("content blocked by safety filters")
)

// Provider chats through Gemini. It is safe for concurrent use.
type Provider struct {
	client GeminiClient
	logger zerolog.Logger

	mu          sync.RWMutex
	model       string
	temperature float32
}

// New creates a Provider for cfg.Provider.GeminiModel.
func New(client GeminiClient, cfg *config.Config, logger zerolog.Logger) *Provider {
	if client == nil {
		panic("client is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Provider{
		client:      client,
		logger:      logger,
		model:       cfg.Provider.GeminiModel,
		temperature: float32(config.ClampTemperature(cfg.Ollama.Temperature)),
	}
}

func (p *Provider) snapshot() (string, float32) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model, p.temperature
}

// Chat sends the conversation and returns the reply text.
func (p *Provider) Chat(ctx context.Context, entries []history.Entry) (string, error) {
	model, temperature := p.snapshot()
	system, contents := toGeminiContents(entries)

	p.logger.Debug().Str("model", model).Int("contents", len(contents)).Msg("gemini chat request")

	resp, err := p.client.GenerateContent(ctx, model, contents, toGeminiConfig(system, temperature))
	if err != nil {
		return "", mapGeminiError(model, err)
	}
	return fromGeminiResponse(resp)
}

// ChatStream streams the reply, calling onToken for every text fragment.
// The accumulated text is returned, including on error.
func (p *Provider) ChatStream(ctx context.Context, entries []history.Entry, onToken func(string)) (string, error) {
	model, temperature := p.snapshot()
	system, contents := toGeminiContents(entries)

	var sb strings.Builder
	for resp, err := range p.client.GenerateContentStream(ctx, model, contents, toGeminiConfig(system, temperature)) {
		if err != nil {
			return sb.String(), mapGeminiError(model, err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			continue
		}
		tok := candidateText(resp.Candidates[0])
		if tok == "" {
			continue
		}
		sb.WriteString(tok)
		if onToken != nil {
			onToken(tok)
		}
	}
	return sb.String(), nil
}

// Model returns the active model name.
func (p *Provider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// SetModel changes the active model at runtime.
func (p *Provider) SetModel(model string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = strings.TrimPrefix(model, "models/")
}

// SetTemperature sets the sampling temperature, clamped to [0, 2].
func (p *Provider) SetTemperature(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.temperature = float32(config.ClampTemperature(t))
}

// ListModels returns the chat-capable model names.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	names, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapGeminiError(p.Model(), err)
	}
	return names, nil
}
