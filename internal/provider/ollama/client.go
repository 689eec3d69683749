// Package ollama talks to a local Ollama server: chat, generate and the
// model registry endpoints.
package ollama

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"github.com/rs/zerolog"
)

// httpDoer is the slice of transport.Client the backend needs.
type httpDoer interface {
	PostWithRetry(ctx context.Context, url string, body any, stream bool, timeout time.Duration) (*transport.Response, error)
	GetWithRetry(ctx context.Context, url string, stream bool, timeout time.Duration) (*transport.Response, error)
}

// Client is the Ollama backend. Model and temperature may be changed at
// runtime; every other setting is fixed at construction.
type Client struct {
	http      httpDoer
	host      string
	maxTokens int

	timeout      time.Duration
	listTimeout  time.Duration
	probeTimeout time.Duration
	pullTimeout  time.Duration

	logger zerolog.Logger

	mu          sync.RWMutex
	model       string
	temperature float64
}

// New creates a Client from the configuration snapshot.
func New(doer httpDoer, cfg *config.Config, logger zerolog.Logger) *Client {
	if doer == nil {
		panic("doer is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Client{
		http:         doer,
		host:         strings.TrimRight(cfg.Ollama.Host, "/"),
		maxTokens:    cfg.Ollama.MaxTokens,
		timeout:      seconds(cfg.Ollama.Timeout),
		listTimeout:  seconds(cfg.Transport.ListTimeoutSeconds),
		probeTimeout: seconds(cfg.Transport.ProbeTimeoutSeconds),
		pullTimeout:  seconds(cfg.Transport.PullTimeoutSeconds),
		logger:       logger,
		model:        cfg.Ollama.Model,
		temperature:  config.ClampTemperature(cfg.Ollama.Temperature),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Model returns the active model name.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel switches the active model. The name is not checked against the server.
func (c *Client) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Info().Str("from", c.model).Str("to", name).Msg("switching model")
	c.model = name
}

// Temperature returns the sampling temperature.
func (c *Client) Temperature() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.temperature
}

// SetTemperature sets the sampling temperature, clamped to [0, 2].
func (c *Client) SetTemperature(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temperature = config.ClampTemperature(t)
}

// Host returns the server base URL.
func (c *Client) Host() string {
	return c.host
}

func (c *Client) endpoint(path string) string {
	return c.host + path
}

func (c *Client) options() options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return options{Temperature: c.temperature, NumPredict: c.maxTokens}
}
