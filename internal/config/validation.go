package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError lists every invalid configuration value found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Problems, "; "))
}

// Validate checks config values for correctness.
// Returns a *ValidationError if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Ollama
	if u, err := url.Parse(c.Ollama.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "ollama.host must be an absolute URL")
	}
	if c.Ollama.Model == "" {
		errs = append(errs, "ollama.model is required")
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		errs = append(errs, "ollama.temperature must be between 0.0 and 2.0")
	}
	if c.Ollama.MaxTokens < 1 {
		errs = append(errs, "ollama.max_tokens must be >= 1")
	}
	if c.Ollama.Timeout < 1 {
		errs = append(errs, "ollama.timeout must be >= 1")
	}
	if c.Ollama.MaxToolIterations < 0 {
		errs = append(errs, "ollama.max_tool_iterations must be >= 0")
	}

	// Provider
	switch c.Provider.Type {
	case ProviderOllama:
	case ProviderGemini:
		if c.Provider.GeminiModel == "" {
			errs = append(errs, "provider.gemini_model is required for the gemini provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.type must be %q or %q", ProviderOllama, ProviderGemini))
	}

	// Agent
	if c.Agent.MaxHistory < 1 {
		errs = append(errs, "agent.max_history must be >= 1")
	}
	if c.Agent.TurnTimeoutSeconds < 1 {
		errs = append(errs, "agent.turn_timeout_seconds must be >= 1")
	}

	// Transport
	if c.Transport.MaxAttempts < 1 {
		errs = append(errs, "transport.max_attempts must be >= 1")
	}
	if c.Transport.InitialBackoffMs < 0 {
		errs = append(errs, "transport.initial_backoff_ms must be >= 0")
	}
	if c.Transport.MaxBackoffMs < c.Transport.InitialBackoffMs {
		errs = append(errs, "transport.max_backoff_ms must be >= transport.initial_backoff_ms")
	}
	if c.Transport.ListTimeoutSeconds < 1 {
		errs = append(errs, "transport.list_timeout_seconds must be >= 1")
	}
	if c.Transport.ProbeTimeoutSeconds < 1 {
		errs = append(errs, "transport.probe_timeout_seconds must be >= 1")
	}
	if c.Transport.PullTimeoutSeconds < 1 {
		errs = append(errs, "transport.pull_timeout_seconds must be >= 1")
	}

	// Tools
	if c.Tools.MaxFetchBodyChars < 1 {
		errs = append(errs, "tools.max_fetch_body_chars must be >= 1")
	}
	if c.Tools.DefaultCommandTimeout < 1 {
		errs = append(errs, "tools.default_command_timeout must be >= 1")
	}
	if c.Tools.MaxCommandOutputSize < 1 {
		errs = append(errs, "tools.max_command_output_size must be >= 1")
	}
	if c.Tools.GracefulShutdownMs < 1 {
		errs = append(errs, "tools.graceful_shutdown_ms must be >= 1")
	}
	if c.Tools.MaxReadFileSize < 1 {
		errs = append(errs, "tools.max_read_file_size must be >= 1")
	}
	for i, p := range c.Tools.ProtectedPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("tools.protected_paths[%d] must not be empty", i))
		}
	}

	// Log
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, `log.format must be "console" or "json"`)
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// ClampTemperature bounds a sampling temperature to the accepted 0.0 - 2.0 range.
func ClampTemperature(t float64) float64 {
	return max(0.0, min(2.0, t))
}
