package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllDefaults_Pass(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_Ollama(t *testing.T) {
	t.Run("Relative Host Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Ollama.Host = "localhost"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ollama.host")
	})

	t.Run("Temperature Above Range Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Ollama.Temperature = 2.5
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "temperature")
	})

	t.Run("Zero Tool Iterations Passes", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Ollama.MaxToolIterations = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Negative Tool Iterations Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Ollama.MaxToolIterations = -1
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_tool_iterations")
	})
}

func TestValidate_Provider(t *testing.T) {
	t.Run("Unknown Type Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.Type = "openai"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "provider.type")
	})

	t.Run("Gemini Without Model Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.Type = ProviderGemini
		cfg.Provider.GeminiModel = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "gemini_model")
	})
}

func TestValidate_Transport(t *testing.T) {
	t.Run("Zero Attempts Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transport.MaxAttempts = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_attempts")
	})

	t.Run("Max Backoff Below Initial Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transport.InitialBackoffMs = 500
		cfg.Transport.MaxBackoffMs = 100
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_backoff_ms")
	})
}

func TestValidate_Tools(t *testing.T) {
	t.Run("Zero Fetch Body Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.MaxFetchBodyChars = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_fetch_body_chars")
	})

	t.Run("Blank Protected Path Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.ProtectedPaths = []string{"/etc", "  "}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "protected_paths[1]")
	})
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.MaxHistory = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Problems, 2)
}

func TestClampTemperature(t *testing.T) {
	assert.Equal(t, 0.0, ClampTemperature(-1))
	assert.Equal(t, 2.0, ClampTemperature(3.5))
	assert.Equal(t, 0.7, ClampTemperature(0.7))
}
