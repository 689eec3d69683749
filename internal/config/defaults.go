package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Ollama    OllamaConfig    `json:"ollama"`
	Provider  ProviderConfig  `json:"provider"`
	Agent     AgentConfig     `json:"agent"`
	Transport TransportConfig `json:"transport"`
	Tools     ToolsConfig     `json:"tools"`
	Log       LogConfig       `json:"log"`
}

// OllamaConfig is the configuration snapshot consumed by the agent core.
type OllamaConfig struct {
	Host              string  `json:"host"`                // Default: http://localhost:11434
	Model             string  `json:"model"`               // Default: llama3.2
	Temperature       float64 `json:"temperature"`         // Default: 0.7 (0.0 - 2.0)
	MaxTokens         int     `json:"max_tokens"`          // Default: 2048 (sent as num_predict)
	Timeout           int     `json:"timeout"`             // Default: 30 (seconds, per HTTP call)
	AllowNetwork      bool    `json:"allow_network"`       // Default: true
	AllowSystemTools  bool    `json:"allow_system_tools"`  // Default: true
	MaxToolIterations int     `json:"max_tool_iterations"` // Default: 3
}

type ProviderConfig struct {
	Type        string `json:"type"`         // "ollama" (default) or "gemini"
	GeminiModel string `json:"gemini_model"` // Default: gemini-2.0-flash
}

type AgentConfig struct {
	MaxHistory         int    `json:"max_history"`          // Default: 20
	SystemPrompt       string `json:"system_prompt"`        // Default: DefaultSystemPrompt
	TurnTimeoutSeconds int    `json:"turn_timeout_seconds"` // Default: 300, whole tool loop
}

type TransportConfig struct {
	MaxAttempts         int `json:"max_attempts"`          // Default: 3
	InitialBackoffMs    int `json:"initial_backoff_ms"`    // Default: 250
	MaxBackoffMs        int `json:"max_backoff_ms"`        // Default: 2000
	ListTimeoutSeconds  int `json:"list_timeout_seconds"`  // Default: 5
	ProbeTimeoutSeconds int `json:"probe_timeout_seconds"` // Default: 3
	PullTimeoutSeconds  int `json:"pull_timeout_seconds"`  // Default: 300
}

type ToolsConfig struct {
	// Paths whose mutation requires explicit user confirmation (prefix match, case-insensitive).
	ProtectedPaths []string `json:"protected_paths"`

	// Fetch
	MaxFetchBodyChars int `json:"max_fetch_body_chars"` // Default: 4000

	// Command Execution
	DefaultCommandTimeout int   `json:"default_command_timeout"` // Default: 10 (seconds)
	MaxCommandOutputSize  int64 `json:"max_command_output_size"` // Default: 64 * 1024
	GracefulShutdownMs    int   `json:"graceful_shutdown_ms"`    // Default: 2000

	// File Operations
	MaxReadFileSize int64 `json:"max_read_file_size"` // Default: 1024 * 1024 (1MB)
}

type LogConfig struct {
	Level  string `json:"level"`  // Default: info
	Format string `json:"format"` // "console" (default) or "json"
}

// DefaultSystemPrompt is the companion persona used when none is configured.
const DefaultSystemPrompt = `You are a friendly desktop assistant.
1. Keep answers short and clear, usually no more than three sentences.
2. Be warm and approachable.
3. If you are not sure about something, say so honestly.
4. You can talk in Chinese or English.`

// DefaultProtectedPaths lists system locations that must never be mutated without consent.
var DefaultProtectedPaths = []string{
	`C:\`,
	"/etc",
	"/bin",
	"/sbin",
	"/usr",
	"/boot",
	"/System",
	"/Library",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Host:              "http://localhost:11434",
			Model:             "llama3.2",
			Temperature:       0.7,
			MaxTokens:         2048,
			Timeout:           30,
			AllowNetwork:      true,
			AllowSystemTools:  true,
			MaxToolIterations: 3,
		},
		Provider: ProviderConfig{
			Type:        ProviderOllama,
			GeminiModel: "gemini-2.0-flash",
		},
		Agent: AgentConfig{
			MaxHistory:         20,
			SystemPrompt:       DefaultSystemPrompt,
			TurnTimeoutSeconds: 300,
		},
		Transport: TransportConfig{
			MaxAttempts:         3,
			InitialBackoffMs:    250,
			MaxBackoffMs:        2000,
			ListTimeoutSeconds:  5,
			ProbeTimeoutSeconds: 3,
			PullTimeoutSeconds:  300,
		},
		Tools: ToolsConfig{
			ProtectedPaths:        append([]string(nil), DefaultProtectedPaths...),
			MaxFetchBodyChars:     4000,
			DefaultCommandTimeout: 10,
			MaxCommandOutputSize:  64 * 1024,
			GracefulShutdownMs:    2000,
			MaxReadFileSize:       1024 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)
