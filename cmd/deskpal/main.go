// Package main provides the deskpal command line: a chat REPL backed by a
// local Ollama server or Gemini, plus model management commands.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/Cyclone1070/deskpal/internal/logging"
	"github.com/Cyclone1070/deskpal/internal/provider/gemini"
	"github.com/Cyclone1070/deskpal/internal/provider/ollama"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

// Backend is the chat model the agent talks to.
type Backend interface {
	Chat(ctx context.Context, messages []history.Entry) (string, error)
	ChatStream(ctx context.Context, messages []history.Entry, onToken func(string)) (string, error)
	Model() string
	SetModel(name string)
	ModelNames(ctx context.Context) []string
}

// BackendFactory creates the Backend selected by cfg.Provider.Type.
type BackendFactory func(ctx context.Context, cfg *config.Config, doer *transport.Client, logger zerolog.Logger) (Backend, error)

// geminiBackend adapts the Gemini provider to the model listing the CLI needs.
type geminiBackend struct {
	*gemini.Provider
	logger zerolog.Logger
}

func (b geminiBackend) ModelNames(ctx context.Context) []string {
	names, err := b.ListModels(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to list gemini models")
		return nil
	}
	return names
}

// DefaultBackendFactory builds an Ollama client, or a Gemini provider when
// configured. Gemini needs GEMINI_API_KEY.
func DefaultBackendFactory(ctx context.Context, cfg *config.Config, doer *transport.Client, logger zerolog.Logger) (Backend, error) {
	switch cfg.Provider.Type {
	case config.ProviderGemini:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		p := gemini.New(gemini.NewRealGeminiClient(genaiClient), cfg, logger.With().Str("provider", "gemini").Logger())
		return geminiBackend{Provider: p, logger: logger}, nil
	default:
		return ollama.New(doer, cfg, logger.With().Str("provider", "ollama").Logger()), nil
	}
}

// Options carries the injectable dependencies of every command.
type Options struct {
	BackendFactory BackendFactory
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
	Plain          bool // print replies without markdown rendering
}

func (o Options) withDefaults() Options {
	if o.BackendFactory == nil {
		o.BackendFactory = DefaultBackendFactory
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// env is the wiring shared by all commands.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	http   *transport.Client
}

// loadEnv reads the config, falling back to defaults with a warning, and
// builds the logger and the retrying HTTP client.
func loadEnv(stderr io.Writer) (*env, error) {
	loader := config.NewLoader()
	if configFlag != "" {
		loader = loader.WithPath(configFlag)
	}
	cfg, err := loader.Load()
	if err != nil {
		if configFlag != "" {
			return nil, fmt.Errorf("load config: %w", err)
		}
		fmt.Fprintf(stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}

	policy := transport.RetryPolicy{
		MaxAttempts:     cfg.Transport.MaxAttempts,
		InitialInterval: millis(cfg.Transport.InitialBackoffMs),
		MaxInterval:     millis(cfg.Transport.MaxBackoffMs),
	}
	client := transport.NewClient(&http.Client{}, policy, logger.With().Str("component", "transport").Logger())

	return &env{cfg: cfg, logger: logger, http: client}, nil
}

var rootCmd = &cobra.Command{
	Use:          "deskpal",
	Short:        "deskpal - desktop companion backed by a local model",
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in a REPL, or send a single message with -m",
	RunE:  runChat,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models installed on the Ollama server",
	RunE:  runModels,
}

var pullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model and show progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runPull,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check whether the Ollama server is reachable",
	RunE:  runPing,
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Stream a single completion without history or tools",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

var (
	configFlag  string
	messageFlag string
	modelFlag   string
	streamFlag  bool
	plainFlag   bool
	systemFlag  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to a config file (default ~/.config/deskpal/config.json)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Override the configured model")

	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	chatCmd.Flags().BoolVarP(&streamFlag, "stream", "s", false, "Stream tokens as they arrive (tools are not used)")
	chatCmd.Flags().BoolVar(&plainFlag, "plain", false, "Print replies without markdown rendering")

	generateCmd.Flags().StringVar(&systemFlag, "system", "", "System prompt for the completion")

	rootCmd.AddCommand(chatCmd, modelsCmd, pullCmd, pingCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithOptions(cmd.Context(), Options{Plain: plainFlag})
}

func runModels(cmd *cobra.Command, args []string) error {
	return runModelsWithOptions(cmd.Context(), Options{})
}

func runPull(cmd *cobra.Command, args []string) error {
	return runPullWithOptions(cmd.Context(), Options{}, args[0])
}

func runPing(cmd *cobra.Command, args []string) error {
	return runPingWithOptions(cmd.Context(), Options{})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return runGenerateWithOptions(cmd.Context(), Options{}, joinArgs(args))
}
