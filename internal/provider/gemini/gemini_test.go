package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestProvider(client GeminiClient) *Provider {
	cfg := config.DefaultConfig()
	cfg.Provider.GeminiModel = "gemini-mock"
	cfg.Ollama.Temperature = 0.5
	return New(client, cfg, zerolog.Nop())
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func TestChat_ConvertsHistory(t *testing.T) {
	var gotContents []*genai.Content
	var gotConfig *genai.GenerateContentConfig
	var gotModel string
	p := newTestProvider(&MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return textResponse("Hello ", "there!"), nil
		},
	})

	reply, err := p.Chat(context.Background(), []history.Entry{
		{Role: history.RoleSystem, Content: "be brief"},
		{Role: history.RoleUser, Content: "hi"},
		{Role: history.RoleAssistant, Content: "hello"},
		{Role: history.RoleUser, Content: "[TOOL_RESULT] {}"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply)
	assert.Equal(t, "gemini-mock", gotModel)

	require.Len(t, gotContents, 3)
	assert.Equal(t, "user", gotContents[0].Role)
	assert.Equal(t, "model", gotContents[1].Role)
	assert.Equal(t, "[TOOL_RESULT] {}", gotContents[2].Parts[0].Text)

	require.NotNil(t, gotConfig.SystemInstruction)
	assert.Equal(t, "be brief", gotConfig.SystemInstruction.Parts[0].Text)
	require.NotNil(t, gotConfig.Temperature)
	assert.InDelta(t, 0.5, *gotConfig.Temperature, 1e-6)
	assert.Len(t, gotConfig.SafetySettings, 4)
}

func TestChat_NoSystemInstruction(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	p := newTestProvider(&MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotConfig = config
			return textResponse("ok"), nil
		},
	})

	_, err := p.Chat(context.Background(), []history.Entry{{Role: history.RoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Nil(t, gotConfig.SystemInstruction)
}

func TestChat_ResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		wantErr error
	}{
		{
			name:    "No Candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: ErrNoCandidates,
		},
		{
			name: "Safety Block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(&MockGeminiClient{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return tt.resp, nil
				},
			})

			_, err := p.Chat(context.Background(), nil)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChat_APIErrorMapsToTransport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   transport.Kind
		wantStatus int
	}{
		{"Rate Limit", &genai.APIError{Code: 429, Message: "slow down"}, transport.KindHTTP, 429},
		{"Server Error", &genai.APIError{Code: 503, Message: "overloaded"}, transport.KindHTTP, 503},
		{"Deadline", context.DeadlineExceeded, transport.KindTimeout, 0},
		{"Network", errors.New("dial tcp: connection refused"), transport.KindConnection, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(&MockGeminiClient{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return nil, tt.err
				},
			})

			_, err := p.Chat(context.Background(), nil)

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, transport.KindOf(err))
			assert.Equal(t, tt.wantStatus, transport.StatusOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestChatStream(t *testing.T) {
	p := newTestProvider(&MockGeminiClient{
		GenerateContentStreamFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return func(yield func(*genai.GenerateContentResponse, error) bool) {
				if !yield(textResponse("Hel"), nil) {
					return
				}
				if !yield(&genai.GenerateContentResponse{}, nil) {
					return
				}
				yield(textResponse("lo"), nil)
			}
		},
	})

	var tokens []string
	reply, err := p.ChatStream(context.Background(), nil, func(s string) { tokens = append(tokens, s) })

	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, []string{"Hel", "lo"}, tokens)
}

func TestChatStream_ErrorKeepsPartialText(t *testing.T) {
	p := newTestProvider(&MockGeminiClient{
		GenerateContentStreamFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return func(yield func(*genai.GenerateContentResponse, error) bool) {
				if !yield(textResponse("par"), nil) {
					return
				}
				yield(nil, &genai.APIError{Code: 500})
			}
		},
	})

	reply, err := p.ChatStream(context.Background(), nil, nil)

	assert.Equal(t, "par", reply)
	assert.Equal(t, 500, transport.StatusOf(err))
}

func TestModelManagement(t *testing.T) {
	p := newTestProvider(&MockGeminiClient{
		ListModelsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"gemini-2.0-flash", "gemini-2.5-pro"}, nil
		},
	})

	assert.Equal(t, "gemini-mock", p.Model())
	p.SetModel("models/gemini-2.5-pro")
	assert.Equal(t, "gemini-2.5-pro", p.Model())

	names, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.5-pro"}, names)
}

func TestIsChatModel(t *testing.T) {
	assert.True(t, isChatModel("models/gemini-2.0-flash"))
	assert.False(t, isChatModel("models/gemini-embedding-001"))
	assert.False(t, isChatModel("models/gemini-2.0-flash-live-001"))
	assert.False(t, isChatModel("models/text-bison"))
}
