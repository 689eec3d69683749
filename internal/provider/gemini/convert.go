package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"google.golang.org/genai"
)

// toGeminiContents splits the conversation into the system instruction and
// the user/model turns. System messages are concatenated in order.
func toGeminiContents(entries []history.Entry) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(entries))

	for _, e := range entries {
		if e.Content == "" {
			continue
		}
		switch e.Role {
		case history.RoleSystem:
			system = append(system, e.Content)
		case history.RoleAssistant:
			contents = append(contents, textContent("model", e.Content))
		default:
			contents = append(contents, textContent("user", e.Content))
		}
	}

	if len(system) == 0 {
		return nil, contents
	}
	return &genai.Content{
		Parts: []*genai.Part{genai.NewPartFromText(strings.Join(system, "\n\n"))},
	}, contents
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{genai.NewPartFromText(text)},
	}
}

// toGeminiConfig builds the request config for one call.
func toGeminiConfig(system *genai.Content, temperature float32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temperature,
		SafetySettings:    defaultSafetySettings(),
	}
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdOff})
	}
	return settings
}

// fromGeminiResponse extracts the reply text of the first candidate.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	return candidateText(candidate), nil
}

func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// mapGeminiError expresses SDK failures in the transport taxonomy so the
// agent reports them the same way as Ollama failures.
func mapGeminiError(model string, err error) error {
	if err == nil {
		return nil
	}
	op := "gemini " + model

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &transport.Error{Kind: transport.KindHTTP, Op: op, Status: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &transport.Error{Kind: transport.KindTimeout, Op: op, Err: err}
	case errors.Is(err, context.Canceled):
		return &transport.Error{Kind: transport.KindUnknown, Op: op, Err: err}
	}
	return &transport.Error{Kind: transport.KindConnection, Op: op, Err: err}
}
