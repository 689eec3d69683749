package ollama

import (
	"context"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/history"
)

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []history.Entry `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  options         `json:"options"`
}

type chatResponse struct {
	Message history.Entry `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

// Chat sends the conversation and returns the full assistant reply.
func (c *Client) Chat(ctx context.Context, messages []history.Entry) (string, error) {
	req := chatRequest{
		Model:    c.Model(),
		Messages: messages,
		Stream:   false,
		Options:  c.options(),
	}
	c.logger.Debug().Str("model", req.Model).Int("messages", len(messages)).Msg("chat request")

	resp, err := c.http.PostWithRetry(ctx, c.endpoint("/api/chat"), req, false, c.timeout)
	if err != nil {
		return "", err
	}
	defer resp.Close()

	var out chatResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", &ServerError{Message: out.Error}
	}
	return out.Message.Content, nil
}

// ChatStream sends the conversation with streaming on, calling onToken for
// every message.content fragment until the server reports done. The
// accumulated reply is returned, including on error.
func (c *Client) ChatStream(ctx context.Context, messages []history.Entry, onToken func(string)) (string, error) {
	req := chatRequest{
		Model:    c.Model(),
		Messages: messages,
		Stream:   true,
		Options:  c.options(),
	}
	return c.stream(ctx, "/api/chat", req, "message.content", onToken)
}

// Generate runs a single prompt through /api/generate, streaming the
// response field. system is optional.
func (c *Client) Generate(ctx context.Context, prompt, system string, onToken func(string)) (string, error) {
	req := generateRequest{
		Model:   c.Model(),
		Prompt:  prompt,
		System:  system,
		Stream:  true,
		Options: c.options(),
	}
	return c.stream(ctx, "/api/generate", req, "response", onToken)
}

func (c *Client) stream(ctx context.Context, path string, body any, field string, onToken func(string)) (string, error) {
	resp, err := c.http.PostWithRetry(ctx, c.endpoint(path), body, true, c.timeout)
	if err != nil {
		return "", err
	}
	lines := resp.Lines()
	defer lines.Close()

	var sb strings.Builder
	for lines.Next() {
		v := lines.Value()
		if msg := v.Get("error"); msg.Exists() {
			return sb.String(), &ServerError{Message: msg.String()}
		}
		if tok := v.Get(field).String(); tok != "" {
			sb.WriteString(tok)
			if onToken != nil {
				onToken(tok)
			}
		}
		if v.Get("done").Bool() {
			return sb.String(), nil
		}
	}
	if err := lines.Err(); err != nil {
		return sb.String(), err
	}
	if n := lines.Skipped(); n > 0 {
		c.logger.Warn().Str("path", path).Int("skipped", n).Msg("stream ended with malformed lines")
	}
	return sb.String(), nil
}
