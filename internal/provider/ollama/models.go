package ollama

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Cyclone1070/deskpal/internal/transport"
)

// FallbackModels is offered to the user when the server lists nothing.
var FallbackModels = []string{"llama3.2", "llama3.1", "qwen2.5", "phi4", "mistral"}

// ModelInfo describes one locally installed model.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// ListModels returns the installed models. Any failure yields an empty
// slice; the caller decides what to fall back to.
func (c *Client) ListModels(ctx context.Context) []ModelInfo {
	resp, err := c.http.GetWithRetry(ctx, c.endpoint("/api/tags"), false, c.listTimeout)
	if err != nil {
		c.logger.Warn().Err(err).Msg("listing models failed")
		return []ModelInfo{}
	}
	defer resp.Close()

	var out tagsResponse
	if err := resp.Decode(&out); err != nil {
		c.logger.Warn().Err(err).Msg("decoding model list failed")
		return []ModelInfo{}
	}
	if out.Models == nil {
		return []ModelInfo{}
	}
	return out.Models
}

// ModelNames returns the installed model names, or FallbackModels when
// none could be listed.
func (c *Client) ModelNames(ctx context.Context) []string {
	models := c.ListModels(ctx)
	if len(models) == 0 {
		return append([]string(nil), FallbackModels...)
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names
}

// IsAvailable probes the server with a short timeout. Every error means
// unavailable.
func (c *Client) IsAvailable(ctx context.Context) bool {
	resp, err := c.http.GetWithRetry(ctx, c.endpoint("/api/tags"), false, c.probeTimeout)
	if err != nil {
		c.logger.Debug().Err(err).Str("host", c.host).Msg("server unavailable")
		return false
	}
	resp.Close()
	return true
}

// PullModel downloads a model, yielding one human readable progress line
// per server update: "status" or "status: completed/total". A failure is
// reported as a final "error: ..." line, never as a panic or error value.
func (c *Client) PullModel(ctx context.Context, name string) iter.Seq[string] {
	return func(yield func(string) bool) {
		c.logger.Info().Str("model", name).Msg("pulling model")

		resp, err := c.http.PostWithRetry(ctx, c.endpoint("/api/pull"), pullRequest{Name: name, Stream: true}, true, c.pullTimeout)
		if err != nil {
			c.logger.Error().Err(err).Str("model", name).Msg("pull failed")
			yield("error: " + transport.UserMessage(err))
			return
		}
		lines := resp.Lines()
		defer lines.Close()

		for lines.Next() {
			v := lines.Value()
			if msg := v.Get("error"); msg.Exists() {
				yield("error: " + msg.String())
				return
			}
			status := v.Get("status").String()
			line := status
			if completed := v.Get("completed"); completed.Exists() {
				line = fmt.Sprintf("%s: %d/%d", status, completed.Int(), v.Get("total").Int())
			}
			if !yield(line) {
				return
			}
		}
		if err := lines.Err(); err != nil {
			c.logger.Error().Err(err).Str("model", name).Msg("pull stream broke")
			yield("error: " + transport.UserMessage(err))
		}
	}
}
