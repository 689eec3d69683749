// Package gateway executes parsed directives against the capability table
// and the outbound network, enforcing the configured permissions.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/directive"
	"github.com/Cyclone1070/deskpal/internal/tool/helper/content"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"github.com/rs/zerolog"
)

// ErrNetworkDisabled is reported when a fetch is attempted with network access off.
var ErrNetworkDisabled = errors.New("network access is disabled")

// httpDoer performs one logical HTTP call with its own retry policy.
type httpDoer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Gateway runs SystemCall and FetchCall directives. It never returns an error:
// every failure becomes a capability.Result the model can read.
type Gateway struct {
	registry     *capability.Registry
	http         httpDoer
	allowNetwork bool
	maxBodyChars int
	timeout      time.Duration
	logger       zerolog.Logger
}

// New creates a Gateway.
func New(registry *capability.Registry, doer httpDoer, cfg *config.Config, logger zerolog.Logger) *Gateway {
	if registry == nil {
		panic("registry is required")
	}
	if doer == nil {
		panic("doer is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Gateway{
		registry:     registry,
		http:         doer,
		allowNetwork: cfg.Ollama.AllowNetwork,
		maxBodyChars: cfg.Tools.MaxFetchBodyChars,
		timeout:      time.Duration(cfg.Ollama.Timeout) * time.Second,
		logger:       logger,
	}
}

// Registry exposes the capability table.
func (g *Gateway) Registry() *capability.Registry {
	return g.registry
}

// Declarations lists the registered capabilities, sorted by name.
func (g *Gateway) Declarations() []capability.Declaration {
	return g.registry.Declarations()
}

// ExecuteSystemCall invokes the named capability. Unknown names, capability
// errors and panics all become failed results. A result asking for
// confirmation is returned unchanged.
func (g *Gateway) ExecuteSystemCall(ctx context.Context, call directive.SystemCall) (res capability.Result) {
	c, ok := g.registry.Lookup(call.Function)
	if !ok {
		g.logger.Warn().Str("function", call.Function).Msg("unknown function requested")
		return capability.Fail("unknown function: %s", call.Function)
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Str("function", call.Function).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("capability panicked")
			res = capability.Fail("%s failed: %v", call.Function, r)
		}
	}()

	params := call.Params
	if params == nil {
		params = map[string]any{}
	}
	res, err := c.Invoke(ctx, params)
	if err != nil {
		g.logger.Warn().Err(err).Str("function", call.Function).Msg("capability returned error")
		return capability.Fail("%v", err)
	}
	g.logger.Debug().Str("function", call.Function).Bool("success", res.Success).Bool("requires_confirmation", res.RequiresConfirmation).Msg("capability finished")
	return res
}

// ExecuteConfirmed re-runs a call with the user's explicit consent attached.
// Only the host may call this, after asking the user.
func (g *Gateway) ExecuteConfirmed(ctx context.Context, call directive.SystemCall) capability.Result {
	return g.ExecuteSystemCall(capability.WithConfirmation(ctx), call)
}

// ExecuteFetchCall performs an outbound HTTP request. With network access
// disabled no request is made. The response body is cut to the configured
// number of characters.
func (g *Gateway) ExecuteFetchCall(ctx context.Context, call directive.FetchCall) capability.Result {
	if !g.allowNetwork {
		return capability.Fail("%s", ErrNetworkDisabled)
	}

	u, err := url.Parse(strings.TrimSpace(call.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return capability.Fail("invalid url %q: only absolute http and https URLs are allowed", call.URL)
	}

	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		method = http.MethodGet
	}

	header := make(http.Header, len(call.Headers))
	for k, v := range call.Headers {
		header.Set(k, v)
	}

	var body []byte
	switch b := call.Body.(type) {
	case nil:
	case string:
		body = []byte(b)
	default:
		body, err = json.Marshal(b)
		if err != nil {
			return capability.Fail("encode body: %v", err)
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	g.logger.Info().Str("method", method).Str("url", u.String()).Msg("fetching")

	resp, err := g.http.Do(ctx, transport.Request{
		Method:       method,
		URL:          u.String(),
		Header:       header,
		Body:         body,
		Timeout:      g.timeout,
		MaxBodyBytes: fetchByteLimit(g.maxBodyChars),
	})
	if err != nil {
		res := capability.Fail("%s %s: %v", method, u.String(), err)
		if status := transport.StatusOf(err); status != 0 {
			res.Payload = map[string]any{"url": u.String(), "status": status}
		}
		return res
	}
	defer resp.Close()

	data, err := resp.Bytes()
	if err != nil {
		return capability.Fail("read body: %v", err)
	}

	text := string(data)
	if content.IsBinary(data) {
		text = fmt.Sprintf("[binary content, %d bytes]", len(data))
	}
	text, truncated := content.Truncate(text, g.maxBodyChars)
	truncated = truncated || resp.Truncated

	return capability.OK(map[string]any{
		"url":          u.String(),
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
		"body":         text,
		"truncated":    truncated,
	})
}

// fetchByteLimit is the most bytes that can hold maxChars complete runes
// plus one partially read rune.
func fetchByteLimit(maxChars int) int64 {
	if maxChars <= 0 {
		return 0
	}
	return int64(maxChars+1) * utf8.UTFMax
}
