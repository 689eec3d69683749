// Package directive extracts the inline tool instructions a model embeds in its
// own reply text: TOOL:SYSTEM {...} and TOOL:FETCH {...}.
package directive

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SystemMarker = "TOOL:SYSTEM"
	FetchMarker  = "TOOL:FETCH"
)

// Directive is a parsed tool instruction. Implementations: SystemCall, FetchCall.
type Directive interface {
	isDirective()
}

// SystemCall asks for a registered local capability.
type SystemCall struct {
	Function string         `json:"function"`
	Params   map[string]any `json:"params"`
}

func (SystemCall) isDirective() {}

// FetchCall asks for an outbound HTTP request.
type FetchCall struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

func (FetchCall) isDirective() {}

// Parser finds at most one directive in a reply.
type Parser interface {
	Parse(text string) (Directive, bool)
}

// TextParser implements Parser for the marker-plus-JSON grammar.
// It is stateless; the zero value is ready to use.
type TextParser struct{}

// Parse returns the directive carried by text. TOOL:SYSTEM takes precedence over
// TOOL:FETCH; if the winning marker's JSON is invalid or lacks its required key the
// text carries no directive.
func (TextParser) Parse(text string) (Directive, bool) {
	if idx := strings.Index(text, SystemMarker); idx >= 0 {
		return parseSystem(text[idx+len(SystemMarker):])
	}
	if idx := strings.Index(text, FetchMarker); idx >= 0 {
		return parseFetch(text[idx+len(FetchMarker):])
	}
	return nil, false
}

// Parse is a convenience wrapper around TextParser.
func Parse(text string) (Directive, bool) {
	return TextParser{}.Parse(text)
}

func parseSystem(rest string) (Directive, bool) {
	obj, ok := firstObject(rest)
	if !ok {
		return nil, false
	}
	function, ok := obj["function"].(string)
	if !ok || strings.TrimSpace(function) == "" {
		return nil, false
	}
	// Params that are not an object are dropped; the capability reports
	// whatever it then finds missing.
	params, ok := obj["params"].(map[string]any)
	if !ok {
		params = map[string]any{}
	}
	return SystemCall{Function: function, Params: params}, true
}

func parseFetch(rest string) (Directive, bool) {
	obj, ok := firstObject(rest)
	if !ok {
		return nil, false
	}
	url, ok := obj["url"].(string)
	if !ok || strings.TrimSpace(url) == "" {
		return nil, false
	}
	call := FetchCall{URL: url, Body: obj["body"]}
	if method, ok := obj["method"].(string); ok {
		call.Method = method
	}
	if headers, ok := obj["headers"].(map[string]any); ok && len(headers) > 0 {
		call.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			switch v := v.(type) {
			case nil:
			case string:
				call.Headers[k] = v
			default:
				call.Headers[k] = fmt.Sprint(v)
			}
		}
	}
	return call, true
}

// firstObject decodes the first complete JSON object starting at the first '{'.
// The decoder tracks strings and nesting, so braces inside string values and
// trailing prose after the object do not matter.
func firstObject(s string) (map[string]any, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s[start:]))
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
