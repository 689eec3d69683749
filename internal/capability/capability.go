// Package capability defines the local function table the model may call
// through TOOL:SYSTEM directives.
package capability

import (
	"context"
	"fmt"
	"sort"
)

// Name identifies a registered capability.
type Name string

const (
	GetTime        Name = "get_time"
	GetDate        Name = "get_date"
	GetSystemInfo  Name = "get_system_info"
	GetNetworkInfo Name = "get_network_info"
	ExecuteCommand Name = "execute_command"
	ReadFile       Name = "read_file"
	WriteFile      Name = "write_file"
	DeleteFile     Name = "delete_file"
	ListDirectory  Name = "list_directory"
)

// Result is the outcome of one capability invocation. RequiresConfirmation means
// nothing was changed and the same call must be repeated with user consent.
type Result struct {
	Success              bool           `json:"success"`
	Payload              map[string]any `json:"payload,omitempty"`
	Error                string         `json:"error,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation,omitempty"`
}

// OK builds a successful result.
func OK(payload map[string]any) Result {
	return Result{Success: true, Payload: payload}
}

// Fail builds a failed result.
func Fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// NeedsConfirmation builds a result describing a mutation that was not performed.
func NeedsConfirmation(message string, payload map[string]any) Result {
	return Result{Success: false, Error: message, Payload: payload, RequiresConfirmation: true}
}

// Capability is one callable entry of the function table.
type Capability interface {
	Declaration() Declaration
	Invoke(ctx context.Context, params map[string]any) (Result, error)
}

// Registry maps names to capabilities. It is built once at startup and read-only afterwards.
type Registry struct {
	entries map[Name]Capability
}

// NewRegistry creates a registry from caps. Duplicate names panic.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{entries: make(map[Name]Capability, len(caps))}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

// Register adds c to the registry.
func (r *Registry) Register(c Capability) {
	if c == nil {
		panic("capability is required")
	}
	name := c.Declaration().Name
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("capability %q registered twice", name))
	}
	r.entries[name] = c
}

// Lookup finds the capability called name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.entries[Name(name)]
	return c, ok
}

// Declarations returns every registered declaration sorted by name.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.entries))
	for _, c := range r.entries {
		decls = append(decls, c.Declaration())
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Len reports the number of registered capabilities.
func (r *Registry) Len() int { return len(r.entries) }

type confirmationKey struct{}

// WithConfirmation marks ctx as carrying explicit user consent for the call it is passed to.
// Only the host grants consent; the model cannot set it through parameters.
func WithConfirmation(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmationKey{}, true)
}

// Confirmed reports whether ctx carries user consent.
func Confirmed(ctx context.Context) bool {
	ok, _ := ctx.Value(confirmationKey{}).(bool)
	return ok
}
