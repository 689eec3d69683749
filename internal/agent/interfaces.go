package agent

import (
	"context"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/directive"
	"github.com/Cyclone1070/deskpal/internal/history"
)

// chatBackend talks to the language model.
type chatBackend interface {
	// Chat returns the full assistant reply for the conversation.
	Chat(ctx context.Context, messages []history.Entry) (string, error)

	// ChatStream streams the reply through onToken and returns the accumulated text.
	ChatStream(ctx context.Context, messages []history.Entry, onToken func(string)) (string, error)
}

// toolGateway executes directives. Failures come back as results, never errors.
type toolGateway interface {
	Declarations() []capability.Declaration
	ExecuteSystemCall(ctx context.Context, call directive.SystemCall) capability.Result
	ExecuteConfirmed(ctx context.Context, call directive.SystemCall) capability.Result
	ExecuteFetchCall(ctx context.Context, call directive.FetchCall) capability.Result
}
