// Package agent runs the chat-with-tools loop: send the conversation, look
// for a directive in the reply, execute it, feed the result back, repeat.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/directive"
	"github.com/Cyclone1070/deskpal/internal/history"
	"github.com/Cyclone1070/deskpal/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Text appended to replies that end a turn early.
const (
	ToolResultPrefix        = "[TOOL_RESULT]"
	IterationLimitMarker    = "[tool iteration limit reached]"
	SystemToolsDeniedNotice = "[permission denied: system tools are disabled in settings, nothing was executed]"
	NetworkDeniedNotice     = "[permission denied: network access is disabled in settings, no request was made]"
)

// ErrTurnBudgetExceeded is the cancellation cause when a turn outlives its wall-clock budget.
var ErrTurnBudgetExceeded = errors.New("turn budget exceeded")

// StopReason tells the host why a turn ended.
type StopReason int

const (
	StopFinal StopReason = iota
	StopPermissionDenied
	StopIterationLimit
	StopNeedsConfirmation
	StopTransportError
	StopBudgetExceeded
)

func (s StopReason) String() string {
	switch s {
	case StopFinal:
		return "final"
	case StopPermissionDenied:
		return "permission_denied"
	case StopIterationLimit:
		return "iteration_limit"
	case StopNeedsConfirmation:
		return "needs_confirmation"
	case StopTransportError:
		return "transport_error"
	case StopBudgetExceeded:
		return "budget_exceeded"
	default:
		return "unknown"
	}
}

// PendingConfirmation is a call that was refused for lack of user consent.
type PendingConfirmation struct {
	TurnID  string
	Call    directive.SystemCall
	Message string
	Payload map[string]any
}

// Reply is the outcome of one turn.
type Reply struct {
	TurnID        string
	Text          string
	Stop          StopReason
	Dispatches    int
	Confirmations []PendingConfirmation
	Err           error // the transport or budget error behind StopTransportError/StopBudgetExceeded
}

// LoopState is the per-turn loop bookkeeping.
type LoopState struct {
	Iteration          int
	PendingUserMessage string
	FinalReply         string
}

// Agent owns one conversation. It runs one turn at a time; the host must
// not call Run, Stream or Resume* concurrently.
type Agent struct {
	backend chatBackend
	parser  directive.Parser
	tools   toolGateway
	history *history.History

	persona          string
	allowSystemTools bool
	allowNetwork     bool
	maxIterations    int
	turnTimeout      time.Duration

	events  chan<- Event
	onReply func(string)
	logger  zerolog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithEvents streams progress events to ch. Sends block, so ch must be drained.
func WithEvents(ch chan<- Event) Option {
	return func(a *Agent) { a.events = ch }
}

// WithOnReply registers a callback for every completed reply, e.g. speech synthesis.
func WithOnReply(fn func(string)) Option {
	return func(a *Agent) { a.onReply = fn }
}

// WithParser replaces the directive parser.
func WithParser(p directive.Parser) Option {
	return func(a *Agent) { a.parser = p }
}

// New creates an Agent and installs the system prompt built from
// cfg.Agent.SystemPrompt and the gateway's capabilities.
func New(backend chatBackend, tools toolGateway, cfg *config.Config, logger zerolog.Logger, opts ...Option) *Agent {
	if backend == nil {
		panic("backend is required")
	}
	if tools == nil {
		panic("tools is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	a := &Agent{
		backend:          backend,
		parser:           directive.TextParser{},
		tools:            tools,
		history:          history.New(cfg.Agent.MaxHistory),
		allowSystemTools: cfg.Ollama.AllowSystemTools,
		allowNetwork:     cfg.Ollama.AllowNetwork,
		maxIterations:    max(cfg.Ollama.MaxToolIterations, 0),
		turnTimeout:      time.Duration(cfg.Agent.TurnTimeoutSeconds) * time.Second,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.SetSystemPrompt(cfg.Agent.SystemPrompt)
	return a
}

// History exposes the conversation log.
func (a *Agent) History() *history.History {
	return a.history
}

// Persona returns the persona part of the system prompt.
func (a *Agent) Persona() string {
	return a.persona
}

// SetSystemPrompt replaces the persona. The tool protocol is appended.
func (a *Agent) SetSystemPrompt(persona string) {
	a.persona = persona
	a.history.SetSystemPrompt(BuildSystemPrompt(persona, a.tools.Declarations(), a.allowSystemTools, a.allowNetwork))
}

// ClearHistory drops every message except the system prompt.
func (a *Agent) ClearHistory() {
	a.history.Reset()
	a.logger.Info().Msg("history cleared")
}

// Run answers one user utterance, executing at most MaxToolIterations
// directives. It never returns an error: transport failures become
// "error: ..." reply text.
func (a *Agent) Run(ctx context.Context, utterance string) Reply {
	ctx, cancel := a.budget(ctx)
	defer cancel()
	return a.run(ctx, uuid.NewString(), LoopState{PendingUserMessage: utterance})
}

// ResumeConfirmed executes a call the user approved and continues the turn
// with its result. The call and the loop after it share a fresh iteration
// and time budget.
func (a *Agent) ResumeConfirmed(ctx context.Context, p PendingConfirmation) Reply {
	ctx, cancel := a.budget(ctx)
	defer cancel()

	turnID := p.TurnID
	if turnID == "" {
		turnID = uuid.NewString()
	}
	a.logger.Info().Str("turn", turnID).Str("function", p.Call.Function).Msg("user confirmed call")

	a.emit(ToolStartEvent{Tool: toolSystem, Target: p.Call.Function})
	res := a.tools.ExecuteConfirmed(ctx, p.Call)
	a.emit(ToolEndEvent{Tool: toolSystem, Target: p.Call.Function, Result: res})

	return a.run(ctx, turnID, LoopState{PendingUserMessage: toolResultMessage(toolSystem, p.Call.Function, "", res)})
}

// ResumeDeclined tells the model the user refused the call and continues the turn.
func (a *Agent) ResumeDeclined(ctx context.Context, p PendingConfirmation) Reply {
	ctx, cancel := a.budget(ctx)
	defer cancel()

	turnID := p.TurnID
	if turnID == "" {
		turnID = uuid.NewString()
	}
	a.logger.Info().Str("turn", turnID).Str("function", p.Call.Function).Msg("user declined call")

	res := capability.Fail("the user declined this operation")
	return a.run(ctx, turnID, LoopState{PendingUserMessage: toolResultMessage(toolSystem, p.Call.Function, "", res)})
}

// run drives the dispatch loop. ctx already carries the turn budget.
func (a *Agent) run(ctx context.Context, turnID string, state LoopState) Reply {
	logger := a.logger.With().Str("turn", turnID).Logger()
	reply := Reply{TurnID: turnID}
	defer func() {
		logger.Info().Stringer("stop", reply.Stop).Int("dispatches", reply.Dispatches).Msg("turn finished")
		if a.onReply != nil && reply.Err == nil && reply.Stop != StopNeedsConfirmation {
			a.onReply(reply.Text)
		}
		a.emit(DoneEvent{Stop: reply.Stop})
	}()

	limit := a.maxIterations + 1
	for state.Iteration = 1; state.Iteration <= limit; state.Iteration++ {
		// Dispatch
		a.history.Append(history.RoleUser, state.PendingUserMessage)
		a.emit(ThinkingEvent{Dispatch: state.Iteration})

		text, err := a.backend.Chat(ctx, a.history.Entries())
		reply.Dispatches++
		if err != nil {
			a.fail(ctx, &reply, err, logger)
			return reply
		}
		a.history.Append(history.RoleAssistant, text)
		state.FinalReply = text
		a.emit(ReplyEvent{Text: text})

		// Inspect
		d, ok := a.parser.Parse(text)
		if !ok {
			reply.Text = text
			reply.Stop = StopFinal
			return reply
		}

		var pending string
		switch call := d.(type) {
		case directive.SystemCall:
			if !a.allowSystemTools {
				logger.Warn().Str("function", call.Function).Msg("system tools disabled, refusing directive")
				reply.Text = appendNotice(text, SystemToolsDeniedNotice)
				reply.Stop = StopPermissionDenied
				return reply
			}
			if state.Iteration == limit {
				break
			}
			// Execute
			logger.Info().Str("function", call.Function).Int("iteration", state.Iteration).Msg("executing system call")
			a.emit(ToolStartEvent{Tool: toolSystem, Target: call.Function})
			res := a.tools.ExecuteSystemCall(ctx, call)
			a.emit(ToolEndEvent{Tool: toolSystem, Target: call.Function, Result: res})

			if res.RequiresConfirmation {
				reply.Confirmations = append(reply.Confirmations, PendingConfirmation{
					TurnID:  turnID,
					Call:    call,
					Message: res.Error,
					Payload: res.Payload,
				})
				reply.Text = appendNotice(text, fmt.Sprintf("[waiting for confirmation: %s]", res.Error))
				reply.Stop = StopNeedsConfirmation
				return reply
			}
			pending = toolResultMessage(toolSystem, call.Function, "", res)

		case directive.FetchCall:
			if !a.allowNetwork {
				logger.Warn().Str("url", call.URL).Msg("network disabled, refusing directive")
				reply.Text = appendNotice(text, NetworkDeniedNotice)
				reply.Stop = StopPermissionDenied
				return reply
			}
			if state.Iteration == limit {
				break
			}
			logger.Info().Str("url", call.URL).Int("iteration", state.Iteration).Msg("executing fetch")
			a.emit(ToolStartEvent{Tool: toolFetch, Target: call.URL})
			res := a.tools.ExecuteFetchCall(ctx, call)
			a.emit(ToolEndEvent{Tool: toolFetch, Target: call.URL, Result: res})
			pending = toolResultMessage(toolFetch, "", call.URL, res)
		}

		if state.Iteration == limit {
			break
		}
		state.PendingUserMessage = pending
	}

	logger.Warn().Int("max_tool_iterations", a.maxIterations).Msg("iteration limit reached")
	reply.Text = appendNotice(state.FinalReply, IterationLimitMarker)
	reply.Stop = StopIterationLimit
	return reply
}

// Stream answers one utterance without tools, calling onToken per fragment.
func (a *Agent) Stream(ctx context.Context, utterance string, onToken func(string)) Reply {
	ctx, cancel := a.budget(ctx)
	defer cancel()

	reply := Reply{TurnID: uuid.NewString(), Dispatches: 1}
	logger := a.logger.With().Str("turn", reply.TurnID).Logger()

	a.history.Append(history.RoleUser, utterance)
	a.emit(ThinkingEvent{Dispatch: 1})

	text, err := a.backend.ChatStream(ctx, a.history.Entries(), onToken)
	if err != nil {
		if text != "" {
			a.history.Append(history.RoleAssistant, text)
		}
		a.fail(ctx, &reply, err, logger)
		a.emit(DoneEvent{Stop: reply.Stop})
		return reply
	}

	a.history.Append(history.RoleAssistant, text)
	reply.Text = text
	reply.Stop = StopFinal
	if a.onReply != nil {
		a.onReply(text)
	}
	a.emit(DoneEvent{Stop: reply.Stop})
	return reply
}

func (a *Agent) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.turnTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, a.turnTimeout, ErrTurnBudgetExceeded)
}

func (a *Agent) fail(ctx context.Context, reply *Reply, err error, logger zerolog.Logger) {
	if errors.Is(context.Cause(ctx), ErrTurnBudgetExceeded) {
		reply.Stop = StopBudgetExceeded
		reply.Err = fmt.Errorf("%w: %w", ErrTurnBudgetExceeded, err)
		reply.Text = fmt.Sprintf("error: the reply took longer than %s", a.turnTimeout)
		logger.Error().Err(err).Dur("budget", a.turnTimeout).Msg("turn budget exceeded")
		return
	}
	reply.Stop = StopTransportError
	reply.Err = err
	reply.Text = "error: " + transport.UserMessage(err)
	logger.Error().Err(err).Stringer("kind", transport.KindOf(err)).Msg("chat request failed")
}

func (a *Agent) emit(e Event) {
	if a.events != nil {
		a.events <- e
	}
}

func appendNotice(text, notice string) string {
	if text == "" {
		return notice
	}
	return text + "\n\n" + notice
}

const (
	toolSystem = "system"
	toolFetch  = "fetch"
)

type toolOutcome struct {
	Tool                 string `json:"tool"`
	Function             string `json:"function,omitempty"`
	URL                  string `json:"url,omitempty"`
	Result               any    `json:"result,omitempty"`
	Error                string `json:"error,omitempty"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
}

// toolResultMessage renders a capability result as the next user message.
func toolResultMessage(tool, function, url string, res capability.Result) string {
	out := toolOutcome{
		Tool:                 tool,
		Function:             function,
		URL:                  url,
		RequiresConfirmation: res.RequiresConfirmation,
	}
	if res.Success {
		payload := res.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		out.Result = payload
	} else {
		out.Error = res.Error
		if len(res.Payload) > 0 {
			out.Result = res.Payload
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Sprintf(`%s {"tool":%q,"error":"result could not be encoded: %v"}`, ToolResultPrefix, tool, err)
	}
	return ToolResultPrefix + " " + string(bytes.TrimRight(buf.Bytes(), "\n"))
}
