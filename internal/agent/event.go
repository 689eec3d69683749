package agent

import "github.com/Cyclone1070/deskpal/internal/capability"

// Event is the interface for all agent events.
// Hosts handle events via type switch.
type Event interface {
	isEvent()
}

// ThinkingEvent is emitted before every chat request.
type ThinkingEvent struct {
	Dispatch int
}

func (ThinkingEvent) isEvent() {}

// ReplyEvent is emitted when the model produces a reply, directive or not.
type ReplyEvent struct {
	Text string
}

func (ReplyEvent) isEvent() {}

// ToolStartEvent is emitted when a directive starts executing.
type ToolStartEvent struct {
	Tool   string // "system" or "fetch"
	Target string // function name or URL
}

func (ToolStartEvent) isEvent() {}

// ToolEndEvent is emitted when a directive finishes.
type ToolEndEvent struct {
	Tool   string
	Target string
	Result capability.Result
}

func (ToolEndEvent) isEvent() {}

// DoneEvent is emitted when a turn ends.
type DoneEvent struct {
	Stop StopReason
}

func (DoneEvent) isEvent() {}
