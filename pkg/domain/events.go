package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventSuspend   EventType = "suspend"
	EventFinish    EventType = "finish"
)

// NodeEvent describes one engine transition for observers.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	NodeID    NodeID    `json:"node_id"`

	// Outcome is set on leave events.
	Outcome Outcome `json:"outcome,omitempty"`

	// Duration is the handler run time, set on leave events.
	Duration time.Duration `json:"duration,omitempty"`

	// Err is set on leave events of failed steps.
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnSuspend   func(context.Context, *NodeEvent)
	OnFinish    func(context.Context, *NodeEvent)
}

// ChainHooks fans every event out to all given hooks, in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnSuspend: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnSuspend != nil {
					h.OnSuspend(ctx, e)
				}
			}
		},
		OnFinish: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnFinish != nil {
					h.OnFinish(ctx, e)
				}
			}
		},
	}
}
