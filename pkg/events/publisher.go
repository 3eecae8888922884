package events

import "context"

// Publisher is the interface for publishing call-lifecycle events.
type Publisher interface {
	PublishCall(ctx context.Context, event *CallEvent) error
}

// NoOpPublisher is a Publisher that does nothing (the default when the
// bridge runs without an event sink).
type NoOpPublisher struct{}

// PublishCall is a no-op.
func (p *NoOpPublisher) PublishCall(_ context.Context, _ *CallEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for
// testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *CallEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *CallEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishCall calls the callback.
func (p *CallbackPublisher) PublishCall(ctx context.Context, event *CallEvent) error {
	return p.callback(ctx, event)
}
