package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	comms "github.com/nats-io/nats.go"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// SubjectCalls is the global COMMS subject for call events.
const SubjectCalls = "bridge.calls"

// BuildCallSubject builds the granular per-function call event subject.
// Namespace separators are not legal in subject tokens and are replaced.
// Malformed-call events carry no function name; an empty token would make
// the subject invalid and the publish would be dropped without an error,
// so empty components get a placeholder instead.
func BuildCallSubject(namespace, function string) string {
	ns := namespace
	if ns == "" {
		ns = "default"
	}
	ns = strings.NewReplacer("/", "_", ".", "_").Replace(ns)
	if function == "" {
		function = "unknown"
	}
	return fmt.Sprintf("%s.%s.%s", SubjectCalls, ns, function)
}

// Connect creates a COMMS connection for event publishing.
func Connect(url, name string) (*comms.Conn, error) {
	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", commsPublisherLogPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", commsPublisherLogPrefix, nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", commsPublisherLogPrefix, err)
	}
	return nc, nil
}

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use
// defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global call event subject.
	GlobalSubject string
}

// CommsPublisher publishes call events to COMMS subjects: one global
// subject plus a granular per-function subject.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use
// defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := SubjectCalls
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// PublishCall publishes a CallEvent to both the granular and global
// subjects.
func (p *CommsPublisher) PublishCall(_ context.Context, event *CallEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := BuildCallSubject(event.Namespace, event.Function)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - published call event for %s", commsPublisherLogPrefix, granularSubject))
	return nil
}
