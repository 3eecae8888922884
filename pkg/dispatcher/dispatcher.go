package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/morezero/function-bridge/pkg/address"
	"github.com/morezero/function-bridge/pkg/deferred"
	"github.com/morezero/function-bridge/pkg/events"
	"github.com/morezero/function-bridge/pkg/registry"
	"github.com/morezero/function-bridge/pkg/structerr"
)

const logPrefix = "dispatcher:dispatch"

// Config holds dispatcher logging configuration. Call-failure and
// interop-failure logging toggle independently; version mismatches are
// always logged because they signal systemic misconfiguration.
type Config struct {
	LogCallFailures    bool
	LogInteropFailures bool
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		LogCallFailures:    true,
		LogInteropFailures: true,
	}
}

// Dispatcher resolves parsed calls, invokes target functions, and shapes
// outcomes into responses. Dispatch never panics: every classified
// failure becomes a completed response.
type Dispatcher struct {
	registry  *registry.Registry
	publisher events.Publisher
	config    Config
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Registry  *registry.Registry
	Publisher events.Publisher
	Config    Config
}

// NewDispatcher creates a new Dispatcher. A nil Publisher defaults to
// NoOpPublisher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Dispatcher{
		registry:  params.Registry,
		publisher: pub,
		config:    params.Config,
	}
}

// Resolve looks up the target of a parsed call. The protocol version is
// checked first, then the namespace (existence and exact version), then
// the function.
func (d *Dispatcher) Resolve(call *address.Call) (registry.Function, *Resolution) {
	if call.ProtocolVersion != address.ProtocolVersion {
		detail := fmt.Sprintf("protocol version mismatch: host speaks %s, caller sent %s",
			address.ProtocolVersion, call.ProtocolVersion)
		// Always logged: both bridge halves must ship the same protocol.
		slog.Error(fmt.Sprintf("%s - %s", logPrefix, detail))
		return nil, &Resolution{Kind: ResolutionVersionIncompatible, Detail: detail}
	}

	ns := d.registry.Default()
	if call.Name.IsNamespaced() {
		named, ok := d.registry.Namespace(call.Name.NamespaceID())
		if !ok {
			detail := fmt.Sprintf("unknown namespace %q, registered namespaces: [%s]",
				call.Name.NamespaceID(), strings.Join(d.registry.NamespaceIDs(), " "))
			d.logInterop(detail)
			return nil, &Resolution{Kind: ResolutionNamespaceNotFound, Detail: detail}
		}
		if named.Version() != call.Name.NamespaceVersion() {
			detail := fmt.Sprintf("namespace %q version mismatch: registered %s, caller sent %s",
				call.Name.NamespaceID(), named.Version(), call.Name.NamespaceVersion())
			if skew := versionSkew(named.Version(), call.Name.NamespaceVersion()); skew != "" {
				detail += " (" + skew + ")"
			}
			slog.Error(fmt.Sprintf("%s - %s", logPrefix, detail))
			return nil, &Resolution{Kind: ResolutionNamespaceVersionMismatch, Detail: detail}
		}
		ns = named
	}

	fn, ok := ns.Find(call.Name.Function())
	if !ok {
		detail := fmt.Sprintf("unknown function %q, registered names: [%s]",
			call.Name.Function(), strings.Join(ns.Names(), " "))
		d.logInterop(detail)
		return nil, &Resolution{Kind: ResolutionFunctionNotFound, Detail: detail}
	}
	return fn, &Resolution{Kind: ResolutionOK}
}

// Dispatch resolves and executes a parsed call. Resolution failures
// complete synchronously with a diagnostic-text body and no function is
// invoked; otherwise the function runs with payload as its raw argument
// and the settled outcome is encoded into the response.
func (d *Dispatcher) Dispatch(ctx context.Context, call *address.Call, payload []byte) *Response {
	start := time.Now()

	fn, resolution := d.Resolve(call)
	if resolution.Kind != ResolutionOK {
		resp := &Response{
			Status:      resolution.Status(),
			Body:        []byte(resolution.Detail),
			ContentType: ContentTypeText,
		}
		d.publishCall(ctx, call, outcomeForResolution(resolution.Kind), resp.Status, start)
		return resp
	}

	value, failure := d.invoke(ctx, fn, payload)
	if failure != nil {
		if d.config.LogCallFailures {
			slog.Warn(fmt.Sprintf("%s - call %s failed: %s", logPrefix, call.Name, describeFailure(failure)))
		}
		body, err := json.Marshal(failure)
		if err != nil {
			body = []byte(`{"name":"Error","message":"unencodable failure","stackLines":[],"cause":null}`)
		}
		resp := &Response{Status: StatusCallError, Body: body, ContentType: ContentTypeJSON}
		d.publishCall(ctx, call, events.OutcomeCallError, resp.Status, start)
		return resp
	}

	body, err := json.Marshal(value)
	if err != nil {
		// The function returned a value its own side cannot encode;
		// surface it as a call failure rather than a broken body.
		failure := structerr.Normalize(fmt.Errorf("%s - unencodable return value: %w", logPrefix, err))
		failureBody, _ := json.Marshal(failure)
		resp := &Response{Status: StatusCallError, Body: failureBody, ContentType: ContentTypeJSON}
		d.publishCall(ctx, call, events.OutcomeCallError, resp.Status, start)
		return resp
	}

	resp := &Response{Status: StatusOK, Body: body, ContentType: ContentTypeJSON}
	d.publishCall(ctx, call, events.OutcomeOK, resp.Status, start)
	return resp
}

// MalformedResponse completes a call whose identifier failed to parse.
func (d *Dispatcher) MalformedResponse(ctx context.Context, parseErr error) *Response {
	d.logInterop(fmt.Sprintf("malformed request identifier: %v", parseErr))
	resp := &Response{
		Status:      StatusBadRequest,
		Body:        []byte(parseErr.Error()),
		ContentType: ContentTypeText,
	}
	d.publishCall(ctx, nil, events.OutcomeMalformed, resp.Status, time.Now())
	return resp
}

// invoke runs the target function, recovering panics and awaiting a
// deferred return value. A plain return value and an already-settled
// deferred of the same value are indistinguishable in the result.
func (d *Dispatcher) invoke(ctx context.Context, fn registry.Function, arg json.RawMessage) (value any, failure *structerr.StructuredError) {
	defer func() {
		if r := recover(); r != nil {
			failure = structerr.NormalizePanic(r, debug.Stack())
		}
	}()

	v, err := fn(ctx, arg)
	if err != nil {
		return nil, structerr.Normalize(err)
	}
	if dd, ok := v.(*deferred.Deferred); ok {
		v, err = dd.Await(ctx)
		if err != nil {
			return nil, structerr.Normalize(err)
		}
	}
	return v, nil
}

func (d *Dispatcher) logInterop(detail string) {
	if d.config.LogInteropFailures {
		slog.Warn(fmt.Sprintf("%s - %s", logPrefix, detail))
	}
}

func (d *Dispatcher) publishCall(ctx context.Context, call *address.Call, outcome string, status int, start time.Time) {
	event := &events.CallEvent{
		Outcome:    outcome,
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if call != nil {
		event.Function = call.Name.Function()
		event.Namespace = call.Name.NamespaceID()
		event.NamespaceVersion = call.Name.NamespaceVersion()
	}
	if err := d.publisher.PublishCall(ctx, event); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish call event: %v", logPrefix, err))
	}
}

func outcomeForResolution(kind string) string {
	switch kind {
	case ResolutionVersionIncompatible, ResolutionNamespaceVersionMismatch:
		return events.OutcomeVersionIncompatible
	case ResolutionNamespaceNotFound, ResolutionFunctionNotFound:
		return events.OutcomeNotFound
	default:
		return events.OutcomeMalformed
	}
}

func describeFailure(failure *structerr.StructuredError) string {
	if failure.Object != nil {
		return failure.Object.Name + ": " + failure.Object.Message
	}
	if failure.Value != nil {
		return string(failure.Value.Raw)
	}
	return "unknown failure"
}
