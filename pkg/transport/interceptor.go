// Package transport intercepts the host's http.Client request primitive:
// requests addressed to the bridge scheme are diverted into local
// dispatch, everything else passes through to the real transport
// untouched. Interception is explicit composition (a wrapping
// RoundTripper), never global patching.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/morezero/function-bridge/pkg/address"
	"github.com/morezero/function-bridge/pkg/dispatcher"
)

const logPrefix = "transport:interceptor"

// Interceptor is an http.RoundTripper that resolves bridge-scheme
// requests against a local dispatcher. For any other URL it delegates to
// the wrapped transport verbatim, indistinguishable from an uninstalled
// bridge.
type Interceptor struct {
	next       http.RoundTripper
	dispatcher *dispatcher.Dispatcher
}

// NewInterceptor creates an Interceptor wrapping next. A nil next falls
// back to http.DefaultTransport.
func NewInterceptor(next http.RoundTripper, d *dispatcher.Dispatcher) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Interceptor{next: next, dispatcher: d}
}

// RoundTrip implements http.RoundTripper. A bridge-scheme request moves
// through three phases: parse the identifier, resolve and invoke via the
// dispatcher, then synthesize a fully-populated response. It never
// returns a transport error for a bridge request; every classified
// failure is a completed response with a failure status, because the
// http.Client calling convention expects round trips, not panics.
func (t *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if !address.IsBridgeURL(req.URL) {
		return t.next.RoundTrip(req)
	}

	call, parseErr := address.Parse(req.URL)

	payload, err := readPayload(req)
	if err != nil && parseErr == nil {
		parseErr = fmt.Errorf("%s - failed to read request payload: %w", logPrefix, err)
	}

	var resp *dispatcher.Response
	if parseErr != nil {
		resp = t.dispatcher.MalformedResponse(req.Context(), parseErr)
	} else {
		resp = t.dispatcher.Dispatch(req.Context(), call, payload)
	}
	return synthesize(req, resp), nil
}

func readPayload(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

// synthesize builds a response structurally identical to one produced by
// a real network round trip. Status, body, and content type are all set
// before the response is handed back, since callers read them only after
// RoundTrip returns.
func synthesize(req *http.Request, resp *dispatcher.Response) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status)),
		StatusCode:    resp.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{resp.ContentType}},
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}
}

// Install wires the bridge into an existing http.Client. It is
// idempotent: a client whose transport is already an Interceptor is left
// as-is, so repeated setup never stacks interceptors.
func Install(client *http.Client, d *dispatcher.Dispatcher) {
	if _, installed := client.Transport.(*Interceptor); installed {
		return
	}
	client.Transport = NewInterceptor(client.Transport, d)
}
