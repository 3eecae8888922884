package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/morezero/function-bridge/pkg/dispatcher"
	"github.com/morezero/function-bridge/pkg/registry"
)

const testPrefix = "transport:interceptor_test"

// stubTransport records requests and returns a canned response.
type stubTransport struct {
	requests []*http.Request
	response *http.Response
	err      error
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func newTestDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	reg := registry.NewRegistry()
	if err := reg.Register("echo", func(_ context.Context, arg json.RawMessage) (any, error) {
		return arg, nil
	}); err != nil {
		t.Fatalf("%s - Register failed: %v", testPrefix, err)
	}
	return dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Registry: reg,
		Config:   dispatcher.DefaultConfig(),
	})
}

func TestRoundTrip_PassThrough(t *testing.T) {
	canned := &http.Response{StatusCode: 204, Body: io.NopCloser(strings.NewReader(""))}
	stub := &stubTransport{response: canned}
	interceptor := NewInterceptor(stub, newTestDispatcher(t))

	req, err := http.NewRequest(http.MethodGet, "https://example.com/health", nil)
	if err != nil {
		t.Fatalf("%s - NewRequest failed: %v", testPrefix, err)
	}
	resp, err := interceptor.RoundTrip(req)
	if err != nil {
		t.Fatalf("%s - RoundTrip failed: %v", testPrefix, err)
	}
	if resp != canned {
		t.Errorf("%s - pass-through mutated the response", testPrefix)
	}
	if len(stub.requests) != 1 || stub.requests[0] != req {
		t.Errorf("%s - request not forwarded verbatim", testPrefix)
	}
}

func TestRoundTrip_BridgeRequestNeverHitsRealTransport(t *testing.T) {
	stub := &stubTransport{}
	interceptor := NewInterceptor(stub, newTestDispatcher(t))

	req, err := http.NewRequest(http.MethodPost, "funcbridge:///echo?v=1.1.0", bytes.NewReader([]byte(`"hi"`)))
	if err != nil {
		t.Fatalf("%s - NewRequest failed: %v", testPrefix, err)
	}
	resp, err := interceptor.RoundTrip(req)
	if err != nil {
		t.Fatalf("%s - RoundTrip failed: %v", testPrefix, err)
	}
	if len(stub.requests) != 0 {
		t.Errorf("%s - bridge request leaked to the real transport", testPrefix)
	}

	if resp.StatusCode != dispatcher.StatusOK {
		t.Fatalf("%s - status = %d, want %d", testPrefix, resp.StatusCode, dispatcher.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `"hi"` {
		t.Errorf("%s - body = %s, want \"hi\"", testPrefix, body)
	}
}

func TestRoundTrip_ResponseFieldsComplete(t *testing.T) {
	interceptor := NewInterceptor(&stubTransport{}, newTestDispatcher(t))

	req, err := http.NewRequest(http.MethodPost, "funcbridge:///echo?v=1.1.0", strings.NewReader("null"))
	if err != nil {
		t.Fatalf("%s - NewRequest failed: %v", testPrefix, err)
	}
	resp, err := interceptor.RoundTrip(req)
	if err != nil {
		t.Fatalf("%s - RoundTrip failed: %v", testPrefix, err)
	}

	if resp.Status == "" || resp.Proto == "" {
		t.Errorf("%s - synthesized response missing status/proto: %+v", testPrefix, resp)
	}
	if got := resp.Header.Get("Content-Type"); got != dispatcher.ContentTypeJSON {
		t.Errorf("%s - content type = %q, want %q", testPrefix, got, dispatcher.ContentTypeJSON)
	}
	if resp.Request != req {
		t.Errorf("%s - response does not reference its request", testPrefix)
	}
	if resp.ContentLength < 0 {
		t.Errorf("%s - content length unset", testPrefix)
	}
}

func TestRoundTrip_MalformedIdentifierCompletesWithFailureStatus(t *testing.T) {
	interceptor := NewInterceptor(&stubTransport{}, newTestDispatcher(t))

	// Namespace id without nsv is malformed, not not-found.
	req, err := http.NewRequest(http.MethodPost, "funcbridge://acme/widgets/count?v=1.1.0", nil)
	if err != nil {
		t.Fatalf("%s - NewRequest failed: %v", testPrefix, err)
	}
	resp, err := interceptor.RoundTrip(req)
	if err != nil {
		t.Fatalf("%s - RoundTrip must not error for bridge URLs: %v", testPrefix, err)
	}
	if resp.StatusCode != dispatcher.StatusBadRequest {
		t.Errorf("%s - status = %d, want %d", testPrefix, resp.StatusCode, dispatcher.StatusBadRequest)
	}
}

func TestInstall_Idempotent(t *testing.T) {
	disp := newTestDispatcher(t)
	client := &http.Client{}

	Install(client, disp)
	first, ok := client.Transport.(*Interceptor)
	if !ok {
		t.Fatalf("%s - Install did not set an Interceptor", testPrefix)
	}

	Install(client, disp)
	second, ok := client.Transport.(*Interceptor)
	if !ok || second != first {
		t.Errorf("%s - repeated Install replaced or stacked the interceptor", testPrefix)
	}
	if _, nested := first.next.(*Interceptor); nested {
		t.Errorf("%s - interceptor wrapped itself", testPrefix)
	}
}

func TestInstall_PreservesExistingTransport(t *testing.T) {
	stub := &stubTransport{response: &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader("ok"))}}
	client := &http.Client{Transport: stub}

	Install(client, newTestDispatcher(t))

	interceptor, ok := client.Transport.(*Interceptor)
	if !ok {
		t.Fatalf("%s - Install did not wrap the transport", testPrefix)
	}
	if interceptor.next != stub {
		t.Errorf("%s - existing transport was dropped", testPrefix)
	}
}
