package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/morezero/function-bridge/pkg/address"
	"github.com/morezero/function-bridge/pkg/dispatcher"
	"github.com/morezero/function-bridge/pkg/structerr"
)

const logPrefix = "client:caller"

// Caller issues bridge calls through an http.Client that has the
// interceptor installed. Calling through a client without the bridge
// installed classifies as a NOT_INSTALLED interop failure.
type Caller struct {
	client *http.Client
}

// NewCaller creates a Caller over the given client.
func NewCaller(httpClient *http.Client) *Caller {
	return &Caller{client: httpClient}
}

// Call invokes the named function with arg and returns its Outcome with
// the raw JSON success value. It never returns an error: every failure
// mode is classified into the Outcome.
func (c *Caller) Call(ctx context.Context, name address.Name, arg any) *Outcome {
	return c.call(ctx, name, arg, nil)
}

// CallDecode invokes the named function and, on success, decodes the
// result into out. A result the supplied target cannot decode classifies
// as CANNOT_DECODE_VALUE, carrying both the raw body and the parse
// diagnostic.
func (c *Caller) CallDecode(ctx context.Context, name address.Name, arg any, out any) *Outcome {
	return c.call(ctx, name, arg, out)
}

func (c *Caller) call(ctx context.Context, name address.Name, arg any, out any) *Outcome {
	payload, err := json.Marshal(arg)
	if err != nil {
		return failureOutcome(FailureRuntimeError,
			fmt.Sprintf("%s - failed to encode call argument: %v", logPrefix, err), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address.CallURL(name), bytes.NewReader(payload))
	if err != nil {
		return failureOutcome(FailureRuntimeError,
			fmt.Sprintf("%s - failed to build request: %v", logPrefix, err), nil)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// No response at all: the bridge is not installed on this client
		// (or the private scheme leaked to a real transport).
		return failureOutcome(FailureNotInstalled,
			fmt.Sprintf("%s - no response from bridge: %v", logPrefix, err), nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failureOutcome(FailureRuntimeError,
			fmt.Sprintf("%s - failed to read response body: %v", logPrefix, err), nil)
	}

	return classify(resp.StatusCode, body, out)
}

// classify maps a completed response onto the outcome taxonomy. It never
// panics and never loses the raw body of an undecodable response.
func classify(status int, body []byte, out any) *Outcome {
	switch status {
	case dispatcher.StatusOK:
		return decodeSuccess(body, out)
	case dispatcher.StatusCallError:
		return decodeCallError(body)
	case dispatcher.StatusNotFound:
		return failureOutcome(FailureFunctionNotFound, string(body), body)
	case dispatcher.StatusBadRequest:
		return failureOutcome(FailureVersionIncompatible, string(body), body)
	default:
		return failureOutcome(FailureRuntimeError,
			fmt.Sprintf("%s - unclassified response status %d", logPrefix, status), body)
	}
}

func decodeSuccess(body []byte, out any) *Outcome {
	if !json.Valid(body) {
		return failureOutcome(FailureCannotDecodeValue,
			fmt.Sprintf("%s - success body is not valid JSON", logPrefix), body)
	}
	raw := append(json.RawMessage(nil), body...)
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return failureOutcome(FailureCannotDecodeValue,
				fmt.Sprintf("%s - failed to decode success value: %v", logPrefix, err), body)
		}
	}
	return successOutcome(raw)
}

func decodeCallError(body []byte) *Outcome {
	if !json.Valid(body) {
		return failureOutcome(FailureRuntimeError,
			fmt.Sprintf("%s - call error body is not valid JSON", logPrefix), body)
	}
	return callErrorOutcome(structerr.Decode(body))
}
