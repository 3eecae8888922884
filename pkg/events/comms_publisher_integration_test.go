package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const integrationTestPrefix = "events:comms_publisher_integration_test"

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", integrationTestPrefix, err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", integrationTestPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", integrationTestPrefix, err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func TestCommsPublisher_PublishCall_GranularSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14310)
	defer cleanup()

	received := make(chan *comms.Msg, 1)
	sub, err := nc.Subscribe("bridge.calls.acme_widgets.count", func(msg *comms.Msg) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("%s - Subscribe failed: %v", integrationTestPrefix, err)
	}
	defer sub.Unsubscribe()

	publisher := NewCommsPublisher(nc, nil)
	event := &CallEvent{
		Function:         "count",
		Namespace:        "acme/widgets",
		NamespaceVersion: "1.0.0",
		Outcome:          OutcomeOK,
		Status:           200,
	}
	if err := publisher.PublishCall(context.Background(), event); err != nil {
		t.Fatalf("%s - PublishCall failed: %v", integrationTestPrefix, err)
	}

	select {
	case msg := <-received:
		var got CallEvent
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("%s - failed to decode event: %v", integrationTestPrefix, err)
		}
		if got.Function != "count" || got.Outcome != OutcomeOK {
			t.Errorf("%s - event = %+v", integrationTestPrefix, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timed out waiting for granular event", integrationTestPrefix)
	}
}

func TestCommsPublisher_PublishCall_GlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14311)
	defer cleanup()

	received := make(chan *comms.Msg, 1)
	sub, err := nc.Subscribe(SubjectCalls, func(msg *comms.Msg) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("%s - Subscribe failed: %v", integrationTestPrefix, err)
	}
	defer sub.Unsubscribe()

	publisher := NewCommsPublisher(nc, nil)
	if err := publisher.PublishCall(context.Background(), &CallEvent{Function: "echo", Outcome: OutcomeNotFound, Status: 404}); err != nil {
		t.Fatalf("%s - PublishCall failed: %v", integrationTestPrefix, err)
	}

	select {
	case msg := <-received:
		var got CallEvent
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("%s - failed to decode event: %v", integrationTestPrefix, err)
		}
		if got.Outcome != OutcomeNotFound || got.Status != 404 {
			t.Errorf("%s - event = %+v", integrationTestPrefix, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timed out waiting for global event", integrationTestPrefix)
	}
}

func TestCommsPublisher_PublishCall_MalformedCallEvent(t *testing.T) {
	nc, cleanup := startTestServer(t, 14313)
	defer cleanup()

	// Malformed identifiers never parsed, so the event has no function
	// name. A trailing empty subject token is invalid and the publish
	// would be dropped without an error; the event must still be
	// deliverable to wildcard subscribers.
	received := make(chan *comms.Msg, 1)
	sub, err := nc.Subscribe(SubjectCalls+".>", func(msg *comms.Msg) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("%s - Subscribe failed: %v", integrationTestPrefix, err)
	}
	defer sub.Unsubscribe()

	publisher := NewCommsPublisher(nc, nil)
	if err := publisher.PublishCall(context.Background(), &CallEvent{Outcome: OutcomeMalformed, Status: 400}); err != nil {
		t.Fatalf("%s - PublishCall failed: %v", integrationTestPrefix, err)
	}

	select {
	case msg := <-received:
		if msg.Subject != "bridge.calls.default.unknown" {
			t.Errorf("%s - subject = %q, want %q", integrationTestPrefix, msg.Subject, "bridge.calls.default.unknown")
		}
		var got CallEvent
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("%s - failed to decode event: %v", integrationTestPrefix, err)
		}
		if got.Outcome != OutcomeMalformed || got.Status != 400 {
			t.Errorf("%s - event = %+v", integrationTestPrefix, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timed out waiting for malformed-call event", integrationTestPrefix)
	}
}

func TestCommsPublisher_CustomGlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14312)
	defer cleanup()

	received := make(chan *comms.Msg, 1)
	sub, err := nc.Subscribe("custom.calls", func(msg *comms.Msg) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("%s - Subscribe failed: %v", integrationTestPrefix, err)
	}
	defer sub.Unsubscribe()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{GlobalSubject: "custom.calls"})
	if err := publisher.PublishCall(context.Background(), &CallEvent{Function: "echo", Outcome: OutcomeOK, Status: 200}); err != nil {
		t.Fatalf("%s - PublishCall failed: %v", integrationTestPrefix, err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timed out waiting for custom-subject event", integrationTestPrefix)
	}
}
