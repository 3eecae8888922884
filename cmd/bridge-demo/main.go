// Package main is a smoke-test binary for the function bridge: it
// registers a handful of functions, installs the interceptor on an
// http.Client, issues calls, and prints the outcomes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/morezero/function-bridge/internal/config"
	"github.com/morezero/function-bridge/pkg/address"
	"github.com/morezero/function-bridge/pkg/client"
	"github.com/morezero/function-bridge/pkg/deferred"
	"github.com/morezero/function-bridge/pkg/dispatcher"
	"github.com/morezero/function-bridge/pkg/events"
	"github.com/morezero/function-bridge/pkg/registry"
	"github.com/morezero/function-bridge/pkg/transport"
)

const usage = `Usage: bridge-demo [command]
       bridge-demo run     Register demo functions, issue calls, print outcomes.

Commands:
  run    (default) Run the demo call sequence.

Environment: LOG_LEVEL, BRIDGE_LOG_CALL_FAILURES, BRIDGE_LOG_INTEROP_FAILURES,
BRIDGE_EVENTS_ENABLED, COMMS_URL, SERVICE_NAME. See README.
`

func main() {
	cmd := "run"
	if len(os.Args) > 1 && os.Args[1] != "" {
		cmd = os.Args[1]
	}

	switch cmd {
	case "run":
		if err := run(); err != nil {
			log.Fatalf("bridge-demo run: %v", err)
		}
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("bridge-demo - failed to load config: %w", err)
	}
	if err := cfg.ValidateForEvents(); err != nil {
		return err
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	var publisher events.Publisher
	if cfg.EventsEnabled {
		nc, err := events.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return err
		}
		defer nc.Close()
		publisher = events.NewCommsPublisher(nc, nil)
	}

	reg := registry.NewRegistry()
	if err := registerDemoFunctions(reg); err != nil {
		return err
	}

	disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Registry:  reg,
		Publisher: publisher,
		Config: dispatcher.Config{
			LogCallFailures:    cfg.LogCallFailures,
			LogInteropFailures: cfg.LogInteropFailures,
		},
	})

	httpClient := &http.Client{}
	transport.Install(httpClient, disp)
	caller := client.NewCaller(httpClient)

	ctx := context.Background()

	names, err := demoNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		printOutcome(name, caller.Call(ctx, name, []string{"a", "b"}))
	}
	return nil
}

func demoNames() ([]address.Name, error) {
	var names []address.Name
	for _, fn := range []string{"echo", "slow", "fail", "missing"} {
		name, err := address.NewName(fn)
		if err != nil {
			return nil, fmt.Errorf("bridge-demo - invalid demo name %q: %w", fn, err)
		}
		names = append(names, name)
	}
	greet, err := address.NewNamespacedName("morezero/demo-tools", "1.0.0", "greet")
	if err != nil {
		return nil, fmt.Errorf("bridge-demo - invalid demo name \"greet\": %w", err)
	}
	return append(names, greet), nil
}

func registerDemoFunctions(reg *registry.Registry) error {
	if err := reg.Register("echo", func(_ context.Context, arg json.RawMessage) (any, error) {
		return arg, nil
	}); err != nil {
		return err
	}
	if err := reg.Register("slow", func(_ context.Context, arg json.RawMessage) (any, error) {
		d := deferred.New()
		go func() {
			time.Sleep(50 * time.Millisecond)
			d.Resolve(string(arg))
		}()
		return d, nil
	}); err != nil {
		return err
	}
	if err := reg.Register("fail", func(_ context.Context, _ json.RawMessage) (any, error) {
		return nil, fmt.Errorf("demo failure: %w", errors.New("nested cause"))
	}); err != nil {
		return err
	}

	ns, err := reg.CreateNamespace("morezero/demo-tools", "1.0.0")
	if err != nil {
		return err
	}
	return ns.Register("greet", func(_ context.Context, _ json.RawMessage) (any, error) {
		return "hello from demo-tools", nil
	})
}

func printOutcome(name address.Name, outcome *client.Outcome) {
	switch {
	case outcome.IsSuccess():
		fmt.Printf("%s -> success %s\n", name, outcome.Value())
	case outcome.CallError() != nil:
		body, _ := json.Marshal(outcome.CallError())
		fmt.Printf("%s -> call error %s\n", name, body)
	default:
		fmt.Printf("%s -> interop failure %s: %s\n", name, outcome.Failure().Kind, outcome.Failure().Details)
	}
}
