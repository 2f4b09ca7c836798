package server

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Invocation is one inbound tool call.
type Invocation struct {
	ToolName  string
	Arguments map[string]any
}

// Observation describes a finished invocation.
type Observation struct {
	Tool       string
	OutputType OutputType

	// Code is empty on success.
	Code     ErrorCode
	Duration time.Duration
}

// Observer is notified once per invocation, after it completes.
type Observer interface {
	Observe(ctx context.Context, obs Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, obs Observation)

// Observe calls f(ctx, obs).
func (f ObserverFunc) Observe(ctx context.Context, obs Observation) { f(ctx, obs) }

// DispatcherConfig holds the collaborators of a Dispatcher.
type DispatcherConfig struct {
	Registry     *Registry
	Orchestrator *Orchestrator
	Observer     Observer     // optional
	Logger       *slog.Logger // optional
}

// Dispatcher is the entry point for tool calls: it checks the tool name,
// validates the arguments, renders, and maps every failure to a
// *ProtocolError. It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	registry     *Registry
	orchestrator *Orchestrator
	observer     Observer
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, errors.New("dispatcher requires a registry")
	}
	if cfg.Orchestrator == nil {
		return nil, errors.New("dispatcher requires an orchestrator")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		registry:     cfg.Registry,
		orchestrator: cfg.Orchestrator,
		observer:     cfg.Observer,
		logger:       cfg.Logger,
	}, nil
}

// Registry returns the tools the dispatcher accepts.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one invocation. Exactly one of the results is non-nil; a
// non-nil error is always a *ProtocolError.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (*ToolResponse, error) {
	start := time.Now()
	obs := Observation{Tool: inv.ToolName}

	resp, failure := d.run(ctx, inv, &obs)

	var perr *ProtocolError
	if failure != nil {
		perr = ToProtocolError(*failure)
		obs.Code = perr.Code
		d.logger.WarnContext(ctx, "tool call failed",
			"tool", inv.ToolName,
			"code", perr.Code,
			"error", perr.Message,
		)
	}

	obs.Duration = time.Since(start)
	if d.observer != nil {
		d.observer.Observe(ctx, obs)
	}

	if perr != nil {
		return nil, perr
	}
	return resp, nil
}

func (d *Dispatcher) run(ctx context.Context, inv Invocation, obs *Observation) (*ToolResponse, *Failure) {
	desc, ok := d.registry.Lookup(inv.ToolName)
	if !ok {
		f := UnknownTool(inv.ToolName)
		return nil, &f
	}

	args, violations := Validate(desc.InputSchema, inv.Arguments)
	if len(violations) > 0 {
		f := SchemaViolation(violations)
		return nil, &f
	}
	obs.OutputType = args.OutputType

	resp, err := d.orchestrator.Render(ctx, args)
	if err != nil {
		f := FromError(err)
		return nil, &f
	}
	return resp, nil
}
