package server

import (
	"context"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	s, err := New(Options{Backend: newStubBackend(t)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Dispatcher() == nil {
		t.Fatal("New() did not build a dispatcher")
	}
	if s.Factory() == nil {
		t.Fatal("New() did not build a factory")
	}

	tools := s.Dispatcher().Registry().List()
	if len(tools) != 1 || tools[0].Name != MermaidToolName {
		t.Errorf("tools: got %+v, want only %s", tools, MermaidToolName)
	}
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New without a backend should fail")
	}
}

func TestFactory_BuildsFreshServers(t *testing.T) {
	s, err := New(Options{Backend: newStubBackend(t)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a, b := s.Factory()(), s.Factory()(); a == b {
		t.Error("factory should return a new server on every call")
	}
}

// fakeTransport records what it was asked to serve.
type fakeTransport struct {
	err     error
	factory Factory
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Serve(_ context.Context, factory Factory) error {
	f.factory = factory
	return f.err
}

func TestServer_Run(t *testing.T) {
	s, err := New(Options{Backend: newStubBackend(t)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tr := &fakeTransport{}
	if err := s.Run(context.Background(), tr); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if tr.factory == nil {
		t.Error("transport was not given the factory")
	}

	boom := errors.New("listen failed")
	if err := s.Run(context.Background(), &fakeTransport{err: boom}); !errors.Is(err, boom) {
		t.Errorf("Run error: got %v, want %v", err, boom)
	}
}
