package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type failingRunner struct{ err error }

func (f failingRunner) Run(context.Context) error { return f.err }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestNewServiceRequiresConsumers(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected error without consumers")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger(), Consumers: map[string]runner{"n": nil}}); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}

func TestRunFailsWhenDependencyIsDown(t *testing.T) {
	started := false
	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Dependencies: map[string]pinger{
			"redis": func(context.Context) error { return errors.New("down") },
		},
		Consumers: map[string]runner{"notifications": runnerFunc(func(context.Context) error {
			started = true
			return nil
		})},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
	if started {
		t.Fatalf("consumer started before dependencies were ready")
	}
}

func TestRunReturnsConsumerFailure(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Consumers: map[string]runner{
			"notifications": failingRunner{err: boom},
			"idle":          blockingRunner{},
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

type runnerFunc func(context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }
