package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry()
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry.Register(jobA, time.Minute)
	registry.Register(jobB, time.Hour)
	registry.Register(nil, time.Hour)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	entries := registry.Entries()
	if entries[1].Every != time.Hour {
		t.Fatalf("expected hourly interval, got %s", entries[1].Every)
	}
	// ensure caller cannot mutate internal slice
	entries[0].Job = nil
	if registry.Entries()[0].Job == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryClampsNegativeInterval(t *testing.T) {
	registry := NewRegistry(Every(&stubJob{name: "a"}, -time.Minute))
	if got := registry.Entries()[0].Every; got != 0 {
		t.Fatalf("expected zero interval, got %s", got)
	}
}
