package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	held     bool
	lost     bool
	attempts int
	extends  int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.attempts++
	if f.held || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Extend(context.Context) error {
	f.extends++
	if f.lost {
		return ErrLockLost
	}
	return nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, lock Lock, clock *testClock, entries ...Entry) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(entries...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(t, &fakeLock{}, clock, Every(success, time.Minute), Every(failure, time.Minute))

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}
}

func TestServiceRespectsPerJobInterval(t *testing.T) {
	fast := &testJob{name: "fast"}
	slow := &testJob{name: "slow"}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(t, &fakeLock{}, clock, Every(fast, time.Minute), Every(slow, time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := service.runCycle(ctx); err != nil {
			t.Fatalf("run cycle %d: %v", i, err)
		}
		clock.now = clock.now.Add(time.Minute)
	}
	if fast.runs != 3 {
		t.Fatalf("expected fast job to run 3 times, ran %d", fast.runs)
	}
	if slow.runs != 1 {
		t.Fatalf("expected slow job to run once, ran %d", slow.runs)
	}

	clock.now = clock.now.Add(time.Hour)
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if slow.runs != 2 {
		t.Fatalf("expected slow job to run again after an hour, ran %d", slow.runs)
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{held: true}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(t, lock, clock, Every(job, time.Minute))

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}

	lock.held = false
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected skipped job to run on the next cycle, ran %d", job.runs)
	}
}

func TestServiceStopsCycleWhenLockLost(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	lock := &fakeLock{lost: true}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(t, lock, clock, Every(first, time.Minute), Every(second, time.Minute))

	err := service.runCycle(context.Background())
	if !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if first.runs != 1 || second.runs != 0 {
		t.Fatalf("expected only the first job to run, got %d and %d", first.runs, second.runs)
	}
}

func TestServiceDoesNotLockWhenNothingIsDue(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(t, lock, clock, Every(job, time.Hour))
	ctx := context.Background()

	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	clock.now = clock.now.Add(30 * time.Second)
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.attempts != 1 {
		t.Fatalf("expected a single lock attempt, got %d", lock.attempts)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"})}); err == nil {
		t.Fatal("expected error without lock")
	}
}
