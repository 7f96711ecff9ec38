package dbtest

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestRetryStopsOnFirstNonLockResult(t *testing.T) {
	var calls int32
	err := Retry(func() error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return fmt.Errorf("update booking: %w", errors.New("database table is locked: bookings"))
		}
		return errors.New("state conflict")
	})
	if err == nil || err.Error() != "state conflict" {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRaceRunsEveryFunction(t *testing.T) {
	var ran int32
	errs := Race(
		func() error { atomic.AddInt32(&ran, 1); return nil },
		func() error { atomic.AddInt32(&ran, 1); return errors.New("lost") },
	)
	if ran != 2 {
		t.Fatalf("expected both functions to run, got %d", ran)
	}
	if errs[0] != nil || errs[1] == nil {
		t.Fatalf("unexpected results %v", errs)
	}
}

func TestIsLocked(t *testing.T) {
	if IsLocked(nil) || IsLocked(errors.New("record not found")) {
		t.Fatal("unrelated errors are not lock errors")
	}
	if !IsLocked(fmt.Errorf("commit: %w", errors.New("database is locked"))) {
		t.Fatal("wrapped lock error not detected")
	}
}
