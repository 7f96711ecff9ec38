package dbtest

import (
	"errors"
	"strings"
	"sync"
	"time"
)

const lockRetries = 200

// Race starts every fn at the same moment and waits for all of them. Each fn
// is retried while it fails on a sqlite lock, since shared-cache connections
// report a busy table at once instead of waiting for it. errs[i] is the final
// result of fns[i].
func Race(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = Retry(fn)
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

// Retry reruns fn while it returns a sqlite lock error.
func Retry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= lockRetries; attempt++ {
		if err = fn(); err == nil || !IsLocked(err) {
			return err
		}
		time.Sleep(time.Duration(attempt%10+1) * time.Millisecond)
	}
	return err
}

// IsLocked reports whether any error in err's chain is a sqlite busy or
// locked table error.
func IsLocked(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		msg := err.Error()
		if strings.Contains(msg, "database table is locked") || strings.Contains(msg, "database is locked") {
			return true
		}
	}
	return false
}
