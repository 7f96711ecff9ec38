package bookings

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const bookingSequenceName = "booking-number"

type sequencer interface {
	NextSequence(ctx context.Context, name string, window time.Duration) (int64, error)
}

// numberGenerator issues BK-<unix ms>-<4 digit sequence> booking numbers. The
// sequence comes from redis and resets every second; without redis a random
// suffix is used and the unique index catches the rare collision.
type numberGenerator struct {
	seq sequencer
}

func (g numberGenerator) Next(ctx context.Context, now time.Time) string {
	var n int64
	if g.seq != nil {
		if v, err := g.seq.NextSequence(ctx, bookingSequenceName, time.Second); err == nil {
			n = v
		}
	}
	if n <= 0 {
		n = rand.Int64N(10000)
	}
	return fmt.Sprintf("BK-%d-%04d", now.UnixMilli(), n%10000)
}
