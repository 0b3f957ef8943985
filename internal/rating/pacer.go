// internal/rating/pacer.go
package rating

import (
	"context"
	"time"
)

// Pacer spaces consecutive rating calls to respect the API's
// requests-per-minute ceiling. The sleep function is injectable so tests
// can observe pauses without waiting for them.
type Pacer struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration)
}

// NewPacer creates a pacer with the given delay between calls.
// The Gemini free tier allows 5 requests per minute, so the default
// configuration uses 12 seconds.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{
		delay: delay,
		sleep: sleepContext,
	}
}

// NewPacerWithSleep creates a pacer with a custom sleep function for tests.
func NewPacerWithSleep(delay time.Duration, sleep func(context.Context, time.Duration)) *Pacer {
	return &Pacer{delay: delay, sleep: sleep}
}

// Pause blocks for the configured delay or until the context is done.
func (p *Pacer) Pause(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	p.sleep(ctx, p.delay)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
