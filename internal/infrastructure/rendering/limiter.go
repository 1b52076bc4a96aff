package rendering

import "context"

// Limiter bounds the number of concurrent render jobs. Chrome instances are
// heavy; running too many at once starves the host.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter admitting at most maxConcurrent jobs
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{slots: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a render slot is free or the context is done
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire
func (l *Limiter) Release() {
	<-l.slots
}
