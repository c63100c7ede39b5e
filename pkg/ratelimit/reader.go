package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// minBurst keeps small limits from starving reads of a normal buffer size
const minBurst = 64 * 1024

// Limiter controls the rate of data transfer across multiple readers.
// A nil *Limiter means no limiting.
type Limiter struct {
	bytesPerSecond int64
	limiter        *rate.Limiter
}

// NewLimiter creates a new rate limiter with the specified bytes per second
// limit. The burst is one second worth of data, with a 64KB floor.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil // No limiting
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		limiter:        rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
	}
}

// BytesPerSecond returns the configured limit (0 for a nil limiter)
func (l *Limiter) BytesPerSecond() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest single read a Reader will issue
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// Wrap returns r limited by l, or r itself when l is nil
func (l *Limiter) Wrap(ctx context.Context, r io.Reader) io.Reader {
	return NewReader(ctx, r, l)
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps an io.Reader with rate limiting
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader // No limiting
	}
	return &Reader{
		reader:  reader,
		limiter: limiter,
		ctx:     ctx,
	}
}

// Read implements io.Reader. It reserves tokens for the bytes actually read,
// waiting when the bucket is empty.
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}

	return n, err
}
