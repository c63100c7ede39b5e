package ratelimit

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	t.Run("ValidBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1024 * 1024)
		require.NotNil(t, limiter)
		assert.Equal(t, int64(1024*1024), limiter.BytesPerSecond())
		assert.Equal(t, 1024*1024, limiter.Burst())
	})

	t.Run("ZeroBytesPerSecond", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
	})

	t.Run("NegativeBytesPerSecond", func(t *testing.T) {
		assert.Nil(t, NewLimiter(-100))
	})

	t.Run("SmallBytesPerSecondKeepsMinimumBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		require.NotNil(t, limiter)
		assert.Equal(t, 65536, limiter.Burst())
	})

	t.Run("NilLimiterReportsZero", func(t *testing.T) {
		var l *Limiter
		assert.Zero(t, l.BytesPerSecond())
	})
}

func TestNewReader(t *testing.T) {
	t.Run("WithLimiter", func(t *testing.T) {
		reader := NewReader(context.Background(), strings.NewReader("test"), NewLimiter(1024*1024))
		_, ok := reader.(*Reader)
		assert.True(t, ok, "expected *Reader when a limiter is provided")
	})

	t.Run("NilLimiter", func(t *testing.T) {
		base := strings.NewReader("test")
		assert.Same(t, base, NewReader(context.Background(), base, nil))
	})
}

func TestReaderReadsAllData(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 10000)
	reader := NewReader(context.Background(), bytes.NewReader(data), NewLimiter(100*1024*1024))

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReaderRateLimiting(t *testing.T) {
	// 64KB burst is consumed immediately, the next 32KB take ~0.5s at 64KB/s
	limiter := NewLimiter(64 * 1024)
	data := make([]byte, 96*1024)

	start := time.Now()
	n, err := io.Copy(io.Discard, NewReader(context.Background(), bytes.NewReader(data), limiter))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestReaderContextCancellation(t *testing.T) {
	t.Run("CancelledBeforeRead", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := NewReader(ctx, strings.NewReader("data"), NewLimiter(1024))
		_, err := reader.Read(make([]byte, 4))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("CancelledWhileWaiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		limiter := NewLimiter(1024) // burst 64KB, then 1KB/s
		data := make([]byte, 256*1024)
		_, err := io.Copy(io.Discard, NewReader(ctx, bytes.NewReader(data), limiter))
		assert.Error(t, err)
	})
}

func TestLimiterShared(t *testing.T) {
	limiter := NewLimiter(64 * 1024)
	a := limiter.Wrap(context.Background(), bytes.NewReader(make([]byte, 64*1024)))
	b := limiter.Wrap(context.Background(), bytes.NewReader(make([]byte, 32*1024)))

	start := time.Now()
	_, err := io.Copy(io.Discard, a)
	require.NoError(t, err)
	_, err = io.Copy(io.Discard, b)
	require.NoError(t, err)

	// the second reader pays for the first one's burst
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}
