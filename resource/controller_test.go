package resource

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

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// TryAcquire 20 (should fail)
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_OversizedRequest(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 500))
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.False(t, c.TryAcquireMemory(1))

	c.ReleaseMemory(500)
	assert.True(t, c.TryAcquireMemory(100))
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Connections(t *testing.T) {
	c := NewController(Config{MaxConnections: 2})

	require.NoError(t, c.AcquireConnection(context.Background()))
	require.NoError(t, c.AcquireConnection(context.Background()))

	assert.False(t, c.TryAcquireConnection())

	c.ReleaseConnection()

	assert.True(t, c.TryAcquireConnection())
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(context.Background(), 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireConnection(context.Background()))
	c.ReleaseConnection()
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	assert.Zero(t, c.IOBurst())
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	// Larger than the burst: must be chunked rather than rejected.
	payload := bytes.Repeat([]byte{7}, (1<<20)+10)
	start := time.Now()
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf.Bytes())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRateLimitedWriter_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 16})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	_, err := w.Write(make([]byte, 64))
	assert.Error(t, err)
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	r := NewRateLimitedReader(context.Background(), strings.NewReader("hello"), c)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	unlimited := NewRateLimitedReader(context.Background(), strings.NewReader("x"), nil)
	data, err = io.ReadAll(unlimited)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
