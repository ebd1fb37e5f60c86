package resource

import (
	"context"
	"io"
)

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{
		ctx: ctx,
		w:   w,
		rc:  rc,
	}
}

// Write splits p into chunks no larger than the limiter burst.
func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	burst := w.rc.IOBurst()
	if burst == 0 {
		return w.w.Write(p)
	}
	for len(p) > 0 {
		chunk := p[:min(len(p), burst)]
		if err := w.rc.AcquireIO(w.ctx, len(chunk)); err != nil {
			return n, err
		}
		m, err := w.w.Write(chunk)
		n += m
		if err != nil {
			return n, err
		}
		p = p[m:]
	}
	return n, nil
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		ctx: ctx,
		r:   r,
		rc:  rc,
	}
}

// Read waits for len(p) bytes, capped at the limiter burst.
func (r *RateLimitedReader) Read(p []byte) (n int, err error) {
	if burst := r.rc.IOBurst(); burst > 0 {
		if len(p) > burst {
			p = p[:burst]
		}
		if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
			return 0, err
		}
	}
	return r.r.Read(p)
}
