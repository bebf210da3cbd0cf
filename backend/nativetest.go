package backend

import (
	"context"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/native/nativetest"
)

func init() {
	Register(BackendNativeTest, func() (Renderer, error) {
		return NewTestRenderer(), nil
	})
}

// TestRenderer is the in-memory backend. Every flushed batch completes
// immediately and the recorded commands stay available in Trace.
type TestRenderer struct {
	*nativetest.Renderer

	rec    *nativetest.Recorder
	trace  []nativetest.Command
	closed bool
}

var _ Renderer = (*TestRenderer)(nil)

// NewTestRenderer returns a renderer over a fresh nativetest device.
func NewTestRenderer() *TestRenderer {
	r := nativetest.NewRenderer()
	return &TestRenderer{Renderer: r, rec: nativetest.NewRecorder(r.Dev)}
}

// Name implements Renderer.
func (r *TestRenderer) Name() string { return BackendNativeTest }

// Recorder implements Renderer.
func (r *TestRenderer) Recorder() (native.Recorder, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return r.rec, nil
}

// Flush implements Renderer. The batch is submitted and completed, and its
// commands are appended to the trace.
func (r *TestRenderer) Flush() error {
	if r.closed {
		return ErrClosed
	}
	r.trace = append(r.trace, r.rec.Commands...)
	r.rec.Reset()
	r.Advance()
	return nil
}

// Finish implements native.Renderer. Recorded commands are moved to the
// trace before the batch completes.
func (r *TestRenderer) Finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.trace = append(r.trace, r.rec.Commands...)
	r.rec.Reset()
	return r.Renderer.Finish(ctx)
}

// Trace returns every command flushed so far.
func (r *TestRenderer) Trace() []nativetest.Command { return r.trace }

// Close implements Renderer.
func (r *TestRenderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.Advance()
}
