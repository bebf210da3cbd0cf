package hal

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/vkres/serial"
)

// ErrCannotPoll is returned by NewClock for a device that has no
// Poll(wait bool) method.
var ErrCannotPoll = errors.New("hal: device cannot poll")

// poller is the part of a wgpu device Clock drains through.
type poller interface {
	Poll(wait bool)
}

// Clock is a serial.Clock for a gpucontext device.
//
// The device offers no per-submission completion signal, so submitted
// batches are only known complete after Finish has polled the device to
// idle.
type Clock struct {
	*serial.Counter

	dev poller
}

var _ serial.Clock = (*Clock)(nil)

// NewClock returns a clock for dev, which must implement Poll(wait bool).
func NewClock(dev gpucontext.Device) (*Clock, error) {
	p, ok := dev.(poller)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrCannotPoll, dev)
	}
	return &Clock{Counter: serial.NewCounter(), dev: p}, nil
}

// Finish closes the current batch, waits for the device to go idle and
// marks every submitted batch complete.
func (c *Clock) Finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Submit()
	c.dev.Poll(true)
	c.CompleteAll()
	return nil
}
