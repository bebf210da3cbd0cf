package hal

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/vkres/serial"
)

// mockDevice is a gpucontext.Device that can poll.
type mockDevice struct {
	polls     int
	waitPolls int
}

func (m *mockDevice) Poll(wait bool) {
	m.polls++
	if wait {
		m.waitPolls++
	}
}

func (m *mockDevice) Destroy() {}

func TestClockFinish(t *testing.T) {
	dev := &mockDevice{}
	c, err := NewClock(dev)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}

	var use serial.Use
	use.Update(c)
	if !use.InUse(c) {
		t.Fatal("use of current batch not in use")
	}

	if err := c.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if dev.waitPolls != 1 {
		t.Errorf("waiting polls = %d; want 1", dev.waitPolls)
	}
	if use.InUse(c) {
		t.Error("use still in use after Finish")
	}
	if got := c.CurrentQueueSerial(); got != 2 {
		t.Errorf("current serial = %d; want 2", got)
	}
}

func TestClockFinishCanceled(t *testing.T) {
	dev := &mockDevice{}
	c, err := NewClock(dev)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Finish(ctx); err != context.Canceled {
		t.Fatalf("Finish = %v; want context.Canceled", err)
	}
	if dev.polls != 0 {
		t.Errorf("polls = %d; want 0", dev.polls)
	}
	if got := c.LastCompletedQueueSerial(); got != 0 {
		t.Errorf("completed serial = %d; want 0", got)
	}
}

type noPollDevice struct{}

func TestNewClockRejectsDeviceWithoutPoll(t *testing.T) {
	c, err := NewClock(noPollDevice{})
	if !errors.Is(err, ErrCannotPoll) {
		t.Fatalf("NewClock error = %v; want ErrCannotPoll", err)
	}
	if c != nil {
		t.Error("NewClock returned a clock for a device without Poll")
	}
}
