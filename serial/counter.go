package serial

// Counter is a Clock advanced explicitly by its owner.
//
// Submit closes the batch being recorded and opens the next one.
// Complete marks batches as finished, typically after a fence wait.
// Counter is used by backends that track fences themselves and by tests.
// Like every vkres helper it belongs to the recording goroutine.
type Counter struct {
	current   Serial
	completed Serial
}

// NewCounter returns a clock whose first batch has serial 1 and where
// nothing has completed yet.
func NewCounter() *Counter {
	return &Counter{current: 1}
}

// CurrentQueueSerial implements Clock.
func (c *Counter) CurrentQueueSerial() Serial {
	return c.current
}

// LastCompletedQueueSerial implements Clock.
func (c *Counter) LastCompletedQueueSerial() Serial {
	return c.completed
}

// Submit closes the current batch and returns its serial.
func (c *Counter) Submit() Serial {
	s := c.current
	c.current++
	return s
}

// Complete marks every batch up to and including s as finished.
// Serials that were never submitted and serials older than the last
// completed one are ignored.
func (c *Counter) Complete(s Serial) {
	if s >= c.current {
		s = c.current - 1
	}
	if s > c.completed {
		c.completed = s
	}
}

// CompleteAll marks every submitted batch as finished.
func (c *Counter) CompleteAll() {
	c.completed = c.current - 1
}
