package serial

import "testing"

func TestCounterStartsAtOne(t *testing.T) {
	c := NewCounter()
	if got := c.CurrentQueueSerial(); got != 1 {
		t.Fatalf("CurrentQueueSerial() = %d, want 1", got)
	}
	if got := c.LastCompletedQueueSerial(); got != 0 {
		t.Fatalf("LastCompletedQueueSerial() = %d, want 0", got)
	}
}

func TestCounterSubmitComplete(t *testing.T) {
	c := NewCounter()
	s1 := c.Submit()
	s2 := c.Submit()
	if s1 != 1 || s2 != 2 {
		t.Fatalf("Submit() = %d, %d; want 1, 2", s1, s2)
	}
	if got := c.CurrentQueueSerial(); got != 3 {
		t.Errorf("CurrentQueueSerial() = %d, want 3", got)
	}

	c.Complete(s1)
	if !InUse(c, s2) {
		t.Error("s2 should still be in use")
	}
	if InUse(c, s1) {
		t.Error("s1 should be complete")
	}

	// Completing backwards is ignored.
	c.Complete(0)
	if got := c.LastCompletedQueueSerial(); got != s1 {
		t.Errorf("LastCompletedQueueSerial() = %d, want %d", got, s1)
	}

	// Completing past the last submission clamps.
	c.Complete(100)
	if got := c.LastCompletedQueueSerial(); got != s2 {
		t.Errorf("LastCompletedQueueSerial() = %d, want %d", got, s2)
	}
}

func TestCounterCompleteAll(t *testing.T) {
	c := NewCounter()
	c.Submit()
	c.Submit()
	c.CompleteAll()
	if got := c.LastCompletedQueueSerial(); got != 2 {
		t.Errorf("LastCompletedQueueSerial() = %d, want 2", got)
	}
	if !InUse(c, c.CurrentQueueSerial()) {
		t.Error("the batch being recorded is never complete")
	}
}

func TestUse(t *testing.T) {
	c := NewCounter()
	var u Use
	if u.InUse(c) {
		t.Error("zero Use must not be in use")
	}

	u.Update(c)
	if u.Serial() != 1 {
		t.Fatalf("Serial() = %d, want 1", u.Serial())
	}
	if !u.InUse(c) {
		t.Error("Use stamped with the current serial must be in use")
	}

	u.UpdateSerial(0)
	if u.Serial() != 1 {
		t.Errorf("UpdateSerial moved backwards to %d", u.Serial())
	}

	c.Submit()
	c.CompleteAll()
	if u.InUse(c) {
		t.Error("Use must be free after its batch completes")
	}

	u.Reset()
	if u.Serial().Valid() {
		t.Error("Reset must clear the serial")
	}
}
