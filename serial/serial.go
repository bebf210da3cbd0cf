package serial

// Serial identifies a batch of submitted GPU work.
// Serials increase monotonically. The zero value is never issued by a clock
// and marks a resource that has not been used by the GPU yet.
type Serial uint64

// Invalid is the zero serial.
const Invalid Serial = 0

// Valid reports whether s was issued by a clock.
func (s Serial) Valid() bool { return s != Invalid }

// Clock reports the progress of GPU work.
//
// CurrentQueueSerial is the serial of the batch currently being recorded.
// LastCompletedQueueSerial is the highest serial the GPU has finished.
// Implementations guarantee LastCompletedQueueSerial() < CurrentQueueSerial().
type Clock interface {
	CurrentQueueSerial() Serial
	LastCompletedQueueSerial() Serial
}

// InUse reports whether work stamped with s may still be executing on the GPU.
func InUse(c Clock, s Serial) bool {
	return s > c.LastCompletedQueueSerial()
}

// Use records the last serial at which a resource was referenced.
// Resource wrappers embed a Use instead of inheriting tracking behavior.
type Use struct {
	serial Serial
}

// Update stamps the resource with the clock's current serial.
func (u *Use) Update(c Clock) {
	u.serial = c.CurrentQueueSerial()
}

// UpdateSerial stamps the resource with an explicit serial.
// Older serials never overwrite newer ones.
func (u *Use) UpdateSerial(s Serial) {
	if s > u.serial {
		u.serial = s
	}
}

// Serial returns the last serial stamped on the resource.
func (u Use) Serial() Serial { return u.serial }

// InUse reports whether the GPU may still reference the resource.
func (u Use) InUse(c Clock) bool { return InUse(c, u.serial) }

// Reset forgets the stamped serial.
func (u *Use) Reset() { u.serial = Invalid }
