package native

import "github.com/gogpu/vkres/serial"

type garbageEntry struct {
	serial serial.Serial
	object Object
}

// Garbage is a deferred destruction list keyed by serial.
//
// Objects are added with the serial of the last batch that may use them and
// destroyed by Collect once that serial completes. Serials are expected to be
// added in non-decreasing order, which keeps the list sorted; an out of order
// add only delays collection of the entries queued after it.
//
// The zero value is ready to use. Garbage is not safe for concurrent use.
type Garbage struct {
	entries []garbageEntry
}

// Add queues obj for destruction once s completes.
func (g *Garbage) Add(s serial.Serial, obj Object) {
	if !obj.Valid() {
		return
	}
	g.entries = append(g.entries, garbageEntry{serial: s, object: obj})
}

// Collect destroys every leading entry whose serial is at most completed
// and returns the number of objects destroyed.
func (g *Garbage) Collect(d Device, completed serial.Serial) int {
	n := 0
	for n < len(g.entries) && g.entries[n].serial <= completed {
		Destroy(d, g.entries[n].object)
		n++
	}
	if n > 0 {
		remaining := copy(g.entries, g.entries[n:])
		clear(g.entries[remaining:])
		g.entries = g.entries[:remaining]
	}
	return n
}

// DestroyAll destroys every queued object regardless of its serial.
// The caller must have drained the GPU.
func (g *Garbage) DestroyAll(d Device) {
	for _, e := range g.entries {
		Destroy(d, e.object)
	}
	g.entries = nil
}

// Len returns the number of queued objects.
func (g *Garbage) Len() int { return len(g.entries) }
