package vkres

import "github.com/gogpu/vkres/serial"

// slabStats tracks how many entries of a slab were returned and the serial
// of the batch being recorded when the last one was.
type slabStats struct {
	freedCount uint32
	serial     serial.Serial
}

// entryPool is the growth and recycling policy shared by the query and
// semaphore pools. A slab is a fixed-capacity batch of native entries of
// type T created together; entries are handed out from the current slab by
// a cursor, and a slab is recycled as a whole once every entry was freed and
// the GPU finished the batch that freed the last one.
type entryPool[T any] struct {
	poolSize         uint32
	slabs            []T
	stats            []slabStats
	currentSlab      int
	currentFreeEntry uint32
}

func (p *entryPool[T]) initEntryPool(poolSize uint32) {
	if poolSize == 0 {
		panic("vkres: zero entry pool size")
	}
	p.poolSize = poolSize
	p.currentFreeEntry = 0
}

// allocateNewEntryPool appends slab and makes it current.
func (p *entryPool[T]) allocateNewEntryPool(slab T) {
	p.slabs = append(p.slabs, slab)
	p.stats = append(p.stats, slabStats{})
	p.currentSlab = len(p.slabs) - 1
	p.currentFreeEntry = 0
}

// findFreeEntryPool makes the first fully freed and GPU-complete slab
// current and reports whether one was found.
func (p *entryPool[T]) findFreeEntryPool(c serial.Clock) bool {
	completed := c.LastCompletedQueueSerial()
	for i := range p.stats {
		st := &p.stats[i]
		if st.freedCount == p.poolSize && st.serial <= completed {
			p.currentSlab = i
			p.currentFreeEntry = 0
			st.freedCount = 0
			return true
		}
	}
	return false
}

// onEntryFreed records the return of one entry of slab i. The slab is
// stamped with the current serial, not the serial of the entry's last use.
func (p *entryPool[T]) onEntryFreed(c serial.Clock, i int) {
	st := &p.stats[i]
	if st.freedCount >= p.poolSize {
		panic("vkres: entry freed twice")
	}
	st.serial = c.CurrentQueueSerial()
	st.freedCount++
}

// exhausted reports whether the current slab has no entries left.
func (p *entryPool[T]) exhausted() bool {
	return len(p.slabs) == 0 || p.currentFreeEntry >= p.poolSize
}

// takeEntry returns the current slab index and the next entry index in it.
func (p *entryPool[T]) takeEntry() (slab int, entry uint32) {
	slab, entry = p.currentSlab, p.currentFreeEntry
	p.currentFreeEntry++
	return slab, entry
}

// destroyEntryPool hands every slab to destroy and forgets them.
func (p *entryPool[T]) destroyEntryPool(destroy func(T)) {
	for _, s := range p.slabs {
		destroy(s)
	}
	p.slabs = nil
	p.stats = nil
	p.currentSlab = 0
	p.currentFreeEntry = 0
}

// PoolStats describes a slab pool for diagnostics.
type PoolStats struct {
	Slabs       int
	CurrentSlab int
	NextEntry   uint32
	SlabSize    uint32
}

func (p *entryPool[T]) poolStats() PoolStats {
	return PoolStats{
		Slabs:       len(p.slabs),
		CurrentSlab: p.currentSlab,
		NextEntry:   p.currentFreeEntry,
		SlabSize:    p.poolSize,
	}
}
