package vkres

import (
	"fmt"

	"github.com/gogpu/vkres/native"
)

// DynamicSemaphorePool hands out semaphores from slabs created eagerly.
type DynamicSemaphorePool struct {
	entryPool[[]native.Semaphore]
}

// Init creates the first slab of poolSize semaphores.
func (p *DynamicSemaphorePool) Init(r native.Renderer, poolSize uint32) error {
	p.initEntryPool(poolSize)
	return p.allocateNewPool(r)
}

// Destroy destroys every semaphore immediately.
func (p *DynamicSemaphorePool) Destroy(d native.Device) {
	p.destroyEntryPool(func(slab []native.Semaphore) {
		for _, s := range slab {
			d.DestroySemaphore(s)
		}
	})
}

// AllocateSemaphore assigns the next free semaphore to s.
func (p *DynamicSemaphorePool) AllocateSemaphore(r native.Renderer, s *SemaphoreHelper) error {
	if s.Valid() {
		panic("vkres: semaphore helper already holds a semaphore")
	}
	if p.exhausted() {
		if err := p.allocateNewPool(r); err != nil {
			return err
		}
	}
	slab, entry := p.takeEntry()
	s.slab = slab
	s.semaphore = p.slabs[slab][entry]
	return nil
}

// FreeSemaphore returns the semaphore held by s to its pool. It does nothing
// for an empty helper.
func (p *DynamicSemaphorePool) FreeSemaphore(r native.Renderer, s *SemaphoreHelper) {
	if !s.Valid() {
		return
	}
	p.onEntryFreed(r, s.slab)
	s.slab = 0
	s.semaphore = native.Null
}

// Stats returns the slab layout of the pool.
func (p *DynamicSemaphorePool) Stats() PoolStats { return p.poolStats() }

func (p *DynamicSemaphorePool) allocateNewPool(r native.Renderer) error {
	if p.findFreeEntryPool(r) {
		return nil
	}
	d := r.Device()
	slab := make([]native.Semaphore, 0, p.poolSize)
	for i := uint32(0); i < p.poolSize; i++ {
		s, err := d.CreateSemaphore()
		if err != nil {
			for _, created := range slab {
				d.DestroySemaphore(created)
			}
			return fmt.Errorf("vkres: create semaphore: %w", err)
		}
		slab = append(slab, s)
	}
	p.allocateNewEntryPool(slab)
	Logger().Debug("vkres: semaphore pool grown", "slabs", len(p.slabs), "size", p.poolSize)
	return nil
}

// SemaphoreHelper holds one semaphore allocated from a DynamicSemaphorePool.
type SemaphoreHelper struct {
	slab      int
	semaphore native.Semaphore
}

// Valid reports whether s holds a semaphore.
func (s *SemaphoreHelper) Valid() bool { return s.semaphore != native.Null }

// Semaphore returns the held native semaphore.
func (s *SemaphoreHelper) Semaphore() native.Semaphore { return s.semaphore }
