package vkres

import (
	"fmt"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

const (
	// DefaultMaxSetsPerPool is the number of descriptor sets each native
	// pool of a DynamicDescriptorPool is sized for.
	DefaultMaxSetsPerPool = 128

	// MaxDescriptorPools is the ceiling on native pools per
	// DynamicDescriptorPool. Reaching it means sets are leaking.
	MaxDescriptorPools = 99999
)

// DescriptorPoolHelper wraps one native descriptor pool and counts the sets
// it can still hand out.
type DescriptorPoolHelper struct {
	serial.Use

	freeSets uint32
	pool     native.DescriptorPool
}

// Valid reports whether the native pool exists.
func (h *DescriptorPoolHelper) Valid() bool { return h.pool != native.Null }

// HasCapacity reports whether count more sets fit in the pool.
func (h *DescriptorPoolHelper) HasCapacity(count uint32) bool { return h.freeSets >= count }

// FreeSets returns the number of sets the pool can still hand out.
func (h *DescriptorPoolHelper) FreeSets() uint32 { return h.freeSets }

// Pool returns the native pool.
func (h *DescriptorPoolHelper) Pool() native.DescriptorPool { return h.pool }

// Init creates a native pool for maxSets sets. An existing native pool is
// destroyed first; the caller guarantees the GPU no longer uses it.
func (h *DescriptorPoolHelper) Init(d native.Device, sizes []native.DescriptorPoolSize, maxSets uint32) error {
	if h.pool != native.Null {
		h.Destroy(d)
	}
	pool, err := d.CreateDescriptorPool(maxSets, sizes)
	if err != nil {
		return fmt.Errorf("vkres: create descriptor pool: %w", err)
	}
	h.pool = pool
	h.freeSets = maxSets
	return nil
}

// Destroy destroys the native pool immediately.
func (h *DescriptorPoolHelper) Destroy(d native.Device) {
	d.DestroyDescriptorPool(h.pool)
	h.pool = native.Null
	h.freeSets = 0
}

// Release hands the native pool to the renderer at the pool's last serial.
func (h *DescriptorPoolHelper) Release(r native.Renderer) {
	r.ReleaseObject(h.Serial(), native.DescriptorPoolObject(h.pool))
	h.pool = native.Null
	h.freeSets = 0
}

// AllocateSets allocates one set per layout. The pool must have capacity.
func (h *DescriptorPoolHelper) AllocateSets(d native.Device, layouts []native.DescriptorSetLayout) ([]native.DescriptorSet, error) {
	n := uint32(len(layouts))
	if !h.HasCapacity(n) {
		panic("vkres: descriptor pool over capacity")
	}
	h.freeSets -= n
	sets, err := d.AllocateDescriptorSets(h.pool, layouts)
	if err != nil {
		return nil, fmt.Errorf("vkres: allocate descriptor sets: %w", err)
	}
	return sets, nil
}

// sharedDescriptorPool is a pool helper with an explicit count of the
// bindings referring to it.
type sharedDescriptorPool struct {
	helper DescriptorPoolHelper
	refs   int
}

func (p *sharedDescriptorPool) referenced() bool { return p.refs > 0 }

// DescriptorPoolBinding is a caller-held reference to the pool its sets
// were allocated from. The zero value is unbound.
type DescriptorPoolBinding struct {
	shared *sharedDescriptorPool
}

// Valid reports whether the binding refers to a pool.
func (b *DescriptorPoolBinding) Valid() bool { return b.shared != nil }

// Pool returns the bound pool. It panics on an unbound binding.
func (b *DescriptorPoolBinding) Pool() *DescriptorPoolHelper {
	if b.shared == nil {
		panic("vkres: unbound descriptor pool binding")
	}
	return &b.shared.helper
}

// Set makes b refer to the same pool as other.
func (b *DescriptorPoolBinding) Set(other *DescriptorPoolBinding) {
	b.bind(other.shared)
}

// Reset drops the reference held by b.
func (b *DescriptorPoolBinding) Reset() { b.bind(nil) }

func (b *DescriptorPoolBinding) bind(p *sharedDescriptorPool) {
	if p == b.shared {
		return
	}
	if p != nil {
		p.refs++
	}
	if b.shared != nil {
		b.shared.refs--
	}
	b.shared = p
}

// DynamicDescriptorPool is a pool of native descriptor pools of identical
// shape. Pools are reused once no binding refers to them and the GPU
// finished the last batch that used their sets.
type DynamicDescriptorPool struct {
	maxSetsPerPool uint32
	maxPools       int
	sizes          []native.DescriptorPoolSize
	pools          []*sharedDescriptorPool
	current        int
}

// Init records the pool shape, scaling each descriptor count by the number
// of sets per pool, and creates the first native pool.
func (p *DynamicDescriptorPool) Init(r native.Renderer, sizes []native.DescriptorPoolSize, opts ...DescriptorPoolOption) error {
	if len(p.pools) != 0 {
		panic("vkres: descriptor pool initialized twice")
	}
	o := defaultDescriptorPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p.maxSetsPerPool = o.maxSetsPerPool
	if p.maxPools == 0 {
		p.maxPools = MaxDescriptorPools
	}

	p.sizes = make([]native.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		n, err := checkedMul32(s.Count, p.maxSetsPerPool)
		if err != nil {
			return fmt.Errorf("vkres: descriptor pool size %d: %w", i, err)
		}
		p.sizes[i] = native.DescriptorPoolSize{Type: s.Type, Count: n}
	}

	shared := &sharedDescriptorPool{}
	if err := shared.helper.Init(r.Device(), p.sizes, p.maxSetsPerPool); err != nil {
		return err
	}
	p.pools = append(p.pools, shared)
	p.current = 0
	return nil
}

// Destroy destroys every native pool immediately. No binding may still
// refer to a pool.
func (p *DynamicDescriptorPool) Destroy(d native.Device) {
	for _, pool := range p.pools {
		if pool.referenced() {
			panic("vkres: destroying a referenced descriptor pool")
		}
		pool.helper.Destroy(d)
	}
	p.pools = nil
	p.current = 0
}

// Release hands every native pool to the renderer at its last serial.
// No binding may still refer to a pool.
func (p *DynamicDescriptorPool) Release(r native.Renderer) {
	for _, pool := range p.pools {
		if pool.referenced() {
			panic("vkres: releasing a referenced descriptor pool")
		}
		pool.helper.Release(r)
	}
	p.pools = nil
	p.current = 0
}

// AllocateSets allocates count sets of layout. When the pool bound to
// binding cannot hold them, binding moves to a pool that can; the pool it
// leaves is stamped with the current serial so its sets outlive the batch
// being recorded.
func (p *DynamicDescriptorPool) AllocateSets(r native.Renderer, layout native.DescriptorSetLayout, count uint32, binding *DescriptorPoolBinding) ([]native.DescriptorSet, error) {
	if count == 0 {
		return nil, nil
	}
	if count > p.maxSetsPerPool {
		return nil, fmt.Errorf("%w: %d descriptor sets exceed the %d sets of a pool",
			ErrInvalidArgument, count, p.maxSetsPerPool)
	}

	if !binding.Valid() || !binding.Pool().HasCapacity(count) {
		if !p.pools[p.current].helper.HasCapacity(count) {
			if err := p.allocateNewPool(r); err != nil {
				return nil, err
			}
		}
		if binding.Valid() {
			binding.Pool().UpdateSerial(r.CurrentQueueSerial())
		}
		binding.bind(p.pools[p.current])
	}

	pool := binding.Pool()
	pool.Update(r)
	layouts := make([]native.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	return pool.AllocateSets(r.Device(), layouts)
}

func (p *DynamicDescriptorPool) allocateNewPool(r native.Renderer) error {
	found := false
	for i, pool := range p.pools {
		if !pool.referenced() && !pool.helper.InUse(r) {
			p.current = i
			found = true
			break
		}
	}
	if !found {
		if len(p.pools) >= p.maxPools {
			Logger().Error("vkres: too many descriptor pools", "pools", len(p.pools))
			return fmt.Errorf("%w: %d descriptor pools", ErrTooManyObjects, len(p.pools))
		}
		p.pools = append(p.pools, &sharedDescriptorPool{})
		p.current = len(p.pools) - 1
	}
	Logger().Debug("vkres: descriptor pool rotated",
		"index", p.current, "pools", len(p.pools), "reused", found)
	return p.pools[p.current].helper.Init(r.Device(), p.sizes, p.maxSetsPerPool)
}

// PoolCount returns the number of native pools created so far.
func (p *DynamicDescriptorPool) PoolCount() int { return len(p.pools) }
