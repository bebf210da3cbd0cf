package vkres

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/native/nativetest"
)

var uniformSizes = []native.DescriptorPoolSize{
	{Type: vk.DescriptorTypeUniformBuffer, Count: 2},
	{Type: vk.DescriptorTypeCombinedImageSampler, Count: 1},
}

func TestDynamicDescriptorPoolInitScalesSizes(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer p.Destroy(r.Dev)

	var b DescriptorPoolBinding
	if _, err := p.AllocateSets(r, 1, 1, &b); err != nil {
		t.Fatal(err)
	}
	st := r.Dev.DescriptorPool(b.Pool().Pool())
	if st.MaxSets != DefaultMaxSetsPerPool {
		t.Errorf("MaxSets = %d, want %d", st.MaxSets, DefaultMaxSetsPerPool)
	}
	if st.Sizes[0].Count != 2*DefaultMaxSetsPerPool || st.Sizes[1].Count != DefaultMaxSetsPerPool {
		t.Errorf("sizes = %+v", st.Sizes)
	}
	b.Reset()
}

func TestDynamicDescriptorPoolNeverOverflowsAPool(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes, WithMaxSetsPerPool(4)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer p.Destroy(r.Dev)

	var b DescriptorPoolBinding
	for i := 0; i < 10; i++ {
		sets, err := p.AllocateSets(r, 1, 3, &b)
		if err != nil {
			t.Fatalf("AllocateSets %d: %v", i, err)
		}
		if len(sets) != 3 {
			t.Fatalf("got %d sets, want 3", len(sets))
		}
		st := r.Dev.DescriptorPool(b.Pool().Pool())
		if st.Allocated > st.MaxSets {
			t.Fatalf("pool holds %d sets, capacity %d", st.Allocated, st.MaxSets)
		}
	}
	if p.PoolCount() != 10 {
		t.Errorf("pools = %d, want 10 without completed batches", p.PoolCount())
	}
	b.Reset()
}

func TestDynamicDescriptorPoolReusesCompletedPool(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes, WithMaxSetsPerPool(2)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer p.Destroy(r.Dev)

	var b DescriptorPoolBinding
	mustAllocSets(t, r, &p, 2, &b)
	first := b.Pool()
	if first.HasCapacity(1) {
		t.Fatal("pool should be full")
	}

	// Moving the binding stamps the old pool with the open batch.
	mustAllocSets(t, r, &p, 2, &b)
	if b.Pool() == first {
		t.Fatal("binding did not move to a new pool")
	}
	if first.Serial() != r.CurrentQueueSerial() {
		t.Errorf("old pool serial = %d, want %d", first.Serial(), r.CurrentQueueSerial())
	}

	// The first pool is unreferenced but its batch is still open.
	mustAllocSets(t, r, &p, 2, &b)
	if p.PoolCount() != 3 {
		t.Fatalf("pools = %d, want 3", p.PoolCount())
	}

	r.Advance()
	mustAllocSets(t, r, &p, 2, &b)
	if b.Pool() != first {
		t.Error("completed unreferenced pool was not reused")
	}
	if p.PoolCount() != 3 {
		t.Errorf("pools = %d, want 3 after reuse", p.PoolCount())
	}
	if got := r.Dev.Live(native.ObjectDescriptorPool); got != 3 {
		t.Errorf("live native pools = %d, want 3", got)
	}
	b.Reset()
}

func TestDynamicDescriptorPoolSkipsReferencedPool(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes, WithMaxSetsPerPool(1)); err != nil {
		t.Fatal(err)
	}
	defer p.Destroy(r.Dev)

	var a, shared DescriptorPoolBinding
	mustAllocSets(t, r, &p, 1, &a)
	shared.Set(&a)
	mustAllocSets(t, r, &p, 1, &a)
	r.Advance()

	// Pool 0 has completed but shared still refers to it.
	var c DescriptorPoolBinding
	mustAllocSets(t, r, &p, 1, &c)
	if c.Pool() == shared.Pool() {
		t.Error("referenced pool was reused")
	}
	a.Reset()
	shared.Reset()
	c.Reset()
}

func TestDynamicDescriptorPoolErrors(t *testing.T) {
	r := nativetest.NewRenderer()
	p := DynamicDescriptorPool{maxPools: 2}
	if err := p.Init(r, uniformSizes, WithMaxSetsPerPool(1)); err != nil {
		t.Fatal(err)
	}
	defer p.Destroy(r.Dev)

	var b DescriptorPoolBinding
	if _, err := p.AllocateSets(r, 1, 2, &b); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("oversized request: err = %v, want ErrInvalidArgument", err)
	}

	var x, y, z DescriptorPoolBinding
	mustAllocSets(t, r, &p, 1, &x)
	mustAllocSets(t, r, &p, 1, &y)
	if _, err := p.AllocateSets(r, 1, 1, &z); !errors.Is(err, ErrTooManyObjects) {
		t.Errorf("ceiling: err = %v, want ErrTooManyObjects", err)
	}
	x.Reset()
	y.Reset()
}

func TestDynamicDescriptorPoolDestroyReferencedPanics(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes); err != nil {
		t.Fatal(err)
	}
	var b DescriptorPoolBinding
	mustAllocSets(t, r, &p, 1, &b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	p.Destroy(r.Dev)
}

func TestDynamicDescriptorPoolRelease(t *testing.T) {
	r := nativetest.NewRenderer()
	var p DynamicDescriptorPool
	if err := p.Init(r, uniformSizes); err != nil {
		t.Fatal(err)
	}
	var b DescriptorPoolBinding
	mustAllocSets(t, r, &p, 1, &b)
	b.Reset()
	p.Release(r)

	rel := r.ReleasedOf(native.ObjectDescriptorPool)
	if len(rel) != 1 || rel[0].Serial != 1 {
		t.Fatalf("released = %+v, want one pool at serial 1", rel)
	}
	if got := r.Dev.Live(native.ObjectDescriptorPool); got != 1 {
		t.Errorf("pool destroyed before its batch completed")
	}
	r.Advance()
	if got := r.Dev.Live(native.ObjectDescriptorPool); got != 0 {
		t.Errorf("live pools = %d after completion, want 0", got)
	}
}

func TestDescriptorPoolBindingRefCounts(t *testing.T) {
	shared := &sharedDescriptorPool{}
	var a, b DescriptorPoolBinding
	a.bind(shared)
	b.Set(&a)
	if shared.refs != 2 {
		t.Fatalf("refs = %d, want 2", shared.refs)
	}
	b.Set(&a)
	if shared.refs != 2 {
		t.Errorf("rebinding to the same pool changed refs to %d", shared.refs)
	}
	a.Reset()
	b.Reset()
	if shared.referenced() {
		t.Errorf("refs = %d after reset, want 0", shared.refs)
	}
}

func mustAllocSets(t *testing.T, r *nativetest.Renderer, p *DynamicDescriptorPool, count uint32, b *DescriptorPoolBinding) {
	t.Helper()
	if _, err := p.AllocateSets(r, 1, count, b); err != nil {
		t.Fatalf("AllocateSets: %v", err)
	}
}
