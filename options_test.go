package vkres

import "testing"

func TestDescriptorPoolOptions(t *testing.T) {
	o := defaultDescriptorPoolOptions()
	if o.maxSetsPerPool != DefaultMaxSetsPerPool {
		t.Fatalf("default maxSetsPerPool = %d, want %d", o.maxSetsPerPool, DefaultMaxSetsPerPool)
	}
	WithMaxSetsPerPool(0)(&o)
	if o.maxSetsPerPool != DefaultMaxSetsPerPool {
		t.Errorf("WithMaxSetsPerPool(0) changed the value to %d", o.maxSetsPerPool)
	}
	WithMaxSetsPerPool(7)(&o)
	if o.maxSetsPerPool != 7 {
		t.Errorf("maxSetsPerPool = %d, want 7", o.maxSetsPerPool)
	}
}

func TestImageAndLineLoopOptions(t *testing.T) {
	io := defaultImageOptions()
	if io.stagingBufferSize != 16*1024 {
		t.Errorf("staging size = %d, want 16384", io.stagingBufferSize)
	}
	WithStagingBufferSize(256)(&io)
	if io.stagingBufferSize != 256 {
		t.Errorf("staging size = %d, want 256", io.stagingBufferSize)
	}

	lo := defaultLineLoopOptions()
	if lo.bufferSize != 1024*1024 {
		t.Errorf("line loop size = %d, want 1 MiB", lo.bufferSize)
	}
	WithLineLoopBufferSize(0)(&lo)
	if lo.bufferSize != 1024*1024 {
		t.Errorf("WithLineLoopBufferSize(0) changed the value to %d", lo.bufferSize)
	}
}
