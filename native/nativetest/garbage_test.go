package nativetest

import (
	"testing"

	"github.com/gogpu/vkres/native"
)

func TestGarbageCollectsCompletedSerials(t *testing.T) {
	r := NewRenderer()
	d := r.Dev

	b1, _ := d.CreateBuffer(native.BufferCreateInfo{Size: 16})
	r.ReleaseObject(r.CurrentQueueSerial(), native.BufferObject(b1))
	s1 := r.Submit()

	b2, _ := d.CreateBuffer(native.BufferCreateInfo{Size: 16})
	r.ReleaseObject(r.CurrentQueueSerial(), native.BufferObject(b2))
	r.Submit()

	if n := r.Collect(); n != 0 {
		t.Fatalf("Collect() before completion destroyed %d objects", n)
	}

	r.Complete(s1)
	if n := r.Collect(); n != 1 {
		t.Fatalf("Collect() = %d, want 1", n)
	}
	if d.IsLive(native.BufferObject(b1)) {
		t.Error("b1 should be destroyed")
	}
	if !d.IsLive(native.BufferObject(b2)) {
		t.Error("b2 must stay alive until its serial completes")
	}
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}

	r.CompleteAll()
	r.Collect()
	if d.Live(native.ObjectBuffer) != 0 {
		t.Errorf("live buffers = %d, want 0", d.Live(native.ObjectBuffer))
	}
}

func TestGarbageIgnoresNullObjects(t *testing.T) {
	var g native.Garbage
	g.Add(1, native.BufferObject(native.Null))
	if g.Len() != 0 {
		t.Errorf("Len() = %d, want 0", g.Len())
	}
}

func TestDestroyAll(t *testing.T) {
	d := NewDevice()
	var g native.Garbage
	s, _ := d.CreateSemaphore()
	q, _ := d.CreateQueryPool(0, 4)
	g.Add(10, native.SemaphoreObject(s))
	g.Add(11, native.QueryPoolObject(q))
	g.DestroyAll(d)
	if d.LiveTotal() != 0 {
		t.Errorf("LiveTotal() = %d, want 0", d.LiveTotal())
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d, want 0", g.Len())
	}
}

func TestRecorderExecutesBufferCopies(t *testing.T) {
	d := NewDevice()
	src, _ := d.CreateBuffer(native.BufferCreateInfo{Size: 8})
	dst, _ := d.CreateBuffer(native.BufferCreateInfo{Size: 8})
	if _, _, err := d.AllocateBufferMemory(src, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.AllocateBufferMemory(dst, 0); err != nil {
		t.Fatal(err)
	}
	copy(d.BufferBytes(src), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	rec := NewRecorder(d)
	rec.CopyBuffer(src, dst, []native.BufferCopy{{SrcOffset: 0, DstOffset: 4, Size: 4}})

	want := []byte{0, 0, 0, 0, 1, 2, 3, 4}
	got := d.BufferBytes(dst)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dst = %v, want %v", got, want)
		}
	}
	if rec.Count(OpCopyBuffer) != 1 {
		t.Errorf("Count(OpCopyBuffer) = %d, want 1", rec.Count(OpCopyBuffer))
	}
}

func TestInjectedFailure(t *testing.T) {
	d := NewDevice()
	d.FailNext("CreateSemaphore", nil)
	if _, err := d.CreateSemaphore(); err == nil {
		t.Fatal("expected injected failure")
	}
	if _, err := d.CreateSemaphore(); err != nil {
		t.Fatalf("failure must be one-shot: %v", err)
	}
}
