package backend

import (
	"context"
	"errors"
	"slices"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/native/nativetest"
)

func TestTestRendererName(t *testing.T) {
	r := NewTestRenderer()
	if r.Name() != BackendNativeTest {
		t.Errorf("Name() = %q, want %q", r.Name(), BackendNativeTest)
	}
}

func TestTestRendererFlush(t *testing.T) {
	r := NewTestRenderer()
	defer r.Close()

	buf, err := r.Device().CreateBuffer(native.BufferCreateInfo{Size: 64, Usage: vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}

	rec, err := r.Recorder()
	if err != nil {
		t.Fatalf("Recorder() error = %v", err)
	}
	rec.DrawIndexed(6, 1, 0, 0, 0)
	s := r.CurrentQueueSerial()
	r.ReleaseObject(s, native.BufferObject(buf))

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := len(r.Trace()); got != 1 {
		t.Fatalf("len(Trace()) = %d, want 1", got)
	}
	if r.Trace()[0].Op != nativetest.OpDrawIndexed {
		t.Errorf("Trace()[0].Op = %v, want %v", r.Trace()[0].Op, nativetest.OpDrawIndexed)
	}
	if r.LastCompletedQueueSerial() < s {
		t.Errorf("completed serial = %d, want >= %d", r.LastCompletedQueueSerial(), s)
	}
	if r.Dev.IsLive(native.BufferObject(buf)) {
		t.Error("released buffer still live after Flush()")
	}
}

func TestTestRendererFinishMovesTrace(t *testing.T) {
	r := NewTestRenderer()
	defer r.Close()

	rec, _ := r.Recorder()
	rec.DrawIndexed(3, 1, 0, 0, 0)
	if err := r.Finish(context.Background()); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if len(r.Trace()) != 1 || r.FinishCalls != 1 {
		t.Errorf("trace = %d commands, finish calls = %d; want 1, 1", len(r.Trace()), r.FinishCalls)
	}
}

func TestTestRendererClosed(t *testing.T) {
	r := NewTestRenderer()
	r.Close()
	r.Close()

	if _, err := r.Recorder(); !errors.Is(err, ErrClosed) {
		t.Errorf("Recorder() error = %v, want ErrClosed", err)
	}
	if err := r.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush() error = %v, want ErrClosed", err)
	}
}

func TestRegistry(t *testing.T) {
	if !IsRegistered(BackendNativeTest) {
		t.Fatal("nativetest backend not registered")
	}
	if !slices.Contains(Available(), BackendNativeTest) {
		t.Errorf("Available() = %v, missing %q", Available(), BackendNativeTest)
	}

	r, err := Get(BackendNativeTest)
	if err != nil || r == nil {
		t.Fatalf("Get(%q) = %v, %v", BackendNativeTest, r, err)
	}
	r.Close()

	if _, err := Get("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Get(missing) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestDefaultSkipsFailingBackend(t *testing.T) {
	errBroken := errors.New("no device")
	Register(BackendVulkan, func() (Renderer, error) { return nil, errBroken })
	defer Unregister(BackendVulkan)

	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	defer r.Close()
	if r.Name() != BackendNativeTest {
		t.Errorf("Default().Name() = %q, want %q", r.Name(), BackendNativeTest)
	}
}

func TestDefaultReportsFailure(t *testing.T) {
	errBroken := errors.New("no device")
	Register(BackendVulkan, func() (Renderer, error) { return nil, errBroken })
	defer Unregister(BackendVulkan)
	Unregister(BackendNativeTest)
	defer Register(BackendNativeTest, func() (Renderer, error) { return NewTestRenderer(), nil })

	if _, err := Default(); !errors.Is(err, errBroken) {
		t.Errorf("Default() error = %v, want %v", err, errBroken)
	}
}
