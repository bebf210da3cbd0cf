package vkres

import (
	"errors"
	"testing"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/native/nativetest"
)

func TestFramebufferHelperRelease(t *testing.T) {
	r := nativetest.NewRenderer()
	var fb FramebufferHelper
	if err := fb.Init(r, native.FramebufferCreateInfo{Width: 64, Height: 64, Layers: 1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	handle := fb.Framebuffer()

	fb.Update(r)
	used := r.CurrentQueueSerial()
	r.Submit()
	fb.Release(r)

	if fb.Valid() {
		t.Fatal("framebuffer valid after Release")
	}
	released := r.ReleasedOf(native.ObjectFramebuffer)
	if len(released) != 1 || released[0].Serial != used {
		t.Fatalf("released = %+v, want one at serial %d", released, used)
	}
	if !r.Dev.IsLive(native.FramebufferObject(handle)) {
		t.Fatal("framebuffer destroyed while in flight")
	}
	r.Advance()
	if r.Dev.IsLive(native.FramebufferObject(handle)) {
		t.Error("framebuffer not destroyed after its serial completed")
	}
}

func TestFramebufferHelperInitError(t *testing.T) {
	r := nativetest.NewRenderer()
	r.Dev.FailNext("CreateFramebuffer", nil)

	var fb FramebufferHelper
	if err := fb.Init(r, native.FramebufferCreateInfo{}); !errors.Is(err, nativetest.ErrInjected) {
		t.Fatalf("error = %v, want injected failure", err)
	}
	if fb.Valid() {
		t.Error("framebuffer valid after failed Init")
	}
}
