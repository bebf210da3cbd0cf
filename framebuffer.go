package vkres

import (
	"fmt"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// FramebufferHelper owns a native framebuffer and the serial of the last
// render pass that used it.
type FramebufferHelper struct {
	serial.Use

	framebuffer native.Framebuffer
}

// Init creates the framebuffer.
func (f *FramebufferHelper) Init(r native.Renderer, info native.FramebufferCreateInfo) error {
	if f.Valid() {
		panic("vkres: framebuffer initialized twice")
	}
	fb, err := r.Device().CreateFramebuffer(info)
	if err != nil {
		return fmt.Errorf("vkres: create framebuffer: %w", err)
	}
	f.framebuffer = fb
	return nil
}

// Valid reports whether the helper holds a framebuffer.
func (f *FramebufferHelper) Valid() bool { return f.framebuffer != native.Null }

// Framebuffer returns the native framebuffer.
func (f *FramebufferHelper) Framebuffer() native.Framebuffer { return f.framebuffer }

// Release hands the framebuffer to the renderer at its last use.
func (f *FramebufferHelper) Release(r native.Renderer) {
	r.ReleaseObject(f.Serial(), native.FramebufferObject(f.framebuffer))
	f.framebuffer = native.Null
	f.Reset()
}

// Destroy destroys the framebuffer immediately.
func (f *FramebufferHelper) Destroy(d native.Device) {
	d.DestroyFramebuffer(f.framebuffer)
	f.framebuffer = native.Null
	f.Reset()
}
