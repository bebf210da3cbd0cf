package backend

import (
	"context"

	"github.com/gogpu/vkres/backend/vulkan"
	"github.com/gogpu/vkres/native"
)

// VulkanRenderer adapts a *vulkan.Renderer to Renderer.
//
// The Vulkan backend needs an instance and device created by the
// application, so it is registered explicitly:
//
//	backend.Register(backend.BackendVulkan, func() (backend.Renderer, error) {
//		r, err := vulkan.NewRenderer(dev, queue, family)
//		if err != nil {
//			return nil, err
//		}
//		return backend.NewVulkanRenderer(r), nil
//	})
type VulkanRenderer struct {
	*vulkan.Renderer

	rec *vulkan.Recorder
}

var _ Renderer = (*VulkanRenderer)(nil)

// NewVulkanRenderer wraps r.
func NewVulkanRenderer(r *vulkan.Renderer) *VulkanRenderer {
	return &VulkanRenderer{Renderer: r}
}

// Name implements Renderer.
func (r *VulkanRenderer) Name() string { return BackendVulkan }

// Recorder implements Renderer.
func (r *VulkanRenderer) Recorder() (native.Recorder, error) {
	if r.rec == nil {
		rec, err := r.Begin()
		if err != nil {
			return nil, err
		}
		r.rec = rec
	}
	return r.rec, nil
}

// Flush implements Renderer.
func (r *VulkanRenderer) Flush() error {
	r.rec = nil
	if _, err := r.Submit(); err != nil {
		return err
	}
	return r.CheckCompleted()
}

// Close implements Renderer.
func (r *VulkanRenderer) Close() {
	r.rec = nil
	r.Destroy()
}

// Finish implements native.Renderer. The open batch is submitted, so
// callers fetch a new recorder afterwards.
func (r *VulkanRenderer) Finish(ctx context.Context) error {
	r.rec = nil
	return r.Renderer.Finish(ctx)
}
