package nativetest

import (
	"context"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// Released is one object handed to Renderer.ReleaseObject.
type Released struct {
	Serial serial.Serial
	Object native.Object
}

// Renderer is a native.Renderer over a Device and a manual clock.
//
// Released objects are queued in a garbage list and destroyed by Collect,
// Advance or Finish once their serial completes.
type Renderer struct {
	*serial.Counter

	Dev      *Device
	Released []Released

	// FeatureFlags and DeviceLimits are returned by Features and Limits.
	FeatureFlags native.Features
	DeviceLimits native.Limits

	// FinishCalls counts calls to Finish.
	FinishCalls int

	garbage native.Garbage
}

var _ native.Renderer = (*Renderer)(nil)

// NewRenderer returns a renderer with a fresh Device, a clock at serial 1
// and a non-coherent atom size of 64 bytes.
func NewRenderer() *Renderer {
	return &Renderer{
		Counter:      serial.NewCounter(),
		Dev:          NewDevice(),
		DeviceLimits: native.Limits{NonCoherentAtomSize: 64},
	}
}

// Device implements native.Renderer.
func (r *Renderer) Device() native.Device { return r.Dev }

// ReleaseObject implements native.Renderer. Null objects are ignored.
func (r *Renderer) ReleaseObject(s serial.Serial, obj native.Object) {
	if !obj.Valid() {
		return
	}
	r.Released = append(r.Released, Released{Serial: s, Object: obj})
	r.garbage.Add(s, obj)
}

// Finish implements native.Renderer. It submits the current batch, completes
// all work and collects garbage.
func (r *Renderer) Finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.FinishCalls++
	r.Advance()
	return nil
}

// Features implements native.Renderer.
func (r *Renderer) Features() native.Features { return r.FeatureFlags }

// Limits implements native.Renderer.
func (r *Renderer) Limits() native.Limits { return r.DeviceLimits }

// Advance submits the current batch, marks it complete and collects garbage.
func (r *Renderer) Advance() {
	r.Submit()
	r.CompleteAll()
	r.Collect()
}

// Collect destroys released objects whose serial has completed and returns
// how many were destroyed.
func (r *Renderer) Collect() int {
	return r.garbage.Collect(r.Dev, r.LastCompletedQueueSerial())
}

// Pending returns the number of released objects not yet destroyed.
func (r *Renderer) Pending() int { return r.garbage.Len() }

// ReleasedOf returns the released objects of type t.
func (r *Renderer) ReleasedOf(t native.ObjectType) []Released {
	var out []Released
	for _, rel := range r.Released {
		if rel.Object.Type == t {
			out = append(out, rel)
		}
	}
	return out
}
