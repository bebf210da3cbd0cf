package hal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/wgpu/hal"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres"
	"github.com/gogpu/vkres/native"
)

// ErrUnsupportedCommand is reported by Recorder.Err for commands a hal
// encoder cannot record.
var ErrUnsupportedCommand = errors.New("hal: unsupported command")

// Encoder is the part of hal.CommandEncoder that Recorder uses.
type Encoder interface {
	TransitionTextures(barriers []hal.TextureBarrier)
	CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy)
	CopyBufferToTexture(src hal.Buffer, dst hal.Texture, regions []hal.BufferTextureCopy)
}

type texture struct {
	tex       hal.Texture
	texelSize uint32
}

// Recorder implements native.Recorder on a hal encoder.
//
// Native handles are resolved through buffers and textures registered with
// BindBuffer and BindTexture. A command naming an unbound handle, or one
// the encoder cannot express, is dropped and recorded as the first error.
type Recorder struct {
	enc      Encoder
	buffers  map[native.Buffer]hal.Buffer
	textures map[native.Image]texture
	log      *slog.Logger

	err     error
	dropped int
}

var _ native.Recorder = (*Recorder)(nil)

// NewRecorder returns a recorder writing to enc.
func NewRecorder(enc Encoder) *Recorder {
	return &Recorder{
		enc:      enc,
		buffers:  make(map[native.Buffer]hal.Buffer),
		textures: make(map[native.Image]texture),
		log:      vkres.Logger(),
	}
}

// BindBuffer associates a native buffer handle with a hal buffer.
func (r *Recorder) BindBuffer(h native.Buffer, buf hal.Buffer) {
	r.buffers[h] = buf
}

// BindTexture associates a native image handle with a hal texture whose
// texels are texelSize bytes.
func (r *Recorder) BindTexture(h native.Image, tex hal.Texture, texelSize uint32) {
	r.textures[h] = texture{tex: tex, texelSize: texelSize}
}

// Err returns the first dropped command, or nil.
func (r *Recorder) Err() error { return r.err }

// Dropped returns the number of commands that were not recorded.
func (r *Recorder) Dropped() int { return r.dropped }

func (r *Recorder) drop(err error) {
	r.dropped++
	if r.err == nil {
		r.err = err
	}
	r.log.Warn("hal: command dropped", "err", err)
}

func (r *Recorder) unsupported(cmd string) {
	r.drop(fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd))
}

// PipelineBarrier implements native.Recorder. Image layout transitions
// become texture usage transitions. Memory barriers are implied by the hal
// layer and are not recorded.
func (r *Recorder) PipelineBarrier(_, _ vk.PipelineStageFlags, _ []native.MemoryBarrier, images []native.ImageBarrier) {
	if len(images) == 0 {
		return
	}
	barriers := make([]hal.TextureBarrier, 0, len(images))
	for _, b := range images {
		t, ok := r.textures[b.Image]
		if !ok {
			r.drop(fmt.Errorf("hal: barrier: unbound image %d", b.Image))
			continue
		}
		barriers = append(barriers, hal.TextureBarrier{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: TextureUsage(b.OldLayout),
				NewUsage: TextureUsage(b.NewLayout),
			},
		})
	}
	if len(barriers) > 0 {
		r.enc.TransitionTextures(barriers)
	}
}

// CopyBuffer implements native.Recorder.
func (r *Recorder) CopyBuffer(src, dst native.Buffer, regions []native.BufferCopy) {
	s, ok1 := r.buffers[src]
	d, ok2 := r.buffers[dst]
	if !ok1 || !ok2 {
		r.drop(fmt.Errorf("hal: copy buffer: unbound buffer %d or %d", src, dst))
		return
	}
	out := make([]hal.BufferCopy, len(regions))
	for i, reg := range regions {
		out[i] = hal.BufferCopy{
			SrcOffset: uint64(reg.SrcOffset),
			DstOffset: uint64(reg.DstOffset),
			Size:      uint64(reg.Size),
		}
	}
	r.enc.CopyBufferToBuffer(s, d, out)
}

// CopyBufferToImage implements native.Recorder. Array layers are addressed
// through the depth coordinate.
func (r *Recorder) CopyBufferToImage(src native.Buffer, dst native.Image, _ vk.ImageLayout, regions []native.BufferImageCopy) {
	buf, ok := r.buffers[src]
	if !ok {
		r.drop(fmt.Errorf("hal: copy buffer to image: unbound buffer %d", src))
		return
	}
	t, ok := r.textures[dst]
	if !ok {
		r.drop(fmt.Errorf("hal: copy buffer to image: unbound image %d", dst))
		return
	}
	out := make([]hal.BufferTextureCopy, len(regions))
	for i, reg := range regions {
		out[i] = bufferTextureCopy(t, reg)
	}
	r.enc.CopyBufferToTexture(buf, t.tex, out)
}

func bufferTextureCopy(t texture, reg native.BufferImageCopy) hal.BufferTextureCopy {
	rowLength := reg.BufferRowLength
	if rowLength == 0 {
		rowLength = reg.ImageExtent.Width
	}
	rows := reg.BufferImageHeight
	if rows == 0 {
		rows = reg.ImageExtent.Height
	}
	depth := max(reg.ImageExtent.Depth, reg.ImageSubresource.LayerCount, 1)
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       uint64(reg.BufferOffset),
			BytesPerRow:  rowLength * t.texelSize,
			RowsPerImage: rows,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: reg.ImageSubresource.MipLevel,
			Origin: hal.Origin3D{
				X: uint32(reg.ImageOffset.X),
				Y: uint32(reg.ImageOffset.Y),
				Z: uint32(reg.ImageOffset.Z) + reg.ImageSubresource.BaseArrayLayer,
			},
		},
		Size: hal.Extent3D{
			Width:              reg.ImageExtent.Width,
			Height:             reg.ImageExtent.Height,
			DepthOrArrayLayers: depth,
		},
	}
}

// CopyImage implements native.Recorder. It is not supported.
func (r *Recorder) CopyImage(native.Image, vk.ImageLayout, native.Image, vk.ImageLayout, []native.ImageCopy) {
	r.unsupported("copy image")
}

// BlitImage implements native.Recorder. It is not supported.
func (r *Recorder) BlitImage(native.Image, vk.ImageLayout, native.Image, vk.ImageLayout, []native.ImageBlit, vk.Filter) {
	r.unsupported("blit image")
}

// ClearColorImage implements native.Recorder. It is not supported.
func (r *Recorder) ClearColorImage(native.Image, vk.ImageLayout, native.ClearColorValue, []native.SubresourceRange) {
	r.unsupported("clear color image")
}

// ClearDepthStencilImage implements native.Recorder. It is not supported.
func (r *Recorder) ClearDepthStencilImage(native.Image, vk.ImageLayout, native.ClearDepthStencilValue, []native.SubresourceRange) {
	r.unsupported("clear depth stencil image")
}

// DrawIndexed implements native.Recorder. Draws need a render pass, which
// the hal encoder opens separately.
func (r *Recorder) DrawIndexed(uint32, uint32, uint32, int32, uint32) {
	r.unsupported("draw indexed outside a render pass")
}
