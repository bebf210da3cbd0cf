package hal

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// mockBuffer is a test double for hal.Buffer.
type mockBuffer struct{ name string }

func (b *mockBuffer) Destroy()              {}
func (b *mockBuffer) NativeHandle() uintptr { return 0 }

// mockTexture is a test double for hal.Texture.
type mockTexture struct{ name string }

func (t *mockTexture) Destroy()              {}
func (t *mockTexture) NativeHandle() uintptr { return 0 }

func (t *mockTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *mockTexture) AddPendingRef()                      {}
func (t *mockTexture) DecPendingRef()                      {}

type bufferCopy struct {
	src, dst hal.Buffer
	regions  []hal.BufferCopy
}

type textureCopy struct {
	src     hal.Buffer
	dst     hal.Texture
	regions []hal.BufferTextureCopy
}

// fakeEncoder records the calls made through Encoder.
type fakeEncoder struct {
	transitions   [][]hal.TextureBarrier
	bufferCopies  []bufferCopy
	textureCopies []textureCopy
}

func (e *fakeEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.transitions = append(e.transitions, barriers)
}

func (e *fakeEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	e.bufferCopies = append(e.bufferCopies, bufferCopy{src, dst, regions})
}

func (e *fakeEncoder) CopyBufferToTexture(src hal.Buffer, dst hal.Texture, regions []hal.BufferTextureCopy) {
	e.textureCopies = append(e.textureCopies, textureCopy{src, dst, regions})
}

func TestRecorderBarrier(t *testing.T) {
	enc := &fakeEncoder{}
	r := NewRecorder(enc)
	tex := &mockTexture{name: "color"}
	r.BindTexture(7, tex, 4)

	r.PipelineBarrier(0, 0, []native.MemoryBarrier{{}}, []native.ImageBarrier{
		{Image: 7, OldLayout: vk.ImageLayoutTransferDstOptimal, NewLayout: vk.ImageLayoutShaderReadOnlyOptimal},
		{Image: 8, OldLayout: vk.ImageLayoutUndefined, NewLayout: vk.ImageLayoutGeneral},
	})

	if len(enc.transitions) != 1 || len(enc.transitions[0]) != 1 {
		t.Fatalf("transitions = %v; want one barrier", enc.transitions)
	}
	b := enc.transitions[0][0]
	if b.Texture != tex {
		t.Errorf("barrier texture = %v", b.Texture)
	}
	if b.Usage.OldUsage != gputypes.TextureUsageCopyDst || b.Usage.NewUsage != gputypes.TextureUsageTextureBinding {
		t.Errorf("usage = %v -> %v", b.Usage.OldUsage, b.Usage.NewUsage)
	}
	if r.Dropped() != 1 || r.Err() == nil {
		t.Errorf("dropped = %d, err = %v; want the unbound image reported", r.Dropped(), r.Err())
	}
}

func TestRecorderBarrierWithoutImages(t *testing.T) {
	enc := &fakeEncoder{}
	r := NewRecorder(enc)
	r.PipelineBarrier(0, 0, []native.MemoryBarrier{{}}, nil)
	if len(enc.transitions) != 0 {
		t.Errorf("transitions = %d; want 0", len(enc.transitions))
	}
	if r.Err() != nil {
		t.Errorf("Err = %v", r.Err())
	}
}

func TestRecorderCopyBuffer(t *testing.T) {
	enc := &fakeEncoder{}
	r := NewRecorder(enc)
	src, dst := &mockBuffer{"src"}, &mockBuffer{"dst"}
	r.BindBuffer(1, src)
	r.BindBuffer(2, dst)

	r.CopyBuffer(1, 2, []native.BufferCopy{{SrcOffset: 16, DstOffset: 32, Size: 64}})
	if len(enc.bufferCopies) != 1 {
		t.Fatalf("copies = %d; want 1", len(enc.bufferCopies))
	}
	c := enc.bufferCopies[0]
	if c.src != src || c.dst != dst {
		t.Error("copy buffers not resolved")
	}
	want := hal.BufferCopy{SrcOffset: 16, DstOffset: 32, Size: 64}
	if c.regions[0] != want {
		t.Errorf("region = %+v; want %+v", c.regions[0], want)
	}

	r.CopyBuffer(1, 3, nil)
	if len(enc.bufferCopies) != 1 || r.Dropped() != 1 {
		t.Errorf("copy to unbound buffer: copies = %d, dropped = %d", len(enc.bufferCopies), r.Dropped())
	}
}

func TestRecorderCopyBufferToImage(t *testing.T) {
	tests := []struct {
		name         string
		region       native.BufferImageCopy
		bytesPerRow  uint32
		rowsPerImage uint32
		originZ      uint32
		depth        uint32
	}{
		{
			name: "tightly packed",
			region: native.BufferImageCopy{
				ImageSubresource: native.SubresourceLayers{LayerCount: 1},
				ImageExtent:      native.Extent3D{Width: 8, Height: 4, Depth: 1},
			},
			bytesPerRow:  32,
			rowsPerImage: 4,
			depth:        1,
		},
		{
			name: "row length",
			region: native.BufferImageCopy{
				BufferRowLength:   16,
				BufferImageHeight: 6,
				ImageSubresource:  native.SubresourceLayers{LayerCount: 1},
				ImageExtent:       native.Extent3D{Width: 8, Height: 4, Depth: 1},
			},
			bytesPerRow:  64,
			rowsPerImage: 6,
			depth:        1,
		},
		{
			name: "array layers",
			region: native.BufferImageCopy{
				ImageSubresource: native.SubresourceLayers{BaseArrayLayer: 2, LayerCount: 3},
				ImageExtent:      native.Extent3D{Width: 2, Height: 2, Depth: 1},
			},
			bytesPerRow:  8,
			rowsPerImage: 2,
			originZ:      2,
			depth:        3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &fakeEncoder{}
			r := NewRecorder(enc)
			buf, tex := &mockBuffer{"staging"}, &mockTexture{"image"}
			r.BindBuffer(1, buf)
			r.BindTexture(2, tex, 4)

			r.CopyBufferToImage(1, 2, vk.ImageLayoutTransferDstOptimal, []native.BufferImageCopy{tt.region})
			if len(enc.textureCopies) != 1 {
				t.Fatalf("copies = %d; want 1", len(enc.textureCopies))
			}
			got := enc.textureCopies[0].regions[0]
			if got.BufferLayout.BytesPerRow != tt.bytesPerRow || got.BufferLayout.RowsPerImage != tt.rowsPerImage {
				t.Errorf("layout = %+v", got.BufferLayout)
			}
			if got.TextureBase.Origin.Z != tt.originZ || got.Size.DepthOrArrayLayers != tt.depth {
				t.Errorf("origin z = %d, depth = %d; want %d, %d",
					got.TextureBase.Origin.Z, got.Size.DepthOrArrayLayers, tt.originZ, tt.depth)
			}
		})
	}
}

func TestRecorderUnsupported(t *testing.T) {
	r := NewRecorder(&fakeEncoder{})
	r.BlitImage(1, vk.ImageLayoutTransferSrcOptimal, 2, vk.ImageLayoutTransferDstOptimal, nil, vk.FilterLinear)
	r.ClearColorImage(1, vk.ImageLayoutTransferDstOptimal, native.ClearColorValue{}, nil)
	r.DrawIndexed(3, 1, 0, 0, 0)

	if r.Dropped() != 3 {
		t.Errorf("dropped = %d; want 3", r.Dropped())
	}
	if !errors.Is(r.Err(), ErrUnsupportedCommand) {
		t.Errorf("Err = %v; want ErrUnsupportedCommand", r.Err())
	}
}
