package vkres

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/native/nativetest"
)

func stageLevel(t *testing.T, r *nativetest.Renderer, img *ImageHelper, level, width, height uint32) {
	t.Helper()
	pixels := bytes.Repeat([]byte{byte(level + 1)}, int(width*height*4))
	err := img.StageSubresourceUpdate(r, ImageIndex{Level: level},
		native.Extent3D{Width: width, Height: height, Depth: 1}, native.Offset3D{},
		img.Format(), PixelData{Type: PixelTypeRGBA8, Pixels: pixels})
	if err != nil {
		t.Fatalf("StageSubresourceUpdate(level %d): %v", level, err)
	}
}

func TestStageSubresourceUpdateConvertsPixels(t *testing.T) {
	r := nativetest.NewRenderer()
	rec := nativetest.NewRecorder(r.Dev)
	img := newTestImage(t, r, 4, 4, 1)
	defer img.Destroy(r.Dev)

	// Two RGB rows of two pixels, each row padded to four bytes.
	pixels := []byte{
		1, 2, 3, 4, 5, 6, 0, 0,
		7, 8, 9, 10, 11, 12, 0, 0,
	}
	err := img.StageSubresourceUpdate(r, ImageIndex{},
		native.Extent3D{Width: 2, Height: 2, Depth: 1}, native.Offset3D{X: 1, Y: 1},
		img.Format(), PixelData{Type: PixelTypeRGB8, Unpack: PixelUnpackState{Alignment: 4}, Pixels: pixels})
	if err != nil {
		t.Fatalf("StageSubresourceUpdate: %v", err)
	}
	if !img.HasStagedUpdates() {
		t.Fatal("no staged update")
	}

	if err := img.FlushStagedUpdates(r, 0, 1, rec); err != nil {
		t.Fatalf("FlushStagedUpdates: %v", err)
	}
	copies := rec.Filter(nativetest.OpCopyBufferToImage)
	if len(copies) != 1 {
		t.Fatalf("buffer to image copies = %d, want 1", len(copies))
	}
	cmd := copies[0]
	region := cmd.BufferImageCopies[0]
	if region.BufferRowLength != 2 || region.BufferImageHeight != 2 ||
		region.ImageOffset != (native.Offset3D{X: 1, Y: 1}) || region.ImageExtent.Depth != 1 {
		t.Errorf("region = %+v", region)
	}
	if region.BufferOffset%4 != 0 {
		t.Errorf("buffer offset %d not a multiple of 4", region.BufferOffset)
	}

	want := []byte{
		1, 2, 3, 0xff, 4, 5, 6, 0xff,
		7, 8, 9, 0xff, 10, 11, 12, 0xff,
	}
	staged := r.Dev.BufferBytes(cmd.SrcBuffer)[region.BufferOffset:]
	if !bytes.Equal(staged[:len(want)], want) {
		t.Errorf("staged bytes = %v, want %v", staged[:len(want)], want)
	}
	if img.HasStagedUpdates() {
		t.Error("updates left after flushing every level")
	}
}

func TestStageSubresourceUpdateValidation(t *testing.T) {
	r := nativetest.NewRenderer()
	img := newTestImage(t, r, 4, 4, 2)
	defer img.Destroy(r.Dev)

	full := bytes.Repeat([]byte{1}, 4*4*4)
	tests := []struct {
		name  string
		index ImageIndex
		typ   PixelType
		data  []byte
		want  error
	}{
		{"level past the last", ImageIndex{Level: 2}, PixelTypeRGBA8, full, ErrInvalidArgument},
		{"layer past the last", ImageIndex{Layer: 1}, PixelTypeRGBA8, full, ErrInvalidArgument},
		{"short pixel data", ImageIndex{}, PixelTypeRGBA8, full[:20], ErrInvalidArgument},
		{"unsupported source type", ImageIndex{}, PixelTypeRed8, full, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := img.StageSubresourceUpdate(r, tt.index, native.Extent3D{Width: 4, Height: 4, Depth: 1},
				native.Offset3D{}, img.Format(), PixelData{Type: tt.typ, Pixels: tt.data})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if img.HasStagedUpdates() {
		t.Error("rejected update was queued")
	}
}

func TestFlushStagedUpdatesKeepsOtherLevels(t *testing.T) {
	r := nativetest.NewRenderer()
	rec := nativetest.NewRecorder(r.Dev)
	img := NewImageHelper(WithStagingBufferSize(64))
	if err := img.Init(r, ImageCreateInfo{
		Type:      TextureType2D,
		Extents:   native.Extent3D{Width: 4, Height: 4, Depth: 1},
		Format:    MustLookupFormat(vk.FormatR8g8b8a8Unorm),
		Usage:     testImageUsage,
		MipLevels: 3,
	}); err != nil {
		t.Fatal(err)
	}
	defer img.Destroy(r.Dev)

	// Each 64 byte level fills a whole staging buffer.
	stageLevel(t, r, img, 0, 4, 4)
	stageLevel(t, r, img, 2, 1, 1)
	stageLevel(t, r, img, 0, 4, 4)

	if err := img.FlushStagedUpdates(r, 0, 1, rec); err != nil {
		t.Fatal(err)
	}
	if n := rec.Count(nativetest.OpCopyBufferToImage); n != 2 {
		t.Errorf("copies = %d, want 2", n)
	}
	if n := rec.Count(nativetest.OpPipelineBarrier); n != 1 {
		t.Errorf("barriers = %d, want a single transition", n)
	}
	if img.StagedUpdateCount() != 1 {
		t.Fatalf("pending updates = %d, want 1", img.StagedUpdateCount())
	}
	if retained := img.staging.RetainedBuffers(); retained == 0 {
		t.Fatal("staging buffers released while an update still reads them")
	}

	rec.Reset()
	if err := img.FlushStagedUpdates(r, 2, 1, rec); err != nil {
		t.Fatal(err)
	}
	copies := rec.Filter(nativetest.OpCopyBufferToImage)
	if len(copies) != 1 || copies[0].BufferImageCopies[0].ImageSubresource.MipLevel != 2 {
		t.Fatalf("second flush copies = %+v", copies)
	}
	if img.HasStagedUpdates() {
		t.Error("updates left after second flush")
	}
	if img.staging.RetainedBuffers() != 0 {
		t.Error("retained staging buffers not released after the queue drained")
	}
	for _, rel := range r.ReleasedOf(native.ObjectBuffer) {
		if rel.Serial != r.CurrentQueueSerial() {
			t.Errorf("staging buffer released at %d, want %d", rel.Serial, r.CurrentQueueSerial())
		}
	}
}

func TestStageSubresourceUpdateAndGetData(t *testing.T) {
	r := nativetest.NewRenderer()
	rec := nativetest.NewRecorder(r.Dev)
	img := newTestImage(t, r, 2, 2, 1)
	defer img.Destroy(r.Dev)

	data, err := img.StageSubresourceUpdateAndGetData(r, 16, ImageIndex{},
		native.Extent3D{Width: 2, Height: 2, Depth: 1}, native.Offset3D{})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 16 {
		t.Fatalf("len(data) = %d, want 16", len(data))
	}
	copy(data, bytes.Repeat([]byte{0xab}, 16))

	if err := img.FlushStagedUpdates(r, 0, 1, rec); err != nil {
		t.Fatal(err)
	}
	cmd := rec.Filter(nativetest.OpCopyBufferToImage)[0]
	off := cmd.BufferImageCopies[0].BufferOffset
	if got := r.Dev.BufferBytes(cmd.SrcBuffer)[off : off+16]; !bytes.Equal(got, data) {
		t.Errorf("staged bytes = %v", got)
	}
	mem := r.Dev.Memory(img.staging.CurrentBuffer().Memory())
	if len(mem.Flushes) == 0 {
		t.Error("staging memory not flushed before the copy")
	}
}

func TestRemoveStagedUpdates(t *testing.T) {
	r := nativetest.NewRenderer()
	img := newTestImage(t, r, 4, 4, 2)
	defer img.Destroy(r.Dev)

	stageLevel(t, r, img, 0, 4, 4)
	stageLevel(t, r, img, 1, 2, 2)
	stageLevel(t, r, img, 0, 4, 4)

	img.RemoveStagedUpdates(r, ImageIndex{Level: 0})
	if img.StagedUpdateCount() != 1 {
		t.Fatalf("pending updates = %d, want 1", img.StagedUpdateCount())
	}
	if lvl := img.updates[0].dst().MipLevel; lvl != 1 {
		t.Errorf("remaining update level = %d, want 1", lvl)
	}
}

func TestStageSubresourceUpdateFromImage(t *testing.T) {
	r := nativetest.NewRenderer()
	rec := nativetest.NewRecorder(r.Dev)
	dst := newTestImage(t, r, 8, 8, 1)
	defer dst.Destroy(r.Dev)

	src := NewImageHelper()
	if err := src.Init2DStaging(r, native.Extent3D{Width: 4, Height: 4}, dst.Format(), testImageUsage, 1); err != nil {
		t.Fatal(err)
	}
	srcImage := src.Image()

	if err := dst.StageSubresourceUpdateFromImage(src, ImageIndex{}, native.Offset3D{X: 2, Y: 2},
		native.Extent3D{Width: 4, Height: 4, Depth: 1}); err != nil {
		t.Fatal(err)
	}
	if err := dst.FlushStagedUpdates(r, 0, 1, rec); err != nil {
		t.Fatal(err)
	}

	copies := rec.Filter(nativetest.OpCopyImage)
	if len(copies) != 1 {
		t.Fatalf("image copies = %d, want 1", len(copies))
	}
	cmd := copies[0]
	if cmd.SrcImage != srcImage || cmd.SrcLayout != vk.ImageLayoutTransferSrcOptimal ||
		cmd.DstLayout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("copy = %+v", cmd)
	}
	if cmd.ImageCopies[0].DstOffset != (native.Offset3D{X: 2, Y: 2}) {
		t.Errorf("dst offset = %+v", cmd.ImageCopies[0].DstOffset)
	}

	released := r.ReleasedOf(native.ObjectImage)
	if len(released) != 1 || released[0].Object.Handle != uint64(srcImage) ||
		released[0].Serial != r.CurrentQueueSerial() {
		t.Fatalf("released images = %+v", released)
	}
	r.Advance()
	if r.Dev.IsLive(native.ImageObject(srcImage)) {
		t.Error("source image outlived its copy")
	}
}

type fakeFramebuffer struct {
	extents native.Extent3D
	flip    bool
	fill    byte

	area     Rect
	flipped  bool
	rowPitch uint64
}

func (f *fakeFramebuffer) ReadExtents() native.Extent3D { return f.extents }
func (f *fakeFramebuffer) ViewportFlip() bool           { return f.flip }

func (f *fakeFramebuffer) ReadPixels(area Rect, _ PixelType, flip bool, dst []byte, rowPitch uint64) error {
	f.area, f.flipped, f.rowPitch = area, flip, rowPitch
	for i := range dst {
		dst[i] = f.fill
	}
	return nil
}

func TestStageSubresourceUpdateFromFramebuffer(t *testing.T) {
	tests := []struct {
		name     string
		src      Rect
		flip     bool
		wantArea Rect
		want     bool
	}{
		{"clipped left", Rect{X: -2, Y: 1, Width: 4, Height: 4}, false, Rect{X: 0, Y: 1, Width: 2, Height: 3}, true},
		{"clipped and flipped", Rect{X: -2, Y: 1, Width: 4, Height: 4}, true, Rect{X: 0, Y: 0, Width: 2, Height: 3}, true},
		{"outside", Rect{X: 5, Y: 0, Width: 2, Height: 2}, false, Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := nativetest.NewRenderer()
			img := newTestImage(t, r, 4, 4, 1)
			defer img.Destroy(r.Dev)
			fb := &fakeFramebuffer{extents: native.Extent3D{Width: 4, Height: 4, Depth: 1}, flip: tt.flip, fill: 7}

			err := img.StageSubresourceUpdateFromFramebuffer(r, ImageIndex{}, tt.src, native.Offset3D{},
				native.Extent3D{Width: 2, Height: 3, Depth: 1}, img.Format(), PixelTypeRGBA8, fb)
			if err != nil {
				t.Fatal(err)
			}
			if img.HasStagedUpdates() != tt.want {
				t.Fatalf("HasStagedUpdates = %v, want %v", img.HasStagedUpdates(), tt.want)
			}
			if !tt.want {
				return
			}
			if fb.area != tt.wantArea || fb.flipped != tt.flip || fb.rowPitch != 8 {
				t.Errorf("read area %+v flip %v pitch %d", fb.area, fb.flipped, fb.rowPitch)
			}
			region := img.updates[0].bufferCopy
			if region.BufferRowLength != 0 || region.BufferImageHeight != 3 {
				t.Errorf("region = %+v", region)
			}
		})
	}
}

func TestStageSubresourceUpdateFromFramebufferConverts(t *testing.T) {
	r := nativetest.NewRenderer()
	rec := nativetest.NewRecorder(r.Dev)
	img := newTestImage(t, r, 2, 1, 1)
	defer img.Destroy(r.Dev)
	fb := &fakeFramebuffer{extents: native.Extent3D{Width: 2, Height: 1, Depth: 1}, fill: 9}

	err := img.StageSubresourceUpdateFromFramebuffer(r, ImageIndex{}, Rect{Width: 2, Height: 1},
		native.Offset3D{}, native.Extent3D{Width: 2, Height: 1, Depth: 1}, img.Format(), PixelTypeRGB8, fb)
	if err != nil {
		t.Fatal(err)
	}
	if fb.rowPitch != 6 {
		t.Errorf("scratch row pitch = %d, want 6", fb.rowPitch)
	}
	if err := img.FlushStagedUpdates(r, 0, 1, rec); err != nil {
		t.Fatal(err)
	}
	cmd := rec.Filter(nativetest.OpCopyBufferToImage)[0]
	off := cmd.BufferImageCopies[0].BufferOffset
	want := []byte{9, 9, 9, 0xff, 9, 9, 9, 0xff}
	if got := r.Dev.BufferBytes(cmd.SrcBuffer)[off : off+8]; !bytes.Equal(got, want) {
		t.Errorf("staged bytes = %v, want %v", got, want)
	}
}

func TestGenerateMipmapsOnHost(t *testing.T) {
	r := nativetest.NewRenderer()
	img := newTestImage(t, r, 4, 4, 3)
	defer img.Destroy(r.Dev)

	level0 := image.NewRGBA(image.Rect(0, 0, 4, 4))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			level0.SetRGBA(x, y, red)
		}
	}

	if err := img.GenerateMipmapsOnHost(r, level0, ImageIndex{}, 2); err != nil {
		t.Fatalf("GenerateMipmapsOnHost: %v", err)
	}
	if img.StagedUpdateCount() != 2 {
		t.Fatalf("staged updates = %d, want 2", img.StagedUpdateCount())
	}
	last := img.updates[1].bufferCopy
	if last.ImageSubresource.MipLevel != 2 || last.ImageExtent.Width != 1 || last.ImageExtent.Height != 1 {
		t.Errorf("level 2 region = %+v", last)
	}
	mem := r.Dev.Memory(img.staging.CurrentBuffer().Memory())
	px := mem.Data[last.BufferOffset : last.BufferOffset+4]
	if px[0] < 0xfe || px[1] != 0 || px[2] != 0 || px[3] < 0xfe {
		t.Errorf("level 2 pixel = %v, want opaque red", px)
	}
}
