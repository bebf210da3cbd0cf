package vulkan

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	const (
		local    = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
		visible  = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
		coherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	)
	types := []vk.MemoryPropertyFlags{local, visible, visible | coherent, local | visible | coherent}

	tests := []struct {
		name     string
		typeBits uint32
		want     vk.MemoryPropertyFlags
		index    uint32
		ok       bool
	}{
		{"device local", 0xf, local, 0, true},
		{"first host visible", 0xf, visible, 1, true},
		{"coherent", 0xf, visible | coherent, 2, true},
		{"masked by type bits", 0x8, visible, 3, true},
		{"no flags wanted", 0x4, 0, 2, true},
		{"no allowed type", 0x0, local, 0, false},
		{"flags unavailable", 0x3, visible | coherent, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := findMemoryType(types, tt.typeBits, tt.want)
			if ok != tt.ok || (ok && index != tt.index) {
				t.Errorf("findMemoryType(%#x, %#x) = %d, %v; want %d, %v",
					tt.typeBits, tt.want, index, ok, tt.index, tt.ok)
			}
		})
	}
}
