package vulkan

import vk "github.com/vulkan-go/vulkan"

// findMemoryType returns the first memory type allowed by typeBits whose
// flags include want.
func findMemoryType(types []vk.MemoryPropertyFlags, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for i, flags := range types {
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if flags&want == want {
			return uint32(i), true
		}
	}
	return 0, false
}
