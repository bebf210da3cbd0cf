package vulkan

import (
	"errors"
	"strings"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestCheck(t *testing.T) {
	if err := check("create buffer", vk.Success); err != nil {
		t.Fatalf("check(Success) = %v", err)
	}

	err := check("create buffer", vk.ErrorOutOfDeviceMemory)
	var vkErr *Error
	if !errors.As(err, &vkErr) {
		t.Fatalf("check returned %T; want *Error", err)
	}
	if vkErr.Op != "create buffer" || vkErr.Result != vk.ErrorOutOfDeviceMemory {
		t.Errorf("error = %+v", vkErr)
	}
	if !strings.HasPrefix(err.Error(), "vulkan: create buffer: ") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"main", "main\x00"},
		{"main\x00", "main\x00"},
		{"", "\x00"},
	}
	for _, tt := range tests {
		if got := cString(tt.in); got != tt.want {
			t.Errorf("cString(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
