package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrNoMemoryType is returned when no memory type satisfies an
	// allocation.
	ErrNoMemoryType = errors.New("vulkan: no suitable memory type")

	// ErrUnknownHandle is returned for handles the device did not create
	// or import.
	ErrUnknownHandle = errors.New("vulkan: unknown handle")
)

// Error is a failed Vulkan call.
type Error struct {
	Op     string
	Result vk.Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("vulkan: %s: %v", e.Op, vk.Error(e.Result))
}

// check returns an *Error for any result other than vk.Success.
func check(op string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return &Error{Op: op, Result: res}
}
