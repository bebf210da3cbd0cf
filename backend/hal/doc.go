// Package hal records vkres commands on github.com/gogpu/wgpu/hal command
// encoders.
//
// The hal layer tracks texture state by usage instead of image layout, so
// Recorder maps each Vulkan layout to the gputypes.TextureUsage that needs
// it. Commands the hal encoder cannot express, such as blits and image
// clears, are counted and reported by Recorder.Err.
//
// Clock provides serial tracking for hal devices, where the only
// completion signal is a blocking Poll(true). gpucontext.Device declares no
// methods, so NewClock requires a device that also implements Poll.
package hal
