// Package nativetest provides in-memory implementations of the native
// collaborators for tests and command tracing.
//
// [Device] backs every buffer and image with host memory and counts live
// objects per type. [Recorder] keeps every recorded command and, when given a
// Device, executes buffer copies so that tests can inspect results.
// [Renderer] combines a Device with a manual serial clock and a garbage list.
package nativetest
