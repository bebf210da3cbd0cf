// Package serial provides the GPU completion clock used by vkres.
//
// Every batch of submitted GPU work is identified by a [Serial]. The clock
// exposes two values: the current serial, naming the batch that is still
// being recorded, and the last completed serial, the highest batch the GPU
// is known to have finished. A resource last touched at serial S may be
// reused or destroyed once the last completed serial reaches S.
//
// Completion is observed by polling; there are no callbacks or futures.
package serial
