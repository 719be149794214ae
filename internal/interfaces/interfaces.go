// Package interfaces provides internal interface definitions shared
// between the driver core and its hardware/test backends. These are
// separate from the public package to avoid circular imports.
package interfaces

import "github.com/vcapio/xlxdma/internal/uapi"

// RegisterSpace gives the engine access to the card's memory-mapped
// register block, addressed by symbolic register id and channel
// index. The implementation owns the BAR mapping and offset
// computation; the driver core never computes a raw address.
type RegisterSpace interface {
	ReadRegister(reg uapi.RegisterID, channel int) uint32
	WriteRegister(reg uapi.RegisterID, channel int, value uint32)
}

// CoherentBuffer is a block of memory allocated for DMA, with both a
// CPU-visible view and a bus address the hardware can use to address
// it directly.
type CoherentBuffer interface {
	Bytes() []byte
	BusAddress() uint64
	Sync()
	Release()
}

// CoherentAllocator allocates coherent buffers sized for descriptor
// rings and per-transfer bookkeeping.
type CoherentAllocator interface {
	AllocateCoherent(size int) (CoherentBuffer, error)
}

// Logger is the optional logging sink used throughout the driver.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives metrics events from the engine's hot paths.
// Implementations must be safe for concurrent use; methods are called
// from the submission, dispatcher, and interrupt paths.
type Observer interface {
	ObserveSubmit(bytes uint64, success bool)
	ObserveComplete(bytes uint64, latencyNs uint64, success bool)
	ObserveTimeout()
	ObserveAbort()
	ObserveQueueDepth(depth uint32)
}
