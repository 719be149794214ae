package uapi

import "unsafe"

// Descriptor is the hardware scatter-gather descriptor placed in
// coherent memory and walked by the engine. Layout must match the
// card's descriptor format exactly (32 bytes, little-endian).
type Descriptor struct {
	Control       uint32 // IRQ-on-* bits, see Control* constants below
	ByteCount     uint32 // transfer length for this descriptor
	SystemAddress uint64 // host-side (system) bus address
	CardAddress   uint64 // card-side bus address
	NextAddress   uint64 // bus address of the next descriptor, 0 if last
}

// Compile-time size check - must be exactly 32 bytes to match the
// hardware descriptor layout.
var _ [32]byte = [unsafe.Sizeof(Descriptor{})]byte{}

// Descriptor control bits.
const (
	ControlIRQOnCompletion = 1 << 0 // raise IRQ when this descriptor completes the chain
	ControlIRQOnShortErr   = 1 << 1 // raise IRQ on short transfer due to error
	ControlIRQOnShortSW    = 1 << 2 // raise IRQ on short transfer requested by software
	ControlIRQOnShortHW    = 1 << 3 // raise IRQ on short transfer reported by hardware
	ControlStopOnError     = 1 << 4 // halt the chain instead of advancing past an error
)

// DescriptorSize is the wire size of a Descriptor in bytes.
const DescriptorSize = 32
