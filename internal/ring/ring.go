// Package ring builds and manages chains of hardware scatter-gather
// descriptors backed by coherent memory.
package ring

import (
	"errors"

	"github.com/vcapio/xlxdma/internal/interfaces"
	"github.com/vcapio/xlxdma/internal/uapi"
)

// ErrRingFull is returned when a chain would need more descriptors
// than the ring has room for.
var ErrRingFull = errors.New("descriptor ring: chain exceeds capacity")

// DescriptorRing is a fixed-capacity, coherent-memory-backed array of
// hardware descriptors. Chains are built by writing consecutive
// descriptors and linking each to the next via NextAddress; the last
// descriptor in a chain has NextAddress == 0.
type DescriptorRing struct {
	buf      interfaces.CoherentBuffer
	capacity int
}

// New allocates a descriptor ring with room for capacity descriptors.
func New(alloc interfaces.CoherentAllocator, capacity int) (*DescriptorRing, error) {
	buf, err := alloc.AllocateCoherent(capacity * uapi.DescriptorSize)
	if err != nil {
		return nil, err
	}
	return &DescriptorRing{buf: buf, capacity: capacity}, nil
}

// Capacity returns the number of descriptor slots in the ring.
func (r *DescriptorRing) Capacity() int { return r.capacity }

// BusAddress returns the bus address of the descriptor slot at idx.
func (r *DescriptorRing) BusAddress(idx int) uint64 {
	return r.buf.BusAddress() + uint64(idx*uapi.DescriptorSize)
}

// Chain writes descs into consecutive slots starting at offset 0,
// linking each to the next and terminating the last one. It returns
// the bus address of the first descriptor, ready to arm an engine.
func (r *DescriptorRing) Chain(descs []uapi.Descriptor) (startAddress uint64, err error) {
	if len(descs) == 0 {
		return 0, errors.New("descriptor ring: empty chain")
	}
	if len(descs) > r.capacity {
		return 0, ErrRingFull
	}

	bytes := r.buf.Bytes()
	for i := range descs {
		d := descs[i]
		if i < len(descs)-1 {
			d.NextAddress = r.BusAddress(i + 1)
		} else {
			d.NextAddress = 0
		}
		if err := uapi.PutDescriptorAt(bytes, i, &d); err != nil {
			return 0, err
		}
	}

	r.buf.Sync()
	return r.BusAddress(0), nil
}

// DescriptorAt reads back the descriptor at slot idx, for test
// assertions and diagnostics.
func (r *DescriptorRing) DescriptorAt(idx int) (uapi.Descriptor, error) {
	return uapi.DescriptorAt(r.buf.Bytes(), idx)
}

// Release returns the ring's coherent buffer to its allocator.
func (r *DescriptorRing) Release() {
	r.buf.Release()
}
