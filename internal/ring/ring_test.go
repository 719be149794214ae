package ring

import (
	"testing"

	"github.com/vcapio/xlxdma/internal/uapi"
)

type fakeBuffer struct {
	data []byte
	addr uint64
}

func (b *fakeBuffer) Bytes() []byte     { return b.data }
func (b *fakeBuffer) BusAddress() uint64 { return b.addr }
func (b *fakeBuffer) Sync()             {}
func (b *fakeBuffer) Release()          {}

type fakeAllocator struct {
	nextAddr uint64
}

func (a *fakeAllocator) AllocateCoherent(size int) (*fakeBuffer, error) {
	buf := &fakeBuffer{data: make([]byte, size), addr: a.nextAddr}
	a.nextAddr += uint64(size)
	return buf, nil
}

func newTestRing(t *testing.T, capacity int) *DescriptorRing {
	t.Helper()
	buf, err := (&fakeAllocator{nextAddr: 0x1000}).AllocateCoherent(capacity * uapi.DescriptorSize)
	if err != nil {
		t.Fatalf("AllocateCoherent() error = %v", err)
	}
	return &DescriptorRing{buf: buf, capacity: capacity}
}

func TestChainLinksDescriptors(t *testing.T) {
	r := newTestRing(t, 4)

	descs := []uapi.Descriptor{
		{ByteCount: 0x1000, SystemAddress: 0xA000, CardAddress: 0xB000},
		{ByteCount: 0x2000, SystemAddress: 0xA000 + 0x1000, CardAddress: 0xB000 + 0x1000},
		{ByteCount: 0x800, SystemAddress: 0xA000 + 0x3000, CardAddress: 0xB000 + 0x3000, Control: uapi.ControlIRQOnCompletion},
	}

	start, err := r.Chain(descs)
	if err != nil {
		t.Fatalf("Chain() error = %v", err)
	}
	if start != r.BusAddress(0) {
		t.Errorf("Chain() start = %#x, want %#x", start, r.BusAddress(0))
	}

	for i := range descs {
		got, err := r.DescriptorAt(i)
		if err != nil {
			t.Fatalf("DescriptorAt(%d) error = %v", i, err)
		}
		if got.ByteCount != descs[i].ByteCount {
			t.Errorf("descriptor %d ByteCount = %#x, want %#x", i, got.ByteCount, descs[i].ByteCount)
		}
		if i < len(descs)-1 {
			if got.NextAddress != r.BusAddress(i+1) {
				t.Errorf("descriptor %d NextAddress = %#x, want %#x", i, got.NextAddress, r.BusAddress(i+1))
			}
		} else if got.NextAddress != 0 {
			t.Errorf("last descriptor NextAddress = %#x, want 0", got.NextAddress)
		}
	}
}

func TestChainExceedsCapacity(t *testing.T) {
	r := newTestRing(t, 2)
	descs := make([]uapi.Descriptor, 3)
	if _, err := r.Chain(descs); err != ErrRingFull {
		t.Errorf("Chain() error = %v, want %v", err, ErrRingFull)
	}
}

func TestChainEmpty(t *testing.T) {
	r := newTestRing(t, 2)
	if _, err := r.Chain(nil); err == nil {
		t.Error("Chain(nil) succeeded, want error")
	}
}
