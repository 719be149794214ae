package xlxdma

import "testing"

func newBuilderTestEngine(maxDescriptors int) *Engine {
	return &Engine{index: 0, maxDescriptors: maxDescriptors}
}

func TestGenerateDescriptorsSingleRegion(t *testing.T) {
	e := newBuilderTestEngine(64)
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: 8192}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 4096}, SGEntry{BusAddress: 0xB000, Length: 4096}),
		SGPages: 2,
	}

	descs, byteCount, err := e.generateDescriptors(req, 8192)
	if err != nil {
		t.Fatalf("generateDescriptors() error = %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("len(descs) = %d, want 2", len(descs))
	}
	if byteCount != 8192 {
		t.Errorf("byteCount = %d, want 8192", byteCount)
	}
	if descs[0].Control != 0 {
		t.Errorf("descs[0].Control = %#x, want 0", descs[0].Control)
	}
	if descs[1].Control != terminalIRQBits {
		t.Errorf("descs[1].Control = %#x, want %#x", descs[1].Control, terminalIRQBits)
	}
	if descs[0].CardAddress != 0x10000 || descs[1].CardAddress != 0x11000 {
		t.Errorf("card addresses = %#x, %#x", descs[0].CardAddress, descs[1].CardAddress)
	}
}

func TestGenerateDescriptorsSplitTransfer(t *testing.T) {
	e := newBuilderTestEngine(64)
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: 6144}, {Address: 0x20000, Size: 2048}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 8192}),
		SGPages: 1,
	}

	descs, byteCount, err := e.generateDescriptors(req, 8192)
	if err != nil {
		t.Fatalf("generateDescriptors() error = %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("len(descs) = %d, want 2", len(descs))
	}
	if byteCount != 8192 {
		t.Errorf("byteCount = %d, want 8192", byteCount)
	}

	first, second := descs[0], descs[1]
	if first.ByteCount != 6144 || first.CardAddress != 0x10000 || first.SystemAddress != 0xA000 {
		t.Errorf("first descriptor = %+v", first)
	}
	if second.ByteCount != 2048 || second.CardAddress != 0x20000 || second.SystemAddress != 0xA000+6144 {
		t.Errorf("second descriptor = %+v", second)
	}
	if first.Control != 0 {
		t.Errorf("first.Control = %#x, want 0", first.Control)
	}
	if second.Control != terminalIRQBits {
		t.Errorf("second.Control = %#x, want %#x", second.Control, terminalIRQBits)
	}
}

func TestGenerateDescriptorsSplitBoundaryAlignedWithSG(t *testing.T) {
	e := newBuilderTestEngine(64)
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: 4096}, {Address: 0x20000, Size: 4096}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 4096}, SGEntry{BusAddress: 0xB000, Length: 4096}),
		SGPages: 2,
	}

	descs, byteCount, err := e.generateDescriptors(req, 8192)
	if err != nil {
		t.Fatalf("generateDescriptors() error = %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("len(descs) = %d, want 2 (boundary aligned with SG entry, no mid-entry split)", len(descs))
	}
	if byteCount != 8192 {
		t.Errorf("byteCount = %d, want 8192", byteCount)
	}
	if descs[0].CardAddress != 0x10000 {
		t.Errorf("descs[0].CardAddress = %#x, want 0x10000", descs[0].CardAddress)
	}
	if descs[1].CardAddress != 0x20000 {
		t.Errorf("descs[1].CardAddress = %#x, want 0x20000 (second region, not region0+4096)", descs[1].CardAddress)
	}
}

func TestGenerateDescriptorsIncompleteSGFails(t *testing.T) {
	e := newBuilderTestEngine(64)
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: 8192}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 4096}),
		SGPages: 1,
	}

	if _, _, err := e.generateDescriptors(req, 8192); !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("generateDescriptors() error = %v, want CodeInvalidArgument", err)
	}
}

func TestGenerateDescriptorsBudgetExhausted(t *testing.T) {
	e := newBuilderTestEngine(1)
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: 6144}, {Address: 0x20000, Size: 2048}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 8192}),
		SGPages: 1,
	}

	if _, _, err := e.generateDescriptors(req, 8192); !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("generateDescriptors() error = %v, want CodeInvalidArgument", err)
	}
}

func TestGenerateDescriptorsClipsToMaxSegmentSize(t *testing.T) {
	e := newBuilderTestEngine(64)
	size := uint32(MaxSegmentSize) + 4096
	req := TransferRequest{
		Regions: [2]CardRegion{{Address: 0x10000, Size: size}},
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: size}),
		SGPages: 1,
	}

	descs, byteCount, err := e.generateDescriptors(req, uint64(size))
	if err != nil {
		t.Fatalf("generateDescriptors() error = %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("len(descs) = %d, want 2 (one SG entry exceeding MaxSegmentSize splits in two)", len(descs))
	}
	if descs[0].ByteCount != uint32(MaxSegmentSize) {
		t.Errorf("descs[0].ByteCount = %d, want %d", descs[0].ByteCount, MaxSegmentSize)
	}
	if byteCount != size {
		t.Errorf("byteCount = %d, want %d", byteCount, size)
	}
}
