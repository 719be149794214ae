package xlxdma

import (
	"sync"

	"github.com/vcapio/xlxdma/internal/interfaces"
	"github.com/vcapio/xlxdma/internal/uapi"
)

// MockRegisterSpace is an in-memory RegisterSpace for unit tests. Each
// (register, channel) pair gets its own slot; WriteRegister calls are
// tracked (reads are not) so tests can assert on the write sequence a
// component produced.
type MockRegisterSpace struct {
	mu    sync.Mutex
	regs  map[mockRegKey]uint32
	trace []MockRegisterWrite

	// WriteHook, if set, runs synchronously inside WriteRegister after
	// the value is stored, letting tests inject side effects (such as
	// flipping chain_running off after a reset pulse).
	WriteHook func(reg uapi.RegisterID, channel int, value uint32)
}

type mockRegKey struct {
	reg     uapi.RegisterID
	channel int
}

// MockRegisterWrite records one WriteRegister call for later inspection.
type MockRegisterWrite struct {
	Reg     uapi.RegisterID
	Channel int
	Value   uint32
}

func NewMockRegisterSpace() *MockRegisterSpace {
	return &MockRegisterSpace{regs: make(map[mockRegKey]uint32)}
}

func (m *MockRegisterSpace) ReadRegister(reg uapi.RegisterID, channel int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[mockRegKey{reg, channel}]
}

// controlStatusW1CMask covers the two RegEngineControlStatus bits
// documented as write-one-to-clear: a write with one of these bits set
// clears it, a write with it unset leaves the stored bit alone. Every
// other bit in the register is plain read/write and takes the written
// value verbatim, matching how software always writes the full control
// state it wants (see builder.go's arm write and global.go's disable
// write).
const controlStatusW1CMask = uapi.FieldInterruptActive | uapi.FieldStatusDmaResetRequest

func (m *MockRegisterSpace) WriteRegister(reg uapi.RegisterID, channel int, value uint32) {
	m.mu.Lock()
	key := mockRegKey{reg, channel}
	stored := value
	if reg == uapi.RegEngineControlStatus {
		old := m.regs[key]
		stored = (value &^ controlStatusW1CMask) | (old & controlStatusW1CMask &^ value)
	}
	m.regs[key] = stored
	m.trace = append(m.trace, MockRegisterWrite{Reg: reg, Channel: channel, Value: value})
	hook := m.WriteHook
	m.mu.Unlock()

	if hook != nil {
		hook(reg, channel, value)
	}
}

// Set seeds a register's value directly, bypassing the write trace.
// Useful for arranging channel-identifier tables before Configure.
func (m *MockRegisterSpace) Set(reg uapi.RegisterID, channel int, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[mockRegKey{reg, channel}] = value
}

// Trace returns a copy of every WriteRegister call observed so far.
func (m *MockRegisterSpace) Trace() []MockRegisterWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockRegisterWrite, len(m.trace))
	copy(out, m.trace)
	return out
}

// mockCoherentBuffer is a plain heap-backed CoherentBuffer; Sync is a
// no-op since there is no real cache-coherence boundary to cross.
type mockCoherentBuffer struct {
	data       []byte
	busAddress uint64
	released   bool
}

func (b *mockCoherentBuffer) Bytes() []byte     { return b.data }
func (b *mockCoherentBuffer) BusAddress() uint64 { return b.busAddress }
func (b *mockCoherentBuffer) Sync()              {}
func (b *mockCoherentBuffer) Release()           { b.released = true }

// MockCoherentAllocator hands out mockCoherentBuffers at ascending,
// page-aligned bus addresses so multiple allocations never overlap.
type MockCoherentAllocator struct {
	mu   sync.Mutex
	next uint64
}

func NewMockCoherentAllocator() *MockCoherentAllocator {
	return &MockCoherentAllocator{next: 0x1000}
}

func (a *MockCoherentAllocator) AllocateCoherent(size int) (interfaces.CoherentBuffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := &mockCoherentBuffer{
		data:       make([]byte, size),
		busAddress: a.next,
	}
	a.next += uint64(size)
	if a.next%4096 != 0 {
		a.next += 4096 - a.next%4096
	}
	return buf, nil
}

// SGSlice adapts a plain slice of SGEntry into an SGIterator, for
// tests that build a transfer request by hand.
type SGSlice struct {
	entries []SGEntry
	pos     int
}

func NewSGSlice(entries ...SGEntry) *SGSlice {
	return &SGSlice{entries: entries}
}

func (s *SGSlice) Next() (SGEntry, bool) {
	if s.pos >= len(s.entries) {
		return SGEntry{}, false
	}
	e := s.entries[s.pos]
	s.pos++
	return e, true
}

func (s *SGSlice) Len() int { return len(s.entries) - s.pos }

// Compile-time interface checks.
var (
	_ interfaces.RegisterSpace     = (*MockRegisterSpace)(nil)
	_ interfaces.CoherentAllocator = (*MockCoherentAllocator)(nil)
	_ interfaces.CoherentBuffer    = (*mockCoherentBuffer)(nil)
	_ SGIterator                   = (*SGSlice)(nil)
)
