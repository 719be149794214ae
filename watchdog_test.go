package xlxdma

import (
	"testing"
	"time"

	"github.com/vcapio/xlxdma/internal/uapi"
)

// TestWatchdogFiresOnStalledTransfer reproduces the timeout boundary
// scenario: a transfer is armed and no completion interrupt is ever
// delivered, so the watchdog must fire, the callback must observe
// CodeTimeout, the engine must return to Idle, and stop_hardware's
// reset pulse must be visible in the register trace.
func TestWatchdogFiresOnStalledTransfer(t *testing.T) {
	e, regs := newTestEngine(t, 0)
	if err := e.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := e.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	resultCh := make(chan error, 1)
	req := TransferRequest{
		SGList:  NewSGSlice(SGEntry{BusAddress: 0xA000, Length: 4096}),
		SGPages: 1,
		Regions: [2]CardRegion{{Address: 0x10000, Size: 4096}},
		Callback: func(_ interface{}, result error) {
			resultCh <- result
		},
	}
	if err := e.Submit(req); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case result := <-resultCh:
		if !IsCode(result, CodeTimeout) {
			t.Fatalf("callback result = %v, want CodeTimeout", result)
		}
	case <-time.After(TransferTimeout + 500*time.Millisecond):
		t.Fatal("watchdog never fired")
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != stateIdle {
		t.Errorf("state = %v, want idle after watchdog fires", state)
	}

	sawReset := false
	for _, w := range regs.Trace() {
		if w.Reg == uapi.RegEngineControlStatus && w.Value&uapi.FieldStatusDmaResetRequest != 0 {
			sawReset = true
			break
		}
	}
	if !sawReset {
		t.Error("register trace does not show a dma_reset_request write; stop_hardware was not invoked")
	}
}
