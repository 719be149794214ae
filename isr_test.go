package xlxdma

import (
	"testing"

	"github.com/vcapio/xlxdma/internal/uapi"
)

func TestInterruptNotOursLeavesStateAlone(t *testing.T) {
	e, regs := newTestEngine(t, 0)
	if err := e.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	before := regs.Trace()
	if got := e.Interrupt(); got != NotOurs {
		t.Fatalf("Interrupt() = %v, want NotOurs", got)
	}
	after := regs.Trace()
	if len(after) != len(before) {
		t.Fatalf("Interrupt() with nothing pending performed %d writes, want none (only the status read)", len(after)-len(before))
	}
}

func TestInterruptHandledAcksAndSchedulesCompletion(t *testing.T) {
	e, regs := newTestEngine(t, 0)
	if err := e.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	regs.Set(uapi.RegEngineControlStatus, 0, uapi.FieldInterruptEnable|uapi.FieldInterruptActive)

	if got := e.Interrupt(); got != Handled {
		t.Fatalf("Interrupt() = %v, want Handled", got)
	}
	if got := regs.ReadRegister(uapi.RegEngineControlStatus, 0); got&uapi.FieldInterruptActive != 0 {
		t.Errorf("interrupt_active still set after Interrupt(), want cleared")
	}
	if e.interruptCount != 1 {
		t.Errorf("interruptCount = %d, want 1", e.interruptCount)
	}
}

func TestAbortWithNoTransferIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	if err := e.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	e.Abort() // must not panic
	if e.state != stateIdle {
		t.Errorf("state = %v, want idle", e.state)
	}
}

func TestSubmitThenDisableCancelsInFlightTransfer(t *testing.T) {
	e, regs := newTestEngine(t, 0)
	if err := e.Configure(); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	// No simulated completion installed: the transfer will sit armed
	// until Disable aborts it.
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

	if err := e.Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	select {
	case result := <-resultCh:
		if !IsCode(result, CodeCanceled) {
			t.Fatalf("callback result = %v, want CodeCanceled", result)
		}
	default:
		t.Fatal("callback did not fire synchronously with Disable() returning")
	}
	_ = regs
}
