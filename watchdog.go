package xlxdma

import (
	"time"

	"github.com/vcapio/xlxdma/internal/uapi"
)

// watchdogFires runs when a transfer's TransferTimeout elapses without
// an ISR observation. It is a no-op if the engine has already moved
// past Transfer (the completion path won).
func (e *Engine) watchdogFires() {
	e.mu.Lock()

	if e.state != stateTransfer {
		e.mu.Unlock()
		return
	}
	e.state = stateTimeout

	if e.logger != nil {
		e.logger.Printf("%s: watchdog fired, control_status=0x%x", e.name, e.dpcControlStatus)
	}

	e.stopHardwareLocked()

	if e.current >= 0 {
		t := &e.tasks[e.current]
		t.done = true
		t.result = NewChannelError("watchdog", e.index, CodeTimeout, "transfer did not complete in time")
		e.stats.recordError()
		if e.observer != nil {
			e.observer.ObserveTimeout()
		}
	}
	e.cleanupLocked()

	e.state = stateIdle
	e.stateCond.Broadcast()
	e.mu.Unlock()

	e.dispatcher.Trigger()
}

// stopHardwareLocked cancels the watchdog and resets the engine's
// control/status register, acknowledging any latched interrupt before
// and after the reset pulse. Caller must hold e.mu.
func (e *Engine) stopHardwareLocked() {
	if e.watchdog != nil {
		e.watchdog.Stop()
		e.watchdog = nil
	}

	e.regs.WriteRegister(uapi.RegEngineControlStatus, e.index, uapi.FieldInterruptActive)
	e.regs.WriteRegister(uapi.RegEngineControlStatus, e.index, uapi.FieldStatusDmaResetRequest)
	e.regs.WriteRegister(uapi.RegEngineControlStatus, e.index, uapi.FieldInterruptActive)
}

// stopHardware is the lock-acquiring entry point used by Close, where
// the caller does not already hold e.mu.
func (e *Engine) stopHardware() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopHardwareLocked()
}

// cleanupLocked clears per-transfer bookkeeping once a task has been
// marked done, leaving the slot's callback to fire from dispatcher
// context. Caller must hold e.mu.
func (e *Engine) cleanupLocked() {
	e.current = -1
	e.dpcControlStatus = 0
	e.armedAt = time.Time{}
}
