package xlxdma

import (
	"time"

	"github.com/vcapio/xlxdma/internal/uapi"
)

// Interrupt is the hardware-interrupt top half. It must not block or
// allocate: it only recognizes the channel's own interrupt, acks it,
// stashes the latched status for the completion worker, and schedules
// that worker.
func (e *Engine) Interrupt() interruptResult {
	e.mu.Lock()

	status := e.regs.ReadRegister(uapi.RegEngineControlStatus, e.index)
	if status&uapi.FieldInterruptEnable == 0 || status&uapi.FieldInterruptActive == 0 {
		e.mu.Unlock()
		return NotOurs
	}

	e.regs.WriteRegister(uapi.RegEngineControlStatus, e.index, uapi.FieldInterruptActive)
	e.dpcControlStatus = status
	e.interruptCount++

	e.mu.Unlock()

	e.completion.Trigger()
	return Handled
}

// runCompletionDPC is the cooperative bottom half scheduled by
// Interrupt. It finalizes the in-flight transfer, folds its
// measurements into the rolling statistics, marks the task done, and
// returns the engine to Idle so the dispatcher can invoke the
// callback and start the next transfer.
func (e *Engine) runCompletionDPC() {
	e.mu.Lock()

	if e.state != stateTransfer {
		if e.logger != nil {
			e.logger.Printf("%s: completion worker ran outside Transfer state (%s)", e.name, e.state)
		}
		e.stats.recordError()
		e.mu.Unlock()
		return
	}
	e.state = stateDone

	if e.watchdog != nil {
		e.watchdog.Stop()
		e.watchdog = nil
	}

	hardwareTimeNs := e.regs.ReadRegister(uapi.RegHardwareTime, e.index)
	completeBytes := e.regs.ReadRegister(uapi.RegChainCompleteByteCount, e.index)

	var result error
	if e.dpcControlStatus&uapi.FieldChainComplete != 0 {
		byteCount := completeBytes
		descCount := 0
		var softElapsed time.Duration
		if e.current >= 0 {
			t := &e.tasks[e.current]
			byteCount = t.byteCount
			descCount = t.descCount
			if !t.submittedAt.IsZero() {
				softElapsed = time.Since(t.submittedAt)
			}
		}
		dmaElapsed := time.Duration(hardwareTimeNs) * time.Nanosecond

		e.stats.record(byteCount, descCount, softElapsed, dmaElapsed)
		e.maybeEmitStats()
		if e.observer != nil {
			e.observer.ObserveComplete(uint64(byteCount), uint64(hardwareTimeNs), true)
		}
	} else {
		e.stopHardwareLocked()
		e.errorCount++
		e.stats.recordError()
		result = NewChannelError("completion", e.index, CodeIOError, "hardware signaled completion without chain_complete set")
		if e.observer != nil {
			e.observer.ObserveComplete(0, uint64(hardwareTimeNs), false)
		}
	}

	if e.current >= 0 {
		t := &e.tasks[e.current]
		t.done = true
		t.result = result
	}
	e.cleanupLocked()

	e.state = stateIdle
	e.stateCond.Broadcast()
	e.mu.Unlock()

	e.dispatcher.Trigger()
}

// Abort forces an in-flight transfer back to Idle, marking its task
// done with a canceled result. It is a no-op when no transfer is in
// progress.
func (e *Engine) Abort() {
	e.mu.Lock()

	if e.state != stateTransfer {
		e.mu.Unlock()
		return
	}
	e.state = stateAbort

	e.stopHardwareLocked()

	if e.current >= 0 {
		t := &e.tasks[e.current]
		t.done = true
		t.result = NewChannelError("abort", e.index, CodeCanceled, "transfer aborted")
	}
	if e.observer != nil {
		e.observer.ObserveAbort()
	}
	e.cleanupLocked()

	e.state = stateIdle
	e.stateCond.Broadcast()
	e.mu.Unlock()

	e.dispatcher.Trigger()
}
