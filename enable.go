package xlxdma

import "time"

// waitForTask blocks, with e.mu held, until e.task equals want or
// timeout elapses. It must only be called while holding e.mu; it
// releases and reacquires the lock internally via stateCond.Wait.
func (e *Engine) waitForTask(want taskState, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for e.task != want {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.AfterFunc(remaining, func() {
			e.mu.Lock()
			e.stateCond.Broadcast()
			e.mu.Unlock()
		})
		e.stateCond.Wait()
		timer.Stop()
	}
	return true
}

// waitForEngineState is the state-machine analog of waitForTask, used
// by Disable to confirm the dispatcher has returned the engine to
// Idle after an in-flight transfer is aborted.
func (e *Engine) waitForEngineState(want engineState, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for e.state != want {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.AfterFunc(remaining, func() {
			e.mu.Lock()
			e.stateCond.Broadcast()
			e.mu.Unlock()
		})
		e.stateCond.Wait()
		timer.Stop()
	}
	return true
}

// Enable resets statistics, repopulates the task pool, and allows the
// dispatcher to start building transfers from submitted requests. It
// blocks until the dispatcher has observed the change or
// EnableDisableWaitTimeout elapses.
func (e *Engine) Enable() error {
	e.mu.Lock()
	if !e.configured {
		e.mu.Unlock()
		return NewChannelError("enable", e.index, CodeInvalidArgument, "engine not configured")
	}
	if e.dma == dmaEnabled {
		e.mu.Unlock()
		return nil
	}

	e.stats.reset(time.Now())
	e.pool.Reset()
	e.dma = dmaEnabled
	e.mu.Unlock()

	e.dispatcher.Trigger()

	e.mu.Lock()
	ok := e.waitForTask(taskEnabled, EnableDisableWaitTimeout)
	e.mu.Unlock()
	if !ok {
		return NewChannelError("enable", e.index, CodeTimeout, "dispatcher did not acknowledge enable")
	}
	return nil
}

// Disable stops the dispatcher from starting new transfers, waits for
// it to acknowledge, aborts any transfer in flight, and waits for the
// engine to settle back to Idle.
func (e *Engine) Disable() error {
	e.mu.Lock()
	if e.dma == dmaDisabled {
		e.mu.Unlock()
		return nil
	}
	e.dma = dmaDisabled
	e.mu.Unlock()

	e.dispatcher.Trigger()

	e.mu.Lock()
	ok := e.waitForTask(taskDisabled, EnableDisableWaitTimeout)
	e.mu.Unlock()
	if !ok {
		return NewChannelError("disable", e.index, CodeTimeout, "dispatcher did not acknowledge disable")
	}

	e.Abort()

	e.mu.Lock()
	e.flushPipelineLocked()
	ok = e.waitForEngineState(stateIdle, EnableDisableWaitTimeout)
	e.mu.Unlock()
	if !ok {
		return NewChannelError("disable", e.index, CodeTimeout, "engine did not return to idle")
	}
	return nil
}
