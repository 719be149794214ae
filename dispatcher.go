package xlxdma

// runDispatcher is the single-threaded cooperative worker that drains
// the ready list: firing callbacks for finished tasks, starting the
// next idle task, and yielding as soon as a transfer is in flight or
// the task pool is empty. It may be re-entered by the scheduling
// layer but never runs concurrently with itself.
func (e *Engine) runDispatcher() {
	e.mu.Lock()

	if e.dma == dmaEnabled {
		e.task = taskEnabled
	} else {
		e.task = taskDisabled
	}
	e.stateCond.Broadcast()

	if e.dma != dmaEnabled {
		e.mu.Unlock()
		return
	}

	for i := 0; i < MaxTasks; i++ {
		idx, ok := e.pool.PeekReady()
		if !ok {
			e.mu.Unlock()
			return
		}

		t := &e.tasks[idx]

		if t.done {
			e.finishTaskLocked(idx)
			continue
		}

		if t.started {
			e.mu.Unlock()
			return
		}

		if err := e.buildAndStart(idx); err == nil {
			e.mu.Unlock()
			return
		} else {
			t.done = true
			t.result = err
			e.finishTaskLocked(idx)
			continue
		}
	}

	if e.logger != nil {
		e.logger.Printf("%s: dispatcher loop limit reached without yielding", e.name)
	}
	e.mu.Unlock()
}

// flushPipelineLocked synchronously drains the entire ready list,
// firing every task's callback on the calling goroutine: finished
// tasks get their recorded result, and anything still queued but not
// yet started is canceled. It is used by Disable to guarantee every
// accepted submission's callback has fired before Disable returns,
// regardless of how the asynchronous dispatcher happens to be
// scheduled. Caller must hold e.mu; the lock is released and
// reacquired around each callback invocation.
func (e *Engine) flushPipelineLocked() {
	for {
		idx, ok := e.pool.PeekReady()
		if !ok {
			return
		}

		t := &e.tasks[idx]
		if t.started && !t.done {
			// Still in flight; Abort is responsible for finishing this
			// one before flushPipelineLocked is called.
			return
		}
		if !t.done {
			t.done = true
			t.result = NewChannelError("disable", e.index, CodeCanceled, "transfer canceled by disable")
		}
		e.finishTaskLocked(idx)
	}
}

// finishTaskLocked pops idx off the ready list and fires its callback
// outside the lock, returning the slot to the done list only after the
// callback has returned. This ordering matters: a submission made
// synchronously from inside the callback must see the slot still
// unavailable, so the pool reports one fewer free entry until the
// callback that just vacated it has actually finished running. Caller
// must hold e.mu on entry; it is released and reacquired internally.
func (e *Engine) finishTaskLocked(idx int) {
	e.pool.PopReady()
	t := &e.tasks[idx]
	cb := t.req.Callback
	uc := t.req.UserContext
	res := t.result
	e.mu.Unlock()

	if cb != nil {
		cb(uc, res)
	}

	e.mu.Lock()
	e.pool.PushDone(idx)
}
