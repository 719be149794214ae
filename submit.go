package xlxdma

import "time"

// Submit validates and enqueues a transfer request. It never blocks
// and never touches hardware; building the descriptor chain and
// arming the engine happens later, from dispatcher context.
func (e *Engine) Submit(req TransferRequest) error {
	if req.SGList == nil || req.SGPages == 0 {
		return NewChannelError("submit", e.index, CodeInvalidArgument, "empty scatter-gather list")
	}
	if req.Regions[0].Size == 0 {
		return NewChannelError("submit", e.index, CodeInvalidArgument, "zero-size first card region")
	}

	e.mu.Lock()
	if e.dma != dmaEnabled {
		e.mu.Unlock()
		if e.observer != nil {
			e.observer.ObserveSubmit(0, false)
		}
		return NewChannelError("submit", e.index, CodeBusy, "engine not enabled")
	}

	idx, ok := e.pool.AcquireFromDone()
	if !ok {
		e.mu.Unlock()
		if e.observer != nil {
			e.observer.ObserveSubmit(0, false)
		}
		return NewChannelError("submit", e.index, CodeBusy, "task pool exhausted")
	}

	e.tasks[idx] = channelTask{req: req, submittedAt: time.Now()}
	e.pool.PushReady(idx)
	depth := e.pool.ReadyLen()
	e.mu.Unlock()

	if e.observer != nil {
		byteCount := uint64(req.Regions[0].Size) + uint64(req.Regions[1].Size)
		e.observer.ObserveSubmit(byteCount, true)
		e.observer.ObserveQueueDepth(uint32(depth))
	}

	e.dispatcher.Trigger()
	return nil
}
