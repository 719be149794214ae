package xlxdma

import (
	"time"

	"github.com/vcapio/xlxdma/internal/uapi"
)

const terminalIRQBits = uapi.ControlIRQOnCompletion | uapi.ControlIRQOnShortErr |
	uapi.ControlIRQOnShortSW | uapi.ControlIRQOnShortHW

// buildAndStart validates the task at pool index idx, translates its
// scatter-gather list into a hardware descriptor chain, and arms the
// engine to run it. Called from dispatcher context with e.mu held;
// returns with e.mu still held on every path.
func (e *Engine) buildAndStart(idx int) error {
	t := &e.tasks[idx]

	if t.req.Direction != e.direction {
		e.stats.recordError()
		return NewChannelError("build", e.index, CodeInvalidArgument, "transfer direction does not match engine direction")
	}
	if e.state != stateIdle {
		e.stats.recordError()
		return NewChannelError("build", e.index, CodeBusy, "engine not idle")
	}
	e.state = stateStart

	totalSize := uint64(t.req.Regions[0].Size) + uint64(t.req.Regions[1].Size)
	if totalSize == 0 {
		e.state = stateIdle
		e.stats.recordError()
		return NewChannelError("build", e.index, CodeInvalidArgument, "zero total transfer size")
	}
	if t.req.SGList == nil || t.req.SGPages >= e.maxDescriptors {
		e.state = stateIdle
		e.stats.recordError()
		return NewChannelError("build", e.index, CodeInvalidArgument, "scatter-gather list missing or too large")
	}

	status := e.regs.ReadRegister(uapi.RegEngineControlStatus, e.index)
	if status&uapi.FieldChainRunning != 0 {
		e.stopHardwareLocked()
		status = e.regs.ReadRegister(uapi.RegEngineControlStatus, e.index)
		if status&uapi.FieldChainRunning != 0 {
			e.state = stateIdle
			e.stats.recordError()
			return NewChannelError("build", e.index, CodeBusy, "chain still running after reset")
		}
	}

	descs, byteCount, err := e.generateDescriptors(t.req, totalSize)
	if err != nil {
		e.state = stateIdle
		e.stats.recordError()
		return err
	}

	startAddress, err := e.ring.Chain(descs)
	if err != nil {
		e.state = stateIdle
		e.stats.recordError()
		return NewChannelError("build", e.index, CodeInvalidArgument, err.Error())
	}

	e.state = stateTransfer

	e.regs.WriteRegister(uapi.RegChainStartAddressLow, e.index, uint32(startAddress))
	e.regs.WriteRegister(uapi.RegChainStartAddressHigh, e.index, uint32(startAddress>>32))

	t.started = true
	t.descCount = len(descs)
	t.byteCount = byteCount
	e.current = idx
	e.armedAt = time.Now()

	e.regs.WriteRegister(uapi.RegEngineControlStatus, e.index,
		uapi.FieldInterruptEnable|uapi.FieldInterruptActive|uapi.FieldChainStart|uapi.FieldChainComplete)

	e.watchdog = time.AfterFunc(TransferTimeout, e.watchdogFires)

	return nil
}

// generateDescriptors walks the transfer's scatter-gather list,
// emitting one hardware descriptor per contiguous run, honoring both
// the two-region split-transfer boundary and the per-descriptor
// MaxSegmentSize limit. The final descriptor carries the
// irq-on-completion bits; the descriptor ring fills in NextAddress
// when the chain is committed.
func (e *Engine) generateDescriptors(req TransferRequest, totalSize uint64) ([]uapi.Descriptor, uint32, error) {
	descs := make([]uapi.Descriptor, 0, req.SGPages+1)

	dataSize := uint64(0)
	region0Size := uint64(req.Regions[0].Size)
	splitActive := req.Regions[1].Size != 0

	// cardAddressAt derives the card-side address for an offset into
	// the logical transfer, so a descriptor boundary that happens to
	// fall exactly on an SG-entry boundary still lands in region 1
	// without needing a carried-forward cursor.
	cardAddressAt := func(offset uint64) uint64 {
		if offset < region0Size {
			return req.Regions[0].Address + offset
		}
		return req.Regions[1].Address + (offset - region0Size)
	}

	for dataSize < totalSize {
		entry, ok := req.SGList.Next()
		if !ok {
			break
		}

		sysAddr := entry.BusAddress
		remaining := uint64(entry.Length)
		if remaining > totalSize-dataSize {
			remaining = totalSize - dataSize
		}

		for remaining > 0 {
			if len(descs) >= e.maxDescriptors {
				return nil, 0, NewChannelError("build", e.index, CodeInvalidArgument, "descriptor budget exhausted")
			}

			cardAddress := cardAddressAt(dataSize)

			if splitActive && dataSize < region0Size && dataSize+remaining > region0Size {
				boundary := region0Size - dataSize
				descs = append(descs, uapi.Descriptor{
					ByteCount:     uint32(boundary),
					SystemAddress: sysAddr,
					CardAddress:   cardAddress,
				})
				sysAddr += boundary
				dataSize += boundary
				remaining -= boundary
				continue
			}

			segment := remaining
			if segment > uint64(MaxSegmentSize) {
				segment = uint64(MaxSegmentSize)
			}
			descs = append(descs, uapi.Descriptor{
				ByteCount:     uint32(segment),
				SystemAddress: sysAddr,
				CardAddress:   cardAddress,
			})
			sysAddr += segment
			dataSize += segment
			remaining -= segment
		}
	}

	if dataSize != totalSize || len(descs) == 0 {
		return nil, 0, NewChannelError("build", e.index, CodeInvalidArgument, "scatter-gather list did not cover the requested size")
	}

	descs[len(descs)-1].Control = terminalIRQBits
	return descs, uint32(dataSize), nil
}
