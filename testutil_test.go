package xlxdma

import (
	"testing"
	"time"

	"github.com/vcapio/xlxdma/internal/uapi"
)

// installSimulatedCompletion arranges for any chain_start write to be
// followed, a moment later, by a synthesized completion interrupt —
// standing in for real hardware in tests that exercise the full
// submit -> dispatch -> interrupt -> callback pipeline.
func installSimulatedCompletion(t *testing.T, e *Engine, regs *MockRegisterSpace) {
	t.Helper()

	regs.WriteHook = func(reg uapi.RegisterID, channel int, value uint32) {
		if reg != uapi.RegEngineControlStatus || value&uapi.FieldChainStart == 0 {
			return
		}
		go func() {
			time.Sleep(time.Millisecond)
			regs.Set(uapi.RegChainCompleteByteCount, channel, 0)
			regs.Set(uapi.RegHardwareTime, channel, uint32(time.Millisecond.Nanoseconds()))
			// Hardware raises interrupt_active directly; it is not
			// acknowledging a prior write, so this goes through Set
			// rather than WriteRegister's write-one-to-clear emulation.
			regs.Set(uapi.RegEngineControlStatus, channel,
				uapi.FieldInterruptEnable|uapi.FieldInterruptActive|uapi.FieldChainComplete)
			e.Interrupt()
		}()
	}
}
