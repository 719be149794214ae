package xlxdma

import (
	"github.com/vcapio/xlxdma/internal/interfaces"
	"github.com/vcapio/xlxdma/internal/uapi"
)

// GlobalEnable turns on the card-wide DMA and user interrupt sources.
// It is independent of any single engine's state.
func GlobalEnable(regs interfaces.RegisterSpace) {
	regs.WriteRegister(uapi.RegCommonControlStatus, 0,
		uapi.FieldDmaInterruptEnable|uapi.FieldUserInterruptEnable)
}

// GlobalDisable clears the card-wide interrupt sources, then quiesces
// every populated engine's control/status register regardless of
// which engines this process has opened.
func GlobalDisable(regs interfaces.RegisterSpace) {
	regs.WriteRegister(uapi.RegCommonControlStatus, 0, 0)

	for i := 0; i < MaxChannels; i++ {
		caps := regs.ReadRegister(uapi.RegCapabilities, i)
		if caps&uapi.FieldPresent != 0 {
			regs.WriteRegister(uapi.RegEngineControlStatus, i, 0)
		}
	}
}
