// Command xlxdma-sim drives a single simulated DMA channel end to end
// against mock register space and coherent memory. It exists to
// exercise the engine's submit/dispatch/interrupt/watchdog pipeline
// without real hardware, and to give a human a feel for the observed
// latency and throughput.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vcapio/xlxdma"
	"github.com/vcapio/xlxdma/internal/logging"
	"github.com/vcapio/xlxdma/internal/uapi"
)

func main() {
	var (
		count   = flag.Int("n", 100, "number of transfers to submit")
		size    = flag.Int("size", 8192, "bytes per transfer (single region)")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	regs := xlxdma.NewMockRegisterSpace()
	alloc := xlxdma.NewMockCoherentAllocator()

	// Seed one H2C channel at index 0 so Configure finds a match.
	regs.Set(uapi.RegChannelIdentifier, 0, uint32(uapi.ExpectedSubsystemID)<<uapi.FieldSubsystemIDShift|uapi.TargetH2C<<uapi.FieldTargetShift)
	regs.Set(uapi.RegChannelAlignments, 0, 32)

	engine, err := xlxdma.Open("sim0", xlxdma.Config{
		Index:         0,
		RegisterSpace: regs,
		Allocator:     alloc,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer engine.Close()

	if err := engine.Configure(); err != nil {
		log.Fatalf("configure: %v", err)
	}
	installSimulatedHardware(regs, engine)

	if err := engine.Enable(); err != nil {
		log.Fatalf("enable: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	start := time.Now()
	submitted := 0

	for i := 0; i < *count; i++ {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, stopping early", "submitted", submitted)
			goto drain
		default:
		}

		sg := xlxdma.NewSGSlice(xlxdma.SGEntry{BusAddress: 0xA000, Length: uint32(*size)})
		req := xlxdma.TransferRequest{
			Direction: xlxdma.HostToCard,
			SGList:    sg,
			SGPages:   1,
			Regions:   [2]xlxdma.CardRegion{{Address: 0x10000, Size: uint32(*size)}},
		}

		wg.Add(1)
		req.UserContext = i
		req.Callback = func(userContext interface{}, result error) {
			defer wg.Done()
			if result != nil {
				logger.Error("transfer failed", "id", userContext, "error", result)
			}
		}

		for {
			if err := engine.Submit(req); err != nil {
				if xlxdma.IsCode(err, xlxdma.CodeBusy) {
					time.Sleep(time.Millisecond)
					continue
				}
				log.Fatalf("submit: %v", err)
			}
			break
		}
		submitted++
	}

drain:
	wg.Wait()
	elapsed := time.Since(start)

	snap := engine.Stats()
	fmt.Printf("submitted=%d elapsed=%s lifetime_transfers=%d lifetime_bytes=%d lifetime_errors=%d\n",
		submitted, elapsed, snap.LifetimeTransfers, snap.LifetimeBytes, snap.LifetimeErrors)
}

// installSimulatedHardware arranges for a write of the chain_start bit
// to produce a completion interrupt shortly afterward, standing in
// for the real device.
func installSimulatedHardware(regs *xlxdma.MockRegisterSpace, engine *xlxdma.Engine) {
	regs.WriteHook = func(reg uapi.RegisterID, channel int, value uint32) {
		if reg != uapi.RegEngineControlStatus || value&uapi.FieldChainStart == 0 {
			return
		}
		go func() {
			time.Sleep(200 * time.Microsecond)
			regs.Set(uapi.RegChainCompleteByteCount, channel, 0)
			regs.Set(uapi.RegHardwareTime, channel, uint32(200*time.Microsecond.Nanoseconds()))
			// Hardware raises interrupt_active directly; it is not
			// acknowledging a prior write, so this goes through Set
			// rather than WriteRegister's write-one-to-clear emulation.
			regs.Set(uapi.RegEngineControlStatus, channel,
				uapi.FieldInterruptEnable|uapi.FieldInterruptActive|uapi.FieldChainComplete)
			engine.Interrupt()
		}()
	}
}
