// Package xlxdma drives the per-channel scatter-gather DMA engines of
// a Xilinx-style multi-channel PCIe DMA controller. Each Engine
// corresponds to one hardware channel: it accepts transfer
// submissions, builds hardware descriptor chains, arms the device,
// handles completion interrupts and timeouts, and reports results via
// callbacks.
package xlxdma

import (
	"sync"
	"time"

	"github.com/vcapio/xlxdma/internal/constants"
	"github.com/vcapio/xlxdma/internal/interfaces"
	"github.com/vcapio/xlxdma/internal/logging"
	"github.com/vcapio/xlxdma/internal/ring"
	"github.com/vcapio/xlxdma/internal/task"
	"github.com/vcapio/xlxdma/internal/tasklet"
	"github.com/vcapio/xlxdma/internal/uapi"
)

// channelTask is the per-slot metadata tracked alongside a task.Pool
// index. It corresponds to the original Task record.
type channelTask struct {
	req          TransferRequest
	started      bool
	done         bool
	result       error
	descCount    int
	byteCount    uint32
	submittedAt  time.Time
}

// Engine drives one hardware DMA channel.
type Engine struct {
	mu sync.Mutex

	// immutable after Configure
	name            string
	index           int
	direction       Direction
	ordinal         int // ordinal within direction
	interruptMask   uint32
	cardAddressBits int
	maxTransferSize int
	maxDescriptors  int

	regs     interfaces.RegisterSpace
	alloc    interfaces.CoherentAllocator
	logger   interfaces.Logger
	observer interfaces.Observer

	// mutable state
	state     engineState
	dma       dmaState
	task      taskState
	ring      *ring.DescriptorRing
	tasks     []channelTask
	pool      *task.Pool
	current   int // index into tasks/pool of the in-flight task, -1 if none

	dispatcher *tasklet.Tasklet
	completion *tasklet.Tasklet
	watchdog   *time.Timer
	armedAt    time.Time

	stateCond *sync.Cond

	stats stats

	// diagnostics captured for the completion path
	dpcControlStatus uint32
	interruptCount   uint64
	errorCount       uint64

	configured bool
	closed     bool
}

// Config configures a newly opened Engine.
type Config struct {
	// Index is this channel's position in the card's channel register
	// array, scanned during Configure.
	Index int
	// RegisterSpace grants access to the channel and common registers.
	RegisterSpace interfaces.RegisterSpace
	// Allocator provides coherent memory for the descriptor ring.
	Allocator interfaces.CoherentAllocator
	// Logger receives diagnostic output; may be nil.
	Logger interfaces.Logger
	// Observer receives metrics events; may be nil.
	Observer interfaces.Observer
	// CPUAffinity pins the dispatcher and completion worker to CPUs,
	// indexed by Index modulo len(CPUAffinity). Empty means
	// no affinity is requested.
	CPUAffinity []int
}

// Open allocates and zeroes an engine for the named channel. It does
// not touch hardware; call Configure before Enable.
func Open(name string, cfg Config) (*Engine, error) {
	if cfg.RegisterSpace == nil {
		return nil, NewError("open", CodeInvalidArgument, "nil register space")
	}
	if cfg.Allocator == nil {
		return nil, NewError("open", CodeInvalidArgument, "nil coherent allocator")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	e := &Engine{
		name:     name,
		index:    cfg.Index,
		regs:     cfg.RegisterSpace,
		alloc:    cfg.Allocator,
		logger:   logger,
		observer: cfg.Observer,
		state:    stateIdle,
		dma:      dmaDisabled,
		task:     taskDisabled,
		current:  -1,
		tasks:    make([]channelTask, constants.MaxTasks),
		pool:     task.NewPool(constants.MaxTasks),
	}
	e.stateCond = sync.NewCond(&e.mu)

	cpu := -1
	if len(cfg.CPUAffinity) > 0 {
		cpu = cfg.CPUAffinity[cfg.Index%len(cfg.CPUAffinity)]
	}
	e.dispatcher = tasklet.New(e.runDispatcher, tasklet.Config{
		Name:   name + ".dispatcher",
		CPU:    cpu,
		Logger: logger,
	})
	e.completion = tasklet.New(e.runCompletionDPC, tasklet.Config{
		Name:   name + ".completion",
		CPU:    cpu,
		Logger: logger,
	})

	return e, nil
}

// Configure walks the channel-identifier registers, classifies each
// entry's direction, and locates this engine's own channel. On
// success it allocates the descriptor ring and records the
// card-address width.
func (e *Engine) Configure() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var s2cCount, c2hCount int
	matched := false
	var matchedDirection Direction
	var matchedOrdinal int
	var matchedMask uint32

	for i := 0; i < constants.MaxChannels; i++ {
		raw := e.regs.ReadRegister(uapi.RegChannelIdentifier, i)
		subsys := (raw & uapi.FieldSubsystemIDMask) >> uapi.FieldSubsystemIDShift
		if subsys != uapi.ExpectedSubsystemID {
			continue
		}
		target := (raw & uapi.FieldTargetMask) >> uapi.FieldTargetShift

		var dir Direction
		var ordinal int
		switch target {
		case uapi.TargetH2C:
			dir = HostToCard
			ordinal = s2cCount
			s2cCount++
		case uapi.TargetC2H:
			dir = CardToHost
			ordinal = c2hCount
			c2hCount++
		default:
			continue
		}

		if i == e.index {
			matched = true
			matchedDirection = dir
			matchedOrdinal = ordinal
			if dir == HostToCard {
				matchedMask = 1 << uint(ordinal)
			}
			// The CardToHost mask depends on the final s2cCount, which
			// is not known until the scan completes; recorded below.
		}

		e.regs.WriteRegister(uapi.RegChannelControl, i, 0)
	}

	if !matched {
		return NewChannelError("configure", e.index, CodePermissionDenied, "no channel-identifier entry for this index")
	}

	if matchedDirection == CardToHost {
		matchedMask = 1 << uint(s2cCount+matchedOrdinal)
	}

	r, err := ring.New(e.alloc, constants.MaxDescriptors)
	if err != nil {
		return NewChannelError("configure", e.index, CodeOutOfMemory, err.Error())
	}

	alignments := e.regs.ReadRegister(uapi.RegChannelAlignments, e.index)
	cardAddressBits := int((alignments & uapi.FieldAddressBitsMask) >> uapi.FieldAddressBitsShift)

	e.direction = matchedDirection
	e.ordinal = matchedOrdinal
	e.interruptMask = matchedMask
	e.cardAddressBits = cardAddressBits
	e.maxTransferSize = constants.MaxTransferSize
	e.maxDescriptors = constants.MaxDescriptors
	e.ring = r
	e.state = stateIdle
	e.dma = dmaDisabled
	e.configured = true

	return nil
}

// Close disables the engine, stops the hardware, terminates the
// cooperative workers, and frees descriptor memory.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	_ = e.Disable()
	e.stopHardware()

	e.dispatcher.Stop()
	e.completion.Stop()

	e.mu.Lock()
	if e.ring != nil {
		e.ring.Release()
		e.ring = nil
	}
	e.mu.Unlock()
}
