package constants

import "time"

// Transfer size limits
const (
	// MaxTransferSize (64 MiB) is recorded on each engine by Configure.
	// Submit does not check transfer sizes against it.
	MaxTransferSize = 64 << 20

	// MaxFrameSize bounds a single video frame transfer: 2048x1080 at
	// 4 bytes/pixel, 6 buffer planes worth of headroom.
	MaxFrameSize = 2048 * 1080 * 4 * 6

	// MaxSegmentSize is the largest byte count a single hardware
	// descriptor may carry (~15 x 4096-byte pages).
	MaxSegmentSize = 15 * 4096

	// MaxPages is the number of 4096-byte pages in one MaxFrameSize
	// frame. It sizes MaxDescriptors; the builder limits
	// scatter-gather entries by MaxDescriptors, not by MaxPages.
	MaxPages = MaxFrameSize / 4096

	// MaxDescriptors is the size of the pre-allocated descriptor ring:
	// worst case needs two descriptors per page (split transfer).
	MaxDescriptors = 2 * MaxPages
)

// Timing constants
const (
	// TransferTimeout bounds how long an armed chain may run before the
	// watchdog declares it stuck and invokes stop_hardware.
	TransferTimeout = 100 * time.Millisecond

	// StatisticInterval is the period between rolling counter emits.
	StatisticInterval = 5 * time.Second

	// EnableDisableWaitTimeout bounds each wait in Enable and Disable:
	// for the dispatcher to acknowledge the change, and (in Disable) for
	// the engine to return to Idle.
	EnableDisableWaitTimeout = 100 * time.Millisecond
)

// Engine sizing constants
const (
	// MaxTasks bounds the number of transfers the engine will track
	// concurrently in its task pool.
	MaxTasks = 256

	// MaxChannels is the number of channel register-block slots probed
	// during configuration and visited by the global enable/disable
	// helpers.
	MaxChannels = 16
)
