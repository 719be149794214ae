package xlxdma

import "github.com/vcapio/xlxdma/internal/constants"

// Re-exported tunables, see internal/constants for definitions.
const (
	MaxTransferSize          = constants.MaxTransferSize
	MaxFrameSize             = constants.MaxFrameSize
	MaxSegmentSize           = constants.MaxSegmentSize
	MaxPages                 = constants.MaxPages
	MaxDescriptors           = constants.MaxDescriptors
	TransferTimeout          = constants.TransferTimeout
	StatisticInterval        = constants.StatisticInterval
	EnableDisableWaitTimeout = constants.EnableDisableWaitTimeout
	MaxTasks                 = constants.MaxTasks
	MaxChannels              = constants.MaxChannels
)
