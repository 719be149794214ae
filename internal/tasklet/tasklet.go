// Package tasklet provides a single-goroutine, single-flight worker
// abstraction used for the dispatcher and completion handling paths.
// It mirrors the cooperative, affinity-pinned I/O loop pattern used
// elsewhere in the driver: one goroutine, optionally pinned to a CPU,
// that wakes on a trigger and drains work until told to stop.
package tasklet

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/vcapio/xlxdma/internal/interfaces"
)

// Func is the work callback invoked each time the tasklet wakes up.
// It should drain whatever work is available and return promptly;
// Trigger calls that arrive while Func is running are coalesced into
// a single subsequent wakeup.
type Func func()

// Tasklet runs Func on its own goroutine whenever Trigger is called,
// coalescing back-to-back triggers so Func never needs to be
// reentrant-safe against itself.
type Tasklet struct {
	fn       Func
	trigger  chan struct{}
	stop     chan struct{}
	done     chan struct{}
	cpu      int // target CPU, -1 for no affinity
	logger   interfaces.Logger
	name     string
}

// Config configures a Tasklet.
type Config struct {
	// Name identifies the tasklet in log output.
	Name string
	// CPU pins the worker goroutine to a specific CPU. Negative means
	// no affinity is requested.
	CPU int
	// Logger receives diagnostic messages; may be nil.
	Logger interfaces.Logger
}

// New creates and starts a Tasklet that invokes fn on each Trigger.
func New(fn Func, cfg Config) *Tasklet {
	t := &Tasklet{
		fn:      fn,
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		cpu:     cfg.CPU,
		logger:  cfg.Logger,
		name:    cfg.Name,
	}
	if t.cpu < 0 {
		t.cpu = -1
	}
	go t.loop()
	return t
}

// Trigger schedules a wakeup. It never blocks: if a wakeup is already
// pending, this call is a no-op.
func (t *Tasklet) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// Stop requests the worker goroutine to exit and waits for it to do
// so. Stop is idempotent.
func (t *Tasklet) Stop() {
	select {
	case <-t.stop:
		// already stopped
	default:
		close(t.stop)
	}
	<-t.done
}

func (t *Tasklet) loop() {
	defer close(t.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if t.cpu >= 0 {
		var mask unix.CPUSet
		mask.Set(t.cpu)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			if t.logger != nil {
				t.logger.Printf("tasklet %s: failed to set CPU affinity to %d: %v", t.name, t.cpu, err)
			}
		} else if t.logger != nil {
			t.logger.Debugf("tasklet %s: pinned to CPU %d", t.name, t.cpu)
		}
	}

	for {
		select {
		case <-t.stop:
			return
		case <-t.trigger:
			t.fn()
		}
	}
}
