package clock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-studio/core"
)

// Driver pumps wall-clock time into a virtual clock on a fixed tick
// Used when no audio device pulls samples, so scheduled events still fire in real time
type Driver struct {
	interval time.Duration
	pump     func(elapsed time.Duration)
	now      func() time.Time

	ticks atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewDriver creates a driver calling pump with the elapsed wall time every interval
func NewDriver(interval time.Duration, pump func(elapsed time.Duration)) *Driver {
	return &Driver{
		interval: interval,
		pump:     pump,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start launches the tick loop
// A stopped driver cannot be restarted
func (d *Driver) Start() error {
	if d.interval <= 0 {
		return fmt.Errorf("driver interval must be positive, got %v", d.interval)
	}
	if !d.running.CompareAndSwap(false, true) {
		return fmt.Errorf("driver already running")
	}

	d.wg.Add(1)
	core.Go(d.loop)
	return nil
}

// Stop halts the tick loop and waits for the in-flight pump to return
// Safe to call multiple times
func (d *Driver) Stop() {
	if !d.running.Load() {
		return
	}
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.wg.Wait()
	d.running.Store(false)
}

// IsRunning returns true between Start and Stop
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// Ticks returns the number of pumps performed
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

func (d *Driver) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := d.now()
	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			current := d.now()
			elapsed := current.Sub(last)
			last = current
			if elapsed <= 0 {
				continue
			}
			d.pump(elapsed)
			d.ticks.Add(1)
		}
	}
}
