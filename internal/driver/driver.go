// Package driver runs the playback loop: a simulation ticker folds frames
// through the cursor at the configured update rate, and a render ticker
// publishes snapshots to the storage backends. All mutation happens on
// the loop goroutine; control arrives over a command channel.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/cursor"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/monitor"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
)

// Config holds the playback rates.
type Config struct {
	UPS      int // simulation updates per second
	FPS      int // snapshot publishes per second
	SeekStep int // frames per discrete seek
	RateStep int // UPS delta per rate change
}

// minUPS is the floor for rate adjustments; playback never fully stalls
// except through pause.
const minUPS = 10

type commandKind int

const (
	cmdPause commandKind = iota
	cmdSeek
	cmdRate
	cmdStatus
)

type command struct {
	kind   commandKind
	offset int // cmdSeek: signed frames, cmdRate: signed UPS delta
	reply  chan Status
}

// Status is a point-in-time view of the playback loop.
type Status struct {
	Frame   int     `json:"frame"`
	Total   int     `json:"total"`
	Time    float64 `json:"time"`
	UPS     int     `json:"ups"`
	Paused  bool    `json:"paused"`
	Objects int     `json:"objects"`
}

// Driver owns the playback loop.
type Driver struct {
	cfg      Config
	cursor   *cursor.Cursor
	backends []storage.Backend
	monitor  *monitor.Service
	logger   *slog.Logger

	commands chan command
}

// New creates a driver. The monitor may be nil.
func New(cfg Config, cur *cursor.Cursor, backends []storage.Backend, mon *monitor.Service, logger *slog.Logger) *Driver {
	if cfg.UPS <= 0 {
		cfg.UPS = 120
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.SeekStep <= 0 {
		cfg.SeekStep = 150
	}
	if cfg.RateStep <= 0 {
		cfg.RateStep = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		cfg:      cfg,
		cursor:   cur,
		backends: backends,
		monitor:  mon,
		logger:   logger,
		commands: make(chan command, 64),
	}
}

// TogglePause flips the paused state.
func (d *Driver) TogglePause() {
	d.commands <- command{kind: cmdPause}
}

// Seek requests a signed frame offset relative to the current position.
func (d *Driver) Seek(offset int) {
	d.commands <- command{kind: cmdSeek, offset: offset}
}

// SeekForward seeks ahead by one configured step.
func (d *Driver) SeekForward() { d.Seek(d.cfg.SeekStep) }

// SeekBackward seeks back by one configured step.
func (d *Driver) SeekBackward() { d.Seek(-d.cfg.SeekStep) }

// AdjustRate changes the simulation rate by the given UPS delta.
func (d *Driver) AdjustRate(delta int) {
	d.commands <- command{kind: cmdRate, offset: delta}
}

// Faster raises the simulation rate by one configured step.
func (d *Driver) Faster() { d.AdjustRate(d.cfg.RateStep) }

// Slower lowers the simulation rate by one configured step.
func (d *Driver) Slower() { d.AdjustRate(-d.cfg.RateStep) }

// Status blocks until the loop reports its current state.
func (d *Driver) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case d.commands <- command{kind: cmdStatus, reply: reply}:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Run executes the playback loop until ctx is cancelled. It owns all
// cursor and registry mutation for its lifetime.
func (d *Driver) Run(ctx context.Context) error {
	ups := d.cfg.UPS
	paused := false

	simTicker := time.NewTicker(time.Second / time.Duration(ups))
	defer simTicker.Stop()
	renderTicker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer renderTicker.Stop()

	// Swapped for simTicker.C when unpaused; a nil channel never fires.
	var simC <-chan time.Time = simTicker.C

	d.logger.Info("Playback started",
		"frames", d.cursor.Total(), "ups", ups, "fps", d.cfg.FPS)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Playback stopped", "frame", d.cursor.Index())
			return ctx.Err()

		case <-simC:
			d.cursor.Step()
			if d.monitor != nil {
				d.monitor.ObserveFrames(1)
			}

		case <-renderTicker.C:
			d.publish(ups, paused)

		case cmd := <-d.commands:
			switch cmd.kind {
			case cmdPause:
				paused = !paused
				if paused {
					simC = nil
				} else {
					simC = simTicker.C
				}
				d.logger.Info("Pause toggled", "paused", paused)

			case cmdSeek:
				start := time.Now()
				d.cursor.Seek(cmd.offset)
				if d.monitor != nil {
					d.monitor.ObserveSeek(cmd.offset, time.Since(start))
				}
				d.logger.Debug("Seek",
					"offset", cmd.offset, "frame", d.cursor.Index(), "took", time.Since(start))

			case cmdRate:
				ups += cmd.offset
				if ups < minUPS {
					ups = minUPS
				}
				simTicker.Reset(time.Second / time.Duration(ups))
				d.logger.Info("Rate changed", "ups", ups)

			case cmdStatus:
				cmd.reply <- d.status(ups, paused)
			}
		}
	}
}

func (d *Driver) status(ups int, paused bool) Status {
	objects := snapshot.Capture(d.cursor.Registry())
	return Status{
		Frame:   d.cursor.Index(),
		Total:   d.cursor.Total(),
		Time:    d.frameTime(),
		UPS:     ups,
		Paused:  paused,
		Objects: len(objects),
	}
}

// publish captures a snapshot and fans it out to every backend.
func (d *Driver) publish(ups int, paused bool) {
	objects := snapshot.Capture(d.cursor.Registry())
	tick := storage.Tick{
		Frame:   d.cursor.Index(),
		Total:   d.cursor.Total(),
		Time:    d.frameTime(),
		Objects: objects,
	}

	for _, backend := range d.backends {
		if err := backend.RecordSnapshot(tick); err != nil {
			d.logger.Warn("Backend rejected snapshot",
				"backend", fmt.Sprintf("%T", backend), "error", err)
		}
	}

	if d.monitor != nil {
		d.monitor.ObserveTick(tick.Frame, tick.Total, d.cursor.Registry().Len(), ups, paused)
	}
}

func (d *Driver) frameTime() float64 {
	return d.cursor.CurrentTime()
}
