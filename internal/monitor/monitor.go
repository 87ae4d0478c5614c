// Package monitor tracks playback health: how many frames the projector
// has folded, how many entities are live, and how long seeks take. Counts
// go to OTEL instruments; a periodic reporter ships playback and
// projection status points to InfluxDB when a manager is wired.
package monitor

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/influx"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
)

const instrumentationName = "replayvis/monitor"

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	LogManager *logging.SlogManager
	Influx     *influx.Manager // nil disables Influx reporting
}

// Service tracks playback performance.
type Service struct {
	deps Dependencies

	framesApplied  metric.Int64Counter
	ticksPublished metric.Int64Counter
	seekDuration   metric.Float64Histogram

	mu             sync.RWMutex
	frame          int
	total          int
	entities       int
	rate           int
	paused         bool
	folded         int
	foldedReported int
	isRunning      bool
	stopChan       chan struct{}
}

// NewService creates a new monitor service and its instruments. The
// instruments come from the global meter provider and are no-ops until
// a real provider is installed.
func NewService(deps Dependencies) *Service {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	framesApplied, _ := meter.Int64Counter("playback.frames_applied",
		metric.WithDescription("Network frames folded into the registry"))
	ticksPublished, _ := meter.Int64Counter("playback.ticks_published",
		metric.WithDescription("Snapshots published to storage backends"))
	seekDuration, _ := meter.Float64Histogram("playback.seek_duration_ms",
		metric.WithDescription("Wall time spent servicing a seek"),
		metric.WithUnit("ms"))

	s := &Service{
		deps:           deps,
		framesApplied:  framesApplied,
		ticksPublished: ticksPublished,
		seekDuration:   seekDuration,
		stopChan:       make(chan struct{}),
	}

	_, _ = meter.Int64ObservableGauge("playback.live_entities",
		metric.WithDescription("Entities currently tracked in the registry"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s.mu.RLock()
			defer s.mu.RUnlock()
			o.Observe(int64(s.entities))
			return nil
		}))

	return s
}

// IsRunning returns whether the periodic reporter is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// ObserveFrames records frames folded by the projector since the last call.
func (s *Service) ObserveFrames(n int) {
	if n <= 0 {
		return
	}
	s.framesApplied.Add(context.Background(), int64(n))

	s.mu.Lock()
	s.folded += n
	s.mu.Unlock()
}

// ObserveTick records one published snapshot and the playback position.
func (s *Service) ObserveTick(frame, total, entities, rate int, paused bool) {
	s.ticksPublished.Add(context.Background(), 1)

	s.mu.Lock()
	s.frame = frame
	s.total = total
	s.entities = entities
	s.rate = rate
	s.paused = paused
	s.mu.Unlock()
}

// ObserveSeek records how long a seek took, tagged by direction.
func (s *Service) ObserveSeek(offset int, d time.Duration) {
	direction := "forward"
	if offset < 0 {
		direction = "backward"
	}
	s.seekDuration.Record(context.Background(), float64(d.Milliseconds()),
		metric.WithAttributes(attribute.String("direction", direction)))
}

// Start launches the periodic Influx reporter. No-op without a manager.
func (s *Service) Start(interval time.Duration) {
	if s.deps.Influx == nil {
		return
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	go s.reportLoop(interval)
}

// Stop halts the periodic reporter.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}

func (s *Service) reportLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.report()
		}
	}
}

func (s *Service) report() {
	now := time.Now()

	s.mu.Lock()
	playback := influxdb2.NewPointWithMeasurement("playback_status").
		AddField("frame", s.frame).
		AddField("total", s.total).
		AddField("entities", s.entities).
		AddField("rate", s.rate).
		AddField("paused", s.paused).
		SetTime(now)
	projection := influxdb2.NewPointWithMeasurement("projection_status").
		AddField("frames_folded", s.folded).
		AddField("frames_since_last", s.folded-s.foldedReported).
		SetTime(now)
	s.foldedReported = s.folded
	s.mu.Unlock()

	s.writePoint("playback_performance", playback)
	s.writePoint("projector_performance", projection)
}

func (s *Service) writePoint(bucket string, point *influxdb2_write.Point) {
	if err := s.deps.Influx.WritePoint(context.Background(), bucket, point); err != nil {
		if s.deps.LogManager != nil {
			s.deps.LogManager.Logger().Warn("Failed to write status point",
				"bucket", bucket, "error", err)
		}
	}
}
