// Command replayvis plays a Rocket League replay dump back through the
// state reconstruction core, publishing per-tick snapshots to the
// configured storage backends. An interactive console on stdin controls
// pause, seeking and playback rate.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/config"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/cursor"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/dispatcher"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/driver"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/influx"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/logging"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/monitor"
	intOtel "github.com/loganintech/rl-replay-zone-visualizer/internal/otel"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/projector"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/registry"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/schema"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/factory"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/wsstream"
)

var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"
)

var sessionStart = time.Now()

func main() {
	configDir := flag.String("config", ".", "directory containing replayvis.cfg.json")
	dumpMode := flag.Bool("dump", false, "run the whole replay once, export, and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("replayvis %s (built %s)\n", Version, BuildDate)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replayvis [flags] <replay.json[.gz]>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	replayPath := flag.Arg(0)

	if err := run(*configDir, replayPath, *dumpMode); err != nil {
		fmt.Fprintf(os.Stderr, "replayvis: %v\n", err)
		os.Exit(1)
	}
}

func run(configDir, replayPath string, dumpMode bool) error {
	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFilePath := logging.LogFilePath(logsDir, sessionStart)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	// OTel log provider, when enabled.
	var otelProvider *intOtel.Provider
	var otelLogProvider *sdklog.LoggerProvider
	if config.GetBool("otel.enabled") {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  "replayvis",
			BatchTimeout: 5 * time.Second,
			LogWriter:    logFile,
			Endpoint:     config.GetString("otel.endpoint"),
			Insecure:     config.GetBool("otel.insecure"),
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			otelLogProvider = otelProvider.LoggerProvider()
		}
	}

	slogManager.Setup(logFile, config.GetString("logLevel"), otelLogProvider)
	logger = slogManager.Logger()
	logger.Info("Logging to file", "path", logFilePath)

	// Load and resolve the replay before touching any backend; a broken
	// dump should fail fast.
	rep, err := replay.Load(replayPath)
	if err != nil {
		return fmt.Errorf("loading replay: %w", err)
	}
	mapping := schema.Resolve(rep.Objects)
	logger.Info("Replay loaded",
		"path", replayPath,
		"frames", len(rep.Frames),
		"objects", len(rep.Objects))

	// Storage backends.
	primary, err := factory.NewBackend(slogManager)
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	backends := []storage.Backend{primary}

	if config.GetBool("stream.enabled") {
		backends = append(backends, wsstream.New(wsstream.Config{
			URL:    config.GetString("stream.url"),
			Secret: config.GetString("stream.secret"),
		}, logger))
	}

	for _, b := range backends {
		if err := b.Init(); err != nil {
			return fmt.Errorf("initializing %T: %w", b, err)
		}
	}
	defer func() {
		for _, b := range backends {
			if err := b.Close(); err != nil {
				logger.Warn("Backend close failed", "backend", fmt.Sprintf("%T", b), "error", err)
			}
		}
	}()

	// Influx performance reporting, when enabled.
	var influxManager *influx.Manager
	if config.GetBool("influx.enabled") {
		zlog := zerolog.New(logFile).With().Timestamp().Logger()
		backupPath := filepath.Join(logsDir, "influx_backup.lp.gz")
		influxManager = influx.NewManager(zlog, backupPath)
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable", "error", err)
		}
		defer influxManager.Close()
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		LogManager: slogManager,
		Influx:     influxManager,
	})
	if influxManager != nil {
		monitorService.Start(viper.GetDuration("influx.flushInterval"))
		defer monitorService.Stop()
	}

	// Reconstruction core.
	reg := registry.New()
	proj := projector.New(mapping, rep, logger)
	cur := cursor.New(rep.Frames, proj, reg, config.GetInt("playback.checkpointInterval"))

	meta := storage.ReplayMeta{
		Source:      replayPath,
		TotalFrames: len(rep.Frames),
		LoadedAt:    sessionStart,
	}
	for _, b := range backends {
		if err := b.StartReplay(meta); err != nil {
			return fmt.Errorf("starting replay on %T: %w", b, err)
		}
	}
	defer func() {
		for _, b := range backends {
			if err := b.EndReplay(); err != nil {
				logger.Warn("EndReplay failed", "backend", fmt.Sprintf("%T", b), "error", err)
			}
		}
	}()

	if otelProvider != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelProvider.Shutdown(ctx)
		}()
	}

	if dumpMode {
		return runDump(cur, backends, monitorService, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	play := driver.New(driver.Config{
		UPS:      config.GetInt("playback.ups"),
		FPS:      config.GetInt("playback.fps"),
		SeekStep: config.GetInt("playback.seekStep"),
		RateStep: config.GetInt("playback.rateStep"),
	}, cur, backends, monitorService, logger)

	eventDispatcher, err := dispatcher.New(slogWrapper{logger})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	registerControls(eventDispatcher, play)

	go runConsole(ctx, eventDispatcher, logger)

	err = play.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// runDump folds every frame once at full speed, recording one snapshot
// per frame, then lets the deferred EndReplay produce the export. Advance
// never loops, so the last recorded tick carries the end-of-match state
// instead of the cleared registry a wrapping Step would leave behind.
func runDump(cur *cursor.Cursor, backends []storage.Backend, mon *monitor.Service, logger *slog.Logger) error {
	total := cur.Total()
	start := time.Now()

	for i := 0; i < total; i++ {
		cur.Advance()
		mon.ObserveFrames(1)

		tick := storage.Tick{
			Frame:   cur.Index(),
			Total:   total,
			Time:    cur.CurrentTime(),
			Objects: snapshot.Capture(cur.Registry()),
		}
		for _, b := range backends {
			if err := b.RecordSnapshot(tick); err != nil {
				return fmt.Errorf("recording snapshot at frame %d: %w", i, err)
			}
		}

		if total >= 10 && i%(total/10) == 0 {
			logger.Info("Dump progress", "frame", i, "total", total)
		}
	}

	logger.Info("Dump complete", "frames", total, "took", time.Since(start))
	return nil
}

// slogWrapper adapts *slog.Logger to the dispatcher's Logger interface.
type slogWrapper struct {
	l *slog.Logger
}

func (w slogWrapper) Debug(msg string, kv ...any) { w.l.Debug(msg, kv...) }
func (w slogWrapper) Info(msg string, kv ...any)  { w.l.Info(msg, kv...) }
func (w slogWrapper) Error(msg string, kv ...any) { w.l.Error(msg, kv...) }
