package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/trail"
)

// Export is the root JSON structure written on EndReplay.
type Export struct {
	Source      string         `json:"source"`
	TotalFrames int            `json:"totalFrames"`
	LoadedAt    string         `json:"loadedAt"`
	Ticks       []storage.Tick `json:"ticks"`
	Trails      []trail.Trail  `json:"trails,omitempty"`
}

// exportJSON writes the buffered session to a JSON file, gzipped when
// configured. Caller holds the lock.
func (b *Backend) exportJSON() error {
	export := Export{
		Source:      b.meta.Source,
		TotalFrames: b.meta.TotalFrames,
		LoadedAt:    b.meta.LoadedAt.UTC().Format(time.RFC3339),
		Ticks:       b.ticks,
	}
	if export.Ticks == nil {
		export.Ticks = make([]storage.Tick, 0)
	}
	if b.cfg.IncludeTrails {
		export.Trails = b.trails.Build(b.cfg.TrailTolerance)
	}

	// Build filename from the replay source and load timestamp.
	base := filepath.Base(b.meta.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." {
		base = "replay"
	}
	timestamp := b.meta.LoadedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", base, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", base, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastPath = outputPath
	return nil
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
