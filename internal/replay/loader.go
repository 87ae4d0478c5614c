package replay

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// dumpFile mirrors the JSON layout produced by boxcars-style exporters:
// the header tables at the top level and the frames nested under
// network_frames.
type dumpFile struct {
	Objects       []string `json:"objects"`
	Names         []string `json:"names"`
	NetworkFrames *struct {
		Frames []Frame `json:"frames"`
	} `json:"network_frames"`
}

// Load reads a parsed replay dump from disk. Files ending in .gz are
// decompressed transparently. A failure here is fatal; once a dump loads,
// projection tolerates whatever the frames contain.
func Load(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening replay dump: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Decode(r)
}

// Decode parses a replay dump from a reader.
func Decode(r io.Reader) (*Replay, error) {
	var dump dumpFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&dump); err != nil {
		return nil, fmt.Errorf("decoding replay dump: %w", err)
	}

	if dump.NetworkFrames == nil {
		return nil, fmt.Errorf("replay dump has no network frames")
	}

	return &Replay{
		Objects: dump.Objects,
		Names:   dump.Names,
		Frames:  dump.NetworkFrames.Frames,
	}, nil
}
