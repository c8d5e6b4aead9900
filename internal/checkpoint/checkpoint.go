// Package checkpoint writes point-in-time snapshots of the solver's
// dependency graph to disk, gated by Configuration.Diagnostics. A
// snapshot is a self-describing header (codec name) followed by an
// lz4-compressed payload, so a long-running or crashed solve leaves
// behind something a human can inspect without re-running the search.
//
// Grounded on the original's checkpoint/diagnostic writers (trace.cpp's
// periodic JSON dump), restructured onto the teacher's own codec/
// abstraction and github.com/pierrec/lz4/v4 for the compression the
// original leaves to an external gzip pipe.
package checkpoint

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/vishalbelsare/gosdt-guesses/codec"
	"github.com/vishalbelsare/gosdt-guesses/internal/graph"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

// magic identifies a checkpoint file before its header.
const magic = "GOSDTCKPT"

// VertexSnapshot is one row of a Snapshot's vertex table.
type VertexSnapshot struct {
	Key        string  `json:"key"`
	Support    float64 `json:"support"`
	Lowerbound float64 `json:"lowerbound"`
	Upperbound float64 `json:"upperbound"`
	Coverage   float64 `json:"coverage"`
}

// Snapshot is the point-in-time state a checkpoint file records.
type Snapshot struct {
	Tick        uint64           `json:"tick"`
	GraphSize   int              `json:"graph_size"`
	QueueDepth  int              `json:"queue_depth"`
	GlobalLower float64          `json:"global_lower"`
	GlobalUpper float64          `json:"global_upper"`
	Vertices    []VertexSnapshot `json:"vertices"`
}

// Capture walks g and builds a Snapshot. tick and queueDepth are supplied
// by the caller (the optimizer's tick hook), since the graph itself
// tracks neither.
func Capture(g *graph.Graph, tick uint64, queueDepth int, globalLower, globalUpper float64) Snapshot {
	snap := Snapshot{
		Tick:        tick,
		GraphSize:   g.Size(),
		QueueDepth:  queueDepth,
		GlobalLower: globalLower,
		GlobalUpper: globalUpper,
	}
	g.ForEachVertex(func(k graph.Key, t *task.Task) {
		snap.Vertices = append(snap.Vertices, VertexSnapshot{
			Key:        string(k),
			Support:    t.Support(),
			Lowerbound: t.Lowerbound(),
			Upperbound: t.Upperbound(),
			Coverage:   t.Coverage(),
		})
	})
	return snap
}

// Write encodes snap with c (codec.Default if nil), lz4-compresses the
// result, and writes it to path as: magic, a uint16 codec-name length and
// name, then the compressed payload.
func Write(path string, snap Snapshot, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	raw, err := c.Marshal(snap)
	if err != nil {
		return fmt.Errorf("checkpoint: encode snapshot: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeHeader(f, c.Name()); err != nil {
		return err
	}

	zw := lz4.NewWriter(f)
	if _, err := zw.Write(raw); err != nil {
		return fmt.Errorf("checkpoint: compress: %w", err)
	}
	return zw.Close()
}

// Read decodes a Snapshot previously written by Write.
func Read(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer f.Close()

	name, err := readHeader(f)
	if err != nil {
		return Snapshot{}, err
	}
	c, ok := codec.ByName(name)
	if !ok {
		return Snapshot{}, fmt.Errorf("checkpoint: unknown codec %q", name)
	}

	raw, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return Snapshot{}, fmt.Errorf("checkpoint: decompress: %w", err)
	}

	var snap Snapshot
	if err := c.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("checkpoint: decode snapshot: %w", err)
	}
	return snap, nil
}

func writeHeader(w io.Writer, codecName string) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("checkpoint: write magic: %w", err)
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(codecName)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("checkpoint: write header length: %w", err)
	}
	if _, err := io.WriteString(w, codecName); err != nil {
		return fmt.Errorf("checkpoint: write codec name: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (codecName string, err error) {
	got := make([]byte, len(magic))
	if _, err := io.ReadFull(r, got); err != nil {
		return "", fmt.Errorf("checkpoint: read magic: %w", err)
	}
	if string(got) != magic {
		return "", fmt.Errorf("checkpoint: bad magic %q", got)
	}
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("checkpoint: read header length: %w", err)
	}
	nameBuf := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return "", fmt.Errorf("checkpoint: read codec name: %w", err)
	}
	return string(nameBuf), nil
}
