package gosdt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

// profileWriter appends one CSV row per tick to Configuration.Profile,
// zstd-compressed as it's written rather than buffered whole in memory
// and compressed once at the end (the same compressor/bufio.Writer
// pairing wal.go builds around its zstd.Encoder). Grounded on the
// original's optimizer.cpp: initialize() writes the header once,
// profile() appends a row and flushes on every worker-0 tick that
// prints. The original flushes a plain std::ofstream; zstd.Encoder's
// Flush emits a frame boundary a reader can decode without waiting for
// Close, the compressed equivalent of that flush.
type profileWriter struct {
	file *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
}

func newProfileWriter(path string) (*profileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("profile: create %s: %w", path, err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("profile: new writer: %w", err)
	}
	pw := &profileWriter{file: f, zw: zw, bw: bufio.NewWriter(zw)}
	if _, err := fmt.Fprintln(pw.bw, "ticks,time_elapsed,lower_bound,upper_bound,graph_size,queue_size,explore,exploit"); err != nil {
		pw.zw.Close()
		pw.file.Close()
		return nil, fmt.Errorf("profile: write header: %w", err)
	}
	return pw, nil
}

// WriteTick appends one row and flushes it, mirroring profile()'s
// explore/exploit counters and its reset of both to zero afterward.
func (pw *profileWriter) WriteTick(elapsed time.Duration, stats profileTick) error {
	_, err := fmt.Fprintf(pw.bw, "%d,%g,%g,%g,%d,%d,%d,%d\n",
		stats.Ticks, elapsed.Seconds(), stats.Lower, stats.Upper,
		stats.GraphSize, stats.QueueDepth, stats.Explored, stats.Exploited)
	if err != nil {
		return fmt.Errorf("profile: write row: %w", err)
	}
	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("profile: flush buffer: %w", err)
	}
	if err := pw.zw.Flush(); err != nil {
		return fmt.Errorf("profile: flush: %w", err)
	}
	return nil
}

func (pw *profileWriter) Close() error {
	if err := pw.bw.Flush(); err != nil {
		pw.zw.Close()
		pw.file.Close()
		return fmt.Errorf("profile: flush buffer: %w", err)
	}
	if err := pw.zw.Close(); err != nil {
		pw.file.Close()
		return fmt.Errorf("profile: close writer: %w", err)
	}
	return pw.file.Close()
}

// profileTick is the subset of optimizer.TickStats a profileWriter or
// traceWriter row needs, kept separate so this file doesn't import
// internal/optimizer purely for a struct literal at the fit.go call
// site.
type profileTick struct {
	Ticks      uint64
	GraphSize  int
	QueueDepth int
	Lower      float64
	Upper      float64
	Explored   uint64
	Exploited  uint64
}

// traceEntry is one line of a trace file: the same tick-level snapshot
// as a profile row, as JSON rather than CSV. The original never
// finished its own diagnostic_trace (optimizer.cpp calls it from a
// commented-out line in iterate()), so there is no C++ trace format to
// port; this line shape mirrors profileTick precisely so the two
// artifacts describe the same events in two encodings.
type traceEntry struct {
	Tick       uint64  `json:"tick"`
	ElapsedSec float64 `json:"elapsed_seconds"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	GraphSize  int     `json:"graph_size"`
	QueueDepth int     `json:"queue_depth"`
	Explored   uint64  `json:"explored"`
	Exploited  uint64  `json:"exploited"`
}

// traceWriter appends one JSON object per line to Configuration.Trace,
// zstd-compressed with the same streaming-flush discipline as
// profileWriter.
type traceWriter struct {
	file *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
	enc  *json.Encoder
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: create %s: %w", path, err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("trace: new writer: %w", err)
	}
	bw := bufio.NewWriter(zw)
	return &traceWriter{file: f, zw: zw, bw: bw, enc: json.NewEncoder(bw)}, nil
}

func (tw *traceWriter) WriteTick(elapsed time.Duration, stats profileTick) error {
	entry := traceEntry{
		Tick:       stats.Ticks,
		ElapsedSec: elapsed.Seconds(),
		LowerBound: stats.Lower,
		UpperBound: stats.Upper,
		GraphSize:  stats.GraphSize,
		QueueDepth: stats.QueueDepth,
		Explored:   stats.Explored,
		Exploited:  stats.Exploited,
	}
	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("trace: encode: %w", err)
	}
	if err := tw.bw.Flush(); err != nil {
		return fmt.Errorf("trace: flush buffer: %w", err)
	}
	if err := tw.zw.Flush(); err != nil {
		return fmt.Errorf("trace: flush: %w", err)
	}
	return nil
}

func (tw *traceWriter) Close() error {
	if err := tw.bw.Flush(); err != nil {
		tw.zw.Close()
		tw.file.Close()
		return fmt.Errorf("trace: flush buffer: %w", err)
	}
	if err := tw.zw.Close(); err != nil {
		tw.file.Close()
		return fmt.Errorf("trace: close writer: %w", err)
	}
	return tw.file.Close()
}
