package gosdt

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func decompressFile(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(raw)
}

func TestProfileWriterAppendsHeaderThenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.csv.zst")

	pw, err := newProfileWriter(path)
	require.NoError(t, err)

	require.NoError(t, pw.WriteTick(1500*time.Millisecond, profileTick{
		Ticks: 1, GraphSize: 3, QueueDepth: 2, Lower: 0.1, Upper: 0.3, Explored: 5, Exploited: 1,
	}))
	require.NoError(t, pw.WriteTick(3*time.Second, profileTick{
		Ticks: 2, GraphSize: 4, QueueDepth: 1, Lower: 0.2, Upper: 0.2, Explored: 2, Exploited: 4,
	}))
	require.NoError(t, pw.Close())

	content := decompressFile(t, path)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ticks,time_elapsed,lower_bound,upper_bound,graph_size,queue_size,explore,exploit", lines[0])
	require.Equal(t, "1,1.5,0.1,0.3,3,2,5,1", lines[1])
	require.Equal(t, "2,3,0.2,0.2,4,1,2,4", lines[2])
}

func TestTraceWriterAppendsOneJSONObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json.zst")

	tw, err := newTraceWriter(path)
	require.NoError(t, err)

	require.NoError(t, tw.WriteTick(time.Second, profileTick{
		Ticks: 7, GraphSize: 9, QueueDepth: 0, Lower: 0.4, Upper: 0.4, Explored: 1, Exploited: 1,
	}))
	require.NoError(t, tw.Close())

	content := decompressFile(t, path)
	scanner := bufio.NewScanner(strings.NewReader(content))
	require.True(t, scanner.Scan())
	line := scanner.Text()
	require.Contains(t, line, `"tick":7`)
	require.Contains(t, line, `"lower_bound":0.4`)
	require.Contains(t, line, `"upper_bound":0.4`)
	require.False(t, scanner.Scan())
}

func TestNewProfileWriterFailsOnUnwritableDirectory(t *testing.T) {
	_, err := newProfileWriter(filepath.Join(t.TempDir(), "missing-dir", "profile.csv.zst"))
	require.Error(t, err)
}
