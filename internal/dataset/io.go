package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Save writes the dataset in the original's text layout: the combined
// input matrix, the cost matrix, a has-reference flag, the optional
// reference matrix, then one feature-map line per original feature.
func (ds *Dataset) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)

	totalCols := ds.numFeatures + ds.numTargets
	fmt.Fprintf(bw, "%d %d\n", ds.numRows, totalCols)
	for i := uint(0); i < ds.numRows; i++ {
		for j := uint(0); j < ds.numFeatures; j++ {
			writeBit(bw, ds.rowFeatures[i].Get(j))
		}
		for j := uint(0); j < ds.numTargets; j++ {
			writeBit(bw, ds.rowTargets[i].Get(j))
		}
		bw.WriteByte('\n')
	}

	fmt.Fprintf(bw, "%d %d\n", ds.numTargets, ds.numTargets)
	for i := uint(0); i < ds.numTargets; i++ {
		for j := uint(0); j < ds.numTargets; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%g", ds.costMatrix[i][j])
		}
		bw.WriteByte('\n')
	}

	if ds.referenceTargets != nil {
		fmt.Fprintln(bw, "1")
		for i := uint(0); i < ds.numRows; i++ {
			for j := uint(0); j < ds.numTargets; j++ {
				writeBit(bw, ds.referenceTargets[j].Get(i))
			}
			bw.WriteByte('\n')
		}
	} else {
		fmt.Fprintln(bw, "0")
	}

	for _, set := range ds.featureMap {
		if set != nil {
			it := set.Iterator()
			first := true
			for it.HasNext() {
				if !first {
					bw.WriteByte(' ')
				}
				first = false
				fmt.Fprintf(bw, "%d", it.Next())
			}
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func writeBit(w *bufio.Writer, v bool) {
	if v {
		w.WriteByte('1')
	} else {
		w.WriteByte('0')
	}
}

// Load reads a dataset previously written by Save.
func Load(r io.Reader) (*Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	rows, cols, err := readDims(sc)
	if err != nil {
		return nil, err
	}
	input := make([][]bool, rows)
	for i := 0; i < rows; i++ {
		if !sc.Scan() {
			return nil, io.ErrUnexpectedEOF
		}
		input[i] = parseBits(sc.Text(), cols)
	}

	tRows, tCols, err := readDims(sc)
	if err != nil {
		return nil, err
	}
	costMatrix := make([][]float64, tRows)
	for i := 0; i < tRows; i++ {
		if !sc.Scan() {
			return nil, io.ErrUnexpectedEOF
		}
		costMatrix[i] = parseFloats(sc.Text(), tCols)
	}

	if !sc.Scan() {
		return nil, io.ErrUnexpectedEOF
	}
	hasReference := strings.TrimSpace(sc.Text()) == "1"

	var reference [][]bool
	if hasReference {
		reference = make([][]bool, rows)
		for i := 0; i < rows; i++ {
			if !sc.Scan() {
				return nil, io.ErrUnexpectedEOF
			}
			reference[i] = parseBits(sc.Text(), tRows)
		}
	}

	var featureMap []*roaring.Bitmap
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		set := roaring.New()
		if line != "" {
			for _, tok := range strings.Fields(line) {
				v, err := strconv.ParseUint(tok, 10, 32)
				if err != nil {
					return nil, err
				}
				set.Add(uint32(v))
			}
		}
		featureMap = append(featureMap, set)
	}

	if hasReference {
		return NewWithReference(input, costMatrix, featureMap, reference)
	}
	return New(input, costMatrix, featureMap)
}

func readDims(sc *bufio.Scanner) (int, int, error) {
	if !sc.Scan() {
		return 0, 0, io.ErrUnexpectedEOF
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 'rows cols' header, got %q", sc.Text())
	}
	rows, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	cols, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

func parseBits(line string, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n && i < len(line); i++ {
		out[i] = line[i] == '1'
	}
	return out
}

func parseFloats(line string, n int) []float64 {
	fields := strings.Fields(line)
	out := make([]float64, n)
	for i := 0; i < n && i < len(fields); i++ {
		v, _ := strconv.ParseFloat(fields[i], 64)
		out[i] = v
	}
	return out
}
