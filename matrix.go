package labtex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brandquad/labtex/bins"
)

// NumColorNames is the width of a w2c probability row.
const NumColorNames = 39

const matrixStep = "convert the w2c39 matrix to text (index followed by 39 probabilities per line)"

// Matrix maps fixed-step Lab bins to probability rows over the colour names.
type Matrix struct {
	rows [][]float64
	n    int
}

func NewMatrix() *Matrix {
	return &Matrix{rows: make([][]float64, bins.StepCount)}
}

// Set stores the row of a bin. Every bin may be set once.
func (m *Matrix) Set(bin int, probs []float64) error {
	if bin < 0 || bin >= len(m.rows) {
		return schemaMismatch("bin index %d outside [0, %d)", bin, len(m.rows))
	}
	if len(probs) != NumColorNames {
		return schemaMismatch("bin %d has %d probabilities, want %d", bin, len(probs), NumColorNames)
	}
	if m.rows[bin] != nil {
		return schemaMismatch("bin %d appears twice", bin)
	}
	m.rows[bin] = probs
	m.n++
	return nil
}

func (m *Matrix) Row(bin int) ([]float64, bool) {
	if bin < 0 || bin >= len(m.rows) || m.rows[bin] == nil {
		return nil, false
	}
	return m.rows[bin], true
}

// Len is the number of bins with a row.
func (m *Matrix) Len() int {
	return m.n
}

// Normalize rescales every row to sum to 1. All-zero rows are left alone.
func (m *Matrix) Normalize() {
	for _, row := range m.rows {
		var sum float64
		for _, p := range row {
			sum += p
		}
		if sum <= 0 {
			continue
		}
		for i := range row {
			row[i] /= sum
		}
	}
}

// WriteTo writes one line per occupied bin: the index, then the
// probabilities with 8 decimals.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for bin, row := range m.rows {
		if row == nil {
			continue
		}
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(bin))
		for _, p := range row {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(p, 'f', 8, 64))
		}
		sb.WriteByte('\n')
		n, err := bw.WriteString(sb.String())
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

// ParseMatrix reads the text form written by WriteTo.
func ParseMatrix(r io.Reader) (*Matrix, error) {
	m := NewMatrix()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != NumColorNames+1 {
			return nil, schemaMismatch("line %d: %d fields, want %d", line, len(fields), NumColorNames+1)
		}
		bin, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, schemaMismatch("line %d: bin index %q", line, fields[0])
		}
		probs := make([]float64, NumColorNames)
		for i, f := range fields[1:] {
			if probs[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, schemaMismatch("line %d: probability %q", line, f)
			}
		}
		if err = m.Set(bin, probs); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadMatrix reads a probability matrix file.
func LoadMatrix(path string) (*Matrix, error) {
	st := time.Now()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingArtifactError{Path: path, Step: matrixStep}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ParseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("Loaded %d LAB bin entries from %s in %s", m.Len(), path, time.Since(st))
	return m, nil
}
