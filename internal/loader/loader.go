// Package loader reads flat numeric datasets into a types.SampleBlock.
// This is intentionally minimal: file parsing and dataset I/O are an
// external collaborator's concern, not part of the engine core.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/types"
)

// Load reads one subsequence-source row per line from r. Fields are
// separated by whitespace or commas; a row may optionally begin with a
// non-numeric name token, which is discarded. Rows may be ragged - each
// row's length is tracked independently - but every row must parse as a
// sequence of floats or Load fails with ErrParseError identifying the
// offending line.
func Load(r io.Reader) (*types.SampleBlock, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows [][]float64
	maxLen := 0
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			fields = fields[1:] // leading name column
		}

		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("loader: line %d: bad value %q: %w", lineNo, f, generrors.ErrParseError)
			}
			row = append(row, v)
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
		if len(row) > maxLen {
			maxLen = len(row)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("loader: scan failed: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("loader: no usable rows: %w", generrors.ErrParseError)
	}

	block := types.NewSampleBlock(len(rows), maxLen)
	for i, row := range rows {
		block.Lengths[i] = len(row)
		copy(block.Row(i), row)
	}
	return block, nil
}
