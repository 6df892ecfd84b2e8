package persist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/group"
	"github.com/genexlabs/genex/internal/types"
)

const legacyVersion = "GENEX-TEXT-1"

// WriteLegacyText writes spaces in the older plain-text dump format: a
// version line, the item count and item length, the threshold, and then a
// header claiming length range [2, len(spaces)+1) before one line per
// cluster centroid - one fewer length slot than WriteBinary's len(spaces)
// slots starting at L=2, so the longest built length space is silently
// dropped from a legacy dump. Both formats are kept exactly as they have
// always behaved, rather than reconciled, since existing dumps in the
// field were written this way.
func WriteLegacyText(w io.Writer, itemCount, maxLength int, threshold float64, spaces map[int]*group.LengthSpace, fullDump bool) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, legacyVersion)
	fmt.Fprintf(bw, "items %d %d\n", itemCount, maxLength)
	fmt.Fprintf(bw, "threshold %s\n", strconv.FormatFloat(threshold, 'g', -1, 64))
	fmt.Fprintf(bw, "lengths 2 %d\n", len(spaces)+1)

	for length := 2; length <= len(spaces); length++ {
		ls, ok := spaces[length]
		if !ok {
			return fmt.Errorf("persist: legacy dump missing length %d: %w", length, generrors.ErrInvalidArgument)
		}
		fmt.Fprintf(bw, "length %d clusters %d\n", length, len(ls.Clusters))
		for _, cl := range ls.Clusters {
			if fullDump {
				values := cl.Centroid().Values()
				fields := make([]string, len(values))
				for i, v := range values {
					fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
				}
				fmt.Fprintf(bw, "cluster %d count %d centroid %s\n", cl.ID, cl.Count(), strings.Join(fields, " "))
			} else {
				fmt.Fprintf(bw, "cluster %d count %d\n", cl.ID, cl.Count())
			}
		}
	}

	return bw.Flush()
}

// LegacyClusterSummary is one cluster line parsed back from a legacy text
// dump; Centroid is empty unless the dump was written with fullDump=true.
type LegacyClusterSummary struct {
	ID       int
	Count    int
	Centroid types.SequenceView
}

// LegacyHeader is the version/items/threshold/range preamble of a legacy
// dump.
type LegacyHeader struct {
	Version    string
	ItemCount  int
	MaxLength  int
	Threshold  float64
	LengthLow  int
	LengthHigh int // exclusive, as written: [LengthLow, LengthHigh)
}

// CheckCompatible reports ErrIncompatibleIndex if header's item count or
// max length does not match itemCount/maxLength, the same dataset-mismatch
// check RestoreBinary runs for the binary format.
func (h LegacyHeader) CheckCompatible(itemCount, maxLength int) error {
	if h.ItemCount != itemCount || h.MaxLength != maxLength {
		return fmt.Errorf("persist: legacy dump dataset mismatch (items %d vs dump %d, max length %d vs dump %d): %w",
			itemCount, h.ItemCount, maxLength, h.MaxLength, generrors.ErrIncompatibleIndex)
	}
	return nil
}

// ReadLegacyText parses a dump written by WriteLegacyText.
func ReadLegacyText(r io.Reader) (LegacyHeader, map[int][]LegacyClusterSummary, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return LegacyHeader{}, nil, fmt.Errorf("persist: empty legacy dump: %w", generrors.ErrParseError)
	}
	header := LegacyHeader{Version: strings.TrimSpace(sc.Text())}
	if header.Version != legacyVersion {
		return header, nil, fmt.Errorf("persist: unrecognized legacy version %q: %w", header.Version, generrors.ErrIncompatibleIndex)
	}

	if !sc.Scan() {
		return header, nil, fmt.Errorf("persist: truncated legacy dump (items line): %w", generrors.ErrParseError)
	}
	itemCount, maxLength, err := parseItems(sc.Text())
	if err != nil {
		return header, nil, err
	}
	header.ItemCount, header.MaxLength = itemCount, maxLength

	if !sc.Scan() {
		return header, nil, fmt.Errorf("persist: truncated legacy dump (threshold line): %w", generrors.ErrParseError)
	}
	if header.Threshold, err = parseField(sc.Text(), "threshold"); err != nil {
		return header, nil, err
	}

	if !sc.Scan() {
		return header, nil, fmt.Errorf("persist: truncated legacy dump (lengths line): %w", generrors.ErrParseError)
	}
	lo, hi, err := parseLengths(sc.Text())
	if err != nil {
		return header, nil, err
	}
	header.LengthLow, header.LengthHigh = lo, hi

	out := make(map[int][]LegacyClusterSummary)
	currentLength := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "length":
			length, err := strconv.Atoi(fields[1])
			if err != nil {
				return header, nil, fmt.Errorf("persist: bad length line %q: %w", line, generrors.ErrParseError)
			}
			currentLength = length
			if _, ok := out[length]; !ok {
				out[length] = nil
			}
		case "cluster":
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				return header, nil, fmt.Errorf("persist: bad cluster id %q: %w", line, generrors.ErrParseError)
			}
			count, err := strconv.Atoi(fields[3])
			if err != nil {
				return header, nil, fmt.Errorf("persist: bad cluster count %q: %w", line, generrors.ErrParseError)
			}
			summary := LegacyClusterSummary{ID: id, Count: count}
			if len(fields) > 5 && fields[4] == "centroid" {
				values := make([]float64, len(fields)-5)
				for i, f := range fields[5:] {
					v, err := strconv.ParseFloat(f, 64)
					if err != nil {
						return header, nil, fmt.Errorf("persist: bad centroid value %q: %w", f, generrors.ErrParseError)
					}
					values[i] = v
				}
				summary.Centroid = types.NewQueryView(values)
			}
			out[currentLength] = append(out[currentLength], summary)
		}
	}
	if err := sc.Err(); err != nil {
		return header, nil, fmt.Errorf("persist: scan legacy dump: %w", err)
	}

	return header, out, nil
}

func parseField(line, name string) (float64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != name {
		return 0, fmt.Errorf("persist: expected %q line, got %q: %w", name, line, generrors.ErrParseError)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, fmt.Errorf("persist: bad %s value %q: %w", name, fields[1], generrors.ErrParseError)
	}
	return v, nil
}

func parseItems(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "items" {
		return 0, 0, fmt.Errorf("persist: expected items line, got %q: %w", line, generrors.ErrParseError)
	}
	itemCount, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("persist: bad item count %q: %w", fields[1], generrors.ErrParseError)
	}
	maxLength, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("persist: bad max length %q: %w", fields[2], generrors.ErrParseError)
	}
	return itemCount, maxLength, nil
}

func parseLengths(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "lengths" {
		return 0, 0, fmt.Errorf("persist: expected lengths line, got %q: %w", line, generrors.ErrParseError)
	}
	lo, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("persist: bad lengths lower bound %q: %w", fields[1], generrors.ErrParseError)
	}
	hi, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("persist: bad lengths upper bound %q: %w", fields[2], generrors.ErrParseError)
	}
	return lo, hi, nil
}
