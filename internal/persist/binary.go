package persist

import (
	"bufio"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/group"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/types"
)

const binaryMagic uint32 = 0x47584942 // "GXIB"

// WriteBinary writes every length space in spaces to w, deflate-compressed,
// as: magic, item count, max length, distance name, threshold, band ratio,
// then len(spaces) length-space blocks starting at L=2. Each block holds
// the length, cluster count, and per cluster the id, member count, and the
// (row, start) pair of every member in the order it was added. No centroid
// values are written: the centroid is recomputed from members on load.
func WriteBinary(w io.Writer, itemCount, maxLength int, distanceName string, threshold, bandRatio float64, spaces map[int]*group.LengthSpace) error {
	fw, err := flate.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return fmt.Errorf("persist: open deflate writer: %w", err)
	}
	bw := bufio.NewWriter(fw)

	if err := writeU32(bw, binaryMagic); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(itemCount)); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(maxLength)); err != nil {
		return err
	}
	if err := writeString(bw, distanceName); err != nil {
		return err
	}
	if err := writeF64(bw, threshold); err != nil {
		return err
	}
	if err := writeF64(bw, bandRatio); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(spaces))); err != nil {
		return err
	}

	for length := 2; length < 2+len(spaces); length++ {
		ls, ok := spaces[length]
		if !ok {
			return fmt.Errorf("persist: missing length space %d of %d: %w", length, len(spaces), generrors.ErrInvalidArgument)
		}
		if err := writeLengthSpace(bw, ls); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("persist: flush buffer: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("persist: close deflate writer: %w", err)
	}
	return nil
}

func writeLengthSpace(w io.Writer, ls *group.LengthSpace) error {
	if err := writeU32(w, uint32(ls.Length)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(ls.Clusters))); err != nil {
		return err
	}
	for _, cl := range ls.Clusters {
		if err := writeU32(w, uint32(cl.ID)); err != nil {
			return err
		}
		members := ls.ClusterMembers(cl)
		if err := writeU32(w, uint32(len(members))); err != nil {
			return err
		}
		for _, rs := range members {
			if err := writeU32(w, uint32(rs[0])); err != nil {
				return err
			}
			if err := writeU32(w, uint32(rs[1])); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeU32(w io.Writer, v uint32) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("persist: write header field: %w", err)
	}
	return nil
}

func writeF64(w io.Writer, v float64) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("persist: write header field: %w", err)
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("persist: write string field: %w", err)
	}
	return nil
}

// BinaryHeader is the parsed file-level header of a binary dump, read
// without materializing cluster membership, for quick inspection.
type BinaryHeader struct {
	ItemCount    int
	MaxLength    int
	DistanceName string
	Threshold    float64
	BandRatio    float64
	SpaceCount   int
}

// ClusterDump is one cluster as read back from a binary dump: its id and
// the ordered (row, start) pairs of every member. The centroid is not
// carried on the wire; RestoreBinary recomputes it from these members
// against the target dataset.
type ClusterDump struct {
	ID      int
	Members [][2]int
}

// ReadBinary parses a binary dump written by WriteBinary, returning the
// header and every cluster's membership, grouped by length.
func ReadBinary(r io.Reader) (BinaryHeader, map[int][]ClusterDump, error) {
	fr := flate.NewReader(r)
	defer fr.Close()
	br := bufio.NewReader(fr)

	magic, err := readU32(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	if magic != binaryMagic {
		return BinaryHeader{}, nil, fmt.Errorf("persist: bad magic %x: %w", magic, generrors.ErrParseError)
	}

	itemCount, err := readU32(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	maxLength, err := readU32(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	distanceName, err := readString(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	threshold, err := readF64(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	bandRatio, err := readF64(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}
	spaceCount, err := readU32(br)
	if err != nil {
		return BinaryHeader{}, nil, err
	}

	header := BinaryHeader{
		ItemCount:    int(itemCount),
		MaxLength:    int(maxLength),
		DistanceName: distanceName,
		Threshold:    threshold,
		BandRatio:    bandRatio,
		SpaceCount:   int(spaceCount),
	}
	out := make(map[int][]ClusterDump, spaceCount)

	for i := uint32(0); i < spaceCount; i++ {
		length, err := readU32(br)
		if err != nil {
			return header, nil, err
		}
		clusterCount, err := readU32(br)
		if err != nil {
			return header, nil, err
		}

		clusters := make([]ClusterDump, 0, clusterCount)
		for c := uint32(0); c < clusterCount; c++ {
			id, err := readU32(br)
			if err != nil {
				return header, nil, err
			}
			memberCount, err := readU32(br)
			if err != nil {
				return header, nil, err
			}
			members := make([][2]int, memberCount)
			for m := range members {
				row, err := readU32(br)
				if err != nil {
					return header, nil, err
				}
				start, err := readU32(br)
				if err != nil {
					return header, nil, err
				}
				members[m] = [2]int{int(row), int(start)}
			}
			clusters = append(clusters, ClusterDump{ID: int(id), Members: members})
		}
		out[int(length)] = clusters
	}

	return header, out, nil
}

// RestoreBinary parses a binary dump and rebuilds a queryable index.Index
// bound to block, recomputing every cluster's centroid from its persisted
// members. queryDefaults supplies the K/H/NumThreads a caller wants at
// query time; Threshold, Distance, and WarpingBandRatio are always taken
// from the dump, since the persisted cluster membership is only valid
// under the parameters it was built with. Returns ErrIncompatibleIndex if
// block's item count or max length does not match the dump's header.
func RestoreBinary(r io.Reader, block *types.SampleBlock, registry *distance.Registry, metricsReg *metrics.Registry, queryDefaults config.EngineConfig) (*index.Index, error) {
	header, dumps, err := ReadBinary(r)
	if err != nil {
		return nil, err
	}
	if header.ItemCount != block.ItemCount() || header.MaxLength != block.MaxLength() {
		return nil, fmt.Errorf("persist: restore dataset mismatch (items %d vs dump %d, max length %d vs dump %d): %w",
			block.ItemCount(), header.ItemCount, block.MaxLength(), header.MaxLength, generrors.ErrIncompatibleIndex)
	}

	m, isDTW, err := registry.Lookup(header.DistanceName)
	if err != nil {
		return nil, err
	}

	spaces := make(map[int]*group.LengthSpace, len(dumps))
	for length, clusters := range dumps {
		restoreClusters := make([]group.RestoreCluster, len(clusters))
		for i, c := range clusters {
			restoreClusters[i] = group.RestoreCluster{ID: c.ID, Members: c.Members}
		}
		ls, err := group.Restore(block, length, m, isDTW, header.Threshold, header.BandRatio, restoreClusters)
		if err != nil {
			return nil, err
		}
		spaces[length] = ls
	}

	cfg := queryDefaults
	cfg.Threshold = header.Threshold
	cfg.Distance = header.DistanceName
	cfg.WarpingBandRatio = header.BandRatio
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ix := index.New(registry, metricsReg)
	ix.Restore(spaces, cfg, m, isDTW)
	return ix, nil
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("persist: read header field: %w", err)
	}
	return v, nil
}

func readF64(r io.Reader) (float64, error) {
	var v float64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("persist: read header field: %w", err)
	}
	return v, nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("persist: read string field: %w", err)
	}
	return string(buf), nil
}
