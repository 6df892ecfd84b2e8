package persist

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/group"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/retrieval"
	"github.com/genexlabs/genex/internal/types"
)

func buildTestBlock(t *testing.T) *types.SampleBlock {
	t.Helper()
	block := types.NewSampleBlock(3, 4)
	rows := [][]float64{
		{0, 1, 2, 3},
		{0, 1, 2, 3.01},
		{10, 11, 12, 13},
	}
	for i, r := range rows {
		block.Lengths[i] = len(r)
		copy(block.Row(i), r)
	}
	return block
}

func buildSpaces(t *testing.T) (map[int]*group.LengthSpace, *types.SampleBlock) {
	t.Helper()
	block := buildTestBlock(t)

	spaces := make(map[int]*group.LengthSpace)
	for length := 2; length <= 4; length++ {
		ls, err := group.Build(block, length, distance.Euclidean{}, false, 0.5, 0.1)
		if err != nil {
			t.Fatal(err)
		}
		spaces[length] = ls
	}
	return spaces, block
}

func TestBinaryRoundTrip(t *testing.T) {
	spaces, block := buildSpaces(t)

	var buf bytes.Buffer
	if err := WriteBinary(&buf, block.ItemCount(), block.MaxLength(), "euclidean", 0.5, 0.1, spaces); err != nil {
		t.Fatal(err)
	}

	header, read, err := ReadBinary(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if header.ItemCount != block.ItemCount() || header.MaxLength != block.MaxLength() {
		t.Errorf("header mismatch: %+v", header)
	}
	if header.DistanceName != "euclidean" || header.Threshold != 0.5 || header.BandRatio != 0.1 {
		t.Errorf("header build params mismatch: %+v", header)
	}
	if header.SpaceCount != len(spaces) {
		t.Errorf("space count = %d, want %d", header.SpaceCount, len(spaces))
	}
	for length, ls := range spaces {
		dumps, ok := read[length]
		if !ok {
			t.Fatalf("missing length %d in round trip", length)
		}
		if len(dumps) != len(ls.Clusters) {
			t.Fatalf("length %d: got %d clusters, want %d", length, len(dumps), len(ls.Clusters))
		}
		for i, cl := range ls.Clusters {
			if dumps[i].ID != cl.ID {
				t.Errorf("length %d cluster %d id: got %d, want %d", length, i, dumps[i].ID, cl.ID)
			}
			want := ls.ClusterMembers(cl)
			got := dumps[i].Members
			if len(got) != len(want) {
				t.Fatalf("length %d cluster %d: got %d members, want %d", length, i, len(got), len(want))
			}
			for j := range want {
				if got[j] != want[j] {
					t.Errorf("length %d cluster %d member %d: got %v, want %v", length, i, j, got[j], want[j])
				}
			}
		}
	}
}

// TestRestoreBinaryMatchesOriginalIndex reproduces scenario 6: build, persist,
// restore into a second engine bound to the same dataset, and confirm the
// restored index answers a query identically to the one that built it.
func TestRestoreBinaryMatchesOriginalIndex(t *testing.T) {
	block := buildTestBlock(t)
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 0.5
	cfg.WarpingBandRatio = 0.1

	registry := distance.NewRegistry()
	ix := index.New(registry, nil)
	if _, err := ix.Build(context.Background(), block, cfg, nil); err != nil {
		t.Fatal(err)
	}

	spaces := make(map[int]*group.LengthSpace)
	for length := 2; length <= block.MaxLength(); length++ {
		if ls, ok := ix.LengthSpace(length); ok {
			spaces[length] = ls
		}
	}

	var buf bytes.Buffer
	if err := WriteBinary(&buf, block.ItemCount(), block.MaxLength(), cfg.Distance, cfg.Threshold, cfg.WarpingBandRatio, spaces); err != nil {
		t.Fatal(err)
	}

	restored, err := RestoreBinary(&buf, block, registry, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}

	query := []float64{0, 1, 2, 3}
	want, err := retrieval.BestMatch(context.Background(), ix, query, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := retrieval.BestMatch(context.Background(), restored, query, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.View.Index != want.View.Index || got.View.Start != want.View.Start {
		t.Fatalf("restored best match = %s, want %s", got.View.ID(), want.View.ID())
	}
	if diff := got.Dist - want.Dist; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("restored best match dist = %v, want %v", got.Dist, want.Dist)
	}
}

// TestRestoreBinaryRejectsIncompatibleDataset reproduces scenario 8: restoring
// a dump against a dataset with a different item count must fail with
// ErrIncompatibleIndex rather than silently building a mismatched index.
func TestRestoreBinaryRejectsIncompatibleDataset(t *testing.T) {
	spaces, block := buildSpaces(t)

	var buf bytes.Buffer
	if err := WriteBinary(&buf, block.ItemCount(), block.MaxLength(), "euclidean", 0.5, 0.1, spaces); err != nil {
		t.Fatal(err)
	}

	otherBlock := types.NewSampleBlock(5, 4)
	for i := 0; i < 5; i++ {
		otherBlock.Lengths[i] = 4
	}

	registry := distance.NewRegistry()
	_, err := RestoreBinary(&buf, otherBlock, registry, nil, config.DefaultEngineConfig())
	if !errors.Is(err, generrors.ErrIncompatibleIndex) {
		t.Fatalf("expected ErrIncompatibleIndex, got %v", err)
	}
}

func TestLegacyTextLengthRangeIsOffByOneFromBinary(t *testing.T) {
	spaces, block := buildSpaces(t)

	var buf bytes.Buffer
	if err := WriteLegacyText(&buf, block.ItemCount(), block.MaxLength(), 0.5, spaces, true); err != nil {
		t.Fatal(err)
	}

	header, read, err := ReadLegacyText(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if header.ItemCount != block.ItemCount() || header.MaxLength != block.MaxLength() {
		t.Errorf("legacy header item/length mismatch: %+v", header)
	}
	if header.LengthLow != 2 || header.LengthHigh != len(spaces)+1 {
		t.Fatalf("legacy header range = [%d,%d), want [2,%d)", header.LengthLow, header.LengthHigh, len(spaces)+1)
	}
	// The legacy format covers one fewer length slot than the binary
	// format (len(spaces) slots starting at 2), so the longest built
	// length space is absent here.
	maxBuilt := len(spaces) + 1
	if _, ok := read[maxBuilt]; ok {
		t.Fatalf("legacy dump should not contain length %d, the binary-only slot", maxBuilt)
	}
	if _, ok := read[2]; !ok {
		t.Fatal("legacy dump should contain length 2")
	}
}

func TestLegacyHeaderCheckCompatibleRejectsMismatch(t *testing.T) {
	spaces, block := buildSpaces(t)

	var buf bytes.Buffer
	if err := WriteLegacyText(&buf, block.ItemCount(), block.MaxLength(), 0.5, spaces, false); err != nil {
		t.Fatal(err)
	}
	header, _, err := ReadLegacyText(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := header.CheckCompatible(block.ItemCount(), block.MaxLength()); err != nil {
		t.Errorf("expected matching dataset to be compatible, got %v", err)
	}
	if err := header.CheckCompatible(block.ItemCount()+1, block.MaxLength()); !errors.Is(err, generrors.ErrIncompatibleIndex) {
		t.Errorf("expected ErrIncompatibleIndex for item count mismatch, got %v", err)
	}
}

func TestReadLegacyTextRejectsBadVersion(t *testing.T) {
	_, _, err := ReadLegacyText(bytes.NewBufferString("NOT-A-GENEX-DUMP\n"))
	if err == nil {
		t.Fatal("expected error for unrecognized version")
	}
}
