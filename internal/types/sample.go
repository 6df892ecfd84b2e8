// Package types holds the core data model shared across the engine: the
// dense sample block that backs a dataset, windowed sequence views over it,
// and the result shapes returned by retrieval.
package types

import "fmt"

// SampleBlock is a dense, row-major, rectangular buffer of float64 values.
// Row i occupies Values[i*Stride : i*Stride+Lengths[i]]; Stride equals the
// longest row so ragged rows simply leave trailing slots unused. A
// SampleBlock is immutable after Load. Centroid accumulation (the group
// package's Cluster.absorb) mutates only owned centroid buffers, never a
// loaded block.
type SampleBlock struct {
	Values  []float64
	Lengths []int
	Stride  int
}

// NewSampleBlock allocates a zeroed block for itemCount rows of at most
// maxLength values each.
func NewSampleBlock(itemCount, maxLength int) *SampleBlock {
	return &SampleBlock{
		Values:  make([]float64, itemCount*maxLength),
		Lengths: make([]int, itemCount),
		Stride:  maxLength,
	}
}

// ItemCount returns the number of rows in the block.
func (b *SampleBlock) ItemCount() int {
	return len(b.Lengths)
}

// MaxLength returns the stride, i.e. the longest row length.
func (b *SampleBlock) MaxLength() int {
	return b.Stride
}

// Row returns the backing slice for row i, truncated to its logical length.
func (b *SampleBlock) Row(i int) []float64 {
	start := i * b.Stride
	return b.Values[start : start+b.Lengths[i]]
}

// SubSeqCount returns the number of distinct subsequences of length L
// available within row i: itemLength - L + 1, or 0 if L exceeds the row.
func (b *SampleBlock) SubSeqCount(row, length int) int {
	n := b.Lengths[row] - length + 1
	if n < 0 {
		return 0
	}
	return n
}

func (b *SampleBlock) String() string {
	return fmt.Sprintf("SampleBlock{items=%d, maxLength=%d}", b.ItemCount(), b.Stride)
}
