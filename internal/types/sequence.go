package types

import (
	"fmt"
	"math"

	"github.com/genexlabs/genex/internal/generrors"
)

// EqualityEpsilon is the tolerance used for value comparisons between
// sequence views.
const EqualityEpsilon = 1e-12

// ownership distinguishes a view that only borrows a SampleBlock's backing
// storage from one that owns a private buffer (used by centroid
// accumulators). Collapsing the distinction into a single enum, rather than
// a nullable raw pointer that gets cleared on move, removes the
// move-assignment ownership hazard noted for the original implementation.
type ownership int

const (
	// Borrowed views never allocate; Values aliases the owning SampleBlock.
	Borrowed ownership = iota
	// Owned views hold a private buffer, used for centroid sums.
	Owned
)

// SequenceView identifies a contiguous subsequence [Start, End) of row Index
// within a SampleBlock, or (when Owned) a private accumulator buffer of the
// same shape. A view never allocates on construction unless explicitly
// created as owned.
type SequenceView struct {
	block     *SampleBlock
	own       ownership
	ownValues []float64

	Index int
	Start int
	End   int
}

// NewView constructs a borrowed view over block for row index, subsequence
// [start, start+length). Returns OutOfRange if the window falls outside the
// row's logical bounds.
func NewView(block *SampleBlock, index, start, length int) (SequenceView, error) {
	if index < 0 || index >= block.ItemCount() {
		return SequenceView{}, fmt.Errorf("view row %d: %w", index, generrors.ErrOutOfRange)
	}
	end := start + length
	if start < 0 || length <= 0 || end > block.Lengths[index] {
		return SequenceView{}, fmt.Errorf("view [%d,%d) on row %d (len %d): %w", start, end, index, block.Lengths[index], generrors.ErrOutOfRange)
	}
	return SequenceView{block: block, own: Borrowed, Index: index, Start: start, End: end}, nil
}

// NewOwnedView allocates a zero-initialized owned view of the given length,
// used by centroid accumulators. Index/Start/End identify the seed member
// that the centroid was created from, for diagnostics; they do not bound
// the owned buffer.
func NewOwnedView(index, start, length int) SequenceView {
	return SequenceView{
		own:       Owned,
		ownValues: make([]float64, length),
		Index:     index,
		Start:     start,
		End:       start + length,
	}
}

// NewQueryView wraps an ad hoc query vector (not backed by any
// SampleBlock, such as one supplied directly by a caller) as an owned
// view so it can be passed anywhere a SequenceView is expected.
func NewQueryView(values []float64) SequenceView {
	return SequenceView{
		own:       Owned,
		ownValues: append([]float64(nil), values...),
		End:       len(values),
	}
}

// Length returns the number of samples in the view.
func (v SequenceView) Length() int {
	if v.own == Owned {
		return len(v.ownValues)
	}
	return v.End - v.Start
}

// Values returns the view's samples. For borrowed views this aliases the
// backing SampleBlock; callers must not mutate the result.
func (v SequenceView) Values() []float64 {
	if v.own == Owned {
		return v.ownValues
	}
	row := v.block.Row(v.Index)
	return row[v.Start:v.End]
}

// At returns the i-th sample, bounds-checked.
func (v SequenceView) At(i int) (float64, error) {
	if i < 0 || i >= v.Length() {
		return 0, fmt.Errorf("index %d into view of length %d: %w", i, v.Length(), generrors.ErrOutOfRange)
	}
	return v.Values()[i], nil
}

// IsOwned reports whether the view holds a private buffer.
func (v SequenceView) IsOwned() bool {
	return v.own == Owned
}

// ID renders the view's pretty identifier, "<index> [<start>, <end>)".
func (v SequenceView) ID() string {
	return fmt.Sprintf("%d [%d, %d)", v.Index, v.Start, v.End)
}

// Equal reports whether two views of equal length have pointwise-equal
// values within EqualityEpsilon.
func (v SequenceView) Equal(other SequenceView) bool {
	if v.Length() != other.Length() {
		return false
	}
	a, b := v.Values(), other.Values()
	for i := range a {
		if math.Abs(a[i]-b[i]) > EqualityEpsilon {
			return false
		}
	}
	return true
}

// Less provides the tie-break total order used throughout retrieval:
// lexicographic on (Index, Start, Length).
func (v SequenceView) Less(other SequenceView) bool {
	if v.Index != other.Index {
		return v.Index < other.Index
	}
	if v.Start != other.Start {
		return v.Start < other.Start
	}
	return v.Length() < other.Length()
}

// AddInPlace adds other's values into an owned view pointwise. Used
// exclusively by centroid accumulation. Returns LengthMismatch if the
// lengths differ, and InvalidArgument if the receiver is not owned.
func (v SequenceView) AddInPlace(other SequenceView) error {
	if v.own != Owned {
		return fmt.Errorf("AddInPlace requires an owned view: %w", generrors.ErrInvalidArgument)
	}
	if v.Length() != other.Length() {
		return fmt.Errorf("centroid accumulation length %d vs %d: %w", v.Length(), other.Length(), generrors.ErrLengthMismatch)
	}
	b := other.Values()
	for i := range v.ownValues {
		v.ownValues[i] += b[i]
	}
	return nil
}

// Scale multiplies every value of an owned view by s in place, used to turn
// a running sum into a mean.
func (v SequenceView) Scale(s float64) {
	for i := range v.ownValues {
		v.ownValues[i] *= s
	}
}

// Clone returns an independent owned copy of the view's values.
func (v SequenceView) Clone() SequenceView {
	values := append([]float64(nil), v.Values()...)
	return SequenceView{own: Owned, ownValues: values, Index: v.Index, Start: v.Start, End: v.End}
}
