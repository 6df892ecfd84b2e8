package distance

import (
	"fmt"
	"strings"

	"github.com/genexlabs/genex/internal/generrors"
)

// Registry maps distance names to Metric objects. It is constructed once at
// engine initialization and passed by reference into the global index,
// rather than kept as a process-wide singleton, so multiple engines in the
// same process can never observe one another's state.
type Registry struct {
	metrics map[string]Metric
}

// NewRegistry builds a registry with the five built-in metrics registered
// under their plain names. The "<name>_dtw" suffix is resolved dynamically
// by Lookup rather than stored as separate entries.
func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]Metric, 5)}
	for _, m := range []Metric{Euclidean{}, Manhattan{}, Chebyshev{}, Cosine{}, Sorensen{}} {
		r.metrics[m.Name()] = m
	}
	return r
}

// Lookup resolves a distance name, e.g. "euclidean" or "euclidean_dtw". The
// boolean return reports whether the name carried the "_dtw" suffix,
// signaling that warped (banded DTW) comparison should be used instead of
// plain pairwise comparison. Returns ErrUnknownDistance for unregistered
// names.
func (r *Registry) Lookup(name string) (Metric, bool, error) {
	isDTW := strings.HasSuffix(name, "_dtw")
	base := strings.TrimSuffix(name, "_dtw")
	m, ok := r.metrics[base]
	if !ok {
		return nil, false, fmt.Errorf("%q: %w", name, generrors.ErrUnknownDistance)
	}
	return m, isDTW, nil
}

// Names returns the registered base metric names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	return names
}
