/*
Package clades finds, for each clade in a tip-to-clade table, the node of a
tree whose mutations diagnose that clade. A clade is only called if it is
monophyletic and if no tip outside it carries every one of its mutations.
*/
package clades

import (
	"github.com/virus-evolution/goclade/pkg/mutations"
)

// SkipReason says why a clade was not called
type SkipReason string

const (
	// Singleton clades have a single tip and singletons are being skipped
	Singleton SkipReason = "singleton"
	// NonMonophyletic clades share their MRCA with tips labelled as another clade
	NonMonophyletic SkipReason = "non_monophyletic"
	// NonUnique clades have no mutation set, derivable from their ancestors,
	// that some outside tip does not also carry
	NonUnique SkipReason = "non_unique"
	// MissingMetadata clades have tips under their MRCA with no metadata row,
	// and the table was declared comprehensive
	MissingMetadata SkipReason = "missing_metadata"
)

// Result is the outcome for one (clade column, clade) pair. If Skip is empty,
// Node, NT and AA describe the diagnostic node. Otherwise Detail holds the
// labels, tips or names that caused the skip.
type Result struct {
	Column string
	Clade  string
	Node   string
	NT     []string
	AA     []mutations.ProteinMutations
	Skip   SkipReason
	Detail []string
}

// OK reports whether the clade was called
func (r Result) OK() bool {
	return r.Skip == ""
}

func skipped(column, clade string, reason SkipReason, detail []string) Result {
	return Result{Column: column, Clade: clade, Skip: reason, Detail: detail}
}

// Accepted returns the called results, one per clade label. A label that is
// called under more than one clade column keeps the position of its first
// call and the mutations of its last. The later call's amino acid list
// replaces the earlier one as a whole; proteins are not merged.
func Accepted(results []Result) []Result {
	accepted := make([]Result, 0, len(results))
	position := make(map[string]int)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if i, ok := position[r.Clade]; ok {
			accepted[i] = r
			continue
		}
		position[r.Clade] = len(accepted)
		accepted = append(accepted, r)
	}
	return accepted
}

// Observer receives progress from a Resolver. Its methods may be called from
// several goroutines at once when clades are resolved concurrently.
type Observer interface {
	MRCA(column, clade, node string)
	Resolved(r Result)
	Skipped(r Result)
}

// NopObserver ignores everything
type NopObserver struct{}

func (NopObserver) MRCA(column, clade, node string) {}
func (NopObserver) Resolved(r Result)               {}
func (NopObserver) Skipped(r Result)                {}
