package clades

import (
	"github.com/virus-evolution/goclade/pkg/mutations"
	"github.com/virus-evolution/goclade/pkg/newick"
)

// Verifier checks that a clade's mutation set is not carried in full by any tip
// outside the clade, and repairs it from the clade's ancestors when it is
type Verifier struct {
	tree       *newick.Tree
	index      *mutations.Index
	cumulative map[string]mutations.Cumulative
}

// NewVerifier precomputes the cumulative mutations of every tip in t
func NewVerifier(t *newick.Tree, ix *mutations.Index) (*Verifier, error) {
	cumulative, err := ix.CumulativeAll(t)
	if err != nil {
		return nil, err
	}
	return &Verifier{tree: t, index: ix, cumulative: cumulative}, nil
}

// Verification is the outcome of Verify. Failing holds the outside tips that
// still carry every mutation in NT; it is empty when NT is diagnostic.
type Verification struct {
	NT      []string
	Failing []string
}

// Unique reports whether no outside tip carries all of NT
func (v Verification) Unique() bool {
	return len(v.Failing) == 0
}

// Verify checks candidate, the mutations of node, against every tip not in
// inClade. Each outside tip whose cumulative mutations include all of candidate
// is failing. For failing tips, node's ancestors are visited from the parent up
// to the root, and the first ancestor with any mutation that a failing tip
// lacks contributes those mutations to the set and clears that tip. candidate
// is not modified.
func (v *Verifier) Verify(node int, candidate mutations.Set, inClade []string) (Verification, error) {
	muts := make(mutations.Set, len(candidate))
	muts.Add(candidate)

	in := make(map[string]bool, len(inClade))
	for _, tip := range inClade {
		in[tip] = true
	}

	failing := make(map[string]bool)
	for tip, c := range v.cumulative {
		if in[tip] {
			continue
		}
		if muts.SubsetOf(c.NT) {
			failing[tip] = true
		}
	}

	for _, a := range v.tree.Ancestors(node) {
		if len(failing) == 0 {
			break
		}
		rec, err := v.index.MutationsFor(v.tree.Name(a))
		if err != nil {
			return Verification{}, err
		}
		nodeMuts := mutations.NewSet(rec.NT...)
		for tip := range failing {
			diff := nodeMuts.Difference(v.cumulative[tip].NT)
			if len(diff) > 0 {
				muts.Add(diff)
				delete(failing, tip)
			}
		}
	}

	residual := make(mutations.Set, len(failing))
	for tip := range failing {
		residual[tip] = struct{}{}
	}

	return Verification{NT: muts.Sorted(), Failing: residual.Sorted()}, nil
}
