package clades

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/virus-evolution/goclade/pkg/metadata"
	"github.com/virus-evolution/goclade/pkg/mutations"
	"github.com/virus-evolution/goclade/pkg/newick"
)

var errNoTips = errors.New("no tips carry clade label")

// Resolver finds the diagnostic node and mutations of one clade at a time.
// It only reads from the tree, index and table it is given.
type Resolver struct {
	tree     *newick.Tree
	index    *mutations.Index
	table    *metadata.Table
	verifier *Verifier
	observer Observer

	noncomprehensive bool
	skipSingletons   bool
}

// NewResolver restricts table to the tips of t and prepares the cumulative
// mutations of every tip. A nil observer is replaced by NopObserver.
func NewResolver(t *newick.Tree, ix *mutations.Index, table *metadata.Table, opts Options, obs Observer) (*Resolver, error) {
	v, err := NewVerifier(t, ix)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Resolver{
		tree:             t,
		index:            ix,
		table:            table.Restrict(t.HasTip),
		verifier:         v,
		observer:         obs,
		noncomprehensive: opts.Noncomprehensive,
		skipSingletons:   opts.SkipSingletons,
	}, nil
}

// Table returns the metadata table restricted to the tips of the tree
func (r *Resolver) Table() *metadata.Table {
	return r.table
}

// Resolve returns the Result for the tips labelled clade in column. Skips are
// reported in the Result and to the observer; errors are only returned for
// structural problems (a tip or node missing from the tree, a node missing
// from the mutation index).
func (r *Resolver) Resolve(column, clade string) (Result, error) {
	tips := r.table.TipsWith(column, clade)

	var (
		node    int
		inClade []string
		err     error
	)

	switch len(tips) {
	case 0:
		return Result{}, errors.Wrapf(errNoTips, "%s: %s", column, clade)
	case 1:
		if r.skipSingletons {
			return r.skip(skipped(column, clade, Singleton, tips)), nil
		}
		// the tip is its own diagnostic node: there is nothing to be monophyletic with
		if node, err = r.tree.Node(tips[0]); err != nil {
			return Result{}, err
		}
		inClade = tips
	default:
		if node, err = r.tree.LowestCommonAncestor(tips); err != nil {
			return Result{}, err
		}
		inClade = r.tree.DescendantTips(node)
		if res, ok := r.checkMonophyly(column, clade, inClade); !ok {
			return r.skip(res), nil
		}
	}

	nodeName := r.tree.Name(node)
	r.observer.MRCA(column, clade, nodeName)

	rec, err := r.index.MutationsFor(nodeName)
	if err != nil {
		return Result{}, err
	}

	v, err := r.verifier.Verify(node, mutations.NewSet(rec.NT...), inClade)
	if err != nil {
		return Result{}, err
	}
	// an empty set diagnoses nothing
	if !v.Unique() || len(v.NT) == 0 {
		return r.skip(skipped(column, clade, NonUnique, v.Failing)), nil
	}

	res := Result{Column: column, Clade: clade, Node: nodeName, NT: v.NT, AA: rec.AA}
	r.observer.Resolved(res)

	return res, nil
}

// checkMonophyly looks at the labels in column of every tip under the MRCA.
// More than one distinct label means the clade is not monophyletic. Tips with
// no metadata row are ignored if the table is noncomprehensive, otherwise they
// leave the clade unresolved.
func (r *Resolver) checkMonophyly(column, clade string, mrcaTips []string) (Result, bool) {
	labels := make(map[string]bool)
	missing := make([]string, 0)
	for _, tip := range mrcaTips {
		if !r.table.Has(tip) {
			missing = append(missing, tip)
			continue
		}
		if label, ok := r.table.Label(tip, column); ok {
			labels[label] = true
		}
	}

	if len(labels) > 1 {
		delete(labels, clade)
		conflicts := maps.Keys(labels)
		slices.Sort(conflicts)
		return skipped(column, clade, NonMonophyletic, conflicts), false
	}

	if !r.noncomprehensive && len(missing) > 0 {
		slices.Sort(missing)
		return skipped(column, clade, MissingMetadata, missing), false
	}

	return Result{}, true
}

func (r *Resolver) skip(res Result) Result {
	r.observer.Skipped(res)
	return res
}
