/*
Package mutations provides an index of the mutations that an ancestral
reconstruction places on each branch of a tree, read from augur-style
node-data json files (nt_muts.json and aa_muts.json)
*/
package mutations

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/virus-evolution/goclade/pkg/newick"
)

var (
	ErrMissingAnnotation = errors.New("node has no mutation annotation")
	errNoNodes           = errors.New("no \"nodes\" object in mutation json")
)

// Set is a set of mutation codes
type Set map[string]struct{}

// NewSet makes a Set from a slice of mutation codes
func NewSet(muts ...string) Set {
	s := make(Set, len(muts))
	for _, m := range muts {
		s[m] = struct{}{}
	}
	return s
}

// Add adds every member of other to s
func (s Set) Add(other Set) {
	for m := range other {
		s[m] = struct{}{}
	}
}

// Has reports whether m is in s
func (s Set) Has(m string) bool {
	_, ok := s[m]
	return ok
}

// SubsetOf reports whether every member of s is also in other
func (s Set) SubsetOf(other Set) bool {
	for m := range s {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

// Difference returns the members of s that are not in other
func (s Set) Difference(other Set) Set {
	d := make(Set)
	for m := range s {
		if !other.Has(m) {
			d[m] = struct{}{}
		}
	}
	return d
}

// Sorted returns the members of s in lexicographic order
func (s Set) Sorted() []string {
	keys := maps.Keys(s)
	slices.Sort(keys)
	return keys
}

// ProteinMutations is the list of amino acid changes on one branch in one protein
type ProteinMutations struct {
	Protein string
	Muts    []string
}

// proteinList keeps the proteins of an "aa_muts" object in the order they
// appear in the json
type proteinList []ProteinMutations

func (pl *proteinList) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*pl = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("expected an object for aa_muts, got %v", tok)
	}

	list := make(proteinList, 0)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		prot, ok := tok.(string)
		if !ok {
			return errors.Errorf("bad protein name %v in aa_muts", tok)
		}
		var muts []string
		if err = dec.Decode(&muts); err != nil {
			return errors.Wrapf(err, "aa_muts for protein %s", prot)
		}
		list = append(list, ProteinMutations{Protein: prot, Muts: muts})
	}
	if _, err = dec.Token(); err != nil {
		return err
	}

	*pl = list
	return nil
}

type ntNodeData struct {
	Nodes map[string]struct {
		Muts []string `json:"muts"`
	} `json:"nodes"`
}

type aaNodeData struct {
	Nodes map[string]struct {
		AAMuts proteinList `json:"aa_muts"`
	} `json:"nodes"`
}

// Record holds the mutations on the branch leading to one node
type Record struct {
	NT []string
	AA []ProteinMutations
}

// Index maps node names to the mutations on the branch leading to them. An
// Index is read once and never modified.
type Index struct {
	nt map[string][]string
	aa map[string][]ProteinMutations
}

// ReadIndex reads nucleotide mutations from nt and, if aa is not nil, amino
// acid mutations from aa
func ReadIndex(nt io.Reader, aa io.Reader) (*Index, error) {
	var ntData ntNodeData
	if err := json.NewDecoder(nt).Decode(&ntData); err != nil {
		return nil, errors.Wrap(err, "reading nucleotide mutation json")
	}
	if ntData.Nodes == nil {
		return nil, errors.Wrap(errNoNodes, "nucleotide mutation json")
	}

	ix := &Index{nt: make(map[string][]string, len(ntData.Nodes))}
	for name, n := range ntData.Nodes {
		if n.Muts == nil {
			n.Muts = make([]string, 0)
		}
		ix.nt[name] = n.Muts
	}

	if aa == nil {
		return ix, nil
	}

	var aaData aaNodeData
	if err := json.NewDecoder(aa).Decode(&aaData); err != nil {
		return nil, errors.Wrap(err, "reading amino acid mutation json")
	}
	if aaData.Nodes == nil {
		return nil, errors.Wrap(errNoNodes, "amino acid mutation json")
	}

	ix.aa = make(map[string][]ProteinMutations, len(aaData.Nodes))
	for name, n := range aaData.Nodes {
		ix.aa[name] = n.AAMuts
	}

	return ix, nil
}

// HasAA reports whether amino acid mutations were loaded
func (ix *Index) HasAA() bool {
	return ix.aa != nil
}

// MutationsFor returns the mutations on the branch leading to the named node
func (ix *Index) MutationsFor(name string) (Record, error) {
	nt, ok := ix.nt[name]
	if !ok {
		return Record{}, errors.Wrapf(ErrMissingAnnotation, "%q (nucleotide)", name)
	}
	rec := Record{NT: nt}
	if ix.aa != nil {
		aa, ok := ix.aa[name]
		if !ok {
			return Record{}, errors.Wrapf(ErrMissingAnnotation, "%q (amino acid)", name)
		}
		rec.AA = aa
	}
	return rec, nil
}

// Cumulative is every mutation a tip carries: the union of the mutations on
// every branch between the tip and the root
type Cumulative struct {
	NT Set
	AA map[string]Set
}

// CumulativeFor returns the cumulative mutations of the named tip
func (ix *Index) CumulativeFor(t *newick.Tree, tip string) (Cumulative, error) {
	n, err := t.Node(tip)
	if err != nil {
		return Cumulative{}, err
	}

	c := Cumulative{NT: make(Set), AA: make(map[string]Set)}
	for _, a := range t.PathToRoot(n) {
		rec, err := ix.MutationsFor(t.Name(a))
		if err != nil {
			return Cumulative{}, err
		}
		c.NT.Add(NewSet(rec.NT...))
		for _, pm := range rec.AA {
			if _, ok := c.AA[pm.Protein]; !ok {
				c.AA[pm.Protein] = make(Set)
			}
			c.AA[pm.Protein].Add(NewSet(pm.Muts...))
		}
	}

	return c, nil
}

// CumulativeAll returns the cumulative mutations of every tip in the tree, keyed by tip name
func (ix *Index) CumulativeAll(t *newick.Tree) (map[string]Cumulative, error) {
	tips := t.Tips()
	all := make(map[string]Cumulative, len(tips))
	for _, tip := range tips {
		c, err := ix.CumulativeFor(t, tip)
		if err != nil {
			return nil, err
		}
		all[tip] = c
	}
	return all, nil
}
