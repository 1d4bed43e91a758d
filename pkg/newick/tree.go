/*
Package newick provides a reader for newick format phylogenetic trees and an
immutable, name-indexed representation of the parsed tree
*/
package newick

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("node not found in tree")
	ErrEmptyTips = errors.New("no tips given")
)

// node is one entry in the tree's arena. parent is -1 for the root.
type node struct {
	name     string
	parent   int
	children []int
}

// Tree is a rooted tree whose nodes are stored in an arena and addressed by
// integer index. The root is always index 0. A Tree is never modified after
// it has been read.
type Tree struct {
	nodes  []node
	byName map[string]int
	tips   []int
}

// Root returns the index of the root node
func (t *Tree) Root() int {
	return 0
}

// Len returns the number of nodes in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Name returns the name of node n
func (t *Tree) Name(n int) string {
	return t.nodes[n].name
}

// IsTip reports whether node n has no children
func (t *Tree) IsTip(n int) bool {
	return len(t.nodes[n].children) == 0
}

// Children returns the indices of node n's children
func (t *Tree) Children(n int) []int {
	return t.nodes[n].children
}

// Tips returns the names of all the tips, in the order they appear in the newick string
func (t *Tree) Tips() []string {
	names := make([]string, len(t.tips))
	for i, n := range t.tips {
		names[i] = t.nodes[n].name
	}
	return names
}

// HasTip reports whether name is the name of a tip in the tree
func (t *Tree) HasTip(name string) bool {
	n, ok := t.byName[name]
	return ok && t.IsTip(n)
}

// Node returns the index of the node called name
func (t *Tree) Node(name string) (int, error) {
	n, ok := t.byName[name]
	if !ok {
		return -1, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return n, nil
}

// Parent returns the index of node n's parent. ok is false for the root.
func (t *Tree) Parent(n int) (parent int, ok bool) {
	p := t.nodes[n].parent
	return p, p >= 0
}

// Ancestors returns every node between n's parent and the root, inclusive, nearest first
func (t *Tree) Ancestors(n int) []int {
	ancestors := make([]int, 0)
	for p := t.nodes[n].parent; p >= 0; p = t.nodes[p].parent {
		ancestors = append(ancestors, p)
	}
	return ancestors
}

// PathToRoot returns n followed by all of its ancestors
func (t *Tree) PathToRoot(n int) []int {
	return append([]int{n}, t.Ancestors(n)...)
}

func (t *Tree) depth(n int) int {
	d := 0
	for p := t.nodes[n].parent; p >= 0; p = t.nodes[p].parent {
		d++
	}
	return d
}

// lca2 walks the deeper of two nodes up until both are at the same depth, then
// walks both up together until they meet
func (t *Tree) lca2(a, b int) int {
	da, db := t.depth(a), t.depth(b)
	for da > db {
		a = t.nodes[a].parent
		da--
	}
	for db > da {
		b = t.nodes[b].parent
		db--
	}
	for a != b {
		a = t.nodes[a].parent
		b = t.nodes[b].parent
	}
	return a
}

// LowestCommonAncestor returns the index of the deepest node that is an ancestor
// of (or equal to) every named node. For a single name this is that node itself.
func (t *Tree) LowestCommonAncestor(names []string) (int, error) {
	if len(names) == 0 {
		return -1, ErrEmptyTips
	}
	lca, err := t.Node(names[0])
	if err != nil {
		return -1, err
	}
	for _, name := range names[1:] {
		n, err := t.Node(name)
		if err != nil {
			return -1, err
		}
		lca = t.lca2(lca, n)
	}
	return lca, nil
}

// DescendantTips returns the names of all the tips below node n (n itself if it
// is a tip), in newick order
func (t *Tree) DescendantTips(n int) []string {
	names := make([]string, 0)
	stack := []int{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.IsTip(cur) {
			names = append(names, t.nodes[cur].name)
			continue
		}
		children := t.Children(cur)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return names
}
