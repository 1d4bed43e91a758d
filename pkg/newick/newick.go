package newick

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

var (
	errEmptyNewick     = errors.New("empty newick input")
	errUnterminated    = errors.New("newick string is not terminated by ';'")
	errUnbalanced      = errors.New("unbalanced parentheses in newick string")
	errUnexpectedComma = errors.New("unexpected ',' outside of parentheses in newick string")
	errUnclosedQuote   = errors.New("unclosed quote in newick label")
	errUnclosedComment = errors.New("unclosed comment in newick string")
	errUnnamedNode     = errors.New("unnamed node in newick string: every node needs a name")
	errDuplicateName   = errors.New("duplicate node name in newick string")
)

// parser holds the raw newick bytes and the read position
type parser struct {
	buf []byte
	pos int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isDelim reports whether c ends an unquoted label or a branch length
func isDelim(c byte) bool {
	switch c {
	case '(', ')', ',', ':', ';', '[':
		return true
	}
	return isSpace(c)
}

// skip moves past whitespace and [bracketed comments]
func (p *parser) skip() error {
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '[':
			end := p.pos + 1
			for end < len(p.buf) && p.buf[end] != ']' {
				end++
			}
			if end == len(p.buf) {
				return errUnclosedComment
			}
			p.pos = end + 1
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) readQuoted(q byte) (string, error) {
	label := make([]byte, 0)
	p.pos++
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if c == q {
			// a doubled single quote is an escaped quote
			if q == '\'' && p.pos+1 < len(p.buf) && p.buf[p.pos+1] == '\'' {
				label = append(label, '\'')
				p.pos += 2
				continue
			}
			p.pos++
			return string(label), nil
		}
		label = append(label, c)
		p.pos++
	}
	return "", errUnclosedQuote
}

func (p *parser) readBare() string {
	start := p.pos
	for p.pos < len(p.buf) && !isDelim(p.buf[p.pos]) {
		p.pos++
	}
	return string(p.buf[start:p.pos])
}

func (p *parser) readLabel() (string, error) {
	switch p.buf[p.pos] {
	case '\'', '"':
		return p.readQuoted(p.buf[p.pos])
	}
	return p.readBare(), nil
}

func (t *Tree) newNode(parent int) int {
	t.nodes = append(t.nodes, node{parent: parent, children: make([]int, 0)})
	n := len(t.nodes) - 1
	if parent >= 0 {
		t.nodes[parent].children = append(t.nodes[parent].children, n)
	}
	return n
}

// ReadTree reads one newick format tree from r. Every node, internal or tip,
// must be named, and names must be unique.
func ReadTree(r io.Reader) (*Tree, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p := &parser{buf: buf}
	if err = p.skip(); err != nil {
		return nil, err
	}
	if p.pos == len(p.buf) {
		return nil, errEmptyNewick
	}

	t := &Tree{nodes: make([]node, 0)}
	cur := t.newNode(-1)
	named := make(map[int]bool)

	for terminated := false; !terminated; {
		if err = p.skip(); err != nil {
			return nil, err
		}
		if p.pos == len(p.buf) {
			return nil, errUnterminated
		}

		switch c := p.buf[p.pos]; c {
		case '(':
			p.pos++
			cur = t.newNode(cur)
		case ',':
			p.pos++
			parent := t.nodes[cur].parent
			if parent < 0 {
				return nil, errUnexpectedComma
			}
			cur = t.newNode(parent)
		case ')':
			p.pos++
			parent := t.nodes[cur].parent
			if parent < 0 {
				return nil, errUnbalanced
			}
			cur = parent
		case ';':
			p.pos++
			if cur != t.Root() {
				return nil, errUnbalanced
			}
			terminated = true
		case ':':
			p.pos++
			if err = p.skip(); err != nil {
				return nil, err
			}
			s := p.readBare()
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return nil, errors.Wrapf(err, "bad branch length %q in newick string", s)
			}
		default:
			if named[cur] {
				return nil, errors.Errorf("unexpected character %q at position %d in newick string", c, p.pos)
			}
			label, err := p.readLabel()
			if err != nil {
				return nil, err
			}
			t.nodes[cur].name = label
			named[cur] = true
		}
	}

	if err = t.index(); err != nil {
		return nil, err
	}

	return t, nil
}

// index builds the name lookup and the tip list, and checks the naming invariants
func (t *Tree) index() error {
	t.byName = make(map[string]int, len(t.nodes))
	t.tips = make([]int, 0)
	for i, n := range t.nodes {
		if n.name == "" {
			return errUnnamedNode
		}
		if _, ok := t.byName[n.name]; ok {
			return errors.Wrapf(errDuplicateName, "%q", n.name)
		}
		t.byName[n.name] = i
		if len(n.children) == 0 {
			t.tips = append(t.tips, i)
		}
	}
	return nil
}
