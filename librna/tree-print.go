package librna

import (
	"fmt"
	"io"
	"strings"

	"github.com/fine-structures/rnacad/rnacad"
)

// WriteAsString writes an indented rendering of the tree, one node per line, children in their current order.
//
//	4
//	  0
//	    5 ~ 6
//	  1
func (tree *Tree) WriteAsString(out io.Writer, opts rnacad.PrintOpts) {
	buf := strings.Builder{}
	buf.Grow(32 * tree.NumNodes())
	tree.appendNode(&buf, tree.root, 0, opts)
	io.WriteString(out, buf.String())
}

func (tree *Tree) appendNode(buf *strings.Builder, id NodeID, depth int, opts rnacad.PrintOpts) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
	fmt.Fprintf(buf, "%d", id)
	if partner, isBreaker := tree.Partner(id); isBreaker {
		fmt.Fprintf(buf, " ~ %d", partner)
	}
	if opts.Motifs {
		fmt.Fprintf(buf, " (%v)", tree.Motif(id).Class)
	}
	buf.WriteByte('\n')

	for _, child := range tree.node(id).children {
		tree.appendNode(buf, child, depth+1, opts)
	}
}

func (tree *Tree) String() string {
	buf := strings.Builder{}
	tree.WriteAsString(&buf, rnacad.PrintOpts{Motifs: true})
	return buf.String()
}
