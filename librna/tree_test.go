package librna_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

func TestTreeSingleCycle(t *testing.T) {
	// triangle 0-1-2 with a tail 2-3
	edges := []librna.EdgePair{{0, 1}, {1, 2}, {2, 3}, {2, 0}}
	tree, err := librna.BuildTree(edges, -1)
	if err != nil {
		t.Fatal(err)
	}

	if tree.Root() != 0 {
		t.Fatalf("root = %d", tree.Root())
	}
	pairs := tree.CycleBreakers()
	if len(pairs) != 1 {
		t.Fatalf("expected 1 cycle-breaker pair, got %v", pairs)
	}
	if pairs[0] != [2]librna.NodeID{4, 5} {
		t.Fatalf("cycle-breaker pair = %v, want [4 5]", pairs[0])
	}
	if tree.NumNodes() != 6 || tree.NumEdges() != 5 {
		t.Fatalf("tree has %d nodes / %d edges", tree.NumNodes(), tree.NumEdges())
	}

	if parent, _ := tree.Parent(4); parent != 2 {
		t.Fatalf("cycle-breaker 4 attached to %d, want 2", parent)
	}
	if parent, _ := tree.Parent(5); parent != 0 {
		t.Fatalf("cycle-breaker 5 attached to %d, want 0", parent)
	}
	if partner, ok := tree.Partner(5); !ok || partner != 4 {
		t.Fatalf("Partner(5) = %d, %v", partner, ok)
	}
	if attach, _ := tree.PartnerAttachment(4); attach != 0 {
		t.Fatalf("PartnerAttachment(4) = %d", attach)
	}
	if tree.IsCycleBreaker(2) {
		t.Fatal("vertex 2 reported as cycle-breaker")
	}

	// no real parent/child cycle: every node reaches the root
	for _, id := range tree.NodeIDs() {
		steps := 0
		for cur := id; cur != tree.Root(); steps++ {
			if steps > tree.NumNodes() {
				t.Fatalf("node %d does not reach the root", id)
			}
			cur, _ = tree.Parent(cur)
		}
	}

	if m := tree.Motif(5); m.Class != rnacad.MotifKissingLoop || m.Partner != 4 {
		t.Fatalf("Motif(5) = %+v", m)
	}
	if m := tree.Motif(2); m.Class != rnacad.MotifThreeWayJunction {
		t.Fatalf("Motif(2) = %+v", m)
	}
	if m := tree.Motif(3); m.Class != rnacad.MotifHairpin {
		t.Fatalf("Motif(3) = %+v", m)
	}
}

func TestTreeEdgeOrientation(t *testing.T) {
	// edges listed towards the root and one edge disconnected until a later one arrives
	edges := []librna.EdgePair{{1, 0}, {3, 4}, {2, 1}, {2, 3}}
	tree, err := librna.BuildTree(edges, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.CycleBreakers()) != 0 {
		t.Fatalf("unexpected cycle-breakers %v", tree.CycleBreakers())
	}
	for child, want := range map[librna.NodeID]librna.NodeID{1: 0, 2: 1, 3: 2, 4: 3} {
		if parent, _ := tree.Parent(child); parent != want {
			t.Errorf("Parent(%d) = %d, want %d", child, parent, want)
		}
	}
}

func TestTreePreconditions(t *testing.T) {
	if _, err := librna.BuildTree(nil, -1); !errors.Is(err, rnacad.ErrEmptyEdgeList) || !rnacad.IsPreconditionError(err) {
		t.Fatalf("empty edge list: %v", err)
	}
	if _, err := librna.BuildTree([]librna.EdgePair{{0, 1}}, 7); !errors.Is(err, rnacad.ErrUnknownRoot) {
		t.Fatalf("unknown root: %v", err)
	}
	if _, err := librna.BuildTree([]librna.EdgePair{{0, 1}, {2, 3}}, -1); !errors.Is(err, rnacad.ErrDisconnected) {
		t.Fatalf("disconnected: %v", err)
	}
}

func TestTreeWriteAsString(t *testing.T) {
	tree, err := librna.BuildTree([]librna.EdgePair{{0, 1}, {1, 2}, {2, 0}}, -1)
	if err != nil {
		t.Fatal(err)
	}
	buf := strings.Builder{}
	tree.WriteAsString(&buf, rnacad.PrintOpts{})
	want := "0\n  1\n    2\n      3 ~ 4\n  4 ~ 3\n"
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
	if !strings.Contains(tree.String(), "3 ~ 4 (kissing-loop)") {
		t.Fatalf("motif annotation missing:\n%s", tree.String())
	}
}

func TestTreeCycleBreakersAboveIsolatedVertex(t *testing.T) {
	// vertex 3 exists in the source graph but no edge touches it
	edges := []librna.EdgePair{{0, 1}, {1, 2}, {2, 0}}
	tree, err := librna.BuildTreeAbove(edges, -1, 3)
	if err != nil {
		t.Fatal(err)
	}
	pairs := tree.CycleBreakers()
	if len(pairs) != 1 || pairs[0] != [2]librna.NodeID{4, 5} {
		t.Fatalf("cycle-breaker pairs = %v, want [[4 5]]", pairs)
	}
	if tree.MaxVertexID() != 3 {
		t.Fatalf("MaxVertexID = %d, want 3", tree.MaxVertexID())
	}
	if tree.Has(3) {
		t.Fatal("isolated vertex 3 present in tree")
	}
}
