package librna

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/rnacad"
)

func TestSortByAngle(t *testing.T) {
	displacements := []mgl64.Vec3{
		{1, 1, 1},  // +π/4
		{-1, 1, 1}, // -π/4
		{0, 1, -1}, // π
		{1, 1, -1}, // 3π/4
	}
	order, err := sortByAngle(mgl64.Vec3{0, 2, 0}, displacements, NewRand(0), MaxOrderingRetries)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 0, 3, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSortByAngleResample(t *testing.T) {
	// ref is perpendicular to the first displacement, so a random reference must be drawn
	ref := mgl64.Vec3{0, 1, 0}
	displacements := []mgl64.Vec3{{1, 0, 0}, {0, 1, 1}, {-1, -1, 0}}

	first, err := sortByAngle(ref, displacements, NewRand(7), MaxOrderingRetries)
	if err != nil {
		t.Fatal(err)
	}
	again, err := sortByAngle(ref, displacements, NewRand(7), MaxOrderingRetries)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("same seed gave %v then %v", first, again)
		}
	}
}

func TestSortByAngleDegenerate(t *testing.T) {
	// a zero displacement is perpendicular to every reference
	displacements := []mgl64.Vec3{{1, 0, 0}, {0, 0, 0}}
	_, err := sortByAngle(mgl64.Vec3{1, 1, 1}, displacements, NewRand(1), 8)
	if !errors.Is(err, rnacad.ErrDegenerateOrdering) || !rnacad.IsDegenerateOrdering(err) {
		t.Fatalf("expected degenerate ordering, got %v", err)
	}
}

func TestOrderBranchesUnordered(t *testing.T) {
	positions := []mgl64.Vec3{
		{0, 0, 0},
		{5, 0, 0},
		{0, 0, 0}, // coincides with the root
	}
	edges := []EdgePair{{0, 1}, {0, 2}}

	tree, err := BuildTree(edges, 0)
	if err != nil {
		t.Fatal(err)
	}
	err = OrderBranches(tree, positions, NewRand(3), OrderOpts{MaxRetries: 4})
	if !rnacad.IsDegenerateOrdering(err) {
		t.Fatalf("expected degenerate ordering, got %v", err)
	}

	err = OrderBranches(tree, positions, NewRand(3), OrderOpts{MaxRetries: 4, AllowUnordered: true})
	if err != nil {
		t.Fatal(err)
	}
	if kids := tree.Children(0); len(kids) != 2 || kids[0] != 1 || kids[1] != 2 {
		t.Fatalf("children reordered to %v", kids)
	}
}

func TestOrderBranchesMissingPosition(t *testing.T) {
	tree, err := BuildTree([]EdgePair{{0, 1}, {0, 2}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	err = OrderBranches(tree, []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, NewRand(0), OrderOpts{})
	if !errors.Is(err, rnacad.ErrBadConfig) {
		t.Fatalf("expected bad config, got %v", err)
	}
}

func TestSignedAngle(t *testing.T) {
	if a := signedAngle(0, -1); a <= 3.14 {
		t.Fatalf("signedAngle(0, -1) = %v", a)
	}
	if a := signedAngle(-1, 0); a >= 0 {
		t.Fatalf("signedAngle(-1, 0) = %v", a)
	}
	if a := signedAngle(0, 1); a != 0 {
		t.Fatalf("signedAngle(0, 1) = %v", a)
	}
}
