package mesh_expr

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/rnacad"
)

func TestParseMeshExpr(t *testing.T) {
	expr, err := ParseMeshExpr(`
		# tetrahedron
		[0, 0, 0]
		[10.5, 0, 0]
		[0, -1e1, 0]
		[.5, 0, 10]
		(0, 1) (1, 2)
		(2, 0)
		(0, 3) (3, 0)
	`)
	if err != nil {
		t.Fatal(err)
	}
	if len(expr.Vertices) != 4 || len(expr.Edges) != 5 {
		t.Fatalf("parsed %d vertices, %d edges", len(expr.Vertices), len(expr.Edges))
	}
	if pos := expr.Positions()[2]; pos[1] != -10 {
		t.Fatalf("vertex 2 at %v", pos)
	}

	mesh, err := expr.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Edges) != 4 {
		t.Fatalf("mesh has %d edges; the reversed (3, 0) should be dropped", len(mesh.Edges))
	}
	if mesh.Edges[0].Length != 11 {
		t.Fatalf("edge 0 length %d", mesh.Edges[0].Length)
	}

	want := "[0, 0, 0]\n[10.5, 0, 0]\n[0, -10, 0]\n[0.5, 0, 10]\n(0, 1)\n(1, 2)\n(2, 0)\n(0, 3)\n(3, 0)\n"
	if got := string(expr.AppendExpr(nil)); got != want {
		t.Fatalf("AppendExpr:\n%s\nwant\n%s", got, want)
	}
}

func TestParsePanels(t *testing.T) {
	expr, err := ParsePanels("[-10.0, 0.0, 0.0]\n[10.0, 0.0, 0.0]\n", "(0, 1)")
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := expr.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if mesh.NumVertices() != 2 || len(mesh.Edges) != 1 || mesh.Edges[0].Length != 20 {
		t.Fatalf("unexpected mesh %+v", mesh)
	}
}

func TestParseMeshExprErrors(t *testing.T) {
	for _, bad := range []string{
		"[0, 0]",
		"[0, 0, 0, 0]",
		"[0, 0, 0] (0, x)",
		"(0, 1.5)",
		"(0, 1) [0, 0, 0]",
		"[0, 0, 0",
	} {
		_, err := ParseMeshExpr(bad)
		if !errors.Is(err, rnacad.ErrBadExpr) || !rnacad.IsInputError(err) {
			t.Errorf("%q: expected bad expression error, got %v", bad, err)
		}
	}

	expr, err := ParseMeshExpr("[0, 0, 0] [1, 0, 0] (0, 2)")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = expr.Mesh(); !errors.Is(err, rnacad.ErrUnknownDestination) {
		t.Fatalf("expected unknown destination, got %v", err)
	}
}
