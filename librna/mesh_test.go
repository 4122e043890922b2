package librna_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

func TestMeshCapacity(t *testing.T) {
	mesh := librna.NewMesh([]mgl64.Vec3{
		{0, 0, 0},
		{10, 0, 0}, {-10, 0, 0}, {0, 10, 0}, {0, -10, 0},
		{0, 0, 10},
	})
	for i := 1; i <= 4; i++ {
		if err := mesh.AddEdge(0, librna.VtxID(i)); err != nil {
			t.Fatal(err)
		}
	}

	err := mesh.AddEdge(0, 5)
	if !errors.Is(err, rnacad.ErrOriginAtCapacity) || !rnacad.IsInputError(err) {
		t.Fatalf("expected origin capacity error, got %v", err)
	}
	err = mesh.AddEdge(5, 0)
	if !errors.Is(err, rnacad.ErrDestinationAtCapacity) {
		t.Fatalf("expected destination capacity error, got %v", err)
	}

	if n := mesh.Vertices[0].Connections; n != 4 {
		t.Fatalf("vertex 0 has %d connections after failed inserts", n)
	}
	if n := mesh.Vertices[5].Connections; n != 0 {
		t.Fatalf("vertex 5 has %d connections after failed inserts", n)
	}
	if len(mesh.Edges) != 4 {
		t.Fatalf("mesh has %d edges", len(mesh.Edges))
	}
}

func TestMeshUnknownVertex(t *testing.T) {
	mesh := librna.NewMesh([]mgl64.Vec3{{0, 0, 0}, {3, 4, 0}})

	if err := mesh.AddEdge(2, 0); !errors.Is(err, rnacad.ErrUnknownOrigin) {
		t.Fatalf("got %v", err)
	}
	if err := mesh.AddEdge(0, -1); !errors.Is(err, rnacad.ErrUnknownDestination) {
		t.Fatalf("got %v", err)
	}
	if err := mesh.AddEdge(1, 1); !errors.Is(err, rnacad.ErrSelfLoop) {
		t.Fatalf("got %v", err)
	}
	if len(mesh.Edges) != 0 || mesh.Vertices[0].Connections != 0 || mesh.Vertices[1].Connections != 0 {
		t.Fatal("failed inserts changed the mesh")
	}

	if err := mesh.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}
	e, found := mesh.EdgeBetween(1, 0)
	if !found {
		t.Fatal("edge not found in reverse")
	}
	if e.Origin != 1 || e.Destination != 0 || e.Length != 5 {
		t.Fatalf("EdgeBetween(1, 0) = %+v", e)
	}
	if e.Reverse() != mesh.Edges[0] {
		t.Fatalf("Reverse() = %+v, stored %+v", e.Reverse(), mesh.Edges[0])
	}
	if _, found := mesh.EdgeBetween(0, 0); found {
		t.Fatal("found a non-existent edge")
	}
}
