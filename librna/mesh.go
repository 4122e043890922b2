package librna

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// VtxID is a zero-based index of a vertex in a Mesh.
type VtxID = rnacad.NodeID

// Vertex is a junction point of the wireframe.
type Vertex struct {
	Pos         mgl64.Vec3
	Connections int
	Edges       [rnacad.MaxConnections]int // indices into Mesh.Edges; only [:Connections] are valid
}

// Edge connects two vertices; Length is in bases (rounded distance).
// Edges are undirected but stored in the direction they were added.
type Edge struct {
	Origin      VtxID
	Destination VtxID
	Length      int
}

func (e Edge) Reverse() Edge {
	return Edge{
		Origin:      e.Destination,
		Destination: e.Origin,
		Length:      e.Length,
	}
}

// EdgePair is an (origin, destination) pair as consumed by BuildTree.
type EdgePair [2]VtxID

// Mesh is the vertex/edge model of a 3D wireframe shape.
type Mesh struct {
	Vertices []Vertex
	Edges    []Edge
}

func NewMesh(positions []mgl64.Vec3) *Mesh {
	mesh := &Mesh{
		Vertices: make([]Vertex, 0, len(positions)),
	}
	for _, pos := range positions {
		mesh.AddVertex(pos)
	}
	return mesh
}

func (mesh *Mesh) AddVertex(pos mgl64.Vec3) VtxID {
	mesh.Vertices = append(mesh.Vertices, Vertex{Pos: pos})
	klog.V(3).Infof("added vertex %d at %v", len(mesh.Vertices)-1, pos)
	return VtxID(len(mesh.Vertices) - 1)
}

func (mesh *Mesh) NumVertices() int {
	return len(mesh.Vertices)
}

func (mesh *Mesh) vertex(id VtxID) *Vertex {
	if id < 0 || int(id) >= len(mesh.Vertices) {
		return nil
	}
	return &mesh.Vertices[id]
}

// AddEdge connects origin and destination.
// On failure the mesh is left unchanged.
func (mesh *Mesh) AddEdge(origin, destination VtxID) error {
	vo := mesh.vertex(origin)
	if vo == nil {
		return errors.Wrapf(rnacad.ErrUnknownOrigin, "edge (%d, %d)", origin, destination)
	}
	vd := mesh.vertex(destination)
	if vd == nil {
		return errors.Wrapf(rnacad.ErrUnknownDestination, "edge (%d, %d)", origin, destination)
	}
	if origin == destination {
		return errors.Wrapf(rnacad.ErrSelfLoop, "edge (%d, %d)", origin, destination)
	}
	if vo.Connections >= rnacad.MaxConnections {
		return errors.Wrapf(rnacad.ErrOriginAtCapacity, "edge (%d, %d)", origin, destination)
	}
	if vd.Connections >= rnacad.MaxConnections {
		return errors.Wrapf(rnacad.ErrDestinationAtCapacity, "edge (%d, %d)", origin, destination)
	}

	edgeIdx := len(mesh.Edges)
	mesh.Edges = append(mesh.Edges, Edge{
		Origin:      origin,
		Destination: destination,
		Length:      int(math.Round(vo.Pos.Sub(vd.Pos).Len())),
	})

	vo.Edges[vo.Connections] = edgeIdx
	vo.Connections++
	vd.Edges[vd.Connections] = edgeIdx
	vd.Connections++

	klog.V(3).Infof("added edge %d: %d -> %d (%d bases)", edgeIdx, origin, destination, mesh.Edges[edgeIdx].Length)
	return nil
}

// EdgeBetween returns the edge connecting a and b, oriented a -> b.
func (mesh *Mesh) EdgeBetween(a, b VtxID) (Edge, bool) {
	va := mesh.vertex(a)
	if va == nil {
		return Edge{}, false
	}
	for _, ei := range va.Edges[:va.Connections] {
		e := mesh.Edges[ei]
		if e.Origin == a && e.Destination == b {
			return e, true
		}
		if e.Origin == b && e.Destination == a {
			return e.Reverse(), true
		}
	}
	return Edge{}, false
}

// BuildMesh places a vertex at each position and adds edges in order.
// A pair repeated in either orientation is added once.
func BuildMesh(positions []mgl64.Vec3, edges []EdgePair) (*Mesh, error) {
	mesh := NewMesh(positions)
	for _, e := range DedupEdgePairs(edges) {
		if err := mesh.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return mesh, nil
}

// DedupEdgePairs drops every pair that repeats an earlier one, in either orientation.
func DedupEdgePairs(edges []EdgePair) []EdgePair {
	seen := make(map[EdgePair]struct{}, len(edges))
	out := make([]EdgePair, 0, len(edges))
	for _, e := range edges {
		if _, dupe := seen[e]; dupe {
			klog.V(2).Infof("dropping repeated edge (%d, %d)", e[0], e[1])
			continue
		}
		seen[e] = struct{}{}
		seen[EdgePair{e[1], e[0]}] = struct{}{}
		out = append(out, e)
	}
	return out
}

// EdgePairs returns the mesh edges in insertion order.
func (mesh *Mesh) EdgePairs() []EdgePair {
	pairs := make([]EdgePair, len(mesh.Edges))
	for i, e := range mesh.Edges {
		pairs[i] = EdgePair{e.Origin, e.Destination}
	}
	return pairs
}

// Positions returns the position of every vertex, indexed by VtxID.
func (mesh *Mesh) Positions() []mgl64.Vec3 {
	pos := make([]mgl64.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		pos[i] = v.Pos
	}
	return pos
}
