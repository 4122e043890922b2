package librna_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

// apexMesh is a square pyramid: a square 0..3 with its apex 4 joined to every corner.
func apexMesh(t *testing.T) *librna.Mesh {
	mesh := librna.NewMesh([]mgl64.Vec3{
		{-10, 10, 0},
		{10, 10, 0},
		{10, -10, 0},
		{-10, -10, 0},
		{0, 0, 20},
	})
	for _, e := range []librna.EdgePair{
		{4, 0}, {4, 1}, {4, 2}, {4, 3},
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
	} {
		require.NoError(t, mesh.AddEdge(e[0], e[1]))
	}
	return mesh
}

func TestCompileIsolatedVertex(t *testing.T) {
	mesh, err := librna.BuildMesh(
		[]mgl64.Vec3{{0, 0, 0}, {9, 0, 0}, {0, 9, 0}, {30, 30, 30}},
		[]librna.EdgePair{{0, 1}, {1, 2}, {2, 0}},
	)
	require.NoError(t, err)

	design, err := librna.Compile(mesh, librna.CompileOpts{Seed: 5})
	require.NoError(t, err)

	tree := design.Tree
	require.Equal(t, librna.NodeID(3), tree.MaxVertexID())
	require.Equal(t, [][2]librna.NodeID{{4, 5}}, tree.CycleBreakers())
	for _, step := range design.Path {
		require.NotEqual(t, librna.NodeID(3), step.Node)
	}
}

func TestCompileApex(t *testing.T) {
	mesh := apexMesh(t)
	design, err := librna.Compile(mesh, librna.CompileOpts{Root: 4, Seed: 101})
	require.NoError(t, err)

	tree := design.Tree
	require.Equal(t, librna.NodeID(4), tree.Root())
	require.Equal(t, 13, tree.NumNodes())
	require.Equal(t, 12, tree.NumEdges())
	require.Len(t, tree.CycleBreakers(), 4)
	for _, pair := range tree.CycleBreakers() {
		require.Greater(t, pair[0], tree.MaxVertexID())
		require.Greater(t, pair[1], tree.MaxVertexID())
	}
	require.Equal(t, rnacad.MotifFourWayJunction, tree.Motif(4).Class)
	for id := librna.NodeID(0); id < 4; id++ {
		require.Equal(t, rnacad.MotifThreeWayJunction, tree.Motif(id).Class)
	}

	require.Len(t, design.Path, 2*12+1)
	require.Equal(t, librna.NodeID(4), design.Path[0].Node)
	require.Equal(t, librna.NodeID(4), design.Path[len(design.Path)-1].Node)

	// 4 four-way visits (40 nt), 4 three-way junctions of 3 visits (18 nt each), 8 kissing halves (10 nt each),
	// 4 apex edges of 24 bp and 8 halved square edges of 10 bp
	require.Len(t, design.Sequence, 40+4*18+8*10+2*(4*24+8*10))
	require.Len(t, design.Structure, len(design.Sequence))
	opened, closed := rnacad.CountPairs(design.Structure)
	require.Equal(t, 4*24+8*10, opened)
	require.Equal(t, opened, closed)
	require.True(t, rnacad.IsNucleotides(design.Sequence))

	kl := librna.DefaultMotifs.KissingLoop[0]
	require.GreaterOrEqual(t, strings.Count(design.Sequence, kl), 4)
	require.GreaterOrEqual(t, strings.Count(design.Sequence, rnacad.ReverseComplement(kl)), 4)
}

func TestCompileIdempotent(t *testing.T) {
	mesh := apexMesh(t)

	a, err := librna.Compile(mesh, librna.CompileOpts{Root: 4, Seed: 5})
	require.NoError(t, err)
	b, err := librna.Compile(mesh, librna.CompileOpts{Root: 4, Seed: 5})
	require.NoError(t, err)

	require.Equal(t, a.Tree.String(), b.Tree.String())
	require.Equal(t, a.Path, b.Path)
	require.Equal(t, a.Structure, b.Structure)
	require.Equal(t, a.Sequence, b.Sequence)
	require.NotEqual(t, a.RunID, b.RunID)

	c, err := librna.Compile(mesh, librna.CompileOpts{Root: 4, Seed: 6})
	require.NoError(t, err)
	require.Equal(t, a.Structure, c.Structure)
	require.NotEqual(t, a.Sequence, c.Sequence)
}

func TestCompileMissingMotifs(t *testing.T) {
	mesh := apexMesh(t)

	noFourWay := &librna.MotifStorage{
		Hairpin:  librna.DefaultMotifs.Hairpin,
		Kink:     librna.DefaultMotifs.Kink,
		ThreeWay: librna.DefaultMotifs.ThreeWay,
	}
	_, err := librna.Compile(mesh, librna.CompileOpts{Root: 4, Motifs: noFourWay})
	require.ErrorIs(t, err, rnacad.ErrMissingMotif)
	require.True(t, rnacad.IsConfigError(err))

	shortThreeWay := &librna.MotifStorage{
		Hairpin:  librna.DefaultMotifs.Hairpin,
		ThreeWay: []string{"UACUAA", "UUGUUUC"},
		FourWay:  librna.DefaultMotifs.FourWay,
	}
	_, err = librna.Compile(mesh, librna.CompileOpts{Root: 4, Motifs: shortThreeWay})
	require.ErrorIs(t, err, rnacad.ErrMissingMotif)
}

func TestCompileKissingComplement(t *testing.T) {
	// a triangle of kinks closed by one kissing loop
	mesh := librna.NewMesh([]mgl64.Vec3{{0, 0, 0}, {6, 0, 0}, {0, 6, 0}})
	require.NoError(t, mesh.AddEdge(0, 1))
	require.NoError(t, mesh.AddEdge(1, 2))
	require.NoError(t, mesh.AddEdge(2, 0))

	motifs := &librna.MotifStorage{
		Kink:        []string{"A"},
		KissingLoop: []string{"AAAAGGGG"},
	}
	design, err := librna.Compile(mesh, librna.CompileOpts{Seed: 9, Motifs: motifs})
	require.NoError(t, err)
	require.Len(t, design.Path, 2*4+1)
	require.Contains(t, design.Sequence, "AAAAGGGG")
	require.Contains(t, design.Sequence, "CCCCUUUU")
}

func TestCompileRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 17))

	for trial := 0; trial < 50; trial++ {
		mesh := randomMesh(rng, 2+rng.IntN(11))
		design, err := librna.Compile(mesh, librna.CompileOpts{Seed: uint64(trial)})
		require.NoError(t, err, "trial %d", trial)

		tree := design.Tree
		require.Len(t, design.Path, 2*tree.NumEdges()+1)
		require.Equal(t, len(mesh.Edges), tree.NumEdges()-len(tree.CycleBreakers()))
		require.Len(t, design.Structure, len(design.Sequence))

		opened, closed := rnacad.CountPairs(design.Structure)
		require.Equal(t, opened, closed)

		// every tree edge is walked once in each direction
		walked := make(map[[2]librna.NodeID]int)
		for i := 0; i+1 < len(design.Path); i++ {
			walked[[2]librna.NodeID{design.Path[i].Node, design.Path[i+1].Node}]++
		}
		require.Len(t, walked, 2*tree.NumEdges())
		for step, count := range walked {
			require.Equal(t, 1, count, "step %v", step)
			require.Equal(t, 1, walked[[2]librna.NodeID{step[1], step[0]}], "step %v", step)
		}
	}
}

// randomMesh returns a connected mesh: a random spanning tree plus a few closing edges.
func randomMesh(rng *rand.Rand, numVerts int) *librna.Mesh {
	positions := make([]mgl64.Vec3, numVerts)
	for i := range positions {
		positions[i] = mgl64.Vec3{
			40*rng.Float64() - 20,
			40*rng.Float64() - 20,
			40*rng.Float64() - 20,
		}
	}
	mesh := librna.NewMesh(positions)

	for i := 1; i < numVerts; i++ {
		for {
			j := librna.VtxID(rng.IntN(i))
			if mesh.AddEdge(j, librna.VtxID(i)) == nil {
				break
			}
		}
	}
	for extra := rng.IntN(4); extra > 0; extra-- {
		a, b := librna.VtxID(rng.IntN(numVerts)), librna.VtxID(rng.IntN(numVerts))
		if _, exists := mesh.EdgeBetween(a, b); exists {
			continue
		}
		mesh.AddEdge(a, b)
	}
	return mesh
}
