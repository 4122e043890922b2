package librna

import (
	"io"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// seedStream is the second PCG word; a run is fully determined by its Seed.
const seedStream = 0x9E3779B97F4A7C15

type CompileOpts struct {
	Root           NodeID            // < 0 roots the tree at the origin of the first edge
	Seed           uint64            // seeds the generator used for ordering retries and edge bases
	Motifs         rnacad.MotifTable // nil denotes DefaultMotifs
	MaxRetries     int               // see OrderOpts
	AllowUnordered bool              // see OrderOpts
}

// Design is the output of one compile run.
type Design struct {
	RunID     string // log correlation only; not part of the reproducible output
	Seed      uint64
	Tree      *Tree
	Path      rnacad.Path
	Structure string
	Sequence  string
}

// NewRand returns the generator a compile run with the given seed uses.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seedStream))
}

// Compile runs the structure compiler over mesh: tree reduction, branch ordering, path generation and assembly.
func Compile(mesh *Mesh, opts CompileOpts) (*Design, error) {
	if opts.Motifs == nil {
		opts.Motifs = DefaultMotifs
	}
	X := &Design{
		RunID: uuid.NewString(),
		Seed:  opts.Seed,
	}
	rng := NewRand(opts.Seed)

	var err error
	X.Tree, err = BuildTreeAbove(mesh.EdgePairs(), opts.Root, NodeID(mesh.NumVertices()-1))
	if err != nil {
		return nil, errors.Wrap(err, "build tree")
	}

	err = OrderBranches(X.Tree, mesh.Positions(), rng, OrderOpts{
		MaxRetries:     opts.MaxRetries,
		AllowUnordered: opts.AllowUnordered,
	})
	if err != nil {
		return nil, errors.Wrap(err, "order branches")
	}

	X.Path, err = FindPath(X.Tree)
	if err != nil {
		return nil, errors.Wrap(err, "find path")
	}

	X.Structure, X.Sequence, err = Assemble(mesh, X.Tree, X.Path, opts.Motifs, rng)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	klog.Infof("run %s: seed %d, %d tree nodes, %d nt", X.RunID, X.Seed, X.Tree.NumNodes(), len(X.Sequence))
	return X, nil
}

// Record returns the design as an unvalidated catalog record.
func (X *Design) Record() rnacad.Record {
	return rnacad.Record{
		Seed:      X.Seed,
		Structure: X.Structure,
		Sequence:  X.Sequence,
		Path:      X.Path,
	}
}

func (X *Design) WriteAsString(out io.Writer, opts rnacad.PrintOpts) {
	buf := strings.Builder{}
	if len(opts.Label) > 0 {
		buf.WriteString(opts.Label)
		buf.WriteByte('\n')
	}
	if opts.Tree {
		X.Tree.WriteAsString(&buf, opts)
	}
	if opts.Path {
		buf.Write(X.Path.AppendDesc(nil))
		buf.WriteByte('\n')
	}
	if opts.Sequence {
		buf.WriteString(X.Sequence)
		buf.WriteByte('\n')
	}
	if opts.Structure {
		buf.WriteString(X.Structure)
		buf.WriteByte('\n')
	}
	io.WriteString(out, buf.String())
}
