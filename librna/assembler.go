package librna

import (
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// edgeKey identifies a tree edge regardless of traversal direction.
type edgeKey [2]NodeID

func undirected(a, b NodeID) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// assembler holds the per-run records built while walking a path; it is discarded once the strings are emitted.
type assembler struct {
	mesh   *Mesh
	tree   *Tree
	motifs rnacad.MotifTable
	rng    *rand.Rand

	visits    map[NodeID]int        // motif visits per junction node
	kissing   map[edgeKey]string    // first half emitted for each cycle-breaker pair
	edgeSeqs  map[edgeKey]string    // forward bases for each tree edge
	edgeCount map[edgeKey]int       // traversals so far per tree edge
	structure strings.Builder
	sequence  strings.Builder
}

// Assemble turns a path into a nucleotide sequence and its target dot-bracket annotation.
//
// Each step but the last contributes its node's motif (unpaired) followed by the bases of the edge to the next
// step. The first traversal of an edge draws fresh bases from rng and opens pairs; the return traversal emits the
// reverse complement and closes them. The two halves of a kissing loop pair the same way: the second half emits
// the reverse complement of the first.
func Assemble(mesh *Mesh, tree *Tree, path rnacad.Path, motifs rnacad.MotifTable, rng *rand.Rand) (structure, sequence string, err error) {
	as := &assembler{
		mesh:      mesh,
		tree:      tree,
		motifs:    motifs,
		rng:       rng,
		visits:    make(map[NodeID]int),
		kissing:   make(map[edgeKey]string),
		edgeSeqs:  make(map[edgeKey]string),
		edgeCount: make(map[edgeKey]int),
	}
	as.structure.Grow(16 * len(path))
	as.sequence.Grow(16 * len(path))

	for i := 0; i+1 < len(path); i++ {
		if err = as.emitNode(path[i].Node); err != nil {
			return "", "", err
		}
		if err = as.emitEdge(path[i].Node, path[i+1].Node); err != nil {
			return "", "", err
		}
	}

	structure = as.structure.String()
	sequence = as.sequence.String()

	if len(structure) != len(sequence) {
		return "", "", errors.Wrapf(rnacad.ErrInternal, "structure has %d symbols, sequence has %d", len(structure), len(sequence))
	}
	if opened, closed := rnacad.CountPairs(structure); opened != closed {
		return "", "", errors.Wrapf(rnacad.ErrInternal, "unbalanced pairing: %d opened, %d closed", opened, closed)
	}

	klog.V(2).Infof("assembled %d nt over %d path steps", len(sequence), len(path))
	return structure, sequence, nil
}

func (as *assembler) emitUnpaired(bases string) {
	as.sequence.WriteString(bases)
	for i := 0; i < len(bases); i++ {
		as.structure.WriteByte(rnacad.Unpaired)
	}
}

func (as *assembler) emitNode(id NodeID) error {
	motif := as.tree.Motif(id)

	switch motif.Class {
	case rnacad.MotifHairpin,
		rnacad.MotifKink,
		rnacad.MotifThreeWayJunction,
		rnacad.MotifFourWayJunction:
		visit := as.visits[id]
		as.visits[id] = visit + 1
		bases, err := motifTemplate(as.motifs, motif.Class, visit)
		if err != nil {
			return errors.Wrapf(err, "node %d", id)
		}
		as.emitUnpaired(bases)

	case rnacad.MotifKissingLoop:
		key := undirected(id, motif.Partner)
		if first, seen := as.kissing[key]; seen {
			as.emitUnpaired(rnacad.ReverseComplement(first))
		} else {
			bases, err := motifTemplate(as.motifs, rnacad.MotifKissingLoop, 0)
			if err != nil {
				return errors.Wrapf(err, "node %d", id)
			}
			as.kissing[key] = bases
			as.emitUnpaired(bases)
		}

	case rnacad.MotifNil:
		return errors.Wrapf(rnacad.ErrMissingMotif, "node %d has %d connections", id, as.tree.Degree(id))

	default:
		return errors.Wrapf(rnacad.ErrInternal, "node %d has unknown motif class %d", id, motif.Class)
	}
	return nil
}

// edgeLength is the number of bases the tree edge a-b carries in each direction.
// An edge into a cycle-breaker is half of the graph edge between the two attachment nodes.
func (as *assembler) edgeLength(a, b NodeID) (int, error) {
	halve := false
	if attach, isBreaker := as.tree.PartnerAttachment(a); isBreaker {
		a, halve = attach, true
	}
	if attach, isBreaker := as.tree.PartnerAttachment(b); isBreaker {
		b, halve = attach, true
	}
	e, found := as.mesh.EdgeBetween(a, b)
	if !found {
		return 0, errors.Wrapf(rnacad.ErrInternal, "tree edge %d-%d has no structure edge", a, b)
	}
	if halve {
		return e.Length / 2, nil
	}
	return e.Length, nil
}

func (as *assembler) emitEdge(from, to NodeID) error {
	key := undirected(from, to)
	count := as.edgeCount[key]
	as.edgeCount[key] = count + 1

	switch count {
	case 0:
		N, err := as.edgeLength(from, to)
		if err != nil {
			return err
		}
		bases := make([]byte, N)
		for i := range bases {
			bases[i] = rnacad.Bases[as.rng.IntN(len(rnacad.Bases))]
		}
		as.edgeSeqs[key] = string(bases)
		as.sequence.Write(bases)
		for i := 0; i < N; i++ {
			as.structure.WriteByte(rnacad.OpenPair)
		}

	case 1:
		bases := rnacad.ReverseComplement(as.edgeSeqs[key])
		as.sequence.WriteString(bases)
		for i := 0; i < len(bases); i++ {
			as.structure.WriteByte(rnacad.ClosePair)
		}

	default:
		return errors.Wrapf(rnacad.ErrInternal, "edge %d-%d traversed %d times", from, to, count+1)
	}
	return nil
}
