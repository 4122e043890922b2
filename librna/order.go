package librna

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// MaxOrderingRetries bounds how many random reference directions are tried for one node.
const MaxOrderingRetries = 64

var (
	// orderAxis is where a node's reference direction is rotated to; children are compared in the plane normal to it.
	orderAxis = mgl64.Vec3{0, 1, 0}

	// rootOffset stands in for the missing parent of the root.
	rootOffset = mgl64.Vec3{1, 1, 1}
)

type OrderOpts struct {
	MaxRetries int // 0 denotes MaxOrderingRetries

	// AllowUnordered keeps the existing child order of a node for which no valid reference direction is found
	// (logged as a warning) instead of failing with ErrDegenerateOrdering.
	AllowUnordered bool
}

// OrderBranches sorts the children of every node with two or more children by their signed angle around the
// direction the strand arrives from, so sibling branches are visited in a consistent rotational order.
//
// Nodes are processed in ascending id order so that rng is consumed deterministically.
func OrderBranches(tree *Tree, positions []mgl64.Vec3, rng *rand.Rand, opts OrderOpts) error {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = MaxOrderingRetries
	}

	for _, id := range tree.NodeIDs() {
		n := tree.node(id)
		if len(n.children) < 2 {
			continue
		}

		nodePos, err := tree.position(id, positions)
		if err != nil {
			return err
		}
		var parentPos mgl64.Vec3
		if n.parent == rnacad.NoParent {
			parentPos = nodePos.Add(rootOffset)
		} else if parentPos, err = tree.position(n.parent, positions); err != nil {
			return err
		}

		displacements := make([]mgl64.Vec3, len(n.children))
		for i, child := range n.children {
			childPos, err := tree.position(child, positions)
			if err != nil {
				return err
			}
			displacements[i] = childPos.Sub(nodePos)
		}

		order, err := sortByAngle(nodePos.Sub(parentPos), displacements, rng, maxRetries)
		if err != nil {
			if opts.AllowUnordered {
				klog.Warningf("node %d: %v; keeping unsorted child order %v", id, err, n.children)
				continue
			}
			return errors.Wrapf(err, "node %d", id)
		}

		sorted := make([]NodeID, len(order))
		for i, idx := range order {
			sorted[i] = n.children[idx]
		}
		klog.V(3).Infof("node %d: children %v ordered as %v", id, n.children, sorted)
		n.children = sorted
	}
	return nil
}

// position returns where id sits in space; a cycle-breaker sits at the node its partner is attached to.
func (tree *Tree) position(id NodeID, positions []mgl64.Vec3) (mgl64.Vec3, error) {
	if attach, isBreaker := tree.PartnerAttachment(id); isBreaker {
		id = attach
	}
	if id < 0 || int(id) >= len(positions) {
		return mgl64.Vec3{}, errors.Wrapf(rnacad.ErrBadConfig, "no position for node %d", id)
	}
	return positions[id], nil
}

// sortByAngle returns the permutation of displacements that sorts them by signed angle around ref.
func sortByAngle(ref mgl64.Vec3, displacements []mgl64.Vec3, rng *rand.Rand, maxRetries int) ([]int, error) {
	for attempt := 0; !isValidReference(ref, displacements); attempt++ {
		if attempt == maxRetries {
			return nil, errors.Wrapf(rnacad.ErrDegenerateOrdering, "after %d retries", maxRetries)
		}
		ref = mgl64.Vec3{
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
		}
	}

	rot := mgl64.QuatBetweenVectors(ref.Normalize(), orderAxis)

	angles := make([]float64, len(displacements))
	for i, d := range displacements {
		proj := rot.Rotate(d)
		angles[i] = signedAngle(proj.X(), proj.Z())
	}

	order := make([]int, len(displacements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return angles[order[i]] < angles[order[j]]
	})
	return order, nil
}

// isValidReference is false if ref is zero or exactly perpendicular to any displacement.
func isValidReference(ref mgl64.Vec3, displacements []mgl64.Vec3) bool {
	if ref.Len() == 0 || math.IsNaN(ref.Len()) {
		return false
	}
	for _, d := range displacements {
		if ref.Dot(d) == 0 {
			return false
		}
	}
	return true
}

// signedAngle is the angle of (x, y) from the +y axis in [-π, π]; positive for x >= 0.
func signedAngle(x, y float64) float64 {
	angle := math.Atan2(math.Abs(x), y)
	if x < 0 {
		angle = -angle
	}
	return angle
}
