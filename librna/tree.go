package librna

import (
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

type NodeID = rnacad.NodeID

// treeNode is a record in the Tree arena; relations are ids, never pointers.
type treeNode struct {
	parent   NodeID
	children []NodeID
	partner  NodeID // paired cycle-breaker, or NoParent if this is not a cycle-breaker
}

// Tree is a rooted, acyclic reduction of a structure graph.
//
// Cycles of the source graph appear only as cycle-breaker pairs: two synthetic leaves, one attached to each
// endpoint of the edge that would have closed the cycle, linked through the pairing table.
type Tree struct {
	nodes    *treemap.Map // NodeID => *treeNode, ascending id
	root     NodeID
	pairs    map[NodeID]NodeID // first cycle-breaker => second
	maxVtxID NodeID            // largest id of the source graph
}

func nodeIDComparator(a, b interface{}) int {
	return utils.IntComparator(int(a.(NodeID)), int(b.(NodeID)))
}

func newTree(root NodeID) *Tree {
	tree := &Tree{
		nodes: treemap.NewWith(nodeIDComparator),
		root:  root,
		pairs: make(map[NodeID]NodeID),
	}
	tree.nodes.Put(root, &treeNode{
		parent:  rnacad.NoParent,
		partner: rnacad.NoParent,
	})
	return tree
}

// BuildTree reduces an edge list to a tree rooted at root, breaking every cycle with a pair of synthetic leaves.
//
// Edges are consumed in the order given. An edge whose endpoints are both still unknown is deferred to a later
// pass, so the result does not depend on edges being listed outward from the root.
// If root < 0, the origin of the first edge is the root.
func BuildTree(edges []EdgePair, root NodeID) (*Tree, error) {
	return BuildTreeAbove(edges, root, -1)
}

// BuildTreeAbove is BuildTree with cycle-breaker ids issued above maxVtxID as well as above every id in edges.
// Pass the largest vertex id of the source graph so ids of vertices no edge touches are never reused.
func BuildTreeAbove(edges []EdgePair, root, maxVtxID NodeID) (*Tree, error) {
	if len(edges) == 0 {
		return nil, rnacad.ErrEmptyEdgeList
	}

	maxID := max(root, maxVtxID)
	rootSeen := false
	for _, e := range edges {
		for _, id := range e {
			if id < 0 {
				return nil, errors.Wrapf(rnacad.ErrUnknownOrigin, "negative vertex id in edge (%d, %d)", e[0], e[1])
			}
			if id > maxID {
				maxID = id
			}
			if id == root {
				rootSeen = true
			}
		}
	}
	if root < 0 {
		root = edges[0][0]
	} else if !rootSeen {
		return nil, errors.Wrapf(rnacad.ErrUnknownRoot, "root %d", root)
	}

	tree := newTree(root)
	tree.maxVtxID = maxID

	pending := edges
	for len(pending) > 0 {
		var deferred []EdgePair
		for _, e := range pending {
			origin, destination := e[0], e[1]
			hasOrigin, hasDestination := tree.Has(origin), tree.Has(destination)

			switch {
			case hasOrigin && hasDestination:
				maxID = tree.breakCycle(origin, destination, maxID)
			case hasOrigin:
				tree.addChild(origin, destination)
			case hasDestination:
				tree.addChild(destination, origin)
			default:
				deferred = append(deferred, e)
			}
		}
		if len(deferred) == len(pending) {
			return nil, errors.Wrapf(rnacad.ErrDisconnected, "%d edges unreachable from root %d", len(deferred), root)
		}
		pending = deferred
	}

	klog.V(2).Infof("built tree: %d nodes, %d cycle-breaker pairs, root %d", tree.NumNodes(), len(tree.pairs), root)
	return tree, nil
}

func (tree *Tree) node(id NodeID) *treeNode {
	val, found := tree.nodes.Get(id)
	if !found {
		return nil
	}
	return val.(*treeNode)
}

func (tree *Tree) addChild(parent, child NodeID) {
	tree.nodes.Put(child, &treeNode{
		parent:  parent,
		partner: rnacad.NoParent,
	})
	p := tree.node(parent)
	p.children = append(p.children, child)
}

// breakCycle attaches a new cycle-breaker leaf to each of origin and destination and returns the advanced max id.
func (tree *Tree) breakCycle(origin, destination, maxID NodeID) NodeID {
	a, b := maxID+1, maxID+2

	tree.addChild(origin, a)
	tree.addChild(destination, b)
	tree.node(a).partner = b
	tree.node(b).partner = a
	tree.pairs[a] = b

	klog.V(2).Infof("cycle through (%d, %d) broken with pair %d ~ %d", origin, destination, a, b)
	return maxID + 2
}

func (tree *Tree) Root() NodeID {
	return tree.root
}

func (tree *Tree) Has(id NodeID) bool {
	_, found := tree.nodes.Get(id)
	return found
}

// Parent returns the parent of id (NoParent for the root); false if id is not in the tree.
func (tree *Tree) Parent(id NodeID) (NodeID, bool) {
	n := tree.node(id)
	if n == nil {
		return rnacad.NoParent, false
	}
	return n.parent, true
}

// Children returns a copy of the ordered children of id.
func (tree *Tree) Children(id NodeID) []NodeID {
	n := tree.node(id)
	if n == nil {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Partner returns the cycle-breaker paired with id.
func (tree *Tree) Partner(id NodeID) (NodeID, bool) {
	n := tree.node(id)
	if n == nil || n.partner == rnacad.NoParent {
		return rnacad.NoParent, false
	}
	return n.partner, true
}

func (tree *Tree) IsCycleBreaker(id NodeID) bool {
	_, isBreaker := tree.Partner(id)
	return isBreaker
}

// PartnerAttachment returns the node the partner of cycle-breaker id hangs off,
// i.e. the far endpoint of the graph edge that id stands in for.
func (tree *Tree) PartnerAttachment(id NodeID) (NodeID, bool) {
	partner, ok := tree.Partner(id)
	if !ok {
		return rnacad.NoParent, false
	}
	return tree.Parent(partner)
}

// NodeIDs returns every node id in ascending order.
func (tree *Tree) NodeIDs() []NodeID {
	keys := tree.nodes.Keys()
	ids := make([]NodeID, len(keys))
	for i, k := range keys {
		ids[i] = k.(NodeID)
	}
	return ids
}

func (tree *Tree) NumNodes() int {
	return tree.nodes.Size()
}

func (tree *Tree) NumEdges() int {
	return tree.nodes.Size() - 1
}

// MaxVertexID is the largest id of the source graph; every cycle-breaker id is greater.
func (tree *Tree) MaxVertexID() NodeID {
	return tree.maxVtxID
}

// CycleBreakers returns the pairing table as (first, second) pairs ordered by first.
func (tree *Tree) CycleBreakers() [][2]NodeID {
	pairs := make([][2]NodeID, 0, len(tree.pairs))
	for a, b := range tree.pairs {
		pairs = append(pairs, [2]NodeID{a, b})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0] < pairs[j][0]
	})
	return pairs
}

// Degree is the number of tree edges at id, cycle-breaker children included.
func (tree *Tree) Degree(id NodeID) int {
	n := tree.node(id)
	if n == nil {
		return 0
	}
	degree := len(n.children)
	if n.parent != rnacad.NoParent {
		degree++
	}
	return degree
}

// Motif classifies id; a degree outside 1..4 yields MotifNil.
func (tree *Tree) Motif(id NodeID) rnacad.Motif {
	if partner, isBreaker := tree.Partner(id); isBreaker {
		return rnacad.Motif{
			Class:   rnacad.MotifKissingLoop,
			Partner: partner,
		}
	}
	return rnacad.Motif{
		Class:   rnacad.ConnectivityClass(tree.Degree(id)),
		Partner: rnacad.NoParent,
	}
}
