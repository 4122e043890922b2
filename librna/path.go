package librna

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// walkFrame is a node on the walk stack and the index of the next child to descend into.
type walkFrame struct {
	node NodeID
	next int
}

// FindPath walks the (ordered) tree depth-first from the root.
//
// Every node is emitted on entry and again after each of its children returns. A cycle-breaker child is touched
// with a StepKissingLoop step and left immediately, so each tree edge is traversed exactly twice and the path
// has 2*NumEdges()+1 steps.
func FindPath(tree *Tree) (rnacad.Path, error) {
	target := 2*tree.NumEdges() + 1
	path := make(rnacad.Path, 0, target)

	stack := arraystack.New()
	stack.Push(&walkFrame{node: tree.root})
	path = append(path, rnacad.Step{Kind: rnacad.StepTraverse, Node: tree.root})

	for !stack.Empty() {
		top, _ := stack.Peek()
		frame := top.(*walkFrame)
		children := tree.node(frame.node).children

		if frame.next < len(children) {
			child := children[frame.next]
			frame.next++

			if tree.IsCycleBreaker(child) {
				path = append(path,
					rnacad.Step{Kind: rnacad.StepKissingLoop, Node: child},
					rnacad.Step{Kind: rnacad.StepTraverse, Node: frame.node},
				)
			} else {
				path = append(path, rnacad.Step{Kind: rnacad.StepTraverse, Node: child})
				stack.Push(&walkFrame{node: child})
			}
			continue
		}

		stack.Pop()
		if top, ok := stack.Peek(); ok {
			path = append(path, rnacad.Step{Kind: rnacad.StepTraverse, Node: top.(*walkFrame).node})
		}
	}

	if len(path) != target {
		return nil, errors.Wrapf(rnacad.ErrInternal, "path has %d steps, expected %d", len(path), target)
	}

	klog.V(2).Infof("path: %d steps over %d tree edges", len(path), tree.NumEdges())
	return path, nil
}
