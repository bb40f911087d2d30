package domain

import (
	"slices"
)

// TotalTime returns the estimated minutes of a subtree: the node's own estimate
// for a leaf, otherwise the sum over its subtasks. Traversal uses an explicit
// stack so deep trees do not grow the call stack.
func TotalTime(node *Task) int {
	if node == nil {
		return 0
	}
	total := 0
	stack := []*Task{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsLeaf() {
			total += n.EstimatedTime
			continue
		}
		stack = append(stack, n.Subtasks...)
	}
	return total
}

// SumTotalTime returns the combined estimate of a task list.
func SumTotalTime(tasks []*Task) int {
	total := 0
	for _, t := range tasks {
		total += TotalTime(t)
	}
	return total
}

// FindNode returns the node with id anywhere in tree, or nil.
func FindNode(tree []*Task, id int) *Task {
	var found *Task
	Walk(tree, func(t *Task, _ int) bool {
		if t.ID == id {
			found = t
			return false
		}
		return true
	})
	return found
}

// Walk visits every node in pre-order (display order). Returning false stops the walk.
func Walk(tree []*Task, fn func(t *Task, depth int) bool) {
	type frame struct {
		node  *Task
		depth int
	}
	stack := make([]frame, 0, len(tree))
	for i := len(tree) - 1; i >= 0; i-- {
		stack = append(stack, frame{tree[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			return
		}
		for i := len(f.node.Subtasks) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Subtasks[i], f.depth + 1})
		}
	}
}

// pathTo returns the child indices leading from the top-level list to id.
func pathTo(tree []*Task, id int) []int {
	type frame struct {
		nodes []*Task
		path  []int
	}
	stack := []frame{{nodes: tree}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, n := range f.nodes {
			p := append(slices.Clone(f.path), i)
			if n.ID == id {
				return p
			}
			if len(n.Subtasks) > 0 {
				stack = append(stack, frame{nodes: n.Subtasks, path: p})
			}
		}
	}
	return nil
}

// rebuild copies the nodes along path, lets edit produce the new sibling list at the
// end of the path, and recomputes the estimate of every copied ancestor bottom-up.
// Subtrees off the path are shared with the input. A parent left without subtasks
// ends up with an estimate of zero.
func rebuild(tree []*Task, path []int, edit func(siblings []*Task, idx int) []*Task) []*Task {
	root := slices.Clone(tree)
	siblings := root
	ancestors := make([]*Task, 0, len(path)-1)
	for _, idx := range path[:len(path)-1] {
		c := *siblings[idx]
		c.Subtasks = slices.Clone(c.Subtasks)
		siblings[idx] = &c
		ancestors = append(ancestors, &c)
		siblings = c.Subtasks
	}
	edited := edit(siblings, path[len(path)-1])
	if len(ancestors) == 0 {
		return edited
	}
	ancestors[len(ancestors)-1].Subtasks = edited
	for i := len(ancestors) - 1; i >= 0; i-- {
		ancestors[i].EstimatedTime = SumTotalTime(ancestors[i].Subtasks)
	}
	return root
}

// ReplaceNode returns a new tree where the node with id is replaced by node.
// Ancestors have their estimated time recomputed. The second value is false if id is absent.
func ReplaceNode(tree []*Task, id int, node *Task) ([]*Task, bool) {
	path := pathTo(tree, id)
	if path == nil {
		return tree, false
	}
	replacement := *node
	if !replacement.IsLeaf() {
		replacement.EstimatedTime = SumTotalTime(replacement.Subtasks)
	}
	return rebuild(tree, path, func(siblings []*Task, idx int) []*Task {
		out := slices.Clone(siblings)
		out[idx] = &replacement
		return out
	}), true
}

// RemoveNode returns a new tree without the node with id and its subtree.
func RemoveNode(tree []*Task, id int) ([]*Task, bool) {
	path := pathTo(tree, id)
	if path == nil {
		return tree, false
	}
	return rebuild(tree, path, func(siblings []*Task, idx int) []*Task {
		return slices.Delete(slices.Clone(siblings), idx, idx+1)
	}), true
}

// InsertSubtask returns a new tree with child appended to the subtasks of parentID.
func InsertSubtask(tree []*Task, parentID int, child *Task) ([]*Task, bool) {
	path := pathTo(tree, parentID)
	if path == nil {
		return tree, false
	}
	c := *child
	pid := parentID
	c.ParentID = &pid
	return rebuild(tree, path, func(siblings []*Task, idx int) []*Task {
		out := slices.Clone(siblings)
		parent := *siblings[idx]
		parent.Subtasks = append(slices.Clone(parent.Subtasks), &c)
		parent.EstimatedTime = SumTotalTime(parent.Subtasks)
		out[idx] = &parent
		return out
	}), true
}

// SortByRecent returns the top-level tasks ordered by UpdatedAt, newest first.
// Subtask order is left untouched.
func SortByRecent(tasks []*Task) []*Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *Task) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// NormalizeEstimates returns a copy of tree where every non-leaf estimate is derived
// from its subtasks. Used on trees loaded from the service.
func NormalizeEstimates(tree []*Task) []*Task {
	out := make([]*Task, len(tree))
	for i, t := range tree {
		c := t.Clone()
		out[i] = c
	}
	// Post-order over the copy: children are fixed before their parents.
	type frame struct {
		node    *Task
		visited bool
	}
	stack := make([]frame, 0, len(out))
	for _, t := range out {
		stack = append(stack, frame{node: t})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node.IsLeaf() {
			continue
		}
		if f.visited {
			f.node.EstimatedTime = SumTotalTime(f.node.Subtasks)
			continue
		}
		stack = append(stack, frame{node: f.node, visited: true})
		for _, c := range f.node.Subtasks {
			stack = append(stack, frame{node: c})
		}
	}
	return out
}
