package aggregates

import (
	"labeltree/domain/core/entities"
)

// TreeNode is the nested, read-side view of a NodeRecord.
// It is rebuilt on every read and never persisted.
type TreeNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	ParentID *string     `json:"parentId,omitempty"`
	Children []*TreeNode `json:"children"`
}

// NewTreeNode creates a leaf shell for a record. Children is never nil so
// that it always serializes as an array.
func NewTreeNode(id, label string) *TreeNode {
	return &TreeNode{
		ID:       id,
		Label:    label,
		Children: make([]*TreeNode, 0),
	}
}

// NewCreatedTreeNode shapes a freshly inserted record for the caller,
// carrying its parent reference.
func NewCreatedTreeNode(rec *entities.NodeRecord) *TreeNode {
	node := NewTreeNode(rec.ID().String(), rec.Label())
	node.ParentID = rec.ParentIDString()
	return node
}

// BuildForest nests a flat scan of records into root trees.
//
// Roots and siblings keep the order in which they appear in records. A record
// whose parent id matches no record in the scan is dropped along with its
// subtree; the build itself never fails. Two passes, no recursion.
func BuildForest(records []*entities.NodeRecord) []*TreeNode {
	shells := make([]*TreeNode, len(records))
	byID := make(map[string]*TreeNode, len(records))

	for i, rec := range records {
		shell := NewTreeNode(rec.ID().String(), rec.Label())
		shells[i] = shell
		// first occurrence wins if a store ever returns a duplicate id
		if _, exists := byID[shell.ID]; !exists {
			byID[shell.ID] = shell
		}
	}

	roots := make([]*TreeNode, 0)
	for i, rec := range records {
		shell := shells[i]
		if rec.IsRoot() {
			roots = append(roots, shell)
			continue
		}
		if parent, ok := byID[rec.ParentID().String()]; ok {
			parent.Children = append(parent.Children, shell)
		}
	}

	return roots
}

// Walk visits every node of the forest depth-first in output order,
// passing the node's depth (roots are depth 0). Returning false stops the walk.
func Walk(forest []*TreeNode, fn func(node *TreeNode, depth int) bool) {
	type frame struct {
		node  *TreeNode
		depth int
	}

	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i]})
	}

	// a cycle can only form among records unreachable from a root, so
	// nodes reachable from roots are visited at most once
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(top.node, top.depth) {
			return
		}
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: top.node.Children[i], depth: top.depth + 1})
		}
	}
}

// ForestStats summarizes a built forest.
type ForestStats struct {
	Roots    int `json:"roots"`
	Nodes    int `json:"nodes"`
	Leaves   int `json:"leaves"`
	MaxDepth int `json:"maxDepth"`
}

// Stats computes node, leaf and depth counts for a forest.
func Stats(forest []*TreeNode) ForestStats {
	stats := ForestStats{Roots: len(forest)}
	Walk(forest, func(node *TreeNode, depth int) bool {
		stats.Nodes++
		if len(node.Children) == 0 {
			stats.Leaves++
		}
		if depth+1 > stats.MaxDepth {
			stats.MaxDepth = depth + 1
		}
		return true
	})
	return stats
}
