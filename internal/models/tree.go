package models

import "sort"

// TreeNode is one node in a ListTree arena. Nodes reference each other by
// index; Parent is -1 for the root.
type TreeNode struct {
	ListID   string   // empty for the root and for kind group nodes
	Label    string
	Kind     ListKind // set on group nodes and list nodes
	Parent   int
	Children []int
}

// ListTree arranges lists into a two-level hierarchy (kind group → list)
// backed by an index arena. Traversal order is explicit pre-order, parent
// before children, so renderers never need recursion over pointers.
type ListTree struct {
	Nodes []TreeNode
}

// BuildTree groups the given lists under one node per kind. Kinds appear in
// declaration order; lists within a kind sort by name.
func BuildTree(lists []*List) *ListTree {
	tree := &ListTree{Nodes: []TreeNode{{Label: "lists", Parent: -1}}}

	order := []ListKind{KindProject, KindCustom, KindShopping, KindRoutine}
	grouped := make(map[ListKind][]*List)
	for _, list := range lists {
		kind := list.Kind
		if !kind.Valid() {
			kind = KindCustom
		}
		grouped[kind] = append(grouped[kind], list)
	}

	for _, kind := range order {
		members := grouped[kind]
		if len(members) == 0 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

		groupIdx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, TreeNode{Label: string(kind), Kind: kind, Parent: 0})
		tree.Nodes[0].Children = append(tree.Nodes[0].Children, groupIdx)

		for _, list := range members {
			idx := len(tree.Nodes)
			tree.Nodes = append(tree.Nodes, TreeNode{
				ListID: list.ID,
				Label:  list.Name,
				Kind:   kind,
				Parent: groupIdx,
			})
			tree.Nodes[groupIdx].Children = append(tree.Nodes[groupIdx].Children, idx)
		}
	}

	return tree
}

// Walk visits every node in pre-order, calling fn with the node and its
// depth. The root has depth 0.
func (t *ListTree) Walk(fn func(node TreeNode, depth int)) {
	if len(t.Nodes) == 0 {
		return
	}
	t.walk(0, 0, fn)
}

func (t *ListTree) walk(idx, depth int, fn func(node TreeNode, depth int)) {
	node := t.Nodes[idx]
	fn(node, depth)
	for _, child := range node.Children {
		t.walk(child, depth+1, fn)
	}
}
