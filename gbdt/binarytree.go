package gbdt

// Index algebra for the implicit binary heap that backs Tree. Nodes are
// numbered breadth-first starting at the root, node 0.

// LeftChild returns the index of n's left child.
func LeftChild(n int) int { return 2*n + 1 }

// RightChild returns the index of n's right child.
func RightChild(n int) int { return 2*n + 2 }

// ParentNode returns the index of n's parent. Undefined for n == 0.
func ParentNode(n int) int { return (n - 1) / 2 }

// LevelBegin returns the index of the first node at depth d.
func LevelBegin(d int) int { return (1 << uint(d)) - 1 }

// NodesInLevel returns the number of nodes at depth d.
func NodesInLevel(d int) int { return 1 << uint(d) }

// MaxNodesForDepth returns the node capacity required to grow a tree to
// maxDepth, i.e. 2^(maxDepth+1) - 1.
func MaxNodesForDepth(maxDepth int) int { return (1 << uint(maxDepth+1)) - 1 }
