// Package treemath provides the index calculus for the left-balanced binary
// trees used by the ratchet tree and key schedule.
//
// The tree is represented "flat": leaves sit at even node indices, with the
// n-th leaf at 2*n, and internal nodes occupy the odd indices between them.
// A tree with 11 leaves looks like:
//
//                                              X
//                      X
//          X                       X                       X
//    X           X           X           X           X
// X     X     X     X     X     X     X     X     X     X     X
// 0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f 10 11 12 13 14
//
// Relationships between nodes are computed directly from their indices, so
// a partial tree needs no pointer structure at all -- the storage backing a
// tree can be as simple as a slice indexed by NodeIndex.
package treemath

import "fmt"

type LeafIndex uint32
type LeafCount uint32
type NodeIndex uint32
type NodeCount uint32

func ToNodeIndex(leaf LeafIndex) NodeIndex {
	return NodeIndex(2 * leaf)
}

// ToLeafIndex panics if n is not a leaf (even) index; callers that aren't
// sure should check Level(n) == 0 first.
func ToLeafIndex(n NodeIndex) LeafIndex {
	if n%2 != 0 {
		panic(fmt.Errorf("treemath: %d is not a leaf index", n))
	}
	return LeafIndex(n / 2)
}

// Level reports the position of the least-significant zero bit of x, which
// is 0 for leaves and increases by one per level of height above the
// leaves.
func Level(x NodeIndex) uint {
	if x&0x01 == 0 {
		return 0
	}

	k := uint(0)
	for (x>>k)&0x01 == 1 {
		k++
	}
	return k
}

// log2 returns the position of the most significant 1 bit of x.
func log2(x NodeCount) uint {
	if x == 0 {
		return 0
	}

	k := uint(0)
	for (x >> k) > 0 {
		k++
	}
	return k - 1
}

// NodeWidth is the number of node slots needed for a tree with n leaves.
func NodeWidth(n LeafCount) NodeCount {
	if n == 0 {
		return 0
	}
	return NodeCount(2*(n-1) + 1)
}

// LeafWidth is the inverse of NodeWidth: the number of leaves that occupy a
// tree with c node slots. c must be odd (or zero).
func LeafWidth(c NodeCount) LeafCount {
	if c == 0 {
		return 0
	}
	if c&1 == 0 {
		panic(fmt.Errorf("treemath: %d is not a valid node count", c))
	}
	return LeafCount((c >> 1) + 1)
}

// Root is the index of the root of the tree with n leaves.
func Root(n LeafCount) NodeIndex {
	w := NodeWidth(n)
	if w == 0 {
		return 0
	}
	return NodeIndex((1 << log2(w)) - 1)
}

// Left is the left child of x; it does not depend on tree size.
func Left(x NodeIndex) NodeIndex {
	if Level(x) == 0 {
		return x
	}
	return x ^ (0x01 << (Level(x) - 1))
}

// Right is the right child of x, clipped to the tree of n leaves; it does
// not otherwise depend on tree size.
func Right(x NodeIndex, n LeafCount) NodeIndex {
	if Level(x) == 0 {
		return x
	}

	w := NodeIndex(NodeWidth(n))
	r := x ^ (0x03 << (Level(x) - 1))
	for r >= w {
		r = Left(r)
	}
	return r
}

func parentStep(x NodeIndex) NodeIndex {
	// xy01 -> x011
	k := Level(x)
	one := NodeIndex(1)
	return (x | (one << k)) &^ (one << (k + 1))
}

// Parent is the parent of x in a tree of n leaves, clipped at the tree's
// size. The root is its own parent.
func Parent(x NodeIndex, n LeafCount) NodeIndex {
	if x == Root(n) {
		return x
	}

	w := NodeIndex(NodeWidth(n))
	p := parentStep(x)
	for p >= w {
		p = parentStep(p)
	}
	return p
}

// Sibling is the other child of x's parent. The root is its own sibling.
func Sibling(x NodeIndex, n LeafCount) NodeIndex {
	p := Parent(x, n)
	switch {
	case x < p:
		return Right(p, n)
	case x > p:
		return Left(p)
	default:
		return p
	}
}

// DirectPath is the sequence of nodes from x's parent up to and including
// the root. For the root itself (or a one-leaf tree) it is empty.
func DirectPath(x NodeIndex, n LeafCount) []NodeIndex {
	d := []NodeIndex{}
	r := Root(n)
	p := x
	for p != r {
		p = Parent(p, n)
		d = append(d, p)
	}
	return d
}

// Copath is the list of siblings of every node in x's direct path,
// including x's own sibling, ordered from leaf to root's child.
func Copath(x NodeIndex, n LeafCount) []NodeIndex {
	r := Root(n)
	if x == r {
		return []NodeIndex{}
	}

	path := append([]NodeIndex{x}, DirectPath(x, n)...)
	path = path[:len(path)-1] // drop the root, which has no sibling worth encrypting to

	c := make([]NodeIndex, len(path))
	for i, p := range path {
		c[i] = Sibling(p, n)
	}
	return c
}

// Ancestor returns the lowest common ancestor of two leaves in a tree large
// enough to hold both (the caller picks n; any n >= max(l,r)+1 gives the
// same answer, since direct paths above the common ancestor only get
// longer, never different, as the tree grows).
func Ancestor(l, r LeafIndex, n LeafCount) NodeIndex {
	ln, rn := ToNodeIndex(l), ToNodeIndex(r)
	if ln == rn {
		return ln
	}

	lPath := append([]NodeIndex{ln}, DirectPath(ln, n)...)
	rPath := append([]NodeIndex{rn}, DirectPath(rn, n)...)

	rSet := make(map[NodeIndex]bool, len(rPath))
	for _, x := range rPath {
		rSet[x] = true
	}

	for _, x := range lPath {
		if rSet[x] {
			return x
		}
	}

	return Root(n)
}
