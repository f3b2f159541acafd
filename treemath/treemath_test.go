package treemath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootSingleLeaf(t *testing.T) {
	require.Equal(t, NodeIndex(0), Root(1))
}

func TestRootPartitionsLeaves(t *testing.T) {
	for n := LeafCount(2); n <= 255; n++ {
		r := Root(n)
		l := Left(r)
		right := Right(r, n)
		require.NotEqual(t, l, right, "n=%d", n)
	}
}

func TestSiblingOfLeftIsRight(t *testing.T) {
	n := LeafCount(11)
	p := Parent(NodeIndex(2), n)
	require.Equal(t, Right(p, n), Sibling(Left(p), n))
}

func TestDirectPathLength(t *testing.T) {
	require.Len(t, DirectPath(0, 1), 0)

	for n := LeafCount(2); n <= 255; n++ {
		leaf := ToNodeIndex(0)
		path := DirectPath(leaf, n)
		require.NotEmpty(t, path, "n=%d", n)
		require.Equal(t, Root(n), path[len(path)-1])
	}
}

func TestParentChildRelation(t *testing.T) {
	n := LeafCount(11)
	w := NodeWidth(n)
	for x := NodeIndex(0); x < NodeIndex(w); x++ {
		if x == Root(n) {
			continue
		}
		p := Parent(x, n)
		require.True(t, x == Left(p) || x == Right(p, n), "x=%d p=%d", x, p)
	}
}

func TestCopathAndDirectPathSameLength(t *testing.T) {
	n := LeafCount(11)
	leaf := ToNodeIndex(3)
	require.Len(t, Copath(leaf, n), len(DirectPath(leaf, n)))
}

func TestAncestorOfSameLeafIsItself(t *testing.T) {
	require.Equal(t, ToNodeIndex(2), Ancestor(2, 2, 8))
}

func TestAncestorIsOnBothDirectPaths(t *testing.T) {
	n := LeafCount(8)
	a := Ancestor(1, 5, n)

	onPath := func(leaf LeafIndex) bool {
		ni := ToNodeIndex(leaf)
		if ni == a {
			return true
		}
		for _, x := range DirectPath(ni, n) {
			if x == a {
				return true
			}
		}
		return false
	}

	require.True(t, onPath(1))
	require.True(t, onPath(5))
}

func TestLeafWidthInvertsNodeWidth(t *testing.T) {
	for n := LeafCount(1); n <= 64; n++ {
		require.Equal(t, n, LeafWidth(NodeWidth(n)))
	}
}
