package autohds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnionFind(t *testing.T) {
	uf := NewUnionFind(5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, uf.Find(i))
		assert.Equal(t, 1, uf.Size(i))
	}
	assert.Equal(t, 5, uf.Sets())
}

func TestUnionFind_Union(t *testing.T) {
	uf := NewUnionFind(6)
	assert.True(t, uf.Union(0, 1))
	assert.True(t, uf.Union(1, 2))
	assert.True(t, uf.Union(3, 4))
	assert.False(t, uf.Union(2, 0), "already joined")
	assert.Equal(t, 3, uf.Sets())

	assert.Equal(t, uf.Find(0), uf.Find(2))
	assert.NotEqual(t, uf.Find(0), uf.Find(3))
	assert.Equal(t, 3, uf.Size(1))
	assert.Equal(t, 1, uf.Size(5))

	uf.Union(4, 2)
	root := uf.Find(0)
	for i := 1; i < 5; i++ {
		require.Equal(t, root, uf.Find(i), "point %d", i)
	}
	assert.Equal(t, 5, uf.Size(3))
	assert.Equal(t, 2, uf.Sets())
}

func TestUnionFind_SmallerJoinsLarger(t *testing.T) {
	uf := NewUnionFind(4)
	uf.Union(0, 1)
	uf.Union(0, 2)
	big := uf.Find(0)

	uf.Union(3, 0)
	assert.Equal(t, big, uf.Find(3))
}

func TestUnionFind_PathHalving(t *testing.T) {
	uf := NewUnionFind(4)
	// Build the chain 3 -> 2 -> 1 -> 0 by hand.
	uf.parent[1], uf.parent[2], uf.parent[3] = 0, 1, 2

	assert.Equal(t, 0, uf.Find(3))
	assert.Equal(t, int32(1), uf.parent[3], "3 now skips 2")
	assert.Equal(t, 0, uf.Find(3))
	assert.Equal(t, int32(0), uf.parent[3])
}
