package world

import (
	"testing"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/stretchr/testify/assert"
)

func TestElement_RegularTetrahedron(t *testing.T) {
	e := NewElement(quadray.New(3, 1, 0, 2), block.StoneBlockID)
	verts := e.Vertices()

	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			assert.InDelta(t, EdgeLength, verts[i].Sub(verts[j]).Len(), 1e-4,
				"ребро %d-%d должно иметь длину %v", i, j, EdgeLength)
		}
	}

	// Центр тетраэдра совпадает с позицией элемента
	center := verts[0].Add(verts[1]).Add(verts[2]).Add(verts[3]).Mul(0.25)
	pos := e.Position.ToEuclidean()
	assert.InDelta(t, pos[0], center[0], 1e-4)
	assert.InDelta(t, pos[1], center[1], 1e-4)
	assert.InDelta(t, pos[2], center[2], 1e-4)
}

func TestElement_FacesOppositeVertex(t *testing.T) {
	e := NewElement(quadray.Origin, block.StoneBlockID)
	for i, face := range e.Faces() {
		assert.NotContains(t, face[:], i, "грань %d не должна содержать вершину %d", i, i)
		assert.Len(t, uniqueInts(face[:]), 3, "вершины грани %d должны быть различны", i)
	}
}

func uniqueInts(in []int) map[int]struct{} {
	out := make(map[int]struct{}, len(in))
	for _, v := range in {
		out[v] = struct{}{}
	}
	return out
}

func TestElement_Flags(t *testing.T) {
	reg := block.NewRegistry()

	air := NewElement(quadray.Origin, block.AirBlockID)
	assert.True(t, air.IsAir())
	assert.True(t, air.IsTransparent(reg))

	water := NewElement(quadray.Origin, block.WaterBlockID)
	assert.False(t, water.IsSolid(reg))
	assert.True(t, water.IsTransparent(reg))

	stone := NewElement(quadray.New(5, 5, 5, 6), block.StoneBlockID)
	assert.True(t, stone.IsSolid(reg))
	assert.Equal(t, quadray.D, stone.Position, "Позиция элемента хранится в канонической форме")
	assert.True(t, stone.Valid())

	bad := Element{Position: quadray.New(-1, 0, 0, 0), BlockID: block.StoneBlockID}
	assert.False(t, bad.Valid())
}

func TestNeighborOffsets_MatchGeometry(t *testing.T) {
	positions := []quadray.Coord{
		quadray.Origin,
		quadray.New(2, 1, 0, 1),
		quadray.New(0.5, 0.25, 3, 0),
	}

	for _, pos := range positions {
		neighbors := faceNeighbors(pos)
		verts := TetraVertices(pos.ToEuclidean())
		center := pos.ToEuclidean()

		for i, face := range tetraFaces {
			centroid := verts[face[0]].Add(verts[face[1]]).Add(verts[face[2]]).Mul(1.0 / 3.0)
			toFace := centroid.Sub(center)
			expected := center.Add(toFace.Normalize().Mul(2 * toFace.Len()))

			got := neighbors[i].ToEuclidean()
			assert.InDelta(t, expected[0], got[0], 1e-4, "сосед %d для %s", i, pos)
			assert.InDelta(t, expected[1], got[1], 1e-4, "сосед %d для %s", i, pos)
			assert.InDelta(t, expected[2], got[2], 1e-4, "сосед %d для %s", i, pos)
		}
	}
}

func TestNeighbors_IntegerLattice(t *testing.T) {
	// Сосед через грань i целой точки решётки: q - Basis[i]
	neighbors := faceNeighbors(quadray.Origin)
	assert.True(t, neighbors[0].Equal(quadray.New(0, 1, 1, 1)), "получено %s", neighbors[0])
	assert.True(t, neighbors[1].Equal(quadray.New(1, 0, 1, 1)), "получено %s", neighbors[1])
	assert.True(t, neighbors[2].Equal(quadray.New(1, 1, 0, 1)), "получено %s", neighbors[2])
	assert.True(t, neighbors[3].Equal(quadray.New(1, 1, 1, 0)), "получено %s", neighbors[3])

	// faceSources обращает faceNeighbors
	q := quadray.New(4, 2, 0, 1)
	for i, src := range faceSources(q) {
		assert.Equal(t, q.Key(), faceNeighbors(src)[i].Key(), "источник %d", i)
	}
}
