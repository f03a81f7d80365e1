package world

import (
	"math"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// VertexScale расстояние от центра до вершины в единицах базиса решётки
	VertexScale = 1.5
	// EdgeLength длина ребра тетраэдра в евклидовых единицах
	EdgeLength = 3.0
)

// tetraFaces грани тетраэдра; грань i не содержит вершину i
var tetraFaces = [4][3]int{
	{1, 2, 3},
	{0, 3, 2},
	{0, 1, 3},
	{0, 2, 1},
}

// vertexOffsets смещения вершин от центра: вершина i лежит на луче базиса i
var vertexOffsets = func() [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	for i, b := range quadray.Basis {
		out[i] = b.ToEuclidean().Mul(VertexScale)
	}
	return out
}()

// Element представляет один тетраэдрический воксель.
// Геометрия вычисляется из позиции и не хранится.
type Element struct {
	Position quadray.Coord `json:"position"`
	BlockID  block.BlockID `json:"block_id"`
}

// NewElement создаёт элемент с канонической позицией
func NewElement(pos quadray.Coord, id block.BlockID) Element {
	return Element{Position: pos.Normalize(), BlockID: id}
}

// IsAir сообщает, является ли элемент воздухом
func (e Element) IsAir() bool {
	return e.BlockID == block.AirBlockID
}

// IsSolid проверяет твёрдость блока элемента
func (e Element) IsSolid(reg *block.Registry) bool {
	return reg.IsSolid(e.BlockID)
}

// IsTransparent проверяет прозрачность блока элемента
func (e Element) IsTransparent(reg *block.Registry) bool {
	return reg.IsTransparent(e.BlockID)
}

// Valid возвращает false для позиций с NaN, бесконечностью или отрицательными
// компонентами. Такие элементы пропускаются при построении меша.
func (e Element) Valid() bool {
	if !e.Position.IsFinite() {
		return false
	}
	return e.Position.A >= 0 && e.Position.B >= 0 && e.Position.C >= 0 && e.Position.D >= 0
}

// Vertices возвращает четыре вершины в системе координат позиции элемента
func (e Element) Vertices() [4]mgl32.Vec3 {
	return TetraVertices(e.Position.ToEuclidean())
}

// Faces возвращает индексы вершин граней; грань i противолежит вершине i
func (e Element) Faces() [4][3]int {
	return tetraFaces
}

// TetraVertices возвращает вершины правильного тетраэдра с центром center
func TetraVertices(center mgl32.Vec3) [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	for i, off := range vertexOffsets {
		out[i] = center.Add(off)
	}
	return out
}

// TetraFaces возвращает индексы вершин граней тетраэдра
func TetraFaces() [4][3]int {
	return tetraFaces
}

// neighborOffsets евклидовы смещения к соседям через каждую грань.
// Все элементы имеют одну ориентацию, поэтому смещения вычисляются один раз:
// точка на удвоенном расстоянии от центра до грани вдоль направления на её центроид.
var neighborOffsets = computeNeighborOffsets()

func computeNeighborOffsets() [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	verts := TetraVertices(mgl32.Vec3{})
	for i, f := range tetraFaces {
		centroid := verts[f[0]].Add(verts[f[1]]).Add(verts[f[2]]).Mul(1.0 / 3.0)
		dist := centroid.Len()
		if dist == 0 || math.IsNaN(float64(dist)) {
			continue
		}
		out[i] = centroid.Normalize().Mul(2 * dist)
	}
	return out
}

// NeighborOffsets возвращает кешированные смещения к соседям через грани
func NeighborOffsets() [4]mgl32.Vec3 {
	return neighborOffsets
}

// faceNeighbors возвращает четыре соседние позиции; сосед i лежит за гранью i
func faceNeighbors(pos quadray.Coord) [4]quadray.Coord {
	center := pos.ToEuclidean()
	var out [4]quadray.Coord
	for i, off := range neighborOffsets {
		out[i] = quadray.FromEuclidean(center.Add(off))
	}
	return out
}

// faceSources возвращает позиции, для которых pos является соседом через грань.
// Связь несимметрична: у всех элементов одна ориентация.
func faceSources(pos quadray.Coord) [4]quadray.Coord {
	center := pos.ToEuclidean()
	var out [4]quadray.Coord
	for i, off := range neighborOffsets {
		out[i] = quadray.FromEuclidean(center.Sub(off))
	}
	return out
}
