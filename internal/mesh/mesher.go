package mesh

import (
	"errors"
	"math"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNilChunk возвращается при попытке построить меш nil чанка
var ErrNilChunk = errors.New("чанк не задан")

// faceUVs текстурные координаты вершин грани
var faceUVs = [3]mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}}

// BlockLookup возвращает блок по мировой координате решётки, в том числе в соседних чанках.
// Незагруженные области должны возвращать воздух.
type BlockLookup interface {
	GetBlock(pos quadray.Coord) block.BlockID
}

// Mesher строит меш чанка с отсечением закрытых граней
type Mesher struct {
	lookup   BlockLookup
	registry *block.Registry
	palette  *Palette
}

// NewMesher создаёт построитель мешей. nil palette заменяется палитрой по умолчанию.
func NewMesher(lookup BlockLookup, registry *block.Registry, palette *Palette) *Mesher {
	if registry == nil {
		registry = block.NewRegistry()
	}
	if palette == nil {
		palette = NewPalette()
	}
	return &Mesher{lookup: lookup, registry: registry, palette: palette}
}

// Palette возвращает палитру построителя
func (m *Mesher) Palette() *Palette {
	return m.palette
}

// BuildChunkMesh строит меш чанка.
// Грань выводится, только если сосед за ней: воздух или прозрачный блок.
// Элементы обходятся в порядке ключей, поэтому результат детерминирован.
func (m *Mesher) BuildChunkMesh(chunk *world.Chunk) (*Mesh, error) {
	if chunk == nil {
		return nil, ErrNilChunk
	}

	out := &Mesh{Coords: chunk.Coords}
	origin := chunk.Origin()

	for _, e := range chunk.Elements() {
		if e.IsAir() {
			continue
		}
		if !e.Valid() {
			out.Skipped++
			continue
		}

		center := origin.Add(e.Position.ToEuclidean())
		verts := world.TetraVertices(center)
		if !finite(verts) {
			out.Skipped++
			continue
		}

		key := chunk.ChunkToWorldSpace(e.Position).Key()
		color := m.palette.Color(e.BlockID)
		neighbors := chunk.Neighbors(e.Position)

		for faceIndex, face := range world.TetraFaces() {
			if !m.faceVisible(chunk, neighbors[faceIndex]) {
				continue
			}

			v0, v1, v2 := verts[face[0]], verts[face[1]], verts[face[2]]
			normal := v1.Sub(v0).Cross(v2.Sub(v0))
			if normal.Len() == 0 {
				continue
			}
			normal = normal.Normalize()

			// Нормаль должна смотреть от противолежащей вершины
			if normal.Dot(verts[faceIndex].Sub(v0)) > 0 {
				normal = normal.Mul(-1)
				v1, v2 = v2, v1
			}

			base := uint32(len(out.Vertices))
			for i, p := range [3]mgl32.Vec3{v0, v1, v2} {
				out.Vertices = append(out.Vertices, Vertex{
					Position: p,
					Normal:   normal,
					Color:    color,
					UV:       faceUVs[i],
				})
			}
			out.Indices = append(out.Indices, base, base+1, base+2)
			out.Faces = append(out.Faces, FaceRef{Element: key, Face: faceIndex})
		}
	}

	return out, nil
}

// faceVisible проверяет соседа за гранью по мировым координатам
func (m *Mesher) faceVisible(chunk *world.Chunk, neighborLocal quadray.Coord) bool {
	id := m.lookup.GetBlock(chunk.ChunkToWorldSpace(neighborLocal))
	return id == block.AirBlockID || m.registry.IsTransparent(id)
}

func finite(verts [4]mgl32.Vec3) bool {
	for _, v := range verts {
		for _, c := range v {
			f := float64(c)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}
