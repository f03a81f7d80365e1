// Package mesh строит треугольные меши чанков для рендера.
package mesh

import (
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex вершина меша в мировых евклидовых координатах
type Vertex struct {
	Position mgl32.Vec3 `json:"position"`
	Normal   mgl32.Vec3 `json:"normal"`
	Color    mgl32.Vec3 `json:"color"`
	UV       mgl32.Vec2 `json:"uv"`
}

// FaceRef связывает треугольник меша с гранью элемента
type FaceRef struct {
	Element quadray.Key `json:"element"` // Мировой ключ элемента
	Face    int         `json:"face"`    // Номер грани, противолежащей вершине Face
}

// Mesh набор треугольников чанка: три вершины и три последовательных индекса на грань
type Mesh struct {
	Coords   vec.Vec3  `json:"coords"`
	Vertices []Vertex  `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	Faces    []FaceRef `json:"faces"`
	Skipped  int       `json:"skipped"`  // Пропущенные повреждённые элементы
	Fallback bool      `json:"fallback"` // Меш подставлен вместо неудачного построения
}

// FaceCount возвращает количество треугольников
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// Empty сообщает, что меш не содержит геометрии
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// FallbackMesh возвращает пустой меш-заглушку для чанка
func FallbackMesh(coords vec.Vec3) *Mesh {
	return &Mesh{Coords: coords, Fallback: true}
}

// Summary краткие сведения о меше
type Summary struct {
	Coords   vec.Vec3 `json:"coords"`
	Vertices int      `json:"vertices"`
	Indices  int      `json:"indices"`
	Faces    int      `json:"faces"`
	Skipped  int      `json:"skipped"`
	Fallback bool     `json:"fallback"`
}

// Summary возвращает краткие сведения о меше
func (m *Mesh) Summary() Summary {
	return Summary{
		Coords:   m.Coords,
		Vertices: len(m.Vertices),
		Indices:  len(m.Indices),
		Faces:    m.FaceCount(),
		Skipped:  m.Skipped,
		Fallback: m.Fallback,
	}
}
