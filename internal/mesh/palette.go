package mesh

import (
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// defaultColor цвет блоков без записи в палитре
var defaultColor = mgl32.Vec3{0.8, 0.0, 0.8}

// Palette сопоставляет блокам цвет вершин
type Palette struct {
	colors map[block.BlockID]mgl32.Vec3
}

// NewPalette создаёт палитру с цветами базовых блоков
func NewPalette() *Palette {
	return &Palette{colors: map[block.BlockID]mgl32.Vec3{
		block.AirBlockID:   {0.0, 0.0, 0.0},
		block.StoneBlockID: {0.5, 0.5, 0.5},
		block.DirtBlockID:  {0.6, 0.3, 0.1},
		block.GrassBlockID: {0.3, 0.7, 0.2},
		block.WaterBlockID: {0.0, 0.3, 0.8},
		block.SandBlockID:  {0.9, 0.8, 0.6},
	}}
}

// Set задаёт цвет блока
func (p *Palette) Set(id block.BlockID, color mgl32.Vec3) {
	p.colors[id] = color
}

// Color возвращает цвет блока
func (p *Palette) Color(id block.BlockID) mgl32.Vec3 {
	if c, ok := p.colors[id]; ok {
		return c
	}
	return defaultColor
}
