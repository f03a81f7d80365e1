package world

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize длина ребра чанка в евклидовых единицах
const ChunkSize = 16

// Chunk представляет кубический участок мира размером ChunkSize по каждой оси.
// Хранит только не-воздушные элементы.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире

	// elements индексируется квантованной мировой координатой элемента,
	// поэтому локальная и мировая запись одной точки попадают в одну ячейку.
	elements map[quadray.Key]Element

	generated bool // Генератор отработал
	dirty     bool // Меш устарел
	visible   bool // Чанк виден камере; видимые чанки не выгружаются
	modified  bool // Изменён после генерации, требуется сохранение
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords:   coords,
		elements: make(map[quadray.Key]Element),
	}
}

// Origin возвращает евклидовы координаты минимального угла чанка
func (c *Chunk) Origin() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.Coords.X * ChunkSize),
		float32(c.Coords.Y * ChunkSize),
		float32(c.Coords.Z * ChunkSize),
	}
}

// Center возвращает центр ограничивающего куба чанка
func (c *Chunk) Center() mgl32.Vec3 {
	half := float32(ChunkSize) / 2
	return c.Origin().Add(mgl32.Vec3{half, half, half})
}

// WorldToChunkSpace переводит мировую координату решётки в локальную
func (c *Chunk) WorldToChunkSpace(world quadray.Coord) quadray.Coord {
	return quadray.FromEuclidean(world.ToEuclidean().Sub(c.Origin()))
}

// ChunkToWorldSpace переводит локальную координату решётки в мировую
func (c *Chunk) ChunkToWorldSpace(local quadray.Coord) quadray.Coord {
	return quadray.FromEuclidean(local.ToEuclidean().Add(c.Origin()))
}

// LocalToEuclidean возвращает мировую евклидову точку локальной координаты
func (c *Chunk) LocalToEuclidean(local quadray.Coord) mgl32.Vec3 {
	return local.ToEuclidean().Add(c.Origin())
}

// keyOf возвращает ключ хранения для локальной координаты
func (c *Chunk) keyOf(local quadray.Coord) quadray.Key {
	return c.ChunkToWorldSpace(local).Key()
}

// GetBlock возвращает ID блока по локальной координате; пустая ячейка: воздух
func (c *Chunk) GetBlock(local quadray.Coord) block.BlockID {
	if e, ok := c.elements[c.keyOf(local)]; ok {
		return e.BlockID
	}
	return block.AirBlockID
}

// blockAtKey возвращает блок по мировому ключу без пересчёта координат
func (c *Chunk) blockAtKey(k quadray.Key) block.BlockID {
	if e, ok := c.elements[k]; ok {
		return e.BlockID
	}
	return block.AirBlockID
}

// Element возвращает элемент по локальной координате
func (c *Chunk) Element(local quadray.Coord) (Element, bool) {
	e, ok := c.elements[c.keyOf(local)]
	return e, ok
}

// SetBlock устанавливает блок по локальной координате.
// Воздух удаляет элемент. Чанк всегда помечается грязным.
func (c *Chunk) SetBlock(local quadray.Coord, id block.BlockID) {
	key := c.keyOf(local)
	if id == block.AirBlockID {
		delete(c.elements, key)
	} else {
		c.elements[key] = NewElement(local, id)
	}
	c.dirty = true
	if c.generated {
		c.modified = true
	}
}

// Neighbors возвращает четыре соседние позиции через грани элемента
func (c *Chunk) Neighbors(pos quadray.Coord) [4]quadray.Coord {
	return faceNeighbors(pos)
}

// Len возвращает количество не-воздушных элементов
func (c *Chunk) Len() int {
	return len(c.elements)
}

// Keys возвращает мировые ключи элементов в стабильном порядке
func (c *Chunk) Keys() []quadray.Key {
	keys := make([]quadray.Key, 0, len(c.elements))
	for k := range c.elements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Elements возвращает элементы, упорядоченные по ключу
func (c *Chunk) Elements() []Element {
	keys := c.Keys()
	out := make([]Element, len(keys))
	for i, k := range keys {
		out[i] = c.elements[k]
	}
	return out
}

// IsGenerated сообщает, отработал ли генератор
func (c *Chunk) IsGenerated() bool { return c.generated }

// IsDirty сообщает, требуется ли перестроить меш
func (c *Chunk) IsDirty() bool { return c.dirty }

// IsVisible сообщает, виден ли чанк
func (c *Chunk) IsVisible() bool { return c.visible }

// IsModified сообщает, менялся ли чанк после генерации
func (c *Chunk) IsModified() bool { return c.modified }

// MarkDirty помечает меш чанка устаревшим
func (c *Chunk) MarkDirty() { c.dirty = true }

// MarkClean снимает флаг грязности после перестроения меша
func (c *Chunk) MarkClean() { c.dirty = false }

// SetVisible задаёт видимость чанка
func (c *Chunk) SetVisible(v bool) { c.visible = v }

// markGenerated фиксирует окончание генерации
func (c *Chunk) markGenerated() {
	c.generated = true
	c.dirty = true
}

// Digest возвращает sha256 отсортированного содержимого чанка
func (c *Chunk) Digest() [32]byte {
	h := sha256.New()
	var buf [18]byte
	for _, k := range c.Keys() {
		binary.LittleEndian.PutUint32(buf[0:], uint32(k.A))
		binary.LittleEndian.PutUint32(buf[4:], uint32(k.B))
		binary.LittleEndian.PutUint32(buf[8:], uint32(k.C))
		binary.LittleEndian.PutUint32(buf[12:], uint32(k.D))
		binary.LittleEndian.PutUint16(buf[16:], uint16(c.elements[k].BlockID))
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
