package world

import (
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world/block"
)

// ElementRecord сериализуемая запись элемента (локальная позиция)
type ElementRecord struct {
	A  float32       `json:"a"`
	B  float32       `json:"b"`
	C  float32       `json:"c"`
	D  float32       `json:"d"`
	ID block.BlockID `json:"id"`
}

// ChunkSnapshot снимок содержимого чанка для хранилища
type ChunkSnapshot struct {
	Coords   vec.Vec3        `json:"coords"`
	Elements []ElementRecord `json:"elements"`
}

// ChunkPersister сохраняет и загружает снимки чанков.
// LoadChunk возвращает nil, nil если снимка нет.
type ChunkPersister interface {
	SaveChunk(snapshot *ChunkSnapshot) error
	LoadChunk(coords vec.Vec3) (*ChunkSnapshot, error)
}

// Snapshot создаёт снимок чанка в стабильном порядке элементов
func (c *Chunk) Snapshot() *ChunkSnapshot {
	elems := c.Elements()
	snap := &ChunkSnapshot{
		Coords:   c.Coords,
		Elements: make([]ElementRecord, len(elems)),
	}
	for i, e := range elems {
		snap.Elements[i] = ElementRecord{
			A:  e.Position.A,
			B:  e.Position.B,
			C:  e.Position.C,
			D:  e.Position.D,
			ID: e.BlockID,
		}
	}
	return snap
}

// Restore заполняет чанк из снимка через SetBlock и помечает его сгенерированным
func (c *Chunk) Restore(snap *ChunkSnapshot) {
	for _, r := range snap.Elements {
		c.SetBlock(quadray.New(r.A, r.B, r.C, r.D), r.ID)
	}
	c.markGenerated()
	c.modified = false
}
