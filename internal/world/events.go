package world

import (
	"github.com/annel0/quadcraft/internal/vec"
)

// ChunkEventType определяет тип события жизненного цикла чанка
type ChunkEventType uint8

const (
	ChunkCreated   ChunkEventType = iota // Чанк создан (ещё пустой)
	ChunkGenerated                       // Генератор заполнил чанк
	ChunkRestored                        // Чанк восстановлен из хранилища
	ChunkUnloaded                        // Чанк выгружен из памяти
)

// String возвращает имя типа события
func (t ChunkEventType) String() string {
	switch t {
	case ChunkCreated:
		return "created"
	case ChunkGenerated:
		return "generated"
	case ChunkRestored:
		return "restored"
	case ChunkUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// ChunkEvent событие жизненного цикла чанка
type ChunkEvent struct {
	Type     ChunkEventType
	Coords   vec.Vec3 // Координаты чанка
	Elements int      // Количество элементов на момент события
}

// ChunkListener получает события синхронно, в потоке, изменившем мир
type ChunkListener func(ev ChunkEvent)
