package world

import (
	"errors"
	"testing"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/util"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPersister хранилище снимков в памяти для тестов
type memoryPersister struct {
	snaps   map[vec.Vec3]*ChunkSnapshot
	saves   int
	loadErr error
	saveErr error
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{snaps: make(map[vec.Vec3]*ChunkSnapshot)}
}

func (m *memoryPersister) SaveChunk(s *ChunkSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snaps[s.Coords] = s
	return nil
}

func (m *memoryPersister) LoadChunk(coords vec.Vec3) (*ChunkSnapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snaps[coords], nil
}

func testSettings() Settings {
	return Settings{
		GenerationRadius:   0,
		UnloadDistance:     64,
		MaxUnloadPerUpdate: 5,
	}
}

func at(x, y, z float32) quadray.Coord {
	return quadray.FromEuclidean(mgl32.Vec3{x, y, z})
}

func TestWorld_GetOrCreateChunk(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)

	pos := at(3, 4, 5)
	chunk := w.GetOrCreateChunk(pos)
	require.NotNil(t, chunk)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 0}, chunk.Coords)
	assert.True(t, chunk.IsGenerated(), "Чанк должен быть сгенерирован синхронно")
	assert.True(t, chunk.IsDirty(), "Новый чанк должен быть грязным")

	again := w.GetOrCreateChunk(at(10, 1, 15))
	assert.Same(t, chunk, again, "Повторный вызов должен вернуть тот же чанк")
	assert.Equal(t, 1, w.ChunkCount())

	neg := w.GetOrCreateChunk(at(-0.5, 20, -40))
	assert.Equal(t, vec.Vec3{X: -1, Y: 1, Z: -3}, neg.Coords)
}

func TestChunkCoordsOf_EquivalentRepresentations(t *testing.T) {
	p := quadray.New(2, 0, 5, 1)
	q := quadray.New(3, 1, 6, 2)
	assert.Equal(t, ChunkCoordsOf(p), ChunkCoordsOf(q))

	// Координаты чанка берутся из евклидовой проекции, а не из компонент решётки
	far := at(40, -20, 100)
	assert.Equal(t, vec.Vec3{X: 2, Y: -2, Z: 6}, ChunkCoordsOf(far))
}

func TestWorld_GenerateChunksAround(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)
	center := at(8, 8, 8)

	created := w.GenerateChunksAround(center, 0)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, w.ChunkCount(), "Радиус 0 создаёт только чанк центра")
	assert.True(t, w.HasChunk(ChunkCoordsOf(center)))

	created = w.GenerateChunksAround(center, 1)
	assert.Greater(t, created, 0)

	// Все созданные чанки лежат рядом с центром
	c := center.ToEuclidean()
	for _, chunk := range w.Chunks() {
		assert.Less(t, chunk.Center().Sub(c).Len(), float32(2*ChunkSize+ChunkSize),
			"чанк %v слишком далеко", chunk.Coords)
	}

	// Повторная генерация ничего не создаёт
	assert.Equal(t, 0, w.GenerateChunksAround(center, 1))
}

func TestWorld_AdaptiveRadius(t *testing.T) {
	s := testSettings()
	s.AdaptiveRadius = true
	w := NewWorld(s, nil, nil)

	assert.Equal(t, 1, w.effectiveRadius(at(10, 0, 0), 1))
	assert.Equal(t, 2, w.effectiveRadius(at(150, 0, 0), 1))
	assert.Equal(t, 3, w.effectiveRadius(at(0, 0, -250), 1))

	s.AdaptiveRadius = false
	w = NewWorld(s, nil, nil)
	assert.Equal(t, 1, w.effectiveRadius(at(0, 0, -250), 1))
}

func TestWorld_UpdateChunks_UnloadRateLimit(t *testing.T) {
	s := testSettings()
	s.MaxUnloadPerUpdate = 2
	w := NewWorld(s, nil, nil)

	player := at(1, 1, 1)
	w.GetOrCreateChunk(player)

	// Пять далёких чанков
	for i := 0; i < 5; i++ {
		w.GetOrCreateChunk(at(200+float32(i)*16, 0, 0))
	}
	require.Equal(t, 6, w.ChunkCount())

	res := w.UpdateChunks(player)
	assert.Len(t, res.Unloaded, 2, "За один вызов выгружается не больше двух чанков")
	assert.Equal(t, 3, res.Pending)
	assert.Equal(t, 4, w.ChunkCount())

	// Самые далёкие выгружаются первыми
	assert.Equal(t, vec.Vec3{X: 16, Y: 0, Z: 0}, res.Unloaded[0])
	assert.Equal(t, vec.Vec3{X: 15, Y: 0, Z: 0}, res.Unloaded[1])

	w.UpdateChunks(player)
	w.UpdateChunks(player)
	assert.Equal(t, 1, w.ChunkCount(), "Остаётся только чанк игрока")
	assert.True(t, w.HasChunk(ChunkCoordsOf(player)))
}

func TestWorld_UpdateChunks_VisibleNeverUnloaded(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)
	player := at(1, 1, 1)

	far := w.GetOrCreateChunk(at(500, 0, 0))
	assert.True(t, w.SetChunkVisible(far.Coords, true))

	for i := 0; i < 3; i++ {
		res := w.UpdateChunks(player)
		assert.Empty(t, res.Unloaded)
	}
	assert.True(t, w.HasChunk(far.Coords), "Видимый чанк не должен выгружаться")

	w.SetChunkVisible(far.Coords, false)
	res := w.UpdateChunks(player)
	assert.Equal(t, []vec.Vec3{far.Coords}, res.Unloaded)
	assert.False(t, w.SetChunkVisible(far.Coords, true), "Выгруженный чанк недоступен")
}

func TestWorld_UpdateChunks_ElevatedRetention(t *testing.T) {
	s := testSettings()
	s.UnloadDistance = 100
	s.ElevatedRetention = true
	w := NewWorld(s, nil, nil)

	player := at(0, 100, 0)
	mid := w.GetOrCreateChunk(at(120, 100, 0))

	w.UpdateChunks(player)
	assert.True(t, w.HasChunk(mid.Coords), "Высоко над землёй дистанция выгрузки растёт")

	s.ElevatedRetention = false
	w2 := NewWorld(s, nil, nil)
	mid2 := w2.GetOrCreateChunk(at(120, 100, 0))
	w2.UpdateChunks(player)
	assert.False(t, w2.HasChunk(mid2.Coords))
}

func TestWorld_DirtyProtocol(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)
	a := w.GetOrCreateChunk(at(1, 1, 1))
	b := w.GetOrCreateChunk(at(40, 1, 1))

	dirty := w.DirtyChunks()
	require.Len(t, dirty, 2)
	assert.Same(t, a, dirty[0], "Грязные чанки возвращаются в порядке координат")

	w.MarkChunkAsClean(a)
	w.MarkChunkAsClean(b)
	assert.Empty(t, w.DirtyChunks())

	w.SetBlock(at(1, 1, 1), block.StoneBlockID)
	assert.Equal(t, []*Chunk{a}, w.DirtyChunks())

	w.MarkAllChunksDirty()
	assert.Len(t, w.DirtyChunks(), 2)

	// Несгенерированный чанк не считается грязным
	raw := NewChunk(vec.Vec3{X: 9})
	raw.MarkDirty()
	w.chunks[raw.Coords] = raw
	assert.Len(t, w.DirtyChunks(), 2)
}

func TestWorld_BlockAccess(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)
	pos := quadray.New(4, 1, 0, 2)

	assert.Equal(t, block.AirBlockID, w.GetBlock(pos))
	assert.Equal(t, 0, w.ChunkCount(), "GetBlock не создаёт чанки")

	w.SetBlock(pos, block.GrassBlockID)
	assert.Equal(t, 1, w.ChunkCount(), "SetBlock создаёт чанк")
	assert.Equal(t, block.GrassBlockID, w.GetBlock(pos))
	assert.Equal(t, block.GrassBlockID, w.GetBlock(pos.Add(quadray.New(1, 1, 1, 1))))

	chunk, ok := w.ChunkAt(pos)
	require.True(t, ok)
	assert.Equal(t, block.GrassBlockID, chunk.GetBlock(chunk.WorldToChunkSpace(pos)))

	w.SetBlock(pos, block.AirBlockID)
	assert.Equal(t, block.AirBlockID, w.GetBlock(pos))
	assert.Equal(t, 0, w.ElementCount())
}

func TestWorld_SetBlockMarksNeighborChunks(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)

	// Точка s·(-1, 1, 1) лежит в чанке (-1, 0, 0); её источник через грань 0 лежит в (0, 0, 0)
	pos := quadray.New(1, 1, 1, 0)
	require.Equal(t, vec.Vec3{X: -1, Y: 0, Z: 0}, ChunkCoordsOf(pos))

	neighbor := w.GetOrCreateChunk(at(1, 1, 1))
	w.MarkChunkAsClean(neighbor)

	w.SetBlock(pos, block.StoneBlockID)
	assert.True(t, neighbor.IsDirty(), "Соседний чанк должен перестроить меш")
}

func TestWorld_Events(t *testing.T) {
	w := NewWorld(testSettings(), nil, nil)
	counts := make(map[ChunkEventType]int)
	w.Subscribe(func(ev ChunkEvent) { counts[ev.Type]++ })

	c := w.GetOrCreateChunk(at(1, 1, 1))
	w.UnloadChunk(c.Coords)
	assert.False(t, w.UnloadChunk(c.Coords), "Повторная выгрузка ничего не делает")

	assert.Equal(t, 1, counts[ChunkCreated])
	assert.Equal(t, 1, counts[ChunkGenerated])
	assert.Equal(t, 1, counts[ChunkUnloaded])
	assert.Equal(t, "unloaded", ChunkUnloaded.String())
}

func TestWorld_PersistAndRestore(t *testing.T) {
	p := newMemoryPersister()
	gen := NewLatticeTerrain(FlatSampler{Level: 0, Block: block.StoneBlockID})

	w := NewWorld(testSettings(), gen, nil)
	w.SetPersister(p)

	events := make([]ChunkEventType, 0)
	w.Subscribe(func(ev ChunkEvent) { events = append(events, ev.Type) })

	pos := at(3, 2, 3)
	chunk := w.GetOrCreateChunk(pos)

	// Немодифицированный чанк не сохраняется
	w.UnloadChunk(chunk.Coords)
	assert.Equal(t, 0, p.saves)

	chunk = w.GetOrCreateChunk(pos)
	w.SetBlock(pos, block.SandBlockID)
	digest := chunk.Digest()
	w.UnloadChunk(chunk.Coords)
	assert.Equal(t, 1, p.saves)

	restored := w.GetOrCreateChunk(pos)
	assert.Equal(t, digest, restored.Digest(), "Восстановленный чанк совпадает с сохранённым")
	assert.Equal(t, block.SandBlockID, w.GetBlock(pos))
	assert.Contains(t, events, ChunkRestored)
}

func TestWorld_PersisterErrorsAreNotFatal(t *testing.T) {
	p := newMemoryPersister()
	p.loadErr = errors.New("диск недоступен")
	p.saveErr = errors.New("диск недоступен")

	w := NewWorld(testSettings(), NewLatticeTerrain(FlatSampler{Level: 8, Block: block.DirtBlockID}), nil)
	w.SetPersister(p)

	chunk := w.GetOrCreateChunk(at(1, 1, 1))
	assert.True(t, chunk.IsGenerated(), "При ошибке загрузки чанк генерируется")
	assert.Greater(t, chunk.Len(), 0)

	w.SetBlock(at(1, 1, 1), block.StoneBlockID)
	saved, err := w.SaveAll()
	assert.Error(t, err)
	assert.Equal(t, 0, saved)

	assert.True(t, w.UnloadChunk(chunk.Coords), "Ошибка сохранения не мешает выгрузке")
	assert.Equal(t, 0, w.ChunkCount())
}

func TestWorld_SaveAll(t *testing.T) {
	p := newMemoryPersister()
	w := NewWorld(testSettings(), nil, nil)
	w.SetPersister(p)

	w.SetBlock(at(1, 1, 1), block.StoneBlockID)
	w.SetBlock(at(50, 1, 1), block.StoneBlockID)
	w.GetOrCreateChunk(at(100, 1, 1))

	saved, err := w.SaveAll()
	require.NoError(t, err)
	assert.Equal(t, 2, saved, "Сохраняются только изменённые чанки")

	saved, err = w.SaveAll()
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}

func TestLatticeTerrain_FillsOwnedPoints(t *testing.T) {
	chunk := NewChunk(vec.Vec3{})
	gen := NewLatticeTerrain(FlatSampler{Level: 100, Block: block.StoneBlockID})
	gen.Generate(chunk, nil)

	// 12³ чётных и 11³ нечётных узлов решётки в кубе [0, 16)³
	assert.Equal(t, 12*12*12+11*11*11, chunk.Len())

	for _, e := range chunk.Elements() {
		world := chunk.ChunkToWorldSpace(e.Position)
		assert.Equal(t, chunk.Coords, ChunkCoordsOf(world), "элемент %s вне чанка", world)
	}
}

func TestLatticeTerrain_InWorld(t *testing.T) {
	gen := NewLatticeTerrain(FlatSampler{Level: 0, Block: block.StoneBlockID})
	w := NewWorld(testSettings(), gen, nil)

	below := latticeFromPQR(2, -8, 0)
	above := latticeFromPQR(2, 8, 0)

	w.GetOrCreateChunk(below)
	w.GetOrCreateChunk(above)
	assert.Equal(t, block.StoneBlockID, w.GetBlock(below))
	assert.Equal(t, block.AirBlockID, w.GetBlock(above))
}

func TestNoiseTerrain_Deterministic(t *testing.T) {
	build := func(seed int64) *Chunk {
		gen := NewLatticeTerrain(NewNoiseSampler(util.NewPerlinNoise(seed)))
		w := NewWorld(testSettings(), gen, nil)
		return w.GetOrCreateChunk(at(-5, -3, 7))
	}

	a := build(1234)
	b := build(1234)
	assert.Equal(t, a.Digest(), b.Digest(), "Одинаковый сид даёт одинаковый ландшафт")
	assert.Greater(t, a.Len(), 0)
}

func TestNoiseSampler_Layers(t *testing.T) {
	s := NewNoiseSampler(constNoise{v2: 0.5, v3: 0})
	// Высота поверхности 16
	assert.Equal(t, block.GrassBlockID, s.BlockAt(mgl32.Vec3{0, 14, 0}))
	assert.Equal(t, block.DirtBlockID, s.BlockAt(mgl32.Vec3{0, 10, 0}))
	assert.Equal(t, block.StoneBlockID, s.BlockAt(mgl32.Vec3{0, 2, 0}))
	assert.Equal(t, block.AirBlockID, s.BlockAt(mgl32.Vec3{0, 20, 0}))

	caves := NewNoiseSampler(constNoise{v2: 0.5, v3: 0.9})
	assert.Equal(t, block.AirBlockID, caves.BlockAt(mgl32.Vec3{0, 2, 0}))

	low := NewNoiseSampler(constNoise{v2: 0.1, v3: 0})
	// Высота 3.2: пляж и вода над ним
	assert.Equal(t, block.SandBlockID, low.BlockAt(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, block.WaterBlockID, low.BlockAt(mgl32.Vec3{0, 4, 0}))
	assert.Equal(t, block.AirBlockID, low.BlockAt(mgl32.Vec3{0, 6, 0}))
}

type constNoise struct{ v2, v3 float64 }

func (c constNoise) Noise2D(x, y float64) float64    { return c.v2 }
func (c constNoise) Noise3D(x, y, z float64) float64 { return c.v3 }
