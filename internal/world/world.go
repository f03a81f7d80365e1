package world

import (
	"math"
	"sort"

	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Settings параметры загрузки и выгрузки чанков
type Settings struct {
	GenerationRadius   int     // Радиус генерации вокруг игрока в шагах чанка по решётке
	UnloadDistance     float32 // Чанки дальше этого расстояния от игрока выгружаются
	MaxUnloadPerUpdate int     // Ограничение выгрузок за один вызов UpdateChunks; <= 0 без ограничения
	AdaptiveRadius     bool    // Увеличивать радиус генерации вдали от начала координат
	ElevatedRetention  bool    // Увеличивать дистанцию выгрузки, когда игрок высоко
}

// DefaultSettings возвращает параметры по умолчанию
func DefaultSettings() Settings {
	return Settings{
		GenerationRadius:   2,
		UnloadDistance:     128,
		MaxUnloadPerUpdate: 5,
		AdaptiveRadius:     true,
		ElevatedRetention:  true,
	}
}

// UpdateResult итог одного вызова UpdateChunks
type UpdateResult struct {
	Created  int        // Новых чанков
	Unloaded []vec.Vec3 // Координаты выгруженных чанков
	Pending  int        // Кандидатов на выгрузку, отложенных до следующего вызова
}

// World владеет всеми загруженными чанками и реестром блоков.
// Не потокобезопасен: все вызовы должны идти из одного потока управления.
type World struct {
	chunks    map[vec.Vec3]*Chunk
	registry  *block.Registry
	generator TerrainGenerator
	persister ChunkPersister
	settings  Settings
	listeners []ChunkListener
	logger    *logging.Logger
}

// NewWorld создаёт мир с заданным генератором и реестром блоков.
// nil generator оставляет чанки пустыми, nil registry заменяется базовым.
func NewWorld(settings Settings, generator TerrainGenerator, registry *block.Registry) *World {
	if registry == nil {
		registry = block.NewRegistry()
	}
	if generator == nil {
		generator = GeneratorFunc(func(*Chunk, *World) {})
	}
	return &World{
		chunks:    make(map[vec.Vec3]*Chunk),
		registry:  registry,
		generator: generator,
		settings:  settings,
		logger:    logging.GetWorldLogger(),
	}
}

// SetPersister подключает хранилище снимков чанков
func (w *World) SetPersister(p ChunkPersister) {
	w.persister = p
}

// Subscribe добавляет получателя событий жизненного цикла чанков
func (w *World) Subscribe(l ChunkListener) {
	w.listeners = append(w.listeners, l)
}

func (w *World) emit(ev ChunkEvent) {
	for _, l := range w.listeners {
		l(ev)
	}
}

// Registry возвращает реестр блоков мира
func (w *World) Registry() *block.Registry {
	return w.registry
}

// Settings возвращает параметры мира
func (w *World) Settings() Settings {
	return w.settings
}

// ChunkCoordsOf возвращает координаты чанка, содержащего точку решётки.
// Точка сначала привязывается к сетке ключей, поэтому разные записи одной
// точки всегда попадают в один чанк.
func ChunkCoordsOf(pos quadray.Coord) vec.Vec3 {
	e := pos.Snap().ToEuclidean()
	return vec.Vec3{
		X: vec.FloorDiv(e[0], ChunkSize),
		Y: vec.FloorDiv(e[1], ChunkSize),
		Z: vec.FloorDiv(e[2], ChunkSize),
	}
}

// Chunk возвращает загруженный чанк по координатам
func (w *World) Chunk(coords vec.Vec3) (*Chunk, bool) {
	c, ok := w.chunks[coords]
	return c, ok
}

// ChunkAt возвращает загруженный чанк, содержащий точку, без создания
func (w *World) ChunkAt(pos quadray.Coord) (*Chunk, bool) {
	return w.Chunk(ChunkCoordsOf(pos))
}

// HasChunk проверяет, загружен ли чанк
func (w *World) HasChunk(coords vec.Vec3) bool {
	_, ok := w.chunks[coords]
	return ok
}

// ChunkCount возвращает количество загруженных чанков
func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// Chunks возвращает загруженные чанки в порядке координат
func (w *World) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c)
	}
	sortChunks(out)
	return out
}

func sortChunks(chunks []*Chunk) {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Coords.Less(chunks[j].Coords) })
}

// GetOrCreateChunk возвращает чанк, содержащий точку, создавая его при необходимости.
// Новый чанк восстанавливается из хранилища или заполняется генератором синхронно.
func (w *World) GetOrCreateChunk(pos quadray.Coord) *Chunk {
	chunk, _ := w.getOrCreate(ChunkCoordsOf(pos))
	return chunk
}

// getOrCreate возвращает чанк и признак того, что он был создан сейчас
func (w *World) getOrCreate(coords vec.Vec3) (*Chunk, bool) {
	if c, ok := w.chunks[coords]; ok {
		return c, false
	}

	chunk := NewChunk(coords)
	w.chunks[coords] = chunk
	w.emit(ChunkEvent{Type: ChunkCreated, Coords: coords})

	if w.restore(chunk) {
		w.emit(ChunkEvent{Type: ChunkRestored, Coords: coords, Elements: chunk.Len()})
		return chunk, true
	}

	w.generator.Generate(chunk, w)
	chunk.markGenerated()
	w.logger.Debug("Чанк %v сгенерирован: %d элементов", coords, chunk.Len())
	w.emit(ChunkEvent{Type: ChunkGenerated, Coords: coords, Elements: chunk.Len()})
	return chunk, true
}

// restore загружает снимок чанка из хранилища. Ошибки хранилища не фатальны:
// чанк будет сгенерирован заново.
func (w *World) restore(chunk *Chunk) bool {
	if w.persister == nil {
		return false
	}
	snap, err := w.persister.LoadChunk(chunk.Coords)
	if err != nil {
		w.logger.Warn("Не удалось загрузить чанк %v, генерируем заново: %v", chunk.Coords, err)
		return false
	}
	if snap == nil {
		return false
	}
	chunk.Restore(snap)
	w.logger.Debug("Чанк %v восстановлен из хранилища: %d элементов", chunk.Coords, chunk.Len())
	return true
}

// effectiveRadius увеличивает радиус генерации вдали от начала координат
func (w *World) effectiveRadius(center quadray.Coord, radius int) int {
	if !w.settings.AdaptiveRadius {
		return radius
	}
	dist := center.ToEuclidean().Len()
	if dist > 100 {
		radius++
	}
	if dist > 200 {
		radius++
	}
	return radius
}

// GenerateChunksAround создаёт чанки вокруг точки.
// Перебираются целые смещения (a, b, c, d) по всем четырём осям решётки внутри
// четырёхмерного шара радиуса radius; смещение умножается на ChunkSize.
// Эквивалентные смещения дают запас по покрытию. Возвращает число новых чанков.
func (w *World) GenerateChunksAround(center quadray.Coord, radius int) int {
	r := w.effectiveRadius(center, radius)
	center = center.Normalize()
	created := 0

	for a := -r; a <= r; a++ {
		for b := -r; b <= r; b++ {
			for c := -r; c <= r; c++ {
				for d := -r; d <= r; d++ {
					if math.Sqrt(float64(a*a+b*b+c*c+d*d)) > float64(r) {
						continue
					}
					offset := quadray.New(float32(a), float32(b), float32(c), float32(d)).Scale(ChunkSize)
					pos := center.Add(offset)
					if _, isNew := w.getOrCreate(ChunkCoordsOf(pos)); isNew {
						created++
					}
				}
			}
		}
	}
	return created
}

// unloadDistanceSq возвращает квадрат дистанции выгрузки с учётом высоты игрока
func (w *World) unloadDistanceSq(player mgl32.Vec3) float32 {
	maxDist := w.settings.UnloadDistance
	maxDistSq := maxDist * maxDist
	if w.settings.ElevatedRetention && player[1] > 50 {
		factor := 1 + (player[1]-50)/50
		if factor > 2 {
			factor = 2
		}
		maxDistSq *= factor
	}
	return maxDistSq
}

// UpdateChunks генерирует чанки вокруг игрока и выгружает далёкие невидимые.
// За один вызов выгружается не больше MaxUnloadPerUpdate чанков, начиная с самых далёких.
func (w *World) UpdateChunks(player quadray.Coord) UpdateResult {
	var res UpdateResult
	res.Created = w.GenerateChunksAround(player, w.settings.GenerationRadius)

	playerPos := player.ToEuclidean()
	maxDistSq := w.unloadDistanceSq(playerPos)

	type candidate struct {
		coords vec.Vec3
		distSq float32
	}
	var candidates []candidate
	for coords, chunk := range w.chunks {
		if chunk.IsVisible() {
			continue
		}
		diff := chunk.Center().Sub(playerPos)
		distSq := diff.Dot(diff)
		if distSq > maxDistSq {
			candidates = append(candidates, candidate{coords: coords, distSq: distSq})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distSq != candidates[j].distSq {
			return candidates[i].distSq > candidates[j].distSq
		}
		return candidates[i].coords.Less(candidates[j].coords)
	})

	limit := len(candidates)
	if w.settings.MaxUnloadPerUpdate > 0 && limit > w.settings.MaxUnloadPerUpdate {
		limit = w.settings.MaxUnloadPerUpdate
	}
	for _, cand := range candidates[:limit] {
		if w.UnloadChunk(cand.coords) {
			res.Unloaded = append(res.Unloaded, cand.coords)
		}
	}
	res.Pending = len(candidates) - limit
	return res
}

// UnloadChunk выгружает чанк. Изменённый чанк сохраняется в хранилище;
// ошибка сохранения логируется, чанк всё равно выгружается.
func (w *World) UnloadChunk(coords vec.Vec3) bool {
	chunk, ok := w.chunks[coords]
	if !ok {
		return false
	}
	if err := w.persist(chunk); err != nil {
		w.logger.Error("Не удалось сохранить чанк %v при выгрузке: %v", coords, err)
	}
	delete(w.chunks, coords)
	w.logger.Debug("Чанк %v выгружен", coords)
	w.emit(ChunkEvent{Type: ChunkUnloaded, Coords: coords, Elements: chunk.Len()})
	return true
}

func (w *World) persist(chunk *Chunk) error {
	if w.persister == nil || !chunk.IsModified() {
		return nil
	}
	if err := w.persister.SaveChunk(chunk.Snapshot()); err != nil {
		return err
	}
	chunk.modified = false
	return nil
}

// SaveAll сохраняет все изменённые чанки. Возвращает последнюю ошибку.
func (w *World) SaveAll() (int, error) {
	saved := 0
	var lastErr error
	for _, chunk := range w.Chunks() {
		if !chunk.IsModified() {
			continue
		}
		if err := w.persist(chunk); err != nil {
			lastErr = err
			w.logger.Error("Не удалось сохранить чанк %v: %v", chunk.Coords, err)
			continue
		}
		saved++
	}
	return saved, lastErr
}

// MarkAllChunksDirty помечает все чанки грязными
func (w *World) MarkAllChunksDirty() {
	for _, c := range w.chunks {
		c.MarkDirty()
	}
}

// DirtyChunks возвращает сгенерированные чанки с устаревшим мешем в порядке координат
func (w *World) DirtyChunks() []*Chunk {
	var out []*Chunk
	for _, c := range w.chunks {
		if c.IsGenerated() && c.IsDirty() {
			out = append(out, c)
		}
	}
	sortChunks(out)
	return out
}

// MarkChunkAsClean снимает флаг грязности после перестроения меша
func (w *World) MarkChunkAsClean(c *Chunk) {
	if c != nil {
		c.MarkClean()
	}
}

// SetChunkVisible задаёт видимость загруженного чанка
func (w *World) SetChunkVisible(coords vec.Vec3, visible bool) bool {
	c, ok := w.chunks[coords]
	if !ok {
		return false
	}
	c.SetVisible(visible)
	return true
}

// GetBlock возвращает блок в мировой точке. Незагруженный чанк: воздух, без создания.
func (w *World) GetBlock(pos quadray.Coord) block.BlockID {
	c, ok := w.chunks[ChunkCoordsOf(pos)]
	if !ok {
		return block.AirBlockID
	}
	return c.blockAtKey(pos.Key())
}

// SetBlock устанавливает блок в мировой точке, создавая и генерируя чанк при необходимости.
// Загруженные соседние чанки, чьи элементы смотрят на эту точку гранью, тоже
// помечаются грязными.
func (w *World) SetBlock(pos quadray.Coord, id block.BlockID) {
	chunk, _ := w.getOrCreate(ChunkCoordsOf(pos))
	chunk.SetBlock(chunk.WorldToChunkSpace(pos), id)

	for _, src := range faceSources(pos) {
		coords := ChunkCoordsOf(src)
		if coords == chunk.Coords {
			continue
		}
		if other, ok := w.chunks[coords]; ok {
			other.MarkDirty()
		}
	}
}

// ElementCount возвращает общее количество элементов во всех чанках
func (w *World) ElementCount() int {
	n := 0
	for _, c := range w.chunks {
		n += c.Len()
	}
	return n
}
