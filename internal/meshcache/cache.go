// Package meshcache хранит меши загруженных чанков на стороне рендера.
//
// Кеш не держит указателей на чанки: ключом служат координаты чанка,
// поэтому выгрузка чанка из мира не оставляет висячих ссылок.
//
// Использование:
//
//	cache := meshcache.New(mesher, metrics)
//	cache.Attach(w)
//	report := cache.Update(w, player, 4)
//	m, ok := cache.Get(coords)
package meshcache

import (
	"fmt"
	"sort"
	"time"

	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/mesh"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Builder строит меш чанка
type Builder interface {
	BuildChunkMesh(chunk *world.Chunk) (*mesh.Mesh, error)
}

// Observer получает результаты построения мешей (например, метрики)
type Observer interface {
	ObserveMesh(faces int, d time.Duration)
	MeshFailed()
}

// Stats счётчики кеша
type Stats struct {
	Builds   int `json:"builds"`   // Успешных построений
	Failures int `json:"failures"` // Построений, заменённых заглушкой
	Dropped  int `json:"dropped"`  // Мешей удалено при выгрузке чанков
	Cached   int `json:"cached"`   // Мешей в кеше сейчас
}

// UpdateReport итог одного вызова Update
type UpdateReport struct {
	Rebuilt []vec.Vec3 `json:"rebuilt"` // Перестроенные чанки в порядке обработки
	Failed  int        `json:"failed"`  // Из них заменены заглушкой
	Pending int        `json:"pending"` // Грязных чанков осталось на следующий вызов
}

// Cache меши чанков по координатам
type Cache struct {
	builder  Builder
	observer Observer
	meshes   map[vec.Vec3]*mesh.Mesh
	stats    Stats
	logger   *logging.Logger
}

// New создаёт кеш. observer может быть nil.
func New(builder Builder, observer Observer) *Cache {
	return &Cache{
		builder:  builder,
		observer: observer,
		meshes:   make(map[vec.Vec3]*mesh.Mesh),
		logger:   logging.GetMeshLogger(),
	}
}

// Attach подписывает кеш на события мира: меш выгруженного чанка удаляется
func (c *Cache) Attach(w *world.World) {
	w.Subscribe(c.HandleEvent)
}

// HandleEvent обрабатывает событие жизненного цикла чанка
func (c *Cache) HandleEvent(ev world.ChunkEvent) {
	if ev.Type == world.ChunkUnloaded {
		c.Drop(ev.Coords)
	}
}

// Update перестраивает меши грязных чанков, начиная с ближайших к игроку.
// За вызов обрабатывается не больше budget чанков; budget <= 0 снимает ограничение.
// Каждый обработанный чанк помечается чистым, даже если построение не удалось.
func (c *Cache) Update(w *world.World, player mgl32.Vec3, budget int) UpdateReport {
	dirty := w.DirtyChunks()
	sort.SliceStable(dirty, func(i, j int) bool {
		di := dirty[i].Center().Sub(player)
		dj := dirty[j].Center().Sub(player)
		return di.Dot(di) < dj.Dot(dj)
	})

	limit := len(dirty)
	if budget > 0 && limit > budget {
		limit = budget
	}

	var report UpdateReport
	for _, chunk := range dirty[:limit] {
		if _, ok := c.Rebuild(chunk); !ok {
			report.Failed++
		}
		w.MarkChunkAsClean(chunk)
		report.Rebuilt = append(report.Rebuilt, chunk.Coords)
	}
	report.Pending = len(dirty) - limit
	return report
}

// Rebuild строит меш чанка и кладёт его в кеш.
// При ошибке или панике построителя в кеш попадает пустая заглушка, ok = false.
func (c *Cache) Rebuild(chunk *world.Chunk) (*mesh.Mesh, bool) {
	start := time.Now()
	m, err := c.safeBuild(chunk)
	if err != nil || m == nil {
		if err == nil {
			err = fmt.Errorf("построитель вернул пустой результат")
		}
		c.logger.Warn("Меш чанка %v заменён заглушкой: %v", chunk.Coords, err)
		c.stats.Failures++
		if c.observer != nil {
			c.observer.MeshFailed()
		}
		m = mesh.FallbackMesh(chunk.Coords)
		c.meshes[chunk.Coords] = m
		return m, false
	}

	c.stats.Builds++
	if c.observer != nil {
		c.observer.ObserveMesh(m.FaceCount(), time.Since(start))
	}
	if m.Skipped > 0 {
		c.logger.Debug("Чанк %v: пропущено повреждённых элементов: %d", chunk.Coords, m.Skipped)
	}
	c.meshes[chunk.Coords] = m
	return m, true
}

func (c *Cache) safeBuild(chunk *world.Chunk) (m *mesh.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("паника построителя: %v", r)
		}
	}()
	return c.builder.BuildChunkMesh(chunk)
}

// Get возвращает меш чанка
func (c *Cache) Get(coords vec.Vec3) (*mesh.Mesh, bool) {
	m, ok := c.meshes[coords]
	return m, ok
}

// Drop удаляет меш чанка
func (c *Cache) Drop(coords vec.Vec3) bool {
	if _, ok := c.meshes[coords]; !ok {
		return false
	}
	delete(c.meshes, coords)
	c.stats.Dropped++
	return true
}

// Len возвращает количество мешей в кеше
func (c *Cache) Len() int {
	return len(c.meshes)
}

// Coords возвращает координаты чанков с мешами в стабильном порядке
func (c *Cache) Coords() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(c.meshes))
	for k := range c.meshes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Stats возвращает счётчики кеша
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Cached = len(c.meshes)
	return s
}
