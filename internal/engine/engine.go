// Package engine владеет миром и всем, что его читает.
//
// Мир не потокобезопасен, поэтому Engine сериализует под одним мьютексом
// тики, правки блоков, запросы REST API и построение мешей.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/quadcraft/internal/config"
	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/mesh"
	"github.com/annel0/quadcraft/internal/meshcache"
	"github.com/annel0/quadcraft/internal/metrics"
	"github.com/annel0/quadcraft/internal/observability"
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/storage"
	"github.com/annel0/quadcraft/internal/util"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownBlock возвращается при установке незарегистрированного блока
var ErrUnknownBlock = errors.New("неизвестный тип блока")

// ErrClosed возвращается после Close
var ErrClosed = errors.New("движок остановлен")

// TickReport итог одного тика
type TickReport struct {
	Tick          uint64        `json:"tick"`
	Player        quadray.Coord `json:"player"`
	Created       int           `json:"created"`
	Unloaded      int           `json:"unloaded"`
	PendingUnload int           `json:"pending_unload"`
	Remeshed      int           `json:"remeshed"`
	MeshFailures  int           `json:"mesh_failures"`
	PendingRemesh int           `json:"pending_remesh"`
	Duration      time.Duration `json:"duration_ns"`
}

// Stats сводка состояния мира
type Stats struct {
	ID         string          `json:"id"`
	Tick       uint64          `json:"tick"`
	Player     quadray.Coord   `json:"player"`
	Chunks     int             `json:"chunks"`
	Elements   int             `json:"elements"`
	Dirty      int             `json:"dirty"`
	Blocks     int             `json:"blocks"`
	Persistent bool            `json:"persistent"`
	Mesh       meshcache.Stats `json:"mesh"`
}

// ChunkInfo сведения о загруженном чанке
type ChunkInfo struct {
	Coords    vec.Vec3 `json:"coords"`
	Elements  int      `json:"elements"`
	Generated bool     `json:"generated"`
	Dirty     bool     `json:"dirty"`
	Visible   bool     `json:"visible"`
	Modified  bool     `json:"modified"`
	HasMesh   bool     `json:"has_mesh"`
}

// Engine единственный владелец мира
type Engine struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     config.WorldConfig
	world   *world.World
	mesher  *mesh.Mesher
	meshes  *meshcache.Cache
	metrics *metrics.WorldMetrics
	storage *storage.WorldStorage
	tracer  trace.Tracer
	logger  *logging.Logger

	tick   uint64
	player quadray.Coord
	closed bool
}

// New собирает движок из конфигурации. Метрики регистрируются в reg;
// nil reg означает дефолтный регистр Prometheus.
func New(cfg *config.Config, reg prometheus.Registerer) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.GetEngineLogger()

	registry := block.NewRegistry()
	if cfg.Blocks.Dir != "" {
		n, err := registry.LoadDefinitions(cfg.Blocks.Dir)
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки блоков: %w", err)
		}
		logger.Info("Загружено определений блоков: %d из %s", n, cfg.Blocks.Dir)
	}

	generator, err := NewGenerator(cfg.World)
	if err != nil {
		return nil, err
	}

	w := world.NewWorld(world.Settings{
		GenerationRadius:   cfg.World.GenerationRadius,
		UnloadDistance:     cfg.World.UnloadDistance,
		MaxUnloadPerUpdate: cfg.World.MaxUnloadPerUpdate,
		AdaptiveRadius:     cfg.World.AdaptiveRadius,
		ElevatedRetention:  cfg.World.ElevatedRetention,
	}, generator, registry)

	e := &Engine{
		id:      uuid.New(),
		cfg:     cfg.World,
		world:   w,
		metrics: metrics.New(reg),
		tracer:  observability.Tracer(),
		logger:  logger,
		player:  spawnOf(cfg.World),
	}

	if cfg.Storage.Path != "" {
		st, err := storage.NewWorldStorage(cfg.Storage.Path, cfg.Storage.Compress)
		if err != nil {
			return nil, err
		}
		e.storage = st
		w.SetPersister(st)
		logger.Info("💾 Хранилище чанков: %s (zstd=%v)", st.Path(), cfg.Storage.Compress)
	}

	e.mesher = mesh.NewMesher(w, registry, nil)
	e.meshes = meshcache.New(e.mesher, e.metrics)
	w.Subscribe(e.metrics.ObserveChunkEvent)
	e.meshes.Attach(w)

	logger.Info("Движок %s создан: генератор=%s, seed=%d", e.id, cfg.World.Generator, cfg.World.Seed)
	return e, nil
}

// NewGenerator создаёт генератор ландшафта по конфигурации мира
func NewGenerator(cfg config.WorldConfig) (world.TerrainGenerator, error) {
	switch cfg.Generator {
	case config.GeneratorPerlin:
		return world.NewLatticeTerrain(world.NewNoiseSampler(util.NewPerlinNoise(cfg.Seed))), nil
	case config.GeneratorSimplex:
		return world.NewLatticeTerrain(world.NewNoiseSampler(util.NewSimplexNoise(cfg.Seed))), nil
	case config.GeneratorFlat:
		return world.NewLatticeTerrain(world.FlatSampler{Level: cfg.FlatLevel, Block: block.GrassBlockID}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownGenerator, cfg.Generator)
	}
}

func spawnOf(cfg config.WorldConfig) quadray.Coord {
	s := cfg.Spawn
	return quadray.New(s[0], s[1], s[2], s[3]).Normalize()
}

// ID возвращает идентификатор экземпляра движка
func (e *Engine) ID() string {
	return e.id.String()
}

// Metrics возвращает метрики движка
func (e *Engine) Metrics() *metrics.WorldMetrics {
	return e.metrics
}

// Spawn возвращает точку появления игрока
func (e *Engine) Spawn() quadray.Coord {
	return spawnOf(e.cfg)
}

// Tick обновляет чанки вокруг игрока и перестраивает не больше MaxRemeshPerUpdate мешей
func (e *Engine) Tick(ctx context.Context, player quadray.Coord) (TickReport, error) {
	_, span := e.tracer.Start(ctx, "engine.tick")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return TickReport{}, ErrClosed
	}

	start := time.Now()
	e.tick++
	e.player = player.Normalize()

	upd := e.world.UpdateChunks(e.player)
	remesh := e.meshes.Update(e.world, e.player.ToEuclidean(), e.cfg.MaxRemeshPerUpdate)

	report := TickReport{
		Tick:          e.tick,
		Player:        e.player,
		Created:       upd.Created,
		Unloaded:      len(upd.Unloaded),
		PendingUnload: upd.Pending,
		Remeshed:      len(remesh.Rebuilt),
		MeshFailures:  remesh.Failed,
		PendingRemesh: remesh.Pending,
		Duration:      time.Since(start),
	}
	e.metrics.ObserveTick(report.Duration)

	span.SetAttributes(
		attribute.Int64("tick", int64(report.Tick)),
		attribute.Int("chunks.created", report.Created),
		attribute.Int("chunks.unloaded", report.Unloaded),
		attribute.Int("mesh.rebuilt", report.Remeshed),
	)
	if report.Created > 0 || report.Unloaded > 0 {
		e.logger.Debug("Тик %d: создано %d, выгружено %d, мешей %d (ожидают %d)",
			report.Tick, report.Created, report.Unloaded, report.Remeshed, report.PendingRemesh)
	}
	return report, nil
}

// GetBlock возвращает блок в мировой точке
func (e *Engine) GetBlock(pos quadray.Coord) block.BlockID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.GetBlock(pos)
}

// SetBlock устанавливает блок в мировой точке
func (e *Engine) SetBlock(pos quadray.Coord, id block.BlockID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if !e.world.Registry().Has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	if !pos.IsFinite() {
		return fmt.Errorf("некорректная позиция %v", pos)
	}
	e.world.SetBlock(pos, id)
	return nil
}

// Blocks возвращает определения зарегистрированных блоков
func (e *Engine) Blocks() []block.Definition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Registry().Definitions()
}

// Stats возвращает сводку состояния мира
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		ID:         e.ID(),
		Tick:       e.tick,
		Player:     e.player,
		Chunks:     e.world.ChunkCount(),
		Elements:   e.world.ElementCount(),
		Dirty:      len(e.world.DirtyChunks()),
		Blocks:     e.world.Registry().Len(),
		Persistent: e.storage != nil,
		Mesh:       e.meshes.Stats(),
	}
}

// Chunks возвращает сведения о загруженных чанках в стабильном порядке
func (e *Engine) Chunks() []ChunkInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	chunks := e.world.Chunks()
	out := make([]ChunkInfo, len(chunks))
	for i, c := range chunks {
		_, hasMesh := e.meshes.Get(c.Coords)
		out[i] = ChunkInfo{
			Coords:    c.Coords,
			Elements:  c.Len(),
			Generated: c.IsGenerated(),
			Dirty:     c.IsDirty(),
			Visible:   c.IsVisible(),
			Modified:  c.IsModified(),
			HasMesh:   hasMesh,
		}
	}
	return out
}

// Mesh возвращает актуальный меш загруженного чанка, перестраивая его при необходимости
func (e *Engine) Mesh(coords vec.Vec3) (*mesh.Mesh, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	chunk, ok := e.world.Chunk(coords)
	if !ok {
		return nil, false
	}
	if m, cached := e.meshes.Get(coords); cached && !chunk.IsDirty() {
		return m, true
	}
	m, _ := e.meshes.Rebuild(chunk)
	e.world.MarkChunkAsClean(chunk)
	return m, true
}

// SetChunkVisible задаёт видимость чанка; видимые чанки не выгружаются
func (e *Engine) SetChunkVisible(coords vec.Vec3, visible bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.SetChunkVisible(coords, visible)
}

// Save сохраняет изменённые чанки
func (e *Engine) Save() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrClosed
	}
	return e.world.SaveAll()
}

// Close сохраняет изменённые чанки и закрывает хранилище
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	saved, saveErr := e.world.SaveAll()
	if saved > 0 {
		e.logger.Info("💾 Сохранено чанков при остановке: %d", saved)
	}
	if e.storage != nil {
		if err := e.storage.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия хранилища: %w", err)
		}
	}
	return saveErr
}
