// Package metrics содержит Prometheus-метрики мира, построения мешей и тиков движка.
package metrics

import (
	"time"

	"github.com/annel0/quadcraft/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quadcraft"

// WorldMetrics метрики жизненного цикла чанков, мешей и тиков.
// Реализует meshcache.Observer; ObserveChunkEvent подписывается на события мира.
//
// Метрики:
// * quadcraft_world_chunks_loaded: gauge
// * quadcraft_world_chunks_generated_total, _restored_total, _unloaded_total: counter
// * quadcraft_mesh_builds_total, quadcraft_mesh_failures_total: counter
// * quadcraft_mesh_faces, quadcraft_mesh_build_duration_seconds: histogram
// * quadcraft_engine_tick_duration_seconds: histogram
type WorldMetrics struct {
	ChunksLoaded    prometheus.Gauge
	ChunksGenerated prometheus.Counter
	ChunksRestored  prometheus.Counter
	ChunksUnloaded  prometheus.Counter

	MeshBuilds        prometheus.Counter
	MeshFailures      prometheus.Counter
	MeshFaces         prometheus.Histogram
	MeshBuildDuration prometheus.Histogram

	TickDuration prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg. nil reg означает дефолтный регистр.
func New(reg prometheus.Registerer) *WorldMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &WorldMetrics{
		ChunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunks_generated_total",
			Help:      "Чанков, заполненных генератором.",
		}),
		ChunksRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunks_restored_total",
			Help:      "Чанков, восстановленных из хранилища.",
		}),
		ChunksUnloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunks_unloaded_total",
			Help:      "Выгруженных чанков.",
		}),
		MeshBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "builds_total",
			Help:      "Успешных построений мешей.",
		}),
		MeshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "failures_total",
			Help:      "Построений, заменённых пустой заглушкой.",
		}),
		MeshFaces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "faces",
			Help:      "Количество треугольников в построенном меше.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		MeshBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "build_duration_seconds",
			Help:      "Длительность построения меша чанка.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика движка.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	reg.MustRegister(
		m.ChunksLoaded, m.ChunksGenerated, m.ChunksRestored, m.ChunksUnloaded,
		m.MeshBuilds, m.MeshFailures, m.MeshFaces, m.MeshBuildDuration,
		m.TickDuration,
	)
	return m
}

// ObserveChunkEvent учитывает событие жизненного цикла чанка
func (m *WorldMetrics) ObserveChunkEvent(ev world.ChunkEvent) {
	switch ev.Type {
	case world.ChunkCreated:
		m.ChunksLoaded.Inc()
	case world.ChunkGenerated:
		m.ChunksGenerated.Inc()
	case world.ChunkRestored:
		m.ChunksRestored.Inc()
	case world.ChunkUnloaded:
		m.ChunksLoaded.Dec()
		m.ChunksUnloaded.Inc()
	}
}

// ObserveMesh учитывает успешное построение меша
func (m *WorldMetrics) ObserveMesh(faces int, d time.Duration) {
	m.MeshBuilds.Inc()
	m.MeshFaces.Observe(float64(faces))
	m.MeshBuildDuration.Observe(d.Seconds())
}

// MeshFailed учитывает построение, заменённое заглушкой
func (m *WorldMetrics) MeshFailed() {
	m.MeshFailures.Inc()
}

// ObserveTick учитывает длительность тика
func (m *WorldMetrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}
