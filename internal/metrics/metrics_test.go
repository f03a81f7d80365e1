package metrics

import (
	"testing"
	"time"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveChunkEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())

	w := world.NewWorld(world.Settings{UnloadDistance: 64}, nil, nil)
	w.Subscribe(m.ObserveChunkEvent)

	pos := quadray.New(6, 2, 2, 0)
	w.SetBlock(pos, block.StoneBlockID)
	w.GenerateChunksAround(pos, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksGenerated))

	require.True(t, w.UnloadChunk(world.ChunkCoordsOf(pos)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ChunksLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksUnloaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ChunksRestored))

	m.ObserveChunkEvent(world.ChunkEvent{Type: world.ChunkRestored})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksRestored))
}

func TestObserveMeshAndTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveMesh(12, 3*time.Millisecond)
	m.ObserveMesh(4, time.Millisecond)
	m.MeshFailed()
	m.ObserveTick(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MeshBuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MeshFailures))

	count, err := testutil.GatherAndCount(reg,
		"quadcraft_mesh_faces",
		"quadcraft_mesh_build_duration_seconds",
		"quadcraft_engine_tick_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "Гистограммы зарегистрированы")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "Повторная регистрация в том же регистре")
}
