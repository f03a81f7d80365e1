package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, GeneratorPerlin, cfg.World.Generator)
	assert.Equal(t, float32(128), cfg.World.UnloadDistance)
	assert.Equal(t, 5, cfg.World.MaxUnloadPerUpdate)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  seed: 7
  generator: simplex
  generation_radius: 1
  spawn: [1, 0, 0, 0]
storage:
  path: ""
server:
  rest_port: 9000
logging:
  level: DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
	assert.Equal(t, GeneratorSimplex, cfg.World.Generator)
	assert.Equal(t, 1, cfg.World.GenerationRadius)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, cfg.World.Spawn)
	assert.Empty(t, cfg.Storage.Path, "Пустой путь отключает хранилище")
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
	assert.Equal(t, "DEBUG", cfg.Logging.Level)

	// Не указанные поля сохраняют значения по умолчанию
	assert.Equal(t, float32(128), cfg.World.UnloadDistance)
	assert.Equal(t, 50, cfg.World.TickIntervalMs)
}

func TestLoad_EnvFallback(t *testing.T) {
	path := writeConfig(t, "world:\n  generator: flat\n")
	t.Setenv("QUADCRAFT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, GeneratorFlat, cfg.World.Generator)

	t.Setenv("QUADCRAFT_CONFIG", "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world: [oops"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world:\n  generator: voronoi\n"))
	assert.ErrorIs(t, err, ErrUnknownGenerator)

	_, err = Load(writeConfig(t, "world:\n  unload_distance: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGetRESTPort_Fallbacks(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("QUADCRAFT_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("QUADCRAFT_REST_PORT", "9191")
	assert.Equal(t, 9191, s.GetRESTPort())

	t.Setenv("QUADCRAFT_REST_PORT", "not-a-port")
	assert.Equal(t, 8088, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}
