package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Ошибки валидации конфигурации
var (
	ErrUnknownGenerator = errors.New("неизвестный генератор ландшафта")
	ErrInvalidValue     = errors.New("недопустимое значение параметра")
)

// Генераторы ландшафта
const (
	GeneratorPerlin  = "perlin"
	GeneratorSimplex = "simplex"
	GeneratorFlat    = "flat"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed               int64      `yaml:"seed"`
	Generator          string     `yaml:"generator"`
	FlatLevel          float32    `yaml:"flat_level"`
	GenerationRadius   int        `yaml:"generation_radius"`
	UnloadDistance     float32    `yaml:"unload_distance"`
	MaxUnloadPerUpdate int        `yaml:"max_unload_per_update"`
	MaxRemeshPerUpdate int        `yaml:"max_remesh_per_update"`
	AdaptiveRadius     bool       `yaml:"adaptive_radius"`
	ElevatedRetention  bool       `yaml:"elevated_retention"`
	Spawn              [4]float32 `yaml:"spawn"`
	TickIntervalMs     int        `yaml:"tick_interval_ms"`
}

// BlocksConfig каталог с YAML определениями дополнительных блоков; пусто: только базовые
type BlocksConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig хранилище чанков; пустой путь отключает сохранение
type StorageConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	File  bool   `yaml:"file"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:               42,
			Generator:          GeneratorPerlin,
			FlatLevel:          8,
			GenerationRadius:   2,
			UnloadDistance:     128,
			MaxUnloadPerUpdate: 5,
			MaxRemeshPerUpdate: 4,
			AdaptiveRadius:     true,
			ElevatedRetention:  true,
			Spawn:              [4]float32{0, 0, 0, 0},
			TickIntervalMs:     50,
		},
		Storage: StorageConfig{
			Path:     "data",
			Compress: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "quadcraft",
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Dir:   "logs",
		},
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	switch c.World.Generator {
	case GeneratorPerlin, GeneratorSimplex, GeneratorFlat:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGenerator, c.World.Generator)
	}
	if c.World.GenerationRadius < 0 {
		return fmt.Errorf("%w: generation_radius = %d", ErrInvalidValue, c.World.GenerationRadius)
	}
	if c.World.UnloadDistance <= 0 {
		return fmt.Errorf("%w: unload_distance = %v", ErrInvalidValue, c.World.UnloadDistance)
	}
	if c.World.TickIntervalMs <= 0 {
		return fmt.Errorf("%w: tick_interval_ms = %d", ErrInvalidValue, c.World.TickIntervalMs)
	}
	if c.Server.RESTPort < 0 || c.Server.RESTPort > 65535 {
		return fmt.Errorf("%w: rest_port = %d", ErrInvalidValue, c.Server.RESTPort)
	}
	return nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "QUADCRAFT_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV QUADCRAFT_CONFIG; если и он пуст, возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("QUADCRAFT_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан: использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
