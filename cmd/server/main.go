package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/quadcraft/internal/api"
	"github.com/annel0/quadcraft/internal/config"
	"github.com/annel0/quadcraft/internal/engine"
	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/observability"
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML конфигурации (или QUADCRAFT_CONFIG)")
		maxTicks   = flag.Int("ticks", 0, "остановиться после N тиков (0: без ограничения)")
		walk       = flag.Float64("walk", 0, "смещение игрока по оси X за тик")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	if cfg.Logging.File {
		logging.EnableFileLogging(cfg.Logging.Dir)
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Некорректный уровень логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.DefaultLogger().SetLevel(level, logging.DEBUG)
	logging.GetLoggerManager().SetGlobalLevel(level)
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск Quadcraft World Server...")
	logging.Info("📡 Генератор=%s, seed=%d, радиус=%d, тик=%dмс",
		cfg.World.Generator, cfg.World.Seed, cfg.World.GenerationRadius, cfg.World.TickIntervalMs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logging.Warn("⚠️ Трассировка отключена: %v", err)
		} else {
			shutdownTelemetry = shutdown
			logging.Info("🔭 Трассировка OTLP включена для %s", cfg.Telemetry.ServiceName)
		}
	}

	// === ДВИЖОК МИРА ===
	eng, err := engine.New(cfg, nil)
	if err != nil {
		logging.Error("❌ Ошибка создания движка: %v", err)
		os.Exit(1)
	}
	logging.Info("🌍 Движок %s создан", eng.ID())

	// === REST API ===
	port := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	rest := api.NewRestServer(api.Config{
		Port:        port,
		Engine:      eng,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	go func() {
		if err := rest.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			stop()
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", port)
	logging.Info("   ❤️  Health check: http://localhost%s/health", port)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", port)

	// === ИГРОВОЙ ЦИКЛ ===
	step := quadray.FromEuclidean(mgl32.Vec3{float32(*walk), 0, 0})
	interval := time.Duration(cfg.World.TickIntervalMs) * time.Millisecond
	ticks, err := eng.Run(ctx, interval, *maxTicks, engine.LinearPath(eng.Spawn(), step))
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("❌ Игровой цикл остановлен с ошибкой: %v", err)
	}
	logging.Info("📡 Завершение работы после %d тиков...", ticks)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logging.Debug("Остановка REST API...")
	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	logging.Debug("Сохранение мира...")
	if err := eng.Close(); err != nil {
		logging.Error("❌ Ошибка сохранения мира: %v", err)
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("⚠️ Ошибка остановки трассировки: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
