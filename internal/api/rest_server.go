package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/quadcraft/internal/engine"
	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/middleware"
	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер мира
type RestServer struct {
	router  *gin.Engine
	engine  *engine.Engine
	port    string
	metrics *ServerMetrics
	server  *http.Server
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string                // порт для запуска сервера
	Engine      *engine.Engine        // движок мира
	ServiceName string                // имя сервиса для трассировки
	Registerer  prometheus.Registerer // регистр HTTP-метрик; nil: дефолтный
	Gatherer    prometheus.Gatherer   // источник /metrics; nil: дефолтный
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "quadcraft"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))

	loggerMw := middleware.NewRequestLogger(nil)
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("quadcraft_api", config.Registerer, config.Gatherer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		engine:  config.Engine,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  logging.GetAPILogger(),
	}

	// Настраиваем маршруты
	server.setupRoutes()

	server.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/server", rs.handleServerInfo)
		api.GET("/blocks", rs.handleBlocks)

		api.GET("/chunks", rs.handleChunks)
		api.GET("/chunks/:x/:y/:z/mesh", rs.handleChunkMesh)
		api.PUT("/chunks/:x/:y/:z/visible", rs.handleChunkVisible)

		api.GET("/block", rs.handleGetBlock)
		api.PUT("/block", rs.handleSetBlock)

		api.POST("/tick", rs.handleTick)
		api.GET("/lattice/convert", rs.handleConvert)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SetBlockRequest запрос на установку блока
type SetBlockRequest struct {
	Position quadray.Coord `json:"position"`
	BlockID  block.BlockID `json:"block_id"`
}

// VisibilityRequest запрос на изменение видимости чанка
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// TickRequest запрос на выполнение тика; без позиции используется точка появления
type TickRequest struct {
	Player *quadray.Coord `json:"player,omitempty"`
}

// ConvertResponse результат перевода координат
type ConvertResponse struct {
	Lattice   quadray.Coord `json:"lattice"`
	Snapped   quadray.Coord `json:"snapped"`
	Key       string        `json:"key"`
	Euclidean mgl32.Vec3    `json:"euclidean"`
	Chunk     vec.Vec3      `json:"chunk"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

// handleStats возвращает статистику мира
func (rs *RestServer) handleStats(c *gin.Context) {
	ok(c, "Статистика получена", rs.engine.Stats())
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	ok(c, "Информация о сервере", map[string]interface{}{
		"name":           "Quadcraft World Server",
		"engine_id":      rs.engine.ID(),
		"status":         "running",
		"uptime":         rs.metrics.GetUptime(),
		"memory_mb":      fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent":    fmt.Sprintf("%.1f", cpuPercent),
		"memory_details": rs.metrics.GetDetailedMemoryStats(),
	})
}

// handleBlocks возвращает зарегистрированные блоки
func (rs *RestServer) handleBlocks(c *gin.Context) {
	ok(c, "Список блоков", rs.engine.Blocks())
}

// handleChunks возвращает загруженные чанки
func (rs *RestServer) handleChunks(c *gin.Context) {
	chunks := rs.engine.Chunks()
	ok(c, "Загруженные чанки", map[string]interface{}{
		"chunks": chunks,
		"total":  len(chunks),
	})
}

func parseChunkCoords(c *gin.Context) (vec.Vec3, error) {
	var out vec.Vec3
	for _, p := range []struct {
		name string
		dst  *int
	}{{"x", &out.X}, {"y", &out.Y}, {"z", &out.Z}} {
		v, err := strconv.Atoi(c.Param(p.name))
		if err != nil {
			return out, fmt.Errorf("некорректная координата %s: %q", p.name, c.Param(p.name))
		}
		*p.dst = v
	}
	return out, nil
}

// handleChunkMesh возвращает меш чанка; ?summary=1 возвращает только сводку
func (rs *RestServer) handleChunkMesh(c *gin.Context) {
	coords, err := parseChunkCoords(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	m, found := rs.engine.Mesh(coords)
	if !found {
		fail(c, http.StatusNotFound, "Чанк не загружен")
		return
	}
	if c.Query("summary") != "" {
		ok(c, "Сводка меша", m.Summary())
		return
	}
	ok(c, "Меш чанка", m)
}

// handleChunkVisible задаёт видимость чанка
func (rs *RestServer) handleChunkVisible(c *gin.Context) {
	coords, err := parseChunkCoords(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if !rs.engine.SetChunkVisible(coords, req.Visible) {
		fail(c, http.StatusNotFound, "Чанк не загружен")
		return
	}
	ok(c, "Видимость обновлена", map[string]interface{}{"coords": coords, "visible": req.Visible})
}

func parseFloatQuery(c *gin.Context, names ...string) ([]float32, error) {
	out := make([]float32, len(names))
	for i, name := range names {
		raw := c.Query(name)
		if raw == "" {
			return nil, fmt.Errorf("не задан параметр %s", name)
		}
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("некорректный параметр %s: %q", name, raw)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// handleGetBlock возвращает блок в точке ?a&b&c&d
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	v, err := parseFloatQuery(c, "a", "b", "c", "d")
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pos := quadray.New(v[0], v[1], v[2], v[3]).Normalize()
	id := rs.engine.GetBlock(pos)
	ok(c, "Блок получен", map[string]interface{}{
		"position": pos,
		"block_id": id,
		"chunk":    world.ChunkCoordsOf(pos),
	})
}

// handleSetBlock устанавливает блок
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	err := rs.engine.SetBlock(req.Position, req.BlockID)
	switch {
	case errors.Is(err, engine.ErrUnknownBlock):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, engine.ErrClosed):
		fail(c, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	rs.logger.Debug("Блок %d установлен в %v", req.BlockID, req.Position)
	ok(c, "Блок установлен", map[string]interface{}{
		"position": req.Position.Normalize(),
		"block_id": req.BlockID,
		"chunk":    world.ChunkCoordsOf(req.Position),
	})
}

// handleTick выполняет один тик движка
func (rs *RestServer) handleTick(c *gin.Context) {
	var req TickRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Неверный формат запроса")
			return
		}
	}
	player := rs.engine.Spawn()
	if req.Player != nil {
		player = *req.Player
	}

	report, err := rs.engine.Tick(c.Request.Context(), player)
	if err != nil {
		fail(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	ok(c, "Тик выполнен", report)
}

// handleConvert переводит ?x&y&z в координаты решётки или ?a&b&c&d в евклидовы
func (rs *RestServer) handleConvert(c *gin.Context) {
	var q quadray.Coord
	if c.Query("x") != "" {
		v, err := parseFloatQuery(c, "x", "y", "z")
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		q = quadray.FromEuclidean(mgl32.Vec3{v[0], v[1], v[2]})
	} else {
		v, err := parseFloatQuery(c, "a", "b", "c", "d")
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		q = quadray.New(v[0], v[1], v[2], v[3]).Normalize()
	}

	ok(c, "Координаты переведены", ConvertResponse{
		Lattice:   q,
		Snapped:   q.Snap(),
		Key:       q.Key().String(),
		Euclidean: q.ToEuclidean(),
		Chunk:     world.ChunkCoordsOf(q),
	})
}

// handleHealth проверка живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер; после Stop возвращает nil
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
