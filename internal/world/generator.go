package world

import (
	"math"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/util"
	"github.com/annel0/quadcraft/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// TerrainGenerator заполняет только что созданный чанк.
// Вызывается синхронно из GetOrCreateChunk; изменяет чанк только через SetBlock.
type TerrainGenerator interface {
	Generate(chunk *Chunk, w *World)
}

// GeneratorFunc позволяет использовать функцию как TerrainGenerator
type GeneratorFunc func(chunk *Chunk, w *World)

// Generate вызывает f(chunk, w)
func (f GeneratorFunc) Generate(chunk *Chunk, w *World) {
	f(chunk, w)
}

// BlockSampler возвращает тип блока для мировой евклидовой точки
type BlockSampler interface {
	BlockAt(pos mgl32.Vec3) block.BlockID
}

// SamplerFunc позволяет использовать функцию как BlockSampler
type SamplerFunc func(pos mgl32.Vec3) block.BlockID

// BlockAt вызывает f(pos)
func (f SamplerFunc) BlockAt(pos mgl32.Vec3) block.BlockID {
	return f(pos)
}

// FlatSampler заполняет всё ниже уровня Level блоком Block
type FlatSampler struct {
	Level float32
	Block block.BlockID
}

// BlockAt реализует BlockSampler
func (s FlatSampler) BlockAt(pos mgl32.Vec3) block.BlockID {
	if pos[1] < s.Level {
		return s.Block
	}
	return block.AirBlockID
}

// NoiseSampler ландшафт по карте высот с пещерами и уровнем воды
type NoiseSampler struct {
	Noise util.NoiseSource

	TerrainScale     float64 // Масштаб шума высот
	TerrainAmplitude float64 // Максимальная высота поверхности
	CaveScale        float64 // Масштаб шума пещер
	CaveThreshold    float64 // Выше порога: пещера
	WaterLevel       float64 // Пустоты ниже уровня заполняются водой
	BeachLevel       float64 // Поверхность ниже этой высоты покрывается песком; 0: без пляжей
}

// NewNoiseSampler создаёт сэмплер с параметрами по умолчанию
func NewNoiseSampler(noise util.NoiseSource) *NoiseSampler {
	return &NoiseSampler{
		Noise:            noise,
		TerrainScale:     0.05,
		TerrainAmplitude: 32,
		CaveScale:        0.1,
		CaveThreshold:    0.7,
		WaterLevel:       5,
		BeachLevel:       6,
	}
}

// BlockAt реализует BlockSampler
func (s *NoiseSampler) BlockAt(pos mgl32.Vec3) block.BlockID {
	x, y, z := float64(pos[0]), float64(pos[1]), float64(pos[2])

	baseHeight := s.TerrainAmplitude * s.Noise.Noise2D(x*s.TerrainScale, z*s.TerrainScale)

	if y < baseHeight {
		cave := s.Noise.Noise3D(x*s.CaveScale, y*s.CaveScale, z*s.CaveScale)
		switch {
		case cave > s.CaveThreshold:
			return block.AirBlockID
		case y > baseHeight-4:
			if baseHeight < s.BeachLevel {
				return block.SandBlockID
			}
			return block.GrassBlockID
		case y > baseHeight-8:
			return block.DirtBlockID
		default:
			return block.StoneBlockID
		}
	}
	if y < s.WaterLevel {
		return block.WaterBlockID
	}
	return block.AirBlockID
}

// LatticeTerrain обходит все узлы целочисленной решётки, принадлежащие чанку,
// и заполняет их блоками сэмплера.
type LatticeTerrain struct {
	Sampler BlockSampler
}

// NewLatticeTerrain создаёт генератор поверх сэмплера
func NewLatticeTerrain(sampler BlockSampler) *LatticeTerrain {
	return &LatticeTerrain{Sampler: sampler}
}

// Generate реализует TerrainGenerator
func (g *LatticeTerrain) Generate(chunk *Chunk, w *World) {
	ForEachLatticePoint(chunk, func(pos quadray.Coord, center mgl32.Vec3) {
		id := g.Sampler.BlockAt(center)
		if id == block.AirBlockID {
			return
		}
		chunk.SetBlock(chunk.WorldToChunkSpace(pos), id)
	})
}

// ForEachLatticePoint вызывает fn для каждого узла целочисленной решётки внутри чанка.
//
// Узлы решётки в декартовых координатах имеют вид s·(p, q, r), s = 1/√2,
// где p, q, r целые одной чётности. Обход идёт по p, q, r в пределах куба чанка,
// принадлежность проверяется той же функцией, что и поиск чанка по позиции.
func ForEachLatticePoint(chunk *Chunk, fn func(pos quadray.Coord, center mgl32.Vec3)) {
	lo := chunk.Origin()
	pr := latticeRange(lo[0])
	qr := latticeRange(lo[1])
	rr := latticeRange(lo[2])

	for p := pr[0]; p <= pr[1]; p++ {
		for q := qr[0]; q <= qr[1]; q++ {
			if (q-p)&1 != 0 {
				continue
			}
			for r := rr[0]; r <= rr[1]; r++ {
				if (r-p)&1 != 0 {
					continue
				}
				pos := latticeFromPQR(p, q, r)
				if ChunkCoordsOf(pos) != chunk.Coords {
					continue
				}
				fn(pos, pos.ToEuclidean())
			}
		}
	}
}

// latticeRange возвращает диапазон целых p, покрывающий [lo, lo+ChunkSize) с запасом
func latticeRange(lo float32) [2]int {
	return [2]int{
		int(math.Floor(float64(lo)*quadray.Root2)) - 1,
		int(math.Ceil(float64(lo+ChunkSize)*quadray.Root2)) + 1,
	}
}

// latticeFromPQR переводит целые p, q, r одной чётности в координату решётки без
// потери точности: a-b-c+d = p, a-b+c-d = q, a+b-c-d = r при d = 0.
func latticeFromPQR(p, q, r int) quadray.Coord {
	return quadray.New(
		float32((q+r)/2),
		float32((r-p)/2),
		float32((q-p)/2),
		0,
	).Normalize()
}
