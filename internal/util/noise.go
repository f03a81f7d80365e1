package util

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// NoiseSource детерминированный источник когерентного шума.
// Значения нормированы в диапазон от 0 до 1.
type NoiseSource interface {
	Noise2D(x, y float64) float64
	Noise3D(x, y, z float64) float64
}

// PerlinNoise шум Перлина с фиксированным сидом
type PerlinNoise struct {
	p *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *PerlinNoise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &PerlinNoise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Noise2D возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (n *PerlinNoise) Noise2D(x, y float64) float64 {
	return toUnit(n.p.Noise2D(x, y))
}

// Noise3D возвращает трёхмерный шум Перлина (от 0 до 1)
func (n *PerlinNoise) Noise3D(x, y, z float64) float64 {
	return toUnit(n.p.Noise3D(x, y, z))
}

// SimplexNoise шум OpenSimplex
type SimplexNoise struct {
	n opensimplex.Noise
}

// NewSimplexNoise создаёт генератор шума OpenSimplex
func NewSimplexNoise(seed int64) *SimplexNoise {
	return &SimplexNoise{n: opensimplex.New(seed)}
}

// Noise2D возвращает двумерный шум (от 0 до 1)
func (s *SimplexNoise) Noise2D(x, y float64) float64 {
	return toUnit(s.n.Eval2(x, y))
}

// Noise3D возвращает трёхмерный шум (от 0 до 1)
func (s *SimplexNoise) Noise3D(x, y, z float64) float64 {
	return toUnit(s.n.Eval3(x, y, z))
}

// toUnit переводит значение из [-1, 1] в [0, 1] с отсечением выбросов
func toUnit(v float64) float64 {
	u := (v + 1.0) / 2.0
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
