// Package quadray реализует четырёхкоординатную (quadray) решётку мира.
//
// Точка задаётся четырьмя неотрицательными компонентами (a, b, c, d) вдоль
// лучей из центра правильного тетраэдра к его вершинам. Добавление одного и
// того же числа ко всем компонентам не меняет точку, поэтому каноническая
// форма получается вычитанием минимума.
package quadray

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Root2 квадратный корень из двух
	Root2 = 1.4142135623730951
	// invRoot2 масштаб s = 1/√2 в формулах перевода
	invRoot2 = 1 / Root2
	// S3 коэффициент перевода объёмов XYZ -> IVM, sqrt(9/8)
	S3 = 1.0606601717798212
	// Epsilon допуск сравнения координат после нормализации
	Epsilon = 1e-5
)

// Coord представляет точку решётки в quadray координатах
type Coord struct {
	A float32 `json:"a"`
	B float32 `json:"b"`
	C float32 `json:"c"`
	D float32 `json:"d"`
}

// New создаёт координату без нормализации
func New(a, b, c, d float32) Coord {
	return Coord{A: a, B: b, C: c, D: d}
}

// Normalize возвращает каноническую форму: минимальная компонента становится нулём
func (q Coord) Normalize() Coord {
	m := q.A
	if q.B < m {
		m = q.B
	}
	if q.C < m {
		m = q.C
	}
	if q.D < m {
		m = q.D
	}
	return Coord{A: q.A - m, B: q.B - m, C: q.C - m, D: q.D - m}
}

// IsCanonical сообщает, находится ли координата в канонической форме
func (q Coord) IsCanonical() bool {
	return q.A >= 0 && q.B >= 0 && q.C >= 0 && q.D >= 0 &&
		(q.A == 0 || q.B == 0 || q.C == 0 || q.D == 0)
}

// ToEuclidean переводит координату в декартово пространство
func (q Coord) ToEuclidean() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(invRoot2) * (q.A - q.B - q.C + q.D),
		float32(invRoot2) * (q.A - q.B + q.C - q.D),
		float32(invRoot2) * (q.A + q.B - q.C - q.D),
	}
}

// FromEuclidean переводит декартову точку в каноническую координату решётки
func FromEuclidean(v mgl32.Vec3) Coord {
	x, y, z := v[0], v[1], v[2]
	s := float32(invRoot2)

	q := Coord{
		A: s * (pos(x) + pos(y) + pos(z)),
		B: s * (pos(-x) + pos(-y) + pos(z)),
		C: s * (pos(-x) + pos(y) + pos(-z)),
		D: s * (pos(x) + pos(-y) + pos(-z)),
	}
	return q.Normalize()
}

func pos(v float32) float32 {
	if v > 0 {
		return v
	}
	return 0
}

// Length возвращает длину вектора решётки, sqrt((a²+b²+c²+d²)/2)
func (q Coord) Length() float32 {
	sum := q.A*q.A + q.B*q.B + q.C*q.C + q.D*q.D
	return float32(math.Sqrt(float64(sum) / 2))
}

// Add складывает покомпонентно и возвращает каноническую форму
func (q Coord) Add(o Coord) Coord {
	return Coord{A: q.A + o.A, B: q.B + o.B, C: q.C + o.C, D: q.D + o.D}.Normalize()
}

// Sub вычитает покомпонентно. Результат не нормализуется: он нужен для
// вычисления расстояний.
func (q Coord) Sub(o Coord) Coord {
	return Coord{A: q.A - o.A, B: q.B - o.B, C: q.C - o.C, D: q.D - o.D}
}

// Scale умножает все компоненты на k без нормализации
func (q Coord) Scale(k float32) Coord {
	return Coord{A: q.A * k, B: q.B * k, C: q.C * k, D: q.D * k}
}

// Neg возвращает противоположный вектор
func (q Coord) Neg() Coord {
	return Coord{A: -q.A, B: -q.B, C: -q.C, D: -q.D}
}

// DistanceTo возвращает расстояние до другой точки решётки
func (q Coord) DistanceTo(o Coord) float32 {
	return Distance(q, o)
}

// Distance возвращает длину покомпонентной разности двух точек
func Distance(p, q Coord) float32 {
	return p.Sub(q).Length()
}

// Equal сравнивает канонические формы с допуском Epsilon
func (q Coord) Equal(o Coord) bool {
	a, b := q.Normalize(), o.Normalize()
	return near(a.A, b.A) && near(a.B, b.B) && near(a.C, b.C) && near(a.D, b.D)
}

func near(x, y float32) bool {
	return math.Abs(float64(x-y)) <= Epsilon
}

// IsFinite сообщает, что все компоненты конечны
func (q Coord) IsFinite() bool {
	for _, v := range [4]float32{q.A, q.B, q.C, q.D} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Components возвращает компоненты массивом в порядке a, b, c, d
func (q Coord) Components() [4]float32 {
	return [4]float32{q.A, q.B, q.C, q.D}
}

func (q Coord) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", q.A, q.B, q.C, q.D)
}
