package quadray

import "math"

// Базисные векторы решётки: лучи к вершинам опорного тетраэдра
var (
	A      = Coord{A: 1}
	B      = Coord{B: 1}
	C      = Coord{C: 1}
	D      = Coord{D: 1}
	Origin = Coord{}
)

// Basis базисные векторы в порядке a, b, c, d
var Basis = [4]Coord{A, B, C, D}

// Константы синергетики
const (
	// TetrahedralAngle угол между любыми двумя базисными векторами, градусы
	TetrahedralAngle = 109.4712
	// BasisLength длина базисного вектора, 1/√2
	BasisLength = invRoot2

	TetraVolume = 1
	OctaVolume  = 4
	CuboVolume  = 20
)

// IVMDirections 12 направлений к касающимся соседям в изотропной векторной матрице
var IVMDirections = [12]Coord{
	{0, 1, 1, 2}, {0, 1, 2, 1}, {0, 2, 1, 1},
	{1, 0, 1, 2}, {1, 0, 2, 1}, {1, 1, 0, 2},
	{1, 1, 2, 0}, {1, 2, 0, 1}, {1, 2, 1, 0},
	{2, 0, 1, 1}, {2, 1, 0, 1}, {2, 1, 1, 0},
}

// KissingNeighbors возвращает 12 соседей точки по направлениям IVM
func KissingNeighbors(q Coord) [12]Coord {
	var out [12]Coord
	for i, dir := range IVMDirections {
		out[i] = q.Add(dir)
	}
	return out
}

// AngleBetween возвращает угол между двумя векторами решётки в градусах.
// Для нулевого вектора возвращает 0.
func AngleBetween(p, q Coord) float64 {
	u, v := p.ToEuclidean(), q.ToEuclidean()
	lu, lv := float64(u.Len()), float64(v.Len())
	if lu == 0 || lv == 0 {
		return 0
	}
	cos := float64(u.Dot(v)) / (lu * lv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Manhattan4D сумма модулей разностей четырёх компонент
func Manhattan4D(p, q Coord) float32 {
	d := p.Sub(q)
	return abs32(d.A) + abs32(d.B) + abs32(d.C) + abs32(d.D)
}

// Euclidean4D евклидова длина разности компонент без перевода в XYZ
func Euclidean4D(p, q Coord) float32 {
	d := p.Sub(q)
	return float32(math.Sqrt(float64(d.A*d.A + d.B*d.B + d.C*d.C + d.D*d.D)))
}

// VolumeEuclideanToLattice переводит кубический объём XYZ в тетраобъёмы
func VolumeEuclideanToLattice(v float64) float64 {
	return v * S3
}

// VolumeLatticeToEuclidean переводит тетраобъёмы в кубический объём XYZ
func VolumeLatticeToEuclidean(v float64) float64 {
	return v / S3
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
