package quadray

import (
	"fmt"
	"math"
)

// KeyScale число шагов квантования на единицу решётки.
// Элементы мира лежат на целочисленной решётке, поэтому погрешности переводов
// (порядка 1e-5) всегда много меньше половины шага.
const KeyScale = 4

// Key квантованная каноническая координата, пригодная в качестве ключа map.
// Строится только из нормализованных компонент, поэтому две эквивалентные
// записи одной точки дают один и тот же ключ.
type Key struct {
	A int32 `json:"a"`
	B int32 `json:"b"`
	C int32 `json:"c"`
	D int32 `json:"d"`
}

// Key возвращает квантованный ключ канонической формы координаты
func (q Coord) Key() Key {
	n := q.Normalize()
	return Key{
		A: quantize(n.A),
		B: quantize(n.B),
		C: quantize(n.C),
		D: quantize(n.D),
	}
}

func quantize(v float32) int32 {
	return int32(math.Round(float64(v) * KeyScale))
}

// Snap привязывает координату к ближайшему узлу сетки квантования
func (q Coord) Snap() Coord {
	return q.Key().Coord()
}

// Coord восстанавливает координату из ключа
func (k Key) Coord() Coord {
	return Coord{
		A: float32(k.A) / KeyScale,
		B: float32(k.B) / KeyScale,
		C: float32(k.C) / KeyScale,
		D: float32(k.D) / KeyScale,
	}
}

// Less задаёт стабильный лексикографический порядок ключей
func (k Key) Less(o Key) bool {
	if k.A != o.A {
		return k.A < o.A
	}
	if k.B != o.B {
		return k.B < o.B
	}
	if k.C != o.C {
		return k.C < o.C
	}
	return k.D < o.D
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", k.A, k.B, k.C, k.D)
}
