package quadray

import (
	"fmt"
	"math"
	"strings"
)

// CheckResult результат одной проверки геометрии решётки
type CheckResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Passed      bool   `json:"passed"`
}

// Report набор проверок геометрических тождеств
type Report struct {
	Checks []CheckResult `json:"checks"`
}

// AllPassed сообщает, пройдены ли все проверки
func (r *Report) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// PassCount возвращает число пройденных проверок
func (r *Report) PassCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// Summary форматирует отчёт для вывода в консоль
func (r *Report) Summary() string {
	var sb strings.Builder
	sb.WriteString("Проверка геометрии решётки\n")
	sb.WriteString(strings.Repeat("─", 45))
	sb.WriteString("\n")
	for _, c := range r.Checks {
		icon := "✅"
		if !c.Passed {
			icon = "❌"
		}
		fmt.Fprintf(&sb, "  %s %s: %s\n", icon, c.Name, c.Actual)
	}
	if r.AllPassed() {
		sb.WriteString("\nИтог: все проверки пройдены")
	} else {
		fmt.Fprintf(&sb, "\nИтог: пройдено %d/%d", r.PassCount(), len(r.Checks))
	}
	return sb.String()
}

// VerifyRoundTrip проверяет перевод решётка -> XYZ -> решётка
func VerifyRoundTrip(q Coord, tolerance float32) CheckResult {
	recovered := FromEuclidean(q.ToEuclidean())
	dist := Distance(q.Normalize(), recovered)
	return CheckResult{
		Name:        "Round-Trip",
		Description: fmt.Sprintf("решётка -> XYZ -> решётка для %s", q),
		Expected:    fmt.Sprintf("ошибка < %g", tolerance),
		Actual:      fmt.Sprintf("ошибка=%.6f", dist),
		Passed:      dist < tolerance,
	}
}

var roundTripPoints = []Coord{
	{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1},
	{2, 1, 0, 1}, {3, 2, 1, 0},
}

// VerifyGeometricIdentities выполняет восемь проверок геометрии решётки
func VerifyGeometricIdentities(tolerance float32) *Report {
	r := &Report{}

	// 1. Длины базисных векторов
	lengths := make([]string, 0, 4)
	ok := true
	for _, b := range Basis {
		l := b.Length()
		lengths = append(lengths, fmt.Sprintf("%.4f", l))
		ok = ok && abs32(l-float32(BasisLength)) < tolerance
	}
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Длины базисных векторов",
		Description: "длина каждого базисного вектора ≈ 0.7071",
		Expected:    fmt.Sprintf("%.4f", BasisLength),
		Actual:      strings.Join(lengths, " "),
		Passed:      ok,
	})

	// 2. Тетраэдрические углы для всех шести пар
	labels := [4]string{"A", "B", "C", "D"}
	angles := make([]string, 0, 6)
	ok = true
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			a := AngleBetween(Basis[i], Basis[j])
			angles = append(angles, fmt.Sprintf("%s-%s=%.2f", labels[i], labels[j], a))
			ok = ok && math.Abs(a-TetrahedralAngle) < 1.0
		}
	}
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Тетраэдрическая симметрия",
		Description: fmt.Sprintf("все пары базиса образуют угол %.2f°", TetrahedralAngle),
		Expected:    fmt.Sprintf("%.2f", TetrahedralAngle),
		Actual:      strings.Join(angles, " "),
		Passed:      ok,
	})

	// 3. Начало координат
	o := Origin.ToEuclidean()
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Начало координат",
		Description: "(0,0,0,0) -> (0,0,0)",
		Expected:    "(0, 0, 0)",
		Actual:      fmt.Sprintf("(%.4f, %.4f, %.4f)", o[0], o[1], o[2]),
		Passed:      abs32(o[0]) < tolerance && abs32(o[1]) < tolerance && abs32(o[2]) < tolerance,
	})

	// 4. Перевод туда и обратно
	results := make([]string, 0, len(roundTripPoints))
	ok = true
	for _, p := range roundTripPoints {
		res := VerifyRoundTrip(p, tolerance)
		results = append(results, res.Actual)
		ok = ok && res.Passed
	}
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Перевод туда и обратно",
		Description: "решётка -> XYZ -> решётка восстанавливает точку",
		Expected:    fmt.Sprintf("все ошибки < %g", tolerance),
		Actual:      strings.Join(results, " "),
		Passed:      ok,
	})

	// 5. Симметрия расстояния
	d1, d2 := A.DistanceTo(B), B.DistanceTo(A)
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Симметрия расстояния",
		Description: "d(A,B) == d(B,A)",
		Expected:    "d1 == d2",
		Actual:      fmt.Sprintf("d1=%.6f, d2=%.6f", d1, d2),
		Passed:      abs32(d1-d2) < 1e-4,
	})

	// 6. Неравенство треугольника
	dAB, dBC, dAC := A.DistanceTo(B), B.DistanceTo(C), A.DistanceTo(C)
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Неравенство треугольника",
		Description: "d(A,B) + d(B,C) >= d(A,C)",
		Expected:    fmt.Sprintf("%.4f + %.4f >= %.4f", dAB, dBC, dAC),
		Actual:      fmt.Sprintf("%.4f >= %.4f", dAB+dBC, dAC),
		Passed:      dAB+dBC >= dAC-tolerance,
	})

	// 7. Константа S3
	expected := math.Sqrt(9.0 / 8.0)
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Константа S3",
		Description: "S3 = sqrt(9/8) ≈ 1.0607",
		Expected:    fmt.Sprintf("%.6f", expected),
		Actual:      fmt.Sprintf("%.6f", S3),
		Passed:      math.Abs(S3-expected) < 1e-4,
	})

	// 8. Отношения объёмов
	r.Checks = append(r.Checks, CheckResult{
		Name:        "Отношения объёмов",
		Description: "тетраэдр : октаэдр : кубооктаэдр = 1:4:20",
		Expected:    "1:4:20",
		Actual:      fmt.Sprintf("%d:%d:%d", TetraVolume, OctaVolume, CuboVolume),
		Passed:      OctaVolume/TetraVolume == 4 && CuboVolume/TetraVolume == 20,
	})

	return r
}
