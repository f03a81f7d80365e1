package engine

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/quadcraft/internal/quadray"
)

// PlayerPath задаёт позицию игрока на каждом тике
type PlayerPath func(tick uint64) quadray.Coord

// StaticPath держит игрока в одной точке
func StaticPath(pos quadray.Coord) PlayerPath {
	return func(uint64) quadray.Coord { return pos }
}

// LinearPath сдвигает игрока на step каждый тик, начиная с start
func LinearPath(start, step quadray.Coord) PlayerPath {
	return func(tick uint64) quadray.Coord {
		return start.Add(step.Scale(float32(tick)))
	}
}

// Run выполняет тики с интервалом interval до отмены ctx.
// maxTicks > 0 ограничивает количество тиков. Возвращает число выполненных тиков.
func (e *Engine) Run(ctx context.Context, interval time.Duration, maxTicks int, path PlayerPath) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := 0
	for maxTicks <= 0 || done < maxTicks {
		if _, err := e.Tick(ctx, path(uint64(done))); err != nil {
			if errors.Is(err, ErrClosed) {
				return done, nil
			}
			return done, err
		}
		done++

		select {
		case <-ctx.Done():
			return done, nil
		case <-ticker.C:
		}
	}
	return done, nil
}
