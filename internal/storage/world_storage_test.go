package storage

import (
	"errors"
	"testing"

	"github.com/annel0/quadcraft/internal/quadray"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/annel0/quadcraft/internal/world/block"
)

func setupTestStorage(t *testing.T, compress bool) *WorldStorage {
	t.Helper()
	storage, err := NewWorldStorage(t.TempDir(), compress)
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testSnapshot(coords vec.Vec3) *world.ChunkSnapshot {
	chunk := world.NewChunk(coords)
	chunk.SetBlock(quadray.New(6, 2, 2, 0), block.WaterBlockID)
	chunk.SetBlock(quadray.New(3, 1, 1, 0), block.GrassBlockID)
	return chunk.Snapshot()
}

func TestSaveAndLoadChunk(t *testing.T) {
	for _, compress := range []bool{false, true} {
		storage := setupTestStorage(t, compress)

		coords := vec.Vec3{X: 10, Y: -2, Z: 20}
		snap := testSnapshot(coords)
		if err := storage.SaveChunk(snap); err != nil {
			t.Fatalf("Ошибка сохранения чанка (compress=%v): %v", compress, err)
		}

		loaded, err := storage.LoadChunk(coords)
		if err != nil {
			t.Fatalf("Ошибка загрузки чанка (compress=%v): %v", compress, err)
		}
		if loaded == nil {
			t.Fatalf("Снимок не найден (compress=%v)", compress)
		}
		if loaded.Coords != coords {
			t.Errorf("Неверные координаты снимка: %v, ожидалось %v", loaded.Coords, coords)
		}
		if len(loaded.Elements) != 2 {
			t.Fatalf("Неверное количество элементов: %d, ожидалось 2", len(loaded.Elements))
		}

		restored := world.NewChunk(coords)
		restored.Restore(loaded)
		want := world.NewChunk(coords)
		want.Restore(snap)
		if restored.Digest() != want.Digest() {
			t.Errorf("Содержимое восстановленного чанка отличается (compress=%v)", compress)
		}
	}
}

func TestLoadNonExistentChunk(t *testing.T) {
	storage := setupTestStorage(t, true)

	snap, err := storage.LoadChunk(vec.Vec3{X: 99, Y: 99, Z: 99})
	if err != nil {
		t.Fatalf("Ошибка при загрузке несуществующего чанка: %v", err)
	}
	if snap != nil {
		t.Errorf("Ожидался nil для отсутствующего чанка, получено %+v", snap)
	}
}

func TestReadsBothFormats(t *testing.T) {
	dir := t.TempDir()
	coords := vec.Vec3{X: 1}

	plain, err := NewWorldStorage(dir, false)
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}
	if err := plain.SaveChunk(testSnapshot(coords)); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	plain.Close()

	compressed, err := NewWorldStorage(dir, true)
	if err != nil {
		t.Fatalf("Не удалось открыть хранилище повторно: %v", err)
	}
	defer compressed.Close()

	snap, err := compressed.LoadChunk(coords)
	if err != nil || snap == nil {
		t.Fatalf("Несжатый снимок не прочитан: %v", err)
	}
	if len(snap.Elements) != 2 {
		t.Errorf("Неверное количество элементов: %d", len(snap.Elements))
	}
}

func TestListAndDeleteChunks(t *testing.T) {
	storage := setupTestStorage(t, false)

	coords := []vec.Vec3{{X: 2}, {X: -1, Y: 3}, {Z: 5}}
	for _, c := range coords {
		if err := storage.SaveChunk(testSnapshot(c)); err != nil {
			t.Fatalf("Ошибка сохранения %v: %v", c, err)
		}
	}

	list, err := storage.ListChunks()
	if err != nil {
		t.Fatalf("Ошибка обхода: %v", err)
	}
	expected := []vec.Vec3{{X: -1, Y: 3}, {Z: 5}, {X: 2}}
	if len(list) != len(expected) {
		t.Fatalf("Неверное количество чанков: %d, ожидалось %d", len(list), len(expected))
	}
	for i := range expected {
		if list[i] != expected[i] {
			t.Errorf("Чанк %d: %v, ожидался %v", i, list[i], expected[i])
		}
	}

	if err := storage.DeleteChunk(vec.Vec3{Z: 5}); err != nil {
		t.Fatalf("Ошибка удаления: %v", err)
	}
	if snap, _ := storage.LoadChunk(vec.Vec3{Z: 5}); snap != nil {
		t.Error("Удалённый чанк всё ещё загружается")
	}
}

func TestClosedStorage(t *testing.T) {
	storage, err := NewWorldStorage(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("Ошибка закрытия: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("Повторное закрытие должно быть безопасным: %v", err)
	}

	if err := storage.SaveChunk(testSnapshot(vec.Vec3{})); !errors.Is(err, ErrNotReady) {
		t.Errorf("Ожидалась ErrNotReady, получено %v", err)
	}
	if _, err := storage.LoadChunk(vec.Vec3{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Ожидалась ErrNotReady, получено %v", err)
	}
}

func TestWorldPersistsThroughStorage(t *testing.T) {
	storage := setupTestStorage(t, true)

	w := world.NewWorld(world.Settings{UnloadDistance: 64}, nil, nil)
	w.SetPersister(storage)

	pos := quadray.New(6, 2, 2, 0)
	w.SetBlock(pos, block.SandBlockID)
	coords := world.ChunkCoordsOf(pos)
	if !w.UnloadChunk(coords) {
		t.Fatal("Чанк не выгружен")
	}

	if got := w.GetBlock(pos); got != block.AirBlockID {
		t.Errorf("Выгруженный чанк должен читаться как воздух, получено %d", got)
	}

	w.GetOrCreateChunk(pos)
	if got := w.GetBlock(pos); got != block.SandBlockID {
		t.Errorf("Блок не восстановлен из хранилища: %d", got)
	}
}
