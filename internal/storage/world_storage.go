package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/quadcraft/internal/logging"
	"github.com/annel0/quadcraft/internal/vec"
	"github.com/annel0/quadcraft/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotReady возвращается при обращении к закрытому хранилищу
var ErrNotReady = errors.New("хранилище не готово")

const chunkPrefix = "chunk:"

// Формат значения определяется первым байтом
const (
	formatJSON byte = 'j'
	formatZstd byte = 'z'
)

// WorldStorage хранит снимки чанков в BadgerDB.
// Реализует world.ChunkPersister.
type WorldStorage struct {
	db       *badger.DB
	dbPath   string
	mutex    sync.RWMutex
	isReady  bool
	compress bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// NewWorldStorage открывает хранилище мира в каталоге dataPath/world.
// compress включает сжатие снимков zstd; читаются оба формата независимо от флага.
func NewWorldStorage(dataPath string, compress bool) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать компрессор: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать декомпрессор: %w", err)
	}

	return &WorldStorage{
		db:       db,
		dbPath:   dbPath,
		isReady:  true,
		compress: compress,
		encoder:  encoder,
		decoder:  decoder,
		logger:   logging.GetStorageLogger(),
	}, nil
}

// Path возвращает путь к каталогу базы
func (ws *WorldStorage) Path() string {
	return ws.dbPath
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.encoder.Close()
	ws.decoder.Close()
	return ws.db.Close()
}

func chunkKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", chunkPrefix, coords.X, coords.Y, coords.Z))
}

func parseChunkKey(key string) (vec.Vec3, bool) {
	var c vec.Vec3
	if !strings.HasPrefix(key, chunkPrefix) {
		return c, false
	}
	if _, err := fmt.Sscanf(key[len(chunkPrefix):], "%d:%d:%d", &c.X, &c.Y, &c.Z); err != nil {
		return c, false
	}
	return c, true
}

// SaveChunk сохраняет снимок чанка
func (ws *WorldStorage) SaveChunk(snapshot *world.ChunkSnapshot) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}
	if snapshot == nil {
		return fmt.Errorf("пустой снимок чанка")
	}

	data, err := ws.encode(snapshot)
	if err != nil {
		return err
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(snapshot.Coords), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	ws.logger.Debug("Чанк %v сохранён: %d элементов, %d байт", snapshot.Coords, len(snapshot.Elements), len(data))
	return nil
}

// LoadChunk загружает снимок чанка. Отсутствующий чанк даёт nil, nil.
func (ws *WorldStorage) LoadChunk(coords vec.Vec3) (*world.ChunkSnapshot, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	snap, err := ws.decode(data)
	if err != nil {
		return nil, fmt.Errorf("чанк %v: %w", coords, err)
	}
	return snap, nil
}

// DeleteChunk удаляет снимок чанка
func (ws *WorldStorage) DeleteChunk(coords vec.Vec3) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(coords))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// ListChunks возвращает координаты всех сохранённых чанков в стабильном порядке
func (ws *WorldStorage) ListChunks() ([]vec.Vec3, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var out []vec.Vec3
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(chunkPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if coords, ok := parseChunkKey(string(it.Item().Key())); ok {
				out = append(out, coords)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func (ws *WorldStorage) encode(snapshot *world.ChunkSnapshot) ([]byte, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	if ws.compress {
		return append([]byte{formatZstd}, ws.encoder.EncodeAll(raw, nil)...), nil
	}
	return append([]byte{formatJSON}, raw...), nil
}

func (ws *WorldStorage) decode(data []byte) (*world.ChunkSnapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("пустое значение")
	}

	payload := data[1:]
	switch data[0] {
	case formatJSON:
	case formatZstd:
		decompressed, err := ws.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
		}
		payload = decompressed
	default:
		return nil, fmt.Errorf("неизвестный формат снимка: %q", data[0])
	}

	var snap world.ChunkSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return &snap, nil
}
