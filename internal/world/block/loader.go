package block

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// definitionsFile формат YAML файла с описанием блоков
type definitionsFile struct {
	Blocks []Definition `yaml:"blocks"`
}

// LoadDefinitions читает все *.yaml / *.yml файлы каталога и регистрирует блоки.
// Файлы обрабатываются в алфавитном порядке, поэтому при конфликте ID побеждает
// последний файл. Возвращает количество загруженных определений.
func (r *Registry) LoadDefinitions(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения каталога блоков %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("ошибка чтения %s: %w", path, err)
		}

		var file definitionsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return loaded, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}

		for _, def := range file.Blocks {
			if err := r.Register(def); err != nil {
				return loaded, fmt.Errorf("блок %d в %s: %w", def.ID, path, err)
			}
			loaded++
		}
	}
	return loaded, nil
}
