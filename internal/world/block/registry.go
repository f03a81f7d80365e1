package block

import (
	"errors"
	"fmt"
	"sort"
)

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID базовых блоков
const (
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	DirtBlockID                 // 2
	GrassBlockID                // 3
	WaterBlockID                // 4
	SandBlockID                 // 5
)

// ErrAirRedefined возвращается при попытке сделать воздух твёрдым или непрозрачным
var ErrAirRedefined = errors.New("воздух должен оставаться прозрачным и нетвёрдым")

// Definition описывает свойства типа блока
type Definition struct {
	ID          BlockID `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Solid       bool    `yaml:"solid" json:"solid"`
	Transparent bool    `yaml:"transparent" json:"transparent"`
}

// Registry хранит определения блоков по ID.
// Принадлежит миру; глобального экземпляра нет.
type Registry struct {
	defs map[BlockID]Definition
}

// defaultDefinitions базовый набор блоков
var defaultDefinitions = []Definition{
	{ID: AirBlockID, Name: "air", Solid: false, Transparent: true},
	{ID: StoneBlockID, Name: "stone", Solid: true, Transparent: false},
	{ID: DirtBlockID, Name: "dirt", Solid: true, Transparent: false},
	{ID: GrassBlockID, Name: "grass", Solid: true, Transparent: false},
	{ID: WaterBlockID, Name: "water", Solid: false, Transparent: true},
	{ID: SandBlockID, Name: "sand", Solid: true, Transparent: false},
}

// NewRegistry создаёт регистр с базовым набором блоков
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[BlockID]Definition, len(defaultDefinitions))}
	for _, def := range defaultDefinitions {
		r.defs[def.ID] = def
	}
	return r
}

// Register добавляет или заменяет определение блока
func (r *Registry) Register(def Definition) error {
	if def.ID == AirBlockID && (def.Solid || !def.Transparent) {
		return ErrAirRedefined
	}
	if def.Name == "" {
		def.Name = fmt.Sprintf("block_%d", def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// Get возвращает определение блока. Для неизвестного ID возвращается воздух.
func (r *Registry) Get(id BlockID) Definition {
	if def, ok := r.defs[id]; ok {
		return def
	}
	return r.defs[AirBlockID]
}

// Has проверяет, зарегистрирован ли ID
func (r *Registry) Has(id BlockID) bool {
	_, ok := r.defs[id]
	return ok
}

// IsSolid сообщает, является ли блок твёрдым
func (r *Registry) IsSolid(id BlockID) bool {
	return r.Get(id).Solid
}

// IsTransparent сообщает, пропускает ли блок взгляд (видны ли соседние грани)
func (r *Registry) IsTransparent(id BlockID) bool {
	return r.Get(id).Transparent
}

// Name возвращает имя блока
func (r *Registry) Name(id BlockID) string {
	return r.Get(id).Name
}

// ByName ищет определение по имени
func (r *Registry) ByName(name string) (Definition, bool) {
	for _, def := range r.defs {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Definitions возвращает все определения, отсортированные по ID
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len возвращает количество зарегистрированных блоков
func (r *Registry) Len() int {
	return len(r.defs)
}
