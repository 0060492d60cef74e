package game

import (
	"fmt"
	"time"
)

type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Distance is the number of map steps between a and b.
func Distance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type SimpleItem struct {
	Code     string `json:"code" yaml:"code"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

type InventorySlot struct {
	Slot     int    `json:"slot"`
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type Character struct {
	Name               string          `json:"name"`
	Account            string          `json:"account"`
	Level              int             `json:"level"`
	XP                 int             `json:"xp"`
	Gold               int             `json:"gold"`
	HP                 int             `json:"hp"`
	MaxHP              int             `json:"max_hp"`
	X                  int             `json:"x"`
	Y                  int             `json:"y"`
	Cooldown           int             `json:"cooldown"`
	CooldownExpiration *time.Time      `json:"cooldown_expiration,omitempty"`
	Task               string          `json:"task"`
	TaskType           string          `json:"task_type"`
	TaskProgress       int             `json:"task_progress"`
	TaskTotal          int             `json:"task_total"`
	InventoryMaxItems  int             `json:"inventory_max_items"`
	Inventory          []InventorySlot `json:"inventory"`
}

func (c Character) Position() Position {
	return Position{X: c.X, Y: c.Y}
}

// InventoryUsage returns the number of occupied slots and the total item count.
func (c Character) InventoryUsage() (usedSlots int, usedQuantity int) {
	for _, slot := range c.Inventory {
		if slot.Code != "" {
			usedSlots++
		}
		usedQuantity += slot.Quantity
	}
	return usedSlots, usedQuantity
}

// NonEmptySlots lists every inventory stack that can be deposited.
func (c Character) NonEmptySlots() []SimpleItem {
	out := make([]SimpleItem, 0, len(c.Inventory))
	for _, slot := range c.Inventory {
		if slot.Code == "" || slot.Quantity <= 0 {
			continue
		}
		out = append(out, SimpleItem{Code: slot.Code, Quantity: slot.Quantity})
	}
	return out
}

type Effect struct {
	Code        string `json:"code"`
	Value       int    `json:"value"`
	Description string `json:"description,omitempty"`
}

type Craft struct {
	Skill    string       `json:"skill,omitempty"`
	Level    int          `json:"level,omitempty"`
	Items    []SimpleItem `json:"items,omitempty"`
	Quantity int          `json:"quantity,omitempty"`
}

type Item struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Subtype string   `json:"subtype"`
	Level   int      `json:"level"`
	Effects []Effect `json:"effects,omitempty"`
	Craft   *Craft   `json:"craft,omitempty"`
}

const EffectHeal = "heal"

// HealValue reports the per-unit heal amount of a consumable.
func (i Item) HealValue() (int, bool) {
	for _, effect := range i.Effects {
		if effect.Code == EffectHeal {
			return effect.Value, true
		}
	}
	return 0, false
}

// ComponentsPerUnit sums the component quantities of one craft.
func (i Item) ComponentsPerUnit() int {
	if i.Craft == nil {
		return 0
	}
	total := 0
	for _, component := range i.Craft.Items {
		total += component.Quantity
	}
	return total
}

func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Code
}

type MapContent struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type MapTile struct {
	Name    string      `json:"name"`
	Skin    string      `json:"skin"`
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Content *MapContent `json:"content,omitempty"`
}

func (m MapTile) Position() Position {
	return Position{X: m.X, Y: m.Y}
}
