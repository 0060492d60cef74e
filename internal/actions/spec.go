package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artiq/cli/internal/game"
)

var ErrInvalidSpec = errors.New("invalid command spec")

// Catalog resolves the reference data compound strategies are built from.
type Catalog interface {
	Item(ctx context.Context, code string) (game.Item, error)
	Workshop(ctx context.Context, skill string) (game.MapTile, error)
}

// Spec is the serializable description of a command, as posted to the local API
// or listed in a plan file.
type Spec struct {
	Kind        Kind              `json:"kind" yaml:"kind"`
	Pos         *game.Position    `json:"pos,omitempty" yaml:"pos,omitempty"`
	Code        string            `json:"code,omitempty" yaml:"code,omitempty"`
	Slot        string            `json:"slot,omitempty" yaml:"slot,omitempty"`
	Quantity    int               `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Items       []game.SimpleItem `json:"items,omitempty" yaml:"items,omitempty"`
	ReturnToPos bool              `json:"return_to_pos,omitempty" yaml:"return_to_pos,omitempty"`
	IfFull      bool              `json:"if_full,omitempty" yaml:"if_full,omitempty"`
	Requeue     bool              `json:"requeue,omitempty" yaml:"requeue,omitempty"`
	// Index is the queue position to insert at; nil appends.
	Index *int `json:"index,omitempty" yaml:"index,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}

// Build turns a spec into a command. catalog may be nil when no compound strategy
// that needs reference data is built.
func Build(ctx context.Context, spec Spec, catalog Catalog) (Command, error) {
	step, err := buildStep(ctx, spec, catalog)
	if err != nil {
		return Command{}, err
	}
	return NewCommand(step, spec.Requeue), nil
}

func buildStep(ctx context.Context, spec Spec, catalog Catalog) (Step, error) {
	kind := Kind(strings.TrimSpace(string(spec.Kind)))
	code := strings.TrimSpace(spec.Code)
	quantity := spec.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	requireCode := func() error {
		if code == "" {
			return invalid("%s requires an item code", kind)
		}
		return nil
	}

	switch kind {
	case KindMove:
		if spec.Pos == nil {
			return nil, invalid("move requires a position")
		}
		return Move(*spec.Pos), nil
	case KindRest:
		return Rest(), nil
	case KindFight:
		return Fight(), nil
	case KindGathering:
		return Gathering{}, nil
	case KindEquip:
		if err := requireCode(); err != nil {
			return nil, err
		}
		if spec.Slot == "" {
			return nil, invalid("equip requires a slot")
		}
		return Equip(code, spec.Slot, quantity), nil
	case KindUnequip:
		if spec.Slot == "" {
			return nil, invalid("unequip requires a slot")
		}
		return Unequip(spec.Slot, quantity), nil
	case KindDeposit, KindWithdraw:
		items := spec.Items
		if len(items) == 0 && code != "" {
			items = []game.SimpleItem{{Code: code, Quantity: quantity}}
		}
		if len(items) == 0 {
			return nil, invalid("%s requires items", kind)
		}
		if kind == KindDeposit {
			return Deposit(items), nil
		}
		return Withdraw(items), nil
	case KindDepositGold:
		return DepositGold(quantity), nil
	case KindWithdrawGold:
		return WithdrawGold(quantity), nil
	case KindBuyExpansion:
		return BuyExpansion(), nil
	case KindCraft:
		if err := requireCode(); err != nil {
			return nil, err
		}
		return Craft(code, quantity), nil
	case KindTaskAccept:
		return TaskAccept(), nil
	case KindTaskTrade:
		if err := requireCode(); err != nil {
			return nil, err
		}
		return TaskTrade(code, quantity), nil
	case KindTaskComplete:
		return TaskComplete(), nil
	case KindTaskExchange:
		return TaskExchange(), nil
	case KindTaskAbandon:
		return TaskAbandon(), nil
	case KindBuyItem, KindSellItem, KindConsume, KindRecycle, KindDelete:
		if err := requireCode(); err != nil {
			return nil, err
		}
		return codeQuantityStep(kind, code, quantity), nil

	case KindSmartFight:
		return SmartFight{}, nil
	case KindSmartConsume:
		if err := requireCode(); err != nil {
			return nil, err
		}
		item := game.Item{Code: code}
		if catalog != nil {
			found, err := catalog.Item(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("lookup item %s: %w", code, err)
			}
			item = found
		}
		return SmartConsume{Item: item, Quantity: quantity}, nil
	case KindSmartCraft:
		if err := requireCode(); err != nil {
			return nil, err
		}
		if catalog == nil {
			return nil, invalid("smart craft requires item data")
		}
		item, err := catalog.Item(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("lookup item %s: %w", code, err)
		}
		if item.Craft == nil {
			return nil, invalid("item %s is not craftable", code)
		}
		var workshop game.Position
		if spec.Pos != nil {
			workshop = *spec.Pos
		} else {
			tile, err := catalog.Workshop(ctx, item.Craft.Skill)
			if err != nil {
				return nil, fmt.Errorf("lookup workshop %s: %w", item.Craft.Skill, err)
			}
			workshop = tile.Position()
		}
		return SmartCraft{Item: item, Workshop: workshop, Quantity: spec.Quantity}, nil
	case KindDepositAll:
		if spec.Pos == nil {
			return nil, invalid("deposit all requires a bank position")
		}
		return DepositAll{Bank: *spec.Pos, ReturnToPos: spec.ReturnToPos, IfFull: spec.IfFull}, nil
	case "":
		return nil, invalid("kind is required")
	default:
		return nil, invalid("unknown kind %q", kind)
	}
}

func codeQuantityStep(kind Kind, code string, quantity int) Step {
	switch kind {
	case KindBuyItem:
		return BuyItem(code, quantity)
	case KindSellItem:
		return SellItem(code, quantity)
	case KindConsume:
		return Consume(code, quantity)
	case KindRecycle:
		return Recycle(code, quantity)
	default:
		return DeleteItem(code, quantity)
	}
}
