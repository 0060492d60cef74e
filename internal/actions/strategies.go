package actions

import (
	"context"
	"fmt"

	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
)

// FightSafetyFactor scales the HP lost in the last fight when projecting the next one.
var FightSafetyFactor = 1.5

// FullSlotThreshold is the occupied-slot count at which deposit-all "if full" fires.
var FullSlotThreshold = 20

// refresh re-reads the live snapshot; strategies run long after they were queued.
func refresh(ctx context.Context, env Env) (*game.Character, error) {
	if env.Snapshots == nil {
		return nil, fmt.Errorf("snapshot cache is not configured")
	}
	current, err := env.Snapshots.Refresh(ctx, env.Character)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

// SmartFight fights and keeps the repeat at the head of the queue only while
// another fight of the same cost looks survivable.
type SmartFight struct{}

func (SmartFight) Kind() Kind    { return KindSmartFight }
func (SmartFight) Label() string { return "Fight" }

func (SmartFight) Execute(ctx context.Context, env Env) (Outcome, error) {
	observed, err := refresh(ctx, env)
	if err != nil && env.Snapshots != nil {
		if cached, ok := env.Snapshots.Get(env.Character); ok {
			observed = &cached
		}
	}
	res, err := env.Gateway.Perform(ctx, env.Character, gateway.Fight())
	if err != nil {
		return Outcome{Observed: observed}, err
	}
	return Outcome{Result: &res, Observed: observed}, nil
}

func (f SmartFight) Requeue(out Outcome, err error) (Step, Placement) {
	// without a pre-fight snapshot the HP lost is unknown
	if err != nil || out.Result == nil || out.Observed == nil {
		return f, PlaceBack
	}
	hpBefore := out.Observed.HP
	hpAfter := out.Result.Character.HP
	hpLost := hpBefore - hpAfter
	if float64(hpAfter)-float64(hpLost)*FightSafetyFactor > 0 {
		return f, PlaceFront
	}
	return f, PlaceBack
}

// SmartConsume eats only as much of a healing item as needed to reach full HP.
type SmartConsume struct {
	Item     game.Item
	Quantity int
}

func (s SmartConsume) Kind() Kind { return KindSmartConsume }

func (s SmartConsume) Label() string {
	return "Consume " + s.Item.DisplayName()
}

func (s SmartConsume) Execute(ctx context.Context, env Env) (Outcome, error) {
	toConsume := s.Quantity
	var observed *game.Character
	if heal, ok := s.Item.HealValue(); ok {
		current, err := refresh(ctx, env)
		if err != nil {
			return aborted("character snapshot unavailable: " + err.Error()), nil
		}
		observed = current
		if heal > 0 {
			missing := current.MaxHP - current.HP
			toConsume = min(s.Quantity, ceilDiv(missing, heal))
		}
		if toConsume <= 0 {
			out := aborted("character is at full health")
			out.Observed = observed
			return out, nil
		}
	}
	res, err := env.Gateway.Perform(ctx, env.Character, gateway.Consume(s.Item.Code, toConsume))
	if err != nil {
		return Outcome{Observed: observed}, err
	}
	return Outcome{Result: &res, Observed: observed, Quantity: toConsume}, nil
}

func (s SmartConsume) Requeue(out Outcome, err error) (Step, Placement) {
	if err != nil || out.Aborted {
		return nil, PlaceNone
	}
	remaining := s.Quantity - out.Quantity
	if remaining <= 0 {
		return nil, PlaceNone
	}
	return SmartConsume{Item: s.Item, Quantity: remaining}, PlaceBack
}

// SmartCraft withdraws the components for one batch, walks to the workshop and crafts.
type SmartCraft struct {
	Item     game.Item
	Workshop game.Position
	// Quantity is the batch size; zero means as many as the inventory can hold.
	Quantity int
}

func (s SmartCraft) Kind() Kind { return KindSmartCraft }

func (s SmartCraft) Label() string {
	amount := ""
	if s.Quantity > 0 {
		amount = fmt.Sprintf("%d x ", s.Quantity)
	}
	return fmt.Sprintf("Smart craft of %s%s @ %s", amount, s.Item.DisplayName(), s.Workshop)
}

func (s SmartCraft) Execute(ctx context.Context, env Env) (Outcome, error) {
	if s.Item.Craft == nil || len(s.Item.Craft.Items) == 0 {
		return aborted("item " + s.Item.Code + " has no recipe"), nil
	}
	perUnit := s.Item.ComponentsPerUnit()
	if perUnit <= 0 {
		return aborted("item " + s.Item.Code + " has an empty recipe"), nil
	}
	current, err := refresh(ctx, env)
	if err != nil {
		return aborted("character snapshot unavailable: " + err.Error()), nil
	}
	batch := s.Quantity
	if batch <= 0 {
		batch = current.InventoryMaxItems / perUnit
	}
	if batch <= 0 {
		out := aborted("inventory cannot hold one batch")
		out.Observed = current
		return out, nil
	}
	components := make([]game.SimpleItem, 0, len(s.Item.Craft.Items))
	for _, c := range s.Item.Craft.Items {
		components = append(components, game.SimpleItem{Code: c.Code, Quantity: c.Quantity * batch})
	}
	return Outcome{
		Steps: []Step{
			Withdraw(components),
			Move(s.Workshop),
			Craft(s.Item.Code, batch),
		},
		Observed: current,
		Quantity: batch,
	}, nil
}

func (s SmartCraft) Requeue(out Outcome, err error) (Step, Placement) {
	if err != nil || out.Aborted {
		return nil, PlaceNone
	}
	return s, PlaceBack
}

// DepositAll empties the inventory into the bank, optionally only once it is full.
type DepositAll struct {
	Bank        game.Position
	ReturnToPos bool
	IfFull      bool
}

func (d DepositAll) Kind() Kind { return KindDepositAll }

func (d DepositAll) Label() string {
	label := "Deposit all"
	if d.IfFull {
		label += " if full"
	}
	label += " to " + d.Bank.String()
	if d.ReturnToPos {
		label += " and return"
	}
	return label
}

func (d DepositAll) Execute(ctx context.Context, env Env) (Outcome, error) {
	current, err := refresh(ctx, env)
	if err != nil {
		return aborted("character snapshot unavailable: " + err.Error()), nil
	}
	if d.IfFull {
		usedSlots, usedQuantity := current.InventoryUsage()
		if usedSlots < FullSlotThreshold && usedQuantity < current.InventoryMaxItems {
			return Outcome{Observed: current, Deferred: true}, nil
		}
	}
	steps := []Step{Move(d.Bank)}
	if items := current.NonEmptySlots(); len(items) > 0 {
		steps = append(steps, Deposit(items))
	}
	if origin := current.Position(); d.ReturnToPos && game.Distance(origin, d.Bank) > 0 {
		steps = append(steps, Move(origin))
	}
	return Outcome{Steps: steps, Observed: current}, nil
}

func (d DepositAll) Requeue(out Outcome, err error) (Step, Placement) {
	if err != nil || out.Aborted {
		return nil, PlaceNone
	}
	return d, PlaceBack
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
