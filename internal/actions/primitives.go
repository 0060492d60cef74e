package actions

import (
	"context"
	"fmt"

	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
)

// Primitive invokes the gateway exactly once.
type Primitive struct {
	kind    Kind
	label   string
	request gateway.Request
}

func (p Primitive) Kind() Kind               { return p.kind }
func (p Primitive) Label() string            { return p.label }
func (p Primitive) Request() gateway.Request { return p.request }

func (p Primitive) Execute(ctx context.Context, env Env) (Outcome, error) {
	res, err := env.Gateway.Perform(ctx, env.Character, p.request)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: &res}, nil
}

func primitive(kind Kind, label string, req gateway.Request) Primitive {
	return Primitive{kind: kind, label: label, request: req}
}

func Move(pos game.Position) Step {
	return primitive(KindMove, "Move to "+pos.String(), gateway.Move(pos))
}

func Rest() Step {
	return primitive(KindRest, "Rest", gateway.Rest())
}

// Fight is the plain fight; SmartFight adds the HP-aware repeat policy.
func Fight() Step {
	return primitive(KindFight, "Fight", gateway.Fight())
}

func Equip(code, slot string, quantity int) Step {
	return primitive(KindEquip, fmt.Sprintf("Equip %d x %s into %s", quantity, code, slot), gateway.Equip(code, slot, quantity))
}

func Unequip(slot string, quantity int) Step {
	return primitive(KindUnequip, fmt.Sprintf("Unequip %d x %s", quantity, slot), gateway.Unequip(slot, quantity))
}

func Deposit(items []game.SimpleItem) Step {
	items = append([]game.SimpleItem(nil), items...)
	return primitive(KindDeposit, fmt.Sprintf("Deposit %d items", len(items)), gateway.Deposit(items))
}

func Withdraw(items []game.SimpleItem) Step {
	items = append([]game.SimpleItem(nil), items...)
	return primitive(KindWithdraw, fmt.Sprintf("Withdraw %d items", len(items)), gateway.Withdraw(items))
}

func DepositGold(quantity int) Step {
	return primitive(KindDepositGold, fmt.Sprintf("Deposit %d x gold", quantity), gateway.DepositGold(quantity))
}

func WithdrawGold(quantity int) Step {
	return primitive(KindWithdrawGold, fmt.Sprintf("Withdraw %d x gold", quantity), gateway.WithdrawGold(quantity))
}

func BuyExpansion() Step {
	return primitive(KindBuyExpansion, "Buy bank expansion", gateway.BuyExpansion())
}

func Craft(code string, quantity int) Step {
	return primitive(KindCraft, fmt.Sprintf("Craft %d x %s", quantity, code), gateway.Craft(code, quantity))
}

func TaskAccept() Step {
	return primitive(KindTaskAccept, "Accept a new task", gateway.TaskAccept())
}

func TaskTrade(code string, quantity int) Step {
	return primitive(KindTaskTrade, fmt.Sprintf("Trade %d x %s to task master", quantity, code), gateway.TaskTrade(code, quantity))
}

func TaskComplete() Step {
	return primitive(KindTaskComplete, "Complete current task", gateway.TaskComplete())
}

func TaskExchange() Step {
	return primitive(KindTaskExchange, "Exchange 6x task coins for reward", gateway.TaskExchange())
}

func TaskAbandon() Step {
	return primitive(KindTaskAbandon, "Abandon current task", gateway.TaskAbandon())
}

func BuyItem(code string, quantity int) Step {
	return primitive(KindBuyItem, fmt.Sprintf("Buy %d x %s", quantity, code), gateway.BuyItem(code, quantity))
}

func SellItem(code string, quantity int) Step {
	return primitive(KindSellItem, fmt.Sprintf("Sell %d x %s", quantity, code), gateway.SellItem(code, quantity))
}

func Consume(code string, quantity int) Step {
	return primitive(KindConsume, fmt.Sprintf("Consume %d x %s", quantity, code), gateway.Consume(code, quantity))
}

func Recycle(code string, quantity int) Step {
	return primitive(KindRecycle, fmt.Sprintf("Recycle %d x %s", quantity, code), gateway.Recycle(code, quantity))
}

func DeleteItem(code string, quantity int) Step {
	return primitive(KindDelete, fmt.Sprintf("Delete %d x %s", quantity, code), gateway.DeleteItem(code, quantity))
}

// Gathering keeps harvesting ahead of other work while it succeeds, and yields
// its turn to the rest of the queue after a failure.
type Gathering struct{}

func (Gathering) Kind() Kind    { return KindGathering }
func (Gathering) Label() string { return "Gathering" }

func (g Gathering) Execute(ctx context.Context, env Env) (Outcome, error) {
	return primitive(KindGathering, g.Label(), gateway.Gathering()).Execute(ctx, env)
}

func (g Gathering) Requeue(_ Outcome, err error) (Step, Placement) {
	if err != nil {
		return g, PlaceBack
	}
	return g, PlaceFront
}
