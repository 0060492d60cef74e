package gateway

import (
	"context"

	"artiq/cli/internal/game"
)

// Op is the action path below /my/{name}/action/.
type Op string

const (
	OpMove         Op = "move"
	OpRest         Op = "rest"
	OpFight        Op = "fight"
	OpGathering    Op = "gathering"
	OpEquip        Op = "equip"
	OpUnequip      Op = "unequip"
	OpDeposit      Op = "bank/deposit/item"
	OpWithdraw     Op = "bank/withdraw/item"
	OpDepositGold  Op = "bank/deposit/gold"
	OpWithdrawGold Op = "bank/withdraw/gold"
	OpBuyExpansion Op = "bank/buy_expansion"
	OpCrafting     Op = "crafting"
	OpTaskNew      Op = "task/new"
	OpTaskTrade    Op = "task/trade"
	OpTaskComplete Op = "task/complete"
	OpTaskExchange Op = "task/exchange"
	OpTaskCancel   Op = "task/cancel"
	OpNPCBuy       Op = "npc/buy"
	OpNPCSell      Op = "npc/sell"
	OpUse          Op = "use"
	OpRecycling    Op = "recycling"
	OpDelete       Op = "delete"
)

// Request is one primitive operation with its body.
type Request struct {
	Op   Op
	Body any
}

type codeQuantity struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type slotQuantity struct {
	Slot     string `json:"slot"`
	Quantity int    `json:"quantity"`
}

type equipBody struct {
	Code     string `json:"code"`
	Slot     string `json:"slot"`
	Quantity int    `json:"quantity"`
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

func Move(pos game.Position) Request {
	return Request{Op: OpMove, Body: pos}
}

func Rest() Request         { return Request{Op: OpRest} }
func Fight() Request        { return Request{Op: OpFight} }
func Gathering() Request    { return Request{Op: OpGathering} }
func BuyExpansion() Request { return Request{Op: OpBuyExpansion} }
func TaskAccept() Request   { return Request{Op: OpTaskNew} }
func TaskComplete() Request { return Request{Op: OpTaskComplete} }
func TaskExchange() Request { return Request{Op: OpTaskExchange} }
func TaskAbandon() Request  { return Request{Op: OpTaskCancel} }

func Equip(code, slot string, quantity int) Request {
	return Request{Op: OpEquip, Body: equipBody{Code: code, Slot: slot, Quantity: quantity}}
}

func Unequip(slot string, quantity int) Request {
	return Request{Op: OpUnequip, Body: slotQuantity{Slot: slot, Quantity: quantity}}
}

func Deposit(items []game.SimpleItem) Request {
	return Request{Op: OpDeposit, Body: itemsBody(items)}
}

func Withdraw(items []game.SimpleItem) Request {
	return Request{Op: OpWithdraw, Body: itemsBody(items)}
}

func DepositGold(quantity int) Request {
	return Request{Op: OpDepositGold, Body: quantityBody{Quantity: quantity}}
}

func WithdrawGold(quantity int) Request {
	return Request{Op: OpWithdrawGold, Body: quantityBody{Quantity: quantity}}
}

func Craft(code string, quantity int) Request {
	return Request{Op: OpCrafting, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func TaskTrade(code string, quantity int) Request {
	return Request{Op: OpTaskTrade, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func BuyItem(code string, quantity int) Request {
	return Request{Op: OpNPCBuy, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func SellItem(code string, quantity int) Request {
	return Request{Op: OpNPCSell, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func Consume(code string, quantity int) Request {
	return Request{Op: OpUse, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func Recycle(code string, quantity int) Request {
	return Request{Op: OpRecycling, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func DeleteItem(code string, quantity int) Request {
	return Request{Op: OpDelete, Body: codeQuantity{Code: code, Quantity: quantity}}
}

func itemsBody(items []game.SimpleItem) []codeQuantity {
	out := make([]codeQuantity, 0, len(items))
	for _, it := range items {
		out = append(out, codeQuantity{Code: it.Code, Quantity: it.Quantity})
	}
	return out
}

// Perform runs one primitive operation for the named character.
func (c *Client) Perform(ctx context.Context, name string, req Request) (game.ActionResult, error) {
	return c.action(ctx, name, string(req.Op), req.Body)
}
