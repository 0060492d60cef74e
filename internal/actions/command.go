// Package actions builds the schedulable commands: primitive remote operations and the
// compound strategies that expand into several of them.
package actions

import (
	"context"

	"github.com/google/uuid"

	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
)

type Kind string

const (
	KindMove         Kind = "move"
	KindRest         Kind = "rest"
	KindFight        Kind = "fight"
	KindGathering    Kind = "gathering"
	KindEquip        Kind = "equip"
	KindUnequip      Kind = "unequip"
	KindDeposit      Kind = "deposit"
	KindWithdraw     Kind = "withdraw"
	KindDepositGold  Kind = "deposit_gold"
	KindWithdrawGold Kind = "withdraw_gold"
	KindBuyExpansion Kind = "buy_expansion"
	KindCraft        Kind = "craft"
	KindTaskAccept   Kind = "task_accept"
	KindTaskTrade    Kind = "task_trade"
	KindTaskComplete Kind = "task_complete"
	KindTaskExchange Kind = "task_exchange"
	KindTaskAbandon  Kind = "task_abandon"
	KindBuyItem      Kind = "buy_item"
	KindSellItem     Kind = "sell_item"
	KindConsume      Kind = "consume"
	KindRecycle      Kind = "recycle"
	KindDelete       Kind = "delete"

	KindSmartFight   Kind = "smart_fight"
	KindSmartConsume Kind = "smart_consume"
	KindSmartCraft   Kind = "smart_craft"
	KindDepositAll   Kind = "deposit_all"
)

// Gateway performs one primitive operation against the game server.
type Gateway interface {
	Perform(ctx context.Context, name string, req gateway.Request) (game.ActionResult, error)
}

// Snapshots is the character snapshot cache as seen by strategies.
type Snapshots interface {
	Get(name string) (game.Character, bool)
	Refresh(ctx context.Context, name string) (game.Character, error)
}

// Env carries the collaborators a step runs against.
type Env struct {
	Character string
	Gateway   Gateway
	Snapshots Snapshots
}

// Outcome is what a step produced.
type Outcome struct {
	// Result is set when a gateway call succeeded.
	Result *game.ActionResult
	// Steps are placed at the head of the queue, in execution order.
	Steps []Step
	// Observed is the snapshot the step based its decision on.
	Observed *game.Character
	// Quantity is the number of units the step actually processed.
	Quantity int
	// Deferred means the step decided there was nothing to do yet.
	Deferred bool
	// Aborted means the step could not proceed; AbortReason says why.
	Aborted     bool
	AbortReason string
}

func aborted(reason string) Outcome {
	return Outcome{Aborted: true, AbortReason: reason}
}

// Step is one immutable command variant.
type Step interface {
	Kind() Kind
	Label() string
	Execute(ctx context.Context, env Env) (Outcome, error)
}

type Placement int

const (
	PlaceNone Placement = iota
	PlaceFront
	PlaceBack
)

func (p Placement) String() string {
	switch p {
	case PlaceFront:
		return "front"
	case PlaceBack:
		return "back"
	default:
		return "none"
	}
}

// Requeuer overrides how a repeating step is rescheduled after it ran.
// Steps without it repeat at the front after a success and stop after a failure.
type Requeuer interface {
	Requeue(out Outcome, err error) (Step, Placement)
}

// Command is one schedulable unit. Requeuing builds a new Command.
type Command struct {
	ID      string
	Label   string
	Step    Step
	Requeue bool
}

func NewCommand(step Step, requeue bool) Command {
	label := step.Label()
	if requeue {
		label = "Repeat " + label
	}
	return Command{
		ID:      uuid.NewString(),
		Label:   label,
		Step:    step,
		Requeue: requeue,
	}
}

func (c Command) Kind() Kind {
	if c.Step == nil {
		return ""
	}
	return c.Step.Kind()
}

// Run executes the step once.
func (c Command) Run(ctx context.Context, env Env) (Outcome, error) {
	return c.Step.Execute(ctx, env)
}

// Next is the repeat of c after a run, and where it goes.
func (c Command) Next(out Outcome, err error) (Command, Placement) {
	if !c.Requeue || c.Step == nil {
		return Command{}, PlaceNone
	}
	var (
		step      Step
		placement Placement
	)
	if r, ok := c.Step.(Requeuer); ok {
		step, placement = r.Requeue(out, err)
	} else if err == nil && !out.Aborted {
		step, placement = c.Step, PlaceFront
	}
	if step == nil || placement == PlaceNone {
		return Command{}, PlaceNone
	}
	return NewCommand(step, true), placement
}

// Expand wraps follow-up steps as one-shot commands.
func Expand(steps []Step) []Command {
	out := make([]Command, 0, len(steps))
	for _, s := range steps {
		if s == nil {
			continue
		}
		out = append(out, NewCommand(s, false))
	}
	return out
}
