package game

import (
	"encoding/json"
	"time"
)

type Cooldown struct {
	TotalSeconds     int       `json:"total_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	StartedAt        time.Time `json:"started_at"`
	Expiration       time.Time `json:"expiration"`
	Reason           string    `json:"reason"`
}

// Cooldown reasons reported by the server.
const (
	ReasonMovement      = "movement"
	ReasonFight         = "fight"
	ReasonCrafting      = "crafting"
	ReasonGathering     = "gathering"
	ReasonBuyNPC        = "buy_npc"
	ReasonSellNPC       = "sell_npc"
	ReasonDelete        = "delete_item"
	ReasonDeposit       = "deposit_item"
	ReasonWithdraw      = "withdraw_item"
	ReasonDepositGold   = "deposit_gold"
	ReasonWithdrawGold  = "withdraw_gold"
	ReasonEquip         = "equip"
	ReasonUnequip       = "unequip"
	ReasonTask          = "task"
	ReasonRecycling     = "recycling"
	ReasonRest          = "rest"
	ReasonUse           = "use"
	ReasonBuyBankExpand = "buy_bank_expansion"
)

type Drop struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type Fight struct {
	XP     int    `json:"xp"`
	Gold   int    `json:"gold"`
	Drops  []Drop `json:"drops"`
	Turns  int    `json:"turns"`
	Result string `json:"result"`
}

// ActionResult is the payload of every successful character action.
type ActionResult struct {
	Cooldown    Cooldown  `json:"cooldown"`
	Character   Character `json:"character"`
	Destination *MapTile  `json:"destination,omitempty"`
	Fight       *Fight    `json:"fight,omitempty"`
	HPRestored  int       `json:"hp_restored,omitempty"`

	// Detail keeps the raw payload for operation specific fields not modelled above.
	Detail json.RawMessage `json:"-"`
}

// IsReason reports whether the result was produced by the given action type.
func (r ActionResult) IsReason(reason string) bool {
	return r.Cooldown.Reason == reason
}

type ServerStatus struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	ServerTime time.Time `json:"server_time"`
}
