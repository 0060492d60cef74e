package scheduler

import (
	"time"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/game"
)

type QueueItem struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Kind    actions.Kind `json:"kind"`
	Requeue bool         `json:"requeue"`
}

type LastAction struct {
	CommandID string            `json:"command_id"`
	Label     string            `json:"label"`
	At        time.Time         `json:"at"`
	Result    game.ActionResult `json:"result"`
}

// View is a read-only copy of the scheduler state for display.
type View struct {
	Character           string      `json:"character"`
	Status              Status      `json:"status"`
	Color               string      `json:"color"`
	Queue               []QueueItem `json:"queue"`
	Running             *QueueItem  `json:"running,omitempty"`
	CooldownExpiration  *time.Time  `json:"cooldown_expiration,omitempty"`
	CooldownRemainingMS *int64      `json:"cooldown_remaining_ms,omitempty"`
	LastAction          *LastAction `json:"last_action,omitempty"`
	LastError           string      `json:"last_error,omitempty"`
}

func (s *Scheduler) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func itemOf(cmd actions.Command) QueueItem {
	return QueueItem{ID: cmd.ID, Label: cmd.Label, Kind: cmd.Kind(), Requeue: cmd.Requeue}
}

func (s *Scheduler) viewLocked() View {
	pending := s.queue.Data()
	items := make([]QueueItem, 0, len(pending))
	for _, cmd := range pending {
		items = append(items, itemOf(cmd))
	}
	view := View{
		Character: s.character,
		Status:    s.status,
		Color:     s.status.Color(),
		Queue:     items,
		LastError: s.lastError,
	}
	if s.running != nil {
		running := itemOf(*s.running)
		view.Running = &running
	}
	if s.expiration != nil {
		exp := *s.expiration
		view.CooldownExpiration = &exp
	}
	if s.remaining != nil {
		ms := s.remaining.Milliseconds()
		view.CooldownRemainingMS = &ms
	}
	if s.lastAction != nil {
		last := *s.lastAction
		view.LastAction = &last
	}
	return view
}
