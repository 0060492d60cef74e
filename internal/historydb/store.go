package historydb

import (
	"context"
	"errors"
	"strings"
	"time"

	dbmodel "artiq/cli/internal/db"

	"gorm.io/gorm"
)

// Outcome classifies one dispatched command.
type Outcome string

const (
	OutcomeDone     Outcome = "done"
	OutcomeFailed   Outcome = "failed"
	OutcomeExpanded Outcome = "expanded"
	OutcomeDeferred Outcome = "deferred"
	OutcomeAborted  Outcome = "aborted"
)

type Entry struct {
	ID              int64     `json:"id"`
	Character       string    `json:"character"`
	CommandID       string    `json:"command_id"`
	Kind            string    `json:"kind"`
	Label           string    `json:"label"`
	Outcome         Outcome   `json:"outcome"`
	Error           string    `json:"error,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	CooldownSeconds int       `json:"cooldown_seconds"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

type Store struct {
	db *gorm.DB
}

// NewStore uses the shared DB. Caller must not close the db through the store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return errors.New("history store is not initialized")
	}
	name := strings.TrimSpace(entry.Character)
	if name == "" {
		return errors.New("character is required")
	}
	finished := entry.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	row := dbmodel.ActionHistory{
		Character:       name,
		CommandID:       entry.CommandID,
		Kind:            entry.Kind,
		Label:           entry.Label,
		Outcome:         string(entry.Outcome),
		Error:           entry.Error,
		Reason:          entry.Reason,
		CooldownSeconds: entry.CooldownSeconds,
		StartedAt:       entry.StartedAt.UTC().UnixMilli(),
		FinishedAt:      finished.UTC().UnixMilli(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns the most recent entries for character, newest first. An empty
// character lists every character.
func (s *Store) List(ctx context.Context, character string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Order("finished_at DESC").Order("id DESC").Limit(limit)
	if name := strings.TrimSpace(character); name != "" {
		q = q.Where("character = ?", name)
	}
	rows := make([]dbmodel.ActionHistory, 0, limit)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ID:              row.ID,
			Character:       row.Character,
			CommandID:       row.CommandID,
			Kind:            row.Kind,
			Label:           row.Label,
			Outcome:         Outcome(row.Outcome),
			Error:           row.Error,
			Reason:          row.Reason,
			CooldownSeconds: row.CooldownSeconds,
			StartedAt:       time.UnixMilli(row.StartedAt).UTC(),
			FinishedAt:      time.UnixMilli(row.FinishedAt).UTC(),
		})
	}
	return entries, nil
}

// Clear deletes the history of character, or of everyone when character is empty.
func (s *Store) Clear(ctx context.Context, character string) error {
	if s == nil || s.db == nil {
		return errors.New("history store is not initialized")
	}
	q := s.db.WithContext(ctx)
	if name := strings.TrimSpace(character); name != "" {
		return q.Where("character = ?", name).Delete(&dbmodel.ActionHistory{}).Error
	}
	return q.Where("1 = 1").Delete(&dbmodel.ActionHistory{}).Error
}

// Close is a no-op; DB is process-wide and must not be closed by the store.
func (s *Store) Close() error {
	return nil
}
