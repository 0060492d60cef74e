// Package snapshot keeps the last known server-side state of each character.
package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"artiq/cli/internal/game"
)

type Fetcher interface {
	Character(ctx context.Context, name string) (game.Character, error)
}

type entry struct {
	character game.Character
	updatedAt time.Time
}

// Cache is a read-through cache keyed by character name.
type Cache struct {
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher, now: time.Now, entries: map[string]entry{}}
}

func (c *Cache) Get(name string) (game.Character, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[strings.TrimSpace(name)]
	return e.character, ok
}

// UpdatedAt reports when the entry was last written.
func (c *Cache) UpdatedAt(name string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[strings.TrimSpace(name)].updatedAt
}

// Set stores character. A cooldown expiration earlier than the stored one is a
// stale report, so the stored expiration is kept.
func (c *Cache) Set(character game.Character) {
	c.set(character)
}

func (c *Cache) set(character game.Character) game.Character {
	name := strings.TrimSpace(character.Name)
	if name == "" {
		return character
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[name]; ok && prev.character.CooldownExpiration != nil {
		prevExp := *prev.character.CooldownExpiration
		if character.CooldownExpiration == nil || character.CooldownExpiration.Before(prevExp) {
			character.CooldownExpiration = &prevExp
		}
	}
	c.entries[name] = entry{character: character, updatedAt: c.now()}
	return character
}

// Refresh re-fetches the character from the server and stores it.
func (c *Cache) Refresh(ctx context.Context, name string) (game.Character, error) {
	if c.fetcher == nil {
		return game.Character{}, errors.New("snapshot fetcher is not configured")
	}
	character, err := c.fetcher.Character(ctx, name)
	if err != nil {
		return game.Character{}, err
	}
	if character.Name == "" {
		character.Name = name
	}
	return c.set(character), nil
}

// Load returns the cached snapshot, fetching it on a miss.
func (c *Cache) Load(ctx context.Context, name string) (game.Character, error) {
	if character, ok := c.Get(name); ok {
		return character, nil
	}
	return c.Refresh(ctx, name)
}

func (c *Cache) Forget(name string) {
	c.mu.Lock()
	delete(c.entries, strings.TrimSpace(name))
	c.mu.Unlock()
}
