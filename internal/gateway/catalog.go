package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"artiq/cli/internal/game"
)

type catalogSource interface {
	Item(ctx context.Context, code string) (game.Item, error)
	Maps(ctx context.Context, contentType, contentCode string) ([]game.MapTile, error)
}

// Catalog caches read-only reference data needed by compound strategies.
type Catalog struct {
	src catalogSource

	mu        sync.RWMutex
	items     map[string]game.Item
	workshops map[string]game.MapTile
}

func NewCatalog(src catalogSource) *Catalog {
	return &Catalog{
		src:       src,
		items:     map[string]game.Item{},
		workshops: map[string]game.MapTile{},
	}
}

func (c *Catalog) Item(ctx context.Context, code string) (game.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return game.Item{}, fmt.Errorf("item code is required")
	}
	c.mu.RLock()
	item, ok := c.items[code]
	c.mu.RUnlock()
	if ok {
		return item, nil
	}
	item, err := c.src.Item(ctx, code)
	if err != nil {
		return game.Item{}, fmt.Errorf("load item %s: %w", code, err)
	}
	c.mu.Lock()
	c.items[code] = item
	c.mu.Unlock()
	return item, nil
}

// Workshop returns the first workshop tile for a craft skill.
func (c *Catalog) Workshop(ctx context.Context, skill string) (game.MapTile, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return game.MapTile{}, fmt.Errorf("craft skill is required")
	}
	c.mu.RLock()
	tile, ok := c.workshops[skill]
	c.mu.RUnlock()
	if ok {
		return tile, nil
	}
	tiles, err := c.src.Maps(ctx, "workshop", skill)
	if err != nil {
		return game.MapTile{}, fmt.Errorf("load workshop %s: %w", skill, err)
	}
	if len(tiles) == 0 {
		return game.MapTile{}, fmt.Errorf("no workshop for skill %s", skill)
	}
	c.mu.Lock()
	c.workshops[skill] = tiles[0]
	c.mu.Unlock()
	return tiles[0], nil
}

// Prefetch loads every item concurrently, plus the workshop of each craftable one.
func (c *Catalog) Prefetch(ctx context.Context, codes []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	seen := map[string]struct{}{}
	for _, code := range codes {
		code := code
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		g.Go(func() error {
			item, err := c.Item(gctx, code)
			if err != nil {
				return err
			}
			if item.Craft != nil && item.Craft.Skill != "" {
				if _, err := c.Workshop(gctx, item.Craft.Skill); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
