package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artiq/cli/internal/game"
)

type fakeCatalogSource struct {
	mu        sync.Mutex
	items     map[string]game.Item
	itemCalls map[string]int
	mapCalls  int
}

func (f *fakeCatalogSource) Item(_ context.Context, code string) (game.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls[code]++
	item, ok := f.items[code]
	if !ok {
		return game.Item{}, errors.New("Item not found.")
	}
	return item, nil
}

func (f *fakeCatalogSource) Maps(_ context.Context, contentType, contentCode string) ([]game.MapTile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapCalls++
	if contentType != "workshop" || contentCode != "weaponcrafting" {
		return nil, nil
	}
	return []game.MapTile{{Name: "City", X: 2, Y: 1, Content: &game.MapContent{Type: "workshop", Code: "weaponcrafting"}}}, nil
}

func newFakeCatalogSource() *fakeCatalogSource {
	return &fakeCatalogSource{
		items: map[string]game.Item{
			"copper_dagger":  {Code: "copper_dagger", Name: "Copper Dagger", Craft: &game.Craft{Skill: "weaponcrafting", Items: []game.SimpleItem{{Code: "copper", Quantity: 6}}}},
			"cooked_gudgeon": {Code: "cooked_gudgeon", Effects: []game.Effect{{Code: "heal", Value: 75}}},
		},
		itemCalls: map[string]int{},
	}
}

func TestCatalog_CachesItemsAndWorkshops(t *testing.T) {
	src := newFakeCatalogSource()
	c := NewCatalog(src)

	for i := 0; i < 3; i++ {
		item, err := c.Item(context.Background(), "copper_dagger")
		require.NoError(t, err)
		assert.Equal(t, 6, item.ComponentsPerUnit())
	}
	assert.Equal(t, 1, src.itemCalls["copper_dagger"])

	tile, err := c.Workshop(context.Background(), "weaponcrafting")
	require.NoError(t, err)
	assert.Equal(t, game.Position{X: 2, Y: 1}, tile.Position())
	_, err = c.Workshop(context.Background(), "weaponcrafting")
	require.NoError(t, err)
	assert.Equal(t, 1, src.mapCalls)
}

func TestCatalog_WorkshopMissing(t *testing.T) {
	c := NewCatalog(newFakeCatalogSource())
	_, err := c.Workshop(context.Background(), "jewelrycrafting")
	require.Error(t, err)
}

func TestCatalog_PrefetchLoadsRecipesAndWorkshops(t *testing.T) {
	src := newFakeCatalogSource()
	c := NewCatalog(src)
	err := c.Prefetch(context.Background(), []string{"copper_dagger", "cooked_gudgeon", "copper_dagger", ""})
	require.NoError(t, err)
	assert.Equal(t, 1, src.itemCalls["copper_dagger"])
	assert.Equal(t, 1, src.itemCalls["cooked_gudgeon"])
	assert.Equal(t, 1, src.mapCalls)
}

func TestCatalog_PrefetchReportsMissingItem(t *testing.T) {
	c := NewCatalog(newFakeCatalogSource())
	err := c.Prefetch(context.Background(), []string{"unknown_item"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_item")
}
