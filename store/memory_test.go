package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/closet/model"
)

func TestMemoryItemCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	item := &model.ClothingItem{
		ID:         "item-1",
		Title:      "blue shirt",
		Category:   "shirt",
		Color:      "blue",
		ImageBytes: []byte{1, 2, 3},
	}
	require.NoError(t, s.CreateItem(ctx, item))

	got, err := s.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "blue shirt", got.Title)
	assert.Equal(t, []byte{1, 2, 3}, got.ImageBytes)
	assert.False(t, got.CreatedAt.IsZero())

	got.Title = "navy shirt"
	require.NoError(t, s.UpdateItem(ctx, got))
	got, err = s.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "navy shirt", got.Title)

	// List 不携带原图字节
	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ImageBytes)

	require.NoError(t, s.DeleteItem(ctx, "item-1"))
	_, err = s.GetItem(ctx, "item-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteItem(ctx, "item-1"), ErrNotFound)
}

func TestMemoryListItemsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateItem(ctx, &model.ClothingItem{ID: "a", CreatedAt: base}))
	require.NoError(t, s.CreateItem(ctx, &model.ClothingItem{ID: "b", CreatedAt: base.Add(time.Hour)}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID) // 新的在前
}

func TestMemoryOutfitCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	outfit := &model.Outfit{
		ID:         "outfit-1",
		Name:       "Casual Friday",
		ImageBytes: []byte{0xff, 0xd8},
		ItemIDs:    []string{"item-1", "item-2"},
	}
	require.NoError(t, s.CreateOutfit(ctx, outfit))

	got, err := s.GetOutfit(ctx, "outfit-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1", "item-2"}, got.ItemIDs)
	assert.Equal(t, []byte{0xff, 0xd8}, got.ImageBytes)

	taken, err := s.OutfitNameTaken(ctx, "casual friday")
	require.NoError(t, err)
	assert.True(t, taken, "name uniqueness is case-insensitive")

	taken, err = s.OutfitNameTaken(ctx, "weekend")
	require.NoError(t, err)
	assert.False(t, taken)

	outfits, err := s.ListOutfits(ctx)
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	assert.Nil(t, outfits[0].ImageBytes)

	require.NoError(t, s.DeleteOutfit(ctx, "outfit-1"))
	_, err = s.GetOutfit(ctx, "outfit-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
