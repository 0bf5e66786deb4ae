package store

import (
	"context"
	"os"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/closet/model"
)

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	item := &model.ClothingItem{
		ID:         ksuid.New().String(),
		Title:      "red jacket",
		Category:   "jacket",
		Color:      "red",
		ImageBytes: []byte{0x89, 0x50, 0x4e, 0x47},
	}
	require.NoError(t, s.CreateItem(ctx, item))
	defer func() {
		_ = s.DeleteItem(ctx, item.ID)
	}()

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ImageBytes, got.ImageBytes)

	outfitName := "itest-" + ksuid.New().String()
	outfit := &model.Outfit{
		ID:         ksuid.New().String(),
		Name:       outfitName,
		ImageBytes: []byte{0xff, 0xd8},
		ItemIDs:    []string{item.ID},
	}
	require.NoError(t, s.CreateOutfit(ctx, outfit))
	defer func() {
		_ = s.DeleteOutfit(ctx, outfit.ID)
	}()

	taken, err := s.OutfitNameTaken(ctx, outfitName)
	require.NoError(t, err)
	assert.True(t, taken)

	gotOutfit, err := s.GetOutfit(ctx, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID}, gotOutfit.ItemIDs)
}
