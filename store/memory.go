package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chaos-io/closet/model"
)

// Memory 内存实现，用于测试和未配置数据库的本地运行
type Memory struct {
	mu      sync.RWMutex
	items   map[string]*model.ClothingItem
	outfits map[string]*model.Outfit
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		items:   make(map[string]*model.ClothingItem),
		outfits: make(map[string]*model.Outfit),
	}
}

func (s *Memory) CreateItem(_ context.Context, item *model.ClothingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Memory) GetItem(_ context.Context, id string) (*model.ClothingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *Memory) ListItems(_ context.Context) ([]*model.ClothingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*model.ClothingItem, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		cp.ImageBytes = nil
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Memory) UpdateItem(_ context.Context, item *model.ClothingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = item.Title
	existing.Category = item.Category
	existing.Subcategory = item.Subcategory
	existing.Color = item.Color
	return nil
}

func (s *Memory) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Memory) CreateOutfit(_ context.Context, outfit *model.Outfit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = time.Now().UTC()
	}
	cp := *outfit
	cp.ItemIDs = append([]string(nil), outfit.ItemIDs...)
	s.outfits[outfit.ID] = &cp
	return nil
}

func (s *Memory) GetOutfit(_ context.Context, id string) (*model.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outfit, ok := s.outfits[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *outfit
	cp.ItemIDs = append([]string(nil), outfit.ItemIDs...)
	return &cp, nil
}

func (s *Memory) ListOutfits(_ context.Context) ([]*model.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outfits := make([]*model.Outfit, 0, len(s.outfits))
	for _, outfit := range s.outfits {
		cp := *outfit
		cp.ImageBytes = nil
		cp.ItemIDs = append([]string(nil), outfit.ItemIDs...)
		outfits = append(outfits, &cp)
	}
	sort.Slice(outfits, func(i, j int) bool {
		if outfits[i].CreatedAt.Equal(outfits[j].CreatedAt) {
			return outfits[i].ID < outfits[j].ID
		}
		return outfits[i].CreatedAt.After(outfits[j].CreatedAt)
	})
	return outfits, nil
}

func (s *Memory) DeleteOutfit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outfits[id]; !ok {
		return ErrNotFound
	}
	delete(s.outfits, id)
	return nil
}

func (s *Memory) OutfitNameTaken(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, outfit := range s.outfits {
		if strings.EqualFold(outfit.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
