package store

import (
	"context"
	"errors"

	"github.com/chaos-io/closet/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("store: record not found")

// Store 衣柜持久化接口。List 类操作不返回原图字节（只含元数据与缩略图），
// 原图按需单独取。
type Store interface {
	CreateItem(ctx context.Context, item *model.ClothingItem) error
	GetItem(ctx context.Context, id string) (*model.ClothingItem, error)
	ListItems(ctx context.Context) ([]*model.ClothingItem, error)
	UpdateItem(ctx context.Context, item *model.ClothingItem) error
	DeleteItem(ctx context.Context, id string) error

	CreateOutfit(ctx context.Context, outfit *model.Outfit) error
	GetOutfit(ctx context.Context, id string) (*model.Outfit, error)
	ListOutfits(ctx context.Context) ([]*model.Outfit, error)
	DeleteOutfit(ctx context.Context, id string) error

	// OutfitNameTaken 搭配名大小写不敏感唯一性检查
	OutfitNameTaken(ctx context.Context, name string) (bool, error)
}
