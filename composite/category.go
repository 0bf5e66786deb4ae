package composite

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory 分类名不在闭集内
var ErrUnknownCategory = errors.New("unknown category")

// Category 服装分类，闭集。枚举序号同时作为 stackOrder 相同时的绘制顺序 tiebreak
type Category int

const (
	Shoes Category = iota
	Pants
	Dress
	Shirt
	Jacket
	Accessory

	numCategories = int(Accessory) + 1
)

var categoryNames = [numCategories]string{
	Shoes:     "shoes",
	Pants:     "pants",
	Dress:     "dress",
	Shirt:     "shirt",
	Jacket:    "jacket",
	Accessory: "accessory",
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) Valid() bool {
	return c >= 0 && int(c) < numCategories
}

// ParseCategory 解析分类名（大小写不敏感）
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownCategory, s)
}

// Categories 返回全部分类，按枚举序
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}
