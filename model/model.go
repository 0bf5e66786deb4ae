package model

import "time"

// ClothingItem 衣柜单品。ImageBytes 为去背景后的 PNG 原图，
// ThumbBytes 为列表用缩略图（JPEG）。
type ClothingItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Color       string    `json:"color"`
	ImageBytes  []byte    `json:"-"`
	ThumbBytes  []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Outfit 搭配记录。ImageBytes 为合成预览图（JPEG，质量 80），
// ItemIDs 为参与合成的单品 ID 集合（顺序无语义）。
type Outfit struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	ImageBytes []byte    `json:"-"`
	ItemIDs    []string  `json:"item_ids"`
}

// DataResponse 成功响应
type DataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
