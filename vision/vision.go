// Package vision 封装视觉分类服务：输入服装图片，输出结构化属性
package vision

import "context"

// Attributes 分类结果
type Attributes struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Color       string `json:"color"`
}

type Classifier interface {
	Classify(ctx context.Context, image []byte) (*Attributes, error)
}
