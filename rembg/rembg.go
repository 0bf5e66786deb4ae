// Package rembg 封装第三方抠图服务：输入原始图片字节，输出去背景后的 PNG
package rembg

import "context"

type Remover interface {
	Remove(ctx context.Context, image []byte) ([]byte, error)
}

// Noop 未配置抠图服务时原样返回（例如图片本身已带有效 alpha）
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Remove(_ context.Context, image []byte) ([]byte, error) {
	return image, nil
}
