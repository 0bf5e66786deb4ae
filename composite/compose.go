package composite

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"sort"

	"github.com/nfnt/resize"
)

const (
	// DefaultWidth / DefaultHeight 画布逻辑尺寸
	DefaultWidth  = 600
	DefaultHeight = 800

	// DefaultJPEGQuality 持久化边界的有损编码质量
	DefaultJPEGQuality = 80
)

var (
	// ErrEmptySelection 空选择集，调用方不应持久化无任何单品的搭配
	ErrEmptySelection = errors.New("composite: empty selection")

	// ErrInvalidCanvas 画布尺寸非法
	ErrInvalidCanvas = errors.New("composite: invalid canvas size")
)

// Options 画布选项，零值使用默认 600x800、白底
type Options struct {
	Width       int
	Height      int
	Transparent bool
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Compose 把每个分类选中的服装图合成到一张画布上。纯函数：
// 输入相同则输出逐像素相同，与 map 的插入/遍历顺序无关。
//
// 绘制顺序只由 StackOrder 决定（升序，先画的在下层），
// 相同 StackOrder 按分类枚举序打破平局。
// nil 或零尺寸的图层直接跳过，不影响其他图层，也不报错。
func Compose(selection map[Category]image.Image, opts Options) (*image.NRGBA, error) {
	opts = opts.withDefaults()
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, opts.Width, opts.Height)
	}

	occupied := occupiedCategories(selection)
	if len(occupied) == 0 {
		return nil, ErrEmptySelection
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	if !opts.Transparent {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}

	for _, c := range occupied {
		img := selection[c]
		rect := placement(c, img.Bounds().Dx(), img.Bounds().Dy(), opts)
		scaled := resize.Resize(uint(rect.Dx()), uint(rect.Dy()), img, resize.Lanczos3)
		draw.Draw(canvas, rect, scaled, scaled.Bounds().Min, draw.Over)
	}

	return canvas, nil
}

// occupiedCategories 过滤出有效图层并按绘制顺序排序
func occupiedCategories(selection map[Category]image.Image) []Category {
	occupied := make([]Category, 0, len(selection))
	for c, img := range selection {
		if img == nil || img.Bounds().Dx() < 1 || img.Bounds().Dy() < 1 {
			continue
		}
		occupied = append(occupied, c)
	}
	sort.Slice(occupied, func(i, j int) bool {
		oi, oj := RuleFor(occupied[i]).StackOrder, RuleFor(occupied[j]).StackOrder
		if oi != oj {
			return oi < oj
		}
		return occupied[i] < occupied[j]
	})
	return occupied
}

// placement 计算服装在画布上的目标矩形：
// 等比缩放到不超过分类的 maxSize 包围盒，并以规则中心点居中。
func placement(c Category, natW, natH int, opts Options) image.Rectangle {
	opts = opts.withDefaults()
	rule := RuleFor(c)

	maxW := float64(opts.Width) * rule.MaxW
	maxH := float64(opts.Height) * rule.MaxH

	r := float64(natW) / float64(natH)
	var finalW, finalH float64
	if r > maxW/maxH {
		// 相对包围盒更宽，受宽度约束
		finalW = maxW
		finalH = maxW / r
	} else {
		finalH = maxH
		finalW = maxH * r
	}

	x := float64(opts.Width)*rule.CenterX - finalW/2
	y := float64(opts.Height)*rule.CenterY - finalH/2

	x0 := int(math.Round(x))
	y0 := int(math.Round(y))
	return image.Rect(x0, y0, x0+int(math.Round(finalW)), y0+int(math.Round(finalH)))
}

// EncodeJPEG 持久化边界的有损编码，quality<=0 时用默认值
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG 无损编码，保留 alpha，用于单品图存储
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
