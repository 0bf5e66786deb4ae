package composite

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidImage 生成纯色不透明测试图
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func TestPlacementScenario(t *testing.T) {
	opts := Options{Width: 600, Height: 800}

	// Shirt 200x100：比包围盒(420x320)更宽，受宽度约束
	shirt := placement(Shirt, 200, 100, opts)
	assert.Equal(t, 420, shirt.Dx())
	assert.Equal(t, 210, shirt.Dy())
	assert.Equal(t, image.Pt(300, 280), image.Pt(shirt.Min.X+shirt.Dx()/2, shirt.Min.Y+shirt.Dy()/2))

	// Pants 100x200：比包围盒更高，受高度约束
	pants := placement(Pants, 100, 200, opts)
	assert.Equal(t, 160, pants.Dx())
	assert.Equal(t, 320, pants.Dy())
	assert.Equal(t, image.Pt(300, 480), image.Pt(pants.Min.X+pants.Dx()/2, pants.Min.Y+pants.Dy()/2))
}

func TestPlacementBoundsAndAspect(t *testing.T) {
	opts := Options{Width: 600, Height: 800}
	sizes := [][2]int{{100, 300}, {300, 100}, {128, 128}, {700, 500}, {33, 777}, {1920, 1080}}

	for _, c := range Categories() {
		rule := RuleFor(c)
		maxW := float64(opts.Width) * rule.MaxW
		maxH := float64(opts.Height) * rule.MaxH

		for _, s := range sizes {
			rect := placement(c, s[0], s[1], opts)

			// 不超过包围盒（允许四舍五入误差）
			assert.LessOrEqual(t, float64(rect.Dx()), maxW+0.5, "%s %v width", c, s)
			assert.LessOrEqual(t, float64(rect.Dy()), maxH+0.5, "%s %v height", c, s)

			// 宽高比保持（允许整数像素取整误差）
			want := float64(s[0]) / float64(s[1])
			got := float64(rect.Dx()) / float64(rect.Dy())
			assert.InEpsilon(t, want, got, 0.02, "%s %v aspect", c, s)

			// 居中于规则中心点
			cx := float64(rect.Min.X) + float64(rect.Dx())/2
			cy := float64(rect.Min.Y) + float64(rect.Dy())/2
			assert.InDelta(t, float64(opts.Width)*rule.CenterX, cx, 1.0)
			assert.InDelta(t, float64(opts.Height)*rule.CenterY, cy, 1.0)
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	selection := map[Category]image.Image{
		Shirt: solidImage(200, 100, blue),
		Pants: solidImage(100, 200, red),
		Shoes: solidImage(80, 60, green),
	}

	first, err := Compose(selection, Options{})
	require.NoError(t, err)
	second, err := Compose(selection, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestComposeOrderIndependence(t *testing.T) {
	shirt := solidImage(200, 100, blue)
	pants := solidImage(100, 200, red)
	shoes := solidImage(80, 60, green)

	// 同样的选择集，不同的插入顺序
	a := map[Category]image.Image{}
	a[Shirt] = shirt
	a[Pants] = pants
	a[Shoes] = shoes

	b := map[Category]image.Image{}
	b[Shoes] = shoes
	b[Shirt] = shirt
	b[Pants] = pants

	imgA, err := Compose(a, Options{})
	require.NoError(t, err)
	imgB, err := Compose(b, Options{})
	require.NoError(t, err)

	assert.Equal(t, imgA.Pix, imgB.Pix)
}

func TestComposeEmptySelection(t *testing.T) {
	_, err := Compose(map[Category]image.Image{}, Options{})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = Compose(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestComposeSkipsInvalidLayer(t *testing.T) {
	valid := map[Category]image.Image{
		Shoes: solidImage(80, 60, green),
		Pants: solidImage(100, 200, red),
	}
	withBad := map[Category]image.Image{
		Shoes:     valid[Shoes],
		Pants:     valid[Pants],
		Accessory: nil,                            // 未解码成功的图层
		Jacket:    image.NewNRGBA(image.Rect(0, 0, 0, 0)), // 零尺寸
	}

	want, err := Compose(valid, Options{})
	require.NoError(t, err)
	got, err := Compose(withBad, Options{})
	require.NoError(t, err)

	assert.Equal(t, want.Pix, got.Pix)
}

func TestComposeIdempotentAfterRevert(t *testing.T) {
	selection := map[Category]image.Image{
		Shirt: solidImage(200, 100, blue),
		Pants: solidImage(100, 200, red),
	}

	first, err := Compose(selection, Options{})
	require.NoError(t, err)

	// 加一个再撤销，选择集回到原样
	selection[Accessory] = solidImage(50, 50, green)
	_, err = Compose(selection, Options{})
	require.NoError(t, err)
	delete(selection, Accessory)

	third, err := Compose(selection, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Pix, third.Pix)
}

func TestComposeStackOrder(t *testing.T) {
	// Shirt(stackOrder 3) 画在 Pants(stackOrder 2) 之上
	selection := map[Category]image.Image{
		Pants: solidImage(100, 200, red),
		Shirt: solidImage(200, 100, blue),
	}
	img, err := Compose(selection, Options{})
	require.NoError(t, err)

	// (300,350) 同时落在两个矩形内：Shirt (90,175)-(510,385)，Pants (220,320)-(380,640)
	got := img.NRGBAAt(300, 350)
	assert.Greater(t, got.B, uint8(200), "shirt should paint over pants")
	assert.Less(t, got.R, uint8(50))
}

func TestComposeStackOrderTieBreak(t *testing.T) {
	// Pants 与 Dress 的 stackOrder 都是 2，按枚举序 Pants 先画、Dress 覆盖
	selection := map[Category]image.Image{
		Dress: solidImage(120, 120, green),
		Pants: solidImage(100, 200, red),
	}
	img, err := Compose(selection, Options{})
	require.NoError(t, err)

	// (300,400) 同时落在 Pants (220,320)-(380,640) 与 Dress (60,120)-(540,600) 内
	got := img.NRGBAAt(300, 400)
	assert.Greater(t, got.G, uint8(200), "dress should paint over pants on equal stack order")
	assert.Less(t, got.R, uint8(50))
}

func TestComposeBackground(t *testing.T) {
	selection := map[Category]image.Image{
		Accessory: solidImage(50, 50, red),
	}

	opaque, err := Compose(selection, Options{})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, opaque.NRGBAAt(0, 0))

	transparent, err := Compose(selection, Options{Transparent: true})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), transparent.NRGBAAt(0, 0).A)
}

func TestComposeInvalidCanvas(t *testing.T) {
	_, err := Compose(map[Category]image.Image{Shoes: solidImage(10, 10, red)}, Options{Width: -1, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidCanvas)
}

func TestEncodeJPEG(t *testing.T) {
	img, err := Compose(map[Category]image.Image{Shoes: solidImage(80, 60, green)}, Options{})
	require.NoError(t, err)

	data, err := EncodeJPEG(img, 0)
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	// JPEG SOI
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}
