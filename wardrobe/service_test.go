package wardrobe

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/closet/composite"
	"github.com/chaos-io/closet/model"
	"github.com/chaos-io/closet/store"
	"github.com/chaos-io/closet/util"
	"github.com/chaos-io/closet/vision"
)

type fakeRemover struct {
	out    []byte
	err    error
	called int
}

func (f *fakeRemover) Remove(_ context.Context, image []byte) ([]byte, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return image, nil
}

type fakeClassifier struct {
	attrs  *vision.Attributes
	err    error
	called int
}

func (f *fakeClassifier) Classify(_ context.Context, _ []byte) (*vision.Attributes, error) {
	f.called++
	return f.attrs, f.err
}

// solid 生成纯色图
func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	data, err := composite.EncodePNG(img)
	require.NoError(t, err)
	return data
}

// cutout 带透明边的抠图结果：外圈透明，中心 core 区域纯色
func cutout(outer, core int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, outer, outer))
	off := (outer - core) / 2
	for y := off; y < off+core; y++ {
		for x := off; x < off+core; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var red = color.NRGBA{R: 220, G: 30, B: 30, A: 255}

func newTestService(t *testing.T, remover *fakeRemover, classifier *fakeClassifier) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := New(mem, remover, classifier, nil, Config{})
	return svc, mem
}

func TestAddItem(t *testing.T) {
	remover := &fakeRemover{out: pngBytes(t, cutout(40, 20, red))}
	classifier := &fakeClassifier{attrs: &vision.Attributes{
		Title: "Red Tee", Category: "shirt", Subcategory: "t-shirt", Color: "red",
	}}
	svc, mem := newTestService(t, remover, classifier)

	// 不带 alpha 的 JPEG 输入要走抠图
	item, err := svc.AddItem(context.Background(), jpegBytes(t, solid(100, 80, red)), ItemOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 1, remover.called)
	assert.Equal(t, 1, classifier.called)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "shirt", item.Category)
	assert.Equal(t, "Red Tee", item.Title)
	assert.Equal(t, "red", item.Color)

	// 入库原图裁到主体 bounding box
	stored, err := mem.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	decoded, err := util.DecodeImage(stored.ImageBytes)
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Bounds().Dx())
	assert.Equal(t, 20, decoded.Bounds().Dy())

	// 缩略图是 JPEG
	require.Greater(t, len(stored.ThumbBytes), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, stored.ThumbBytes[:2])
}

func TestAddItemSkipsRemovalForAlphaImages(t *testing.T) {
	remover := &fakeRemover{}
	classifier := &fakeClassifier{attrs: &vision.Attributes{Category: "shoes", Color: "red"}}
	svc, _ := newTestService(t, remover, classifier)

	// PNG 已带透明边：不调抠图服务
	_, err := svc.AddItem(context.Background(), pngBytes(t, cutout(40, 20, red)), ItemOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 0, remover.called)
}

func TestAddItemClassifierFailure(t *testing.T) {
	classifier := &fakeClassifier{err: vision.ErrMissingKey}

	t.Run("无手工分类时上抛", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeRemover{}, classifier)
		_, err := svc.AddItem(context.Background(), pngBytes(t, cutout(40, 20, red)), ItemOverrides{})
		assert.ErrorIs(t, err, vision.ErrMissingKey)
	})

	t.Run("手工分类兜底", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeRemover{}, classifier)
		item, err := svc.AddItem(context.Background(), pngBytes(t, cutout(40, 20, red)), ItemOverrides{Category: "pants"})
		require.NoError(t, err)
		assert.Equal(t, "pants", item.Category)
		// color 走本地主色估计
		assert.Equal(t, "red", item.Color)
	})
}

func TestAddItemErrors(t *testing.T) {
	classifier := &fakeClassifier{attrs: &vision.Attributes{Category: "hat"}}
	svc, _ := newTestService(t, &fakeRemover{}, classifier)

	_, err := svc.AddItem(context.Background(), []byte("not an image"), ItemOverrides{})
	assert.ErrorIs(t, err, ErrInvalidImage)

	// 分类结果不在闭集里
	_, err = svc.AddItem(context.Background(), pngBytes(t, cutout(40, 20, red)), ItemOverrides{})
	assert.ErrorContains(t, err, "unknown category")
}

func seedItem(t *testing.T, mem *store.Memory, category string, img image.Image) string {
	t.Helper()
	id := ksuid.New().String()
	require.NoError(t, mem.CreateItem(context.Background(), &model.ClothingItem{
		ID:         id,
		Category:   category,
		ImageBytes: pngBytes(t, img),
	}))
	return id
}

func TestComposeOutfit(t *testing.T) {
	svc, mem := newTestService(t, &fakeRemover{}, &fakeClassifier{})
	ctx := context.Background()

	shirtID := seedItem(t, mem, "shirt", solid(200, 100, color.NRGBA{B: 255, A: 255}))
	pantsID := seedItem(t, mem, "pants", solid(100, 200, red))

	result, err := svc.ComposeOutfit(ctx, map[string]string{"shirt": shirtID, "pants": pantsID})
	require.NoError(t, err)

	assert.Empty(t, result.Skipped)
	assert.Len(t, result.ItemIDs, 2)
	require.Greater(t, len(result.ImageBytes), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, result.ImageBytes[:2])

	// 同样的输入再来一次，结果逐字节一致
	again, err := svc.ComposeOutfit(ctx, map[string]string{"pants": pantsID, "shirt": shirtID})
	require.NoError(t, err)
	assert.Equal(t, result.ImageBytes, again.ImageBytes)
}

func TestComposeOutfitSkipsUndecodable(t *testing.T) {
	svc, mem := newTestService(t, &fakeRemover{}, &fakeClassifier{})
	ctx := context.Background()

	shoesID := seedItem(t, mem, "shoes", solid(80, 60, red))
	pantsID := seedItem(t, mem, "pants", solid(100, 200, red))

	badID := ksuid.New().String()
	require.NoError(t, mem.CreateItem(ctx, &model.ClothingItem{
		ID:         badID,
		Category:   "accessory",
		ImageBytes: []byte("corrupted"),
	}))

	result, err := svc.ComposeOutfit(ctx, map[string]string{
		"shoes": shoesID, "pants": pantsID, "accessory": badID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{badID}, result.Skipped)
	assert.Len(t, result.ItemIDs, 2)
	assert.NotEmpty(t, result.ImageBytes)
}

func TestComposeOutfitErrors(t *testing.T) {
	svc, mem := newTestService(t, &fakeRemover{}, &fakeClassifier{})
	ctx := context.Background()

	_, err := svc.ComposeOutfit(ctx, nil)
	assert.ErrorIs(t, err, composite.ErrEmptySelection)

	shoesID := seedItem(t, mem, "shoes", solid(80, 60, red))

	_, err = svc.ComposeOutfit(ctx, map[string]string{"hat": shoesID})
	assert.ErrorContains(t, err, "unknown category")

	_, err = svc.ComposeOutfit(ctx, map[string]string{"shoes": "no-such-id"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSaveOutfit(t *testing.T) {
	svc, mem := newTestService(t, &fakeRemover{}, &fakeClassifier{})
	ctx := context.Background()

	shirtID := seedItem(t, mem, "shirt", solid(200, 100, red))
	selection := map[string]string{"shirt": shirtID}

	outfit, err := svc.SaveOutfit(ctx, "Casual Friday", selection)
	require.NoError(t, err)
	assert.Equal(t, "Casual Friday", outfit.Name)
	assert.Equal(t, []string{shirtID}, outfit.ItemIDs)
	assert.NotEmpty(t, outfit.ImageBytes)

	stored, err := mem.GetOutfit(ctx, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, outfit.ImageBytes, stored.ImageBytes)

	// 名字大小写不敏感唯一
	_, err = svc.SaveOutfit(ctx, "casual FRIDAY", selection)
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = svc.SaveOutfit(ctx, "   ", selection)
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.SaveOutfit(ctx, "Empty", map[string]string{})
	assert.ErrorIs(t, err, composite.ErrEmptySelection)
}
