package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/chaos-io/closet/composite"
	"github.com/chaos-io/closet/model"
	"github.com/chaos-io/closet/rembg"
	"github.com/chaos-io/closet/store"
	"github.com/chaos-io/closet/util"
	"github.com/chaos-io/closet/vision"
)

var (
	// ErrInvalidImage 上传的图片无法解码
	ErrInvalidImage = errors.New("wardrobe: invalid image")
	// ErrNameTaken 搭配名已存在（大小写不敏感）
	ErrNameTaken = errors.New("wardrobe: outfit name already taken")
	// ErrNameRequired 搭配必须有名字
	ErrNameRequired = errors.New("wardrobe: outfit name required")
)

// Config 服务参数，零值使用默认
type Config struct {
	Canvas      composite.Options
	JPEGQuality int
	MaxEdge     int // 入库前原图最长边
	ThumbEdge   int // 缩略图最长边
}

func (c Config) withDefaults() Config {
	if c.JPEGQuality == 0 {
		c.JPEGQuality = composite.DefaultJPEGQuality
	}
	if c.MaxEdge == 0 {
		c.MaxEdge = 1024
	}
	if c.ThumbEdge == 0 {
		c.ThumbEdge = 200
	}
	return c
}

// Service 衣柜业务编排：入库流水线、搭配合成与持久化
type Service struct {
	store      store.Store
	remover    rembg.Remover
	classifier vision.Classifier
	cache      *Cache
	cfg        Config
}

func New(s store.Store, remover rembg.Remover, classifier vision.Classifier, cache *Cache, cfg Config) *Service {
	return &Service{
		store:      s,
		remover:    remover,
		classifier: classifier,
		cache:      cache,
		cfg:        cfg.withDefaults(),
	}
}

// ItemOverrides 用户在表单里手工指定的属性，优先于 AI 分类结果
type ItemOverrides struct {
	Title       string
	Category    string
	Subcategory string
	Color       string
}

// AddItem 单品入库流水线：解码 → 归一化 → 去背景 → 分类 → 存储。
// 外部 AI 调用失败直接上抛，由调用方决定重试；
// 分类失败但 overrides 给了 category 时继续（color 走本地兜底）。
func (s *Service) AddItem(ctx context.Context, imageBytes []byte, ov ItemOverrides) (*model.ClothingItem, error) {
	defer util.Trace("add item")()

	decoded, err := util.DecodeImage(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	src := resizeWithinMax(toNRGBA(decoded), s.cfg.MaxEdge)

	// 已有有效 alpha 的图片跳过抠图
	if !hasUsefulAlpha(src) {
		pngBytes, err := composite.EncodePNG(src)
		if err != nil {
			return nil, err
		}
		removed, err := s.remover.Remove(ctx, pngBytes)
		if err != nil {
			return nil, fmt.Errorf("remove background: %w", err)
		}
		removedImg, err := util.DecodeImage(removed)
		if err != nil {
			return nil, fmt.Errorf("decode removed image: %w", err)
		}
		src = toNRGBA(removedImg)
	}
	src = trimToSubject(src)

	storedPNG, err := composite.EncodePNG(src)
	if err != nil {
		return nil, err
	}

	attrs, err := s.classify(ctx, storedPNG, ov)
	if err != nil {
		return nil, err
	}

	category, err := composite.ParseCategory(attrs.Category)
	if err != nil {
		return nil, fmt.Errorf("classify item: %w", err)
	}

	if attrs.Color == "" {
		attrs.Color = DominantColor(src)
	}
	if attrs.Title == "" {
		attrs.Title = strings.TrimSpace(attrs.Color + " " + category.String())
	}

	thumb, err := s.thumbnail(src)
	if err != nil {
		return nil, err
	}

	item := &model.ClothingItem{
		ID:          ksuid.New().String(),
		Title:       attrs.Title,
		Category:    category.String(),
		Subcategory: attrs.Subcategory,
		Color:       attrs.Color,
		ImageBytes:  storedPNG,
		ThumbBytes:  thumb,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("store item: %w", err)
	}

	util.Logger.Info("item added",
		zap.String("id", item.ID),
		zap.String("category", item.Category),
		zap.String("color", item.Color))
	return item, nil
}

func (s *Service) classify(ctx context.Context, pngBytes []byte, ov ItemOverrides) (*vision.Attributes, error) {
	attrs := &vision.Attributes{}
	if ov.Category == "" || ov.Title == "" || ov.Color == "" {
		got, err := s.classifier.Classify(ctx, pngBytes)
		if err != nil {
			// 用户已手工给出分类时，分类服务失败不致命
			if ov.Category == "" {
				return nil, fmt.Errorf("classify item: %w", err)
			}
			util.Logger.Warn("classification failed, using overrides", zap.Error(err))
		} else {
			attrs = got
		}
	}

	if ov.Title != "" {
		attrs.Title = ov.Title
	}
	if ov.Category != "" {
		attrs.Category = ov.Category
	}
	if ov.Subcategory != "" {
		attrs.Subcategory = ov.Subcategory
	}
	if ov.Color != "" {
		attrs.Color = ov.Color
	}
	return attrs, nil
}

// thumbnail 列表页缩略图（最长边 ThumbEdge，JPEG）
func (s *Service) thumbnail(src *image.NRGBA) ([]byte, error) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}

	dst := src
	if longest > s.cfg.ThumbEdge {
		scale := float64(s.cfg.ThumbEdge) / float64(longest)
		scaled := image.NewNRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Over, nil)
		dst = scaled
	}

	// 缩略图铺白底再转 JPEG
	flat := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(flat.Pix); i += 4 {
		flat.Pix[i] = 255
		flat.Pix[i+1] = 255
		flat.Pix[i+2] = 255
		flat.Pix[i+3] = 255
	}
	xdraw.Draw(flat, flat.Bounds(), dst, dst.Bounds().Min, xdraw.Over)
	return composite.EncodeJPEG(flat, s.cfg.JPEGQuality)
}

// ComposeResult 一次搭配合成的产物
type ComposeResult struct {
	ImageBytes []byte   `json:"-"`
	ItemIDs    []string `json:"item_ids"`
	// Skipped 图片无法解码而被跳过的单品（不视为失败）
	Skipped []string `json:"skipped,omitempty"`
}

// ComposeOutfit 按选择集合成搭配图。selection 为 分类名 → 单品ID，
// 每个分类至多一件。无法解码的单品记入 Skipped 并继续。
func (s *Service) ComposeOutfit(ctx context.Context, selection map[string]string) (*ComposeResult, error) {
	defer util.Trace("compose outfit")()

	if len(selection) == 0 {
		return nil, composite.ErrEmptySelection
	}

	layers := make(map[composite.Category]image.Image, len(selection))
	result := &ComposeResult{}

	for name, itemID := range selection {
		category, err := composite.ParseCategory(name)
		if err != nil {
			return nil, err
		}

		item, err := s.store.GetItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("fetch item %s: %w", itemID, err)
		}

		img, err := util.DecodeImage(item.ImageBytes)
		if err != nil {
			// 坏图层只跳过，不让整次合成失败
			util.Logger.Warn("skip undecodable item",
				zap.String("id", itemID), zap.Error(err))
			result.Skipped = append(result.Skipped, itemID)
			continue
		}

		layers[category] = img
		result.ItemIDs = append(result.ItemIDs, itemID)
	}
	sort.Strings(result.ItemIDs)
	sort.Strings(result.Skipped)

	cacheKey := s.cacheKey(selection)
	if len(result.Skipped) == 0 {
		if cached, err := s.cache.GetComposite(ctx, cacheKey); err != nil {
			util.Logger.Warn("composite cache get failed", zap.Error(err))
		} else if cached != nil {
			result.ImageBytes = cached
			return result, nil
		}
	}

	canvas, err := composite.Compose(layers, s.cfg.Canvas)
	if err != nil {
		return nil, err
	}

	encoded, err := composite.EncodeJPEG(canvas, s.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}
	result.ImageBytes = encoded

	if len(result.Skipped) == 0 {
		if err := s.cache.SetComposite(ctx, cacheKey, encoded); err != nil {
			util.Logger.Warn("composite cache set failed", zap.Error(err))
		}
	}
	return result, nil
}

// cacheKey 选择集指纹：与遍历顺序无关
func (s *Service) cacheKey(selection map[string]string) string {
	pairs := make([]string, 0, len(selection))
	for category, id := range selection {
		pairs = append(pairs, strings.ToLower(category)+"="+id)
	}
	sort.Strings(pairs)

	cfg := s.cfg.Canvas
	pairs = append(pairs, fmt.Sprintf("canvas=%dx%d/q%d", cfg.Width, cfg.Height, s.cfg.JPEGQuality))
	return util.BytesMD5([]byte(strings.Join(pairs, "|")))
}

// SaveOutfit 合成并持久化一套搭配。名字大小写不敏感唯一，由这里在合成前校验。
func (s *Service) SaveOutfit(ctx context.Context, name string, selection map[string]string) (*model.Outfit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	taken, err := s.store.OutfitNameTaken(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check outfit name: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	result, err := s.ComposeOutfit(ctx, selection)
	if err != nil {
		return nil, err
	}

	outfit := &model.Outfit{
		ID:         ksuid.New().String(),
		Name:       name,
		ImageBytes: result.ImageBytes,
		ItemIDs:    result.ItemIDs,
	}
	if err := s.store.CreateOutfit(ctx, outfit); err != nil {
		return nil, fmt.Errorf("store outfit: %w", err)
	}

	util.Logger.Info("outfit saved",
		zap.String("id", outfit.ID),
		zap.String("name", outfit.Name),
		zap.Int("items", len(outfit.ItemIDs)),
		zap.Strings("skipped", result.Skipped))
	return outfit, nil
}
