package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/chaos-io/closet/config"
	"github.com/chaos-io/closet/model"
	"github.com/chaos-io/closet/store"
	"github.com/chaos-io/closet/util"
	"github.com/chaos-io/closet/wardrobe"
)

type ItemHandler struct {
	cfg   *config.Config
	svc   *wardrobe.Service
	store store.Store
}

func NewItemHandler(cfg *config.Config, svc *wardrobe.Service, s store.Store) *ItemHandler {
	return &ItemHandler{cfg: cfg, svc: svc, store: s}
}

// Upload 上传一件单品：图片走 去背景 → 分类 → 入库 流水线，
// 表单里的 title/category/subcategory/color 优先于 AI 分类结果
func (h *ItemHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		util.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG",
		})
		return
	}

	// 先落到临时目录（过期文件由定时任务清理）
	ext := filepath.Ext(file.Filename)
	savePath := filepath.Join(h.cfg.Upload.UploadDir, ksuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		util.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}

	imageBytes, err := os.ReadFile(savePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "读取文件失败",
			Error:   err.Error(),
		})
		return
	}

	overrides := wardrobe.ItemOverrides{
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		Subcategory: c.PostForm("subcategory"),
		Color:       c.PostForm("color"),
	}

	item, err := h.svc.AddItem(c.Request.Context(), imageBytes, overrides)
	if err != nil {
		status, message := itemErrStatus(err)
		util.Logger.Error("failed to add item", zap.Error(err))
		c.JSON(status, model.ErrorResponse{Success: false, Message: message, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.DataResponse{
		Success: true,
		Message: "入库成功",
		Data:    item,
	})
}

// List 列出全部单品（含缩略图元数据，不含原图）
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.store.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false, Message: "查询失败", Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "查询成功", Data: items})
}

// Get 单品详情
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "查询成功", Data: item})
}

// GetImage 单品原图（去背景 PNG）
func (h *ItemHandler) GetImage(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", item.ImageBytes)
}

type updateItemRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Color       string `json:"color"`
}

// Update 修改单品元数据
func (h *ItemHandler) Update(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "请求体格式错误", Error: err.Error(),
		})
		return
	}

	item, err := h.store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderStoreErr(c, err)
		return
	}

	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Category != "" {
		item.Category = strings.ToLower(req.Category)
	}
	if req.Subcategory != "" {
		item.Subcategory = req.Subcategory
	}
	if req.Color != "" {
		item.Color = req.Color
	}

	if err := h.store.UpdateItem(c.Request.Context(), item); err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "更新成功", Data: item})
}

// Delete 删除单品
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "删除成功"})
}

func (h *ItemHandler) renderStoreErr(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "记录不存在"})
		return
	}
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Success: false, Message: "查询失败", Error: err.Error(),
	})
}

func (h *ItemHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

func itemErrStatus(err error) (int, string) {
	switch {
	case errors.Is(err, wardrobe.ErrInvalidImage):
		return http.StatusBadRequest, "图片无法解码"
	default:
		return http.StatusInternalServerError, "入库失败"
	}
}
