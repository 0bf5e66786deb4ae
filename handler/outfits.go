package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaos-io/closet/composite"
	"github.com/chaos-io/closet/model"
	"github.com/chaos-io/closet/store"
	"github.com/chaos-io/closet/util"
	"github.com/chaos-io/closet/wardrobe"
)

type OutfitHandler struct {
	svc   *wardrobe.Service
	store store.Store
}

func NewOutfitHandler(svc *wardrobe.Service, s store.Store) *OutfitHandler {
	return &OutfitHandler{svc: svc, store: s}
}

type composeRequest struct {
	Name string `json:"name"`
	// Selection 分类名 → 单品ID，每个分类至多一件
	Selection map[string]string `json:"selection"`
}

// Preview 按选择集合成预览图，不持久化。响应体为 JPEG，
// 被跳过的坏图层通过 X-Skipped-Items 头告知
func (h *OutfitHandler) Preview(c *gin.Context) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "请求体格式错误", Error: err.Error(),
		})
		return
	}

	result, err := h.svc.ComposeOutfit(c.Request.Context(), req.Selection)
	if err != nil {
		h.renderComposeErr(c, err)
		return
	}

	if len(result.Skipped) > 0 {
		c.Header("X-Skipped-Items", strings.Join(result.Skipped, ","))
	}
	c.Data(http.StatusOK, "image/jpeg", result.ImageBytes)
}

// Save 合成并保存一套搭配
func (h *OutfitHandler) Save(c *gin.Context) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "请求体格式错误", Error: err.Error(),
		})
		return
	}

	outfit, err := h.svc.SaveOutfit(c.Request.Context(), req.Name, req.Selection)
	if err != nil {
		h.renderComposeErr(c, err)
		return
	}

	util.Logger.Info("outfit created", zap.String("id", outfit.ID), zap.String("name", outfit.Name))
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "保存成功", Data: outfit})
}

// List 搭配列表（不含合成图字节）
func (h *OutfitHandler) List(c *gin.Context) {
	outfits, err := h.store.ListOutfits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false, Message: "查询失败", Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "查询成功", Data: outfits})
}

// Get 搭配详情
func (h *OutfitHandler) Get(c *gin.Context) {
	outfit, err := h.store.GetOutfit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "查询成功", Data: outfit})
}

// GetImage 搭配合成图（JPEG）
func (h *OutfitHandler) GetImage(c *gin.Context) {
	outfit, err := h.store.GetOutfit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", outfit.ImageBytes)
}

// Delete 删除搭配
func (h *OutfitHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteOutfit(c.Request.Context(), c.Param("id")); err != nil {
		h.renderStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DataResponse{Success: true, Message: "删除成功"})
}

func (h *OutfitHandler) renderComposeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, composite.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "请至少选择一件单品",
		})
	case errors.Is(err, composite.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "未知的服装分类", Error: err.Error(),
		})
	case errors.Is(err, wardrobe.ErrNameRequired):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "请输入搭配名称",
		})
	case errors.Is(err, wardrobe.ErrNameTaken):
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Success: false, Message: "搭配名称已存在", Error: err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false, Message: "单品不存在", Error: err.Error(),
		})
	default:
		util.Logger.Error("failed to compose outfit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false, Message: "合成失败", Error: err.Error(),
		})
	}
}

func (h *OutfitHandler) renderStoreErr(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "记录不存在"})
		return
	}
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Success: false, Message: "查询失败", Error: err.Error(),
	})
}
