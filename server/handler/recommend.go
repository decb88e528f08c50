package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rushteam/jembertrip/pkg/conv"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/recommend"
	"github.com/rushteam/jembertrip/server/dto"
)

// UserIDHeader 携带调用方用户标识，仅用于日志与点击历史归属
const UserIDHeader = "X-User-ID"

// RecommendHandler 推荐处理器
type RecommendHandler struct {
	holder *ServiceHolder
}

// NewRecommendHandler 创建推荐处理器
func NewRecommendHandler(holder *ServiceHolder) *RecommendHandler {
	return &RecommendHandler{holder: holder}
}

// Recommend 统一推荐入口
// @Summary 推荐目的地
// @Description 有查询时做语义搜索，否则按浏览历史个性化推荐，历史为空时冷启动
// @Tags Recommend
// @Accept json
// @Produce json
// @Param body body dto.RecommendRequest false "推荐请求"
// @Success 200 {object} recommend.Result
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/recommendations [post]
func (h *RecommendHandler) Recommend(c *gin.Context) {
	svc, err := h.holder.Get()
	if err != nil {
		dto.FromError(c, err)
		return
	}

	var req dto.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := c.GetHeader(UserIDHeader)
	if userID != "" {
		ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
	}
	history, rejected := conv.SliceAnyToInt64(req.HistoryIDs)
	if len(rejected) > 0 {
		logger.Warn(ctx, "dropped unparseable history ids", "rejected", rejected)
	}

	res, err := svc.Recommend(ctx, recommend.Request{
		Query:      req.Query,
		HistoryIDs: history,
		Clicks:     req.ToClickHistory(userID),
		TopN:       req.TopN,
		TopK:       req.TopK,
		Scope:      req.Scope(),
	})
	if err != nil {
		logger.Error(ctx, "recommend failed", err, "query", req.Query)
		dto.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// All 返回全部目的地
// @Summary 全部目的地
// @Tags Recommend
// @Produce json
// @Success 200 {array} recommend.ResultItem
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/destinations/all [get]
func (h *RecommendHandler) All(c *gin.Context) {
	svc, err := h.holder.Get()
	if err != nil {
		dto.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc.AllItems())
}

// Similar 相似目的地
// @Summary 相似目的地
// @Description 按名称（或数字 ID）查找目的地并返回最相似的若干个，不含自身
// @Tags Recommend
// @Produce json
// @Param name path string true "目的地名称"
// @Param top_k query int false "返回条数"
// @Param category query string false "只返回该类别"
// @Param city query string false "只返回该城市"
// @Success 200 {object} recommend.Result
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/similar/{name} [get]
func (h *RecommendHandler) Similar(c *gin.Context) {
	svc, err := h.holder.Get()
	if err != nil {
		dto.FromError(c, err)
		return
	}

	var q dto.SimilarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	name := c.Param("name")
	res, err := svc.SimilarIn(c.Request.Context(), name, q.TopK, q.Scope())
	if err != nil {
		dto.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
