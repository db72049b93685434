package controller

import (
	"errors"

	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GuidanceController struct {
	GuidanceService *service.GuidanceService
}

func NewGuidanceController(guidanceService *service.GuidanceService) *GuidanceController {
	return &GuidanceController{GuidanceService: guidanceService}
}

// Tips godoc
// @Summary 学习建议
// @Description 针对某次成绩生成学习建议：分数档位话术加薄弱主题聚焦
// @Tags 建议
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "成绩ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "成绩不存在"
// @Router /api/results/{id}/tips [get]
func (c *GuidanceController) Tips(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	tips, err := c.GuidanceService.TipsForResult(ctx.Param("id"), claims)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"tips": tips})
}

// Trend godoc
// @Summary 成绩走势
// @Description 汇总当前学生的历史成绩，给出升降走势和最弱主题
// @Tags 建议
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=guidance.TrendReport} "成功"
// @Router /api/guidance/trend [get]
func (c *GuidanceController) Trend(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	report, err := c.GuidanceService.TrendForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
