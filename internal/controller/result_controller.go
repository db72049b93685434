package controller

import (
	"errors"
	"strconv"

	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	ResultService *service.ResultService
}

func NewResultController(resultService *service.ResultService) *ResultController {
	return &ResultController{ResultService: resultService}
}

// History godoc
// @Summary 我的成绩历史
// @Description 按提交时间先后返回当前学生的全部成绩
// @Tags 成绩
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.TestResult} "成功"
// @Router /api/results [get]
func (c *ResultController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	results, err := c.ResultService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// Detail godoc
// @Summary 成绩详情
// @Description 含分主题正确率、薄弱主题和作答快照。学生只能看自己的。
// @Tags 成绩
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "成绩ID"
// @Success 200 {object} util.Response{data=model.TestResult} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "成绩不存在"
// @Router /api/results/{id} [get]
func (c *ResultController) Detail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	result, err := c.ResultService.Detail(ctx.Param("id"), claims)
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
	util.Success(ctx, result)
}

// ListByTest godoc
// @Summary 某试卷的全部提交
// @Description 教师分页查看某试卷的成绩
// @Tags 成绩
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/tests/{id}/results [get]
func (c *ResultController) ListByTest(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	results, total, err := c.ResultService.ListByTest(ctx.Param("id"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  results,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Export godoc
// @Summary 导出成绩CSV
// @Description 把某试卷的全部成绩导出为CSV并上传到存储，返回下载地址
// @Tags 成绩
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id}/results/export [post]
func (c *ResultController) Export(ctx *gin.Context) {
	url, err := c.ResultService.ExportCSV(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
