package controller

import (
	"errors"
	"strconv"

	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// CreateTest godoc
// @Summary 创建试卷
// @Description 教师创建一份新试卷，创建后处于未发布状态
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.TestInput true "试卷信息"
// @Success 201 {object} util.Response{data=model.Test} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	var req service.TestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	test, err := c.TestService.Create(claims.UserID, &req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// ListTests godoc
// @Summary 试卷列表
// @Description 分页列出试卷。学生只能看到已发布的。
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	claims := util.GetUserFromContext(ctx)
	publishedOnly := claims == nil || claims.Role == model.Student

	rows, total, err := c.TestService.List(page, limit, publishedOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  rows,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetTest godoc
// @Summary 试卷详情
// @Description 返回试卷及其全部题目（含标准答案，仅教师可用）
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	test, questions, err := c.TestService.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"test": test, "questions": questions})
}

// UpdateTest godoc
// @Summary 更新试卷
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   body body service.TestInput true "试卷信息"
// @Success 200 {object} util.Response{data=model.Test} "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id} [put]
func (c *TestController) UpdateTest(ctx *gin.Context) {
	var req service.TestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.TestService.Update(ctx.Param("id"), &req)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// DeleteTest godoc
// @Summary 删除试卷
// @Description 删除试卷及其全部题目，历史成绩保留
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	if err := c.TestService.Delete(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// PublishTest godoc
// @Summary 发布试卷
// @Description 发布前做完整校验，坏卷拒绝发布
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.Test} "成功"
// @Failure 400 {object} util.Response "试卷校验失败"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id}/publish [post]
func (c *TestController) PublishTest(ctx *gin.Context) {
	test, err := c.TestService.Publish(ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, exam.ErrMalformedTest):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// UnpublishTest godoc
// @Summary 取消发布
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.Test} "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id}/unpublish [post]
func (c *TestController) UnpublishTest(ctx *gin.Context) {
	test, err := c.TestService.Unpublish(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// AddQuestion godoc
// @Summary 添加题目
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   body body service.QuestionInput true "题目信息"
// @Success 201 {object} util.Response{data=model.TestQuestion} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id}/questions [post]
func (c *TestController) AddQuestion(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.TestService.AddQuestion(ctx.Param("id"), &req)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   qid path string true "题目ID"
// @Param   body body service.QuestionInput true "题目信息"
// @Success 200 {object} util.Response{data=model.TestQuestion} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/tests/{id}/questions/{qid} [put]
func (c *TestController) UpdateQuestion(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.TestService.UpdateQuestion(ctx.Param("id"), ctx.Param("qid"), &req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   qid path string true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/tests/{id}/questions/{qid} [delete]
func (c *TestController) DeleteQuestion(ctx *gin.Context) {
	if err := c.TestService.DeleteQuestion(ctx.Param("qid")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ImportQuestions godoc
// @Summary 批量导入题目
// @Description 上传xlsx文件批量导入题目，工作表名为 questions
// @Tags 试卷
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "试卷ID"
// @Param   file formData file true "xlsx文件"
// @Success 200 {object} util.Response{data=object} "导入成功"
// @Failure 400 {object} util.Response "文件格式错误"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/tests/{id}/questions/import [post]
func (c *TestController) ImportQuestions(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	count, err := c.TestService.ImportQuestionsXLSX(ctx.Param("id"), f)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, gin.H{"imported": count})
}
