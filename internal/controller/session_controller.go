package controller

import (
	"errors"

	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// sessionError 把引擎和服务层的错误映射为HTTP状态
func sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionNotOwned):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrTestNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrTestNotPublished):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrSessionExists):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, exam.ErrInvalidState),
		errors.Is(err, exam.ErrNotStarted),
		errors.Is(err, exam.ErrIndexOutOfRange),
		errors.Is(err, exam.ErrMalformedTest):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// StartSessionRequest 开始作答请求
// swagger:model StartSessionRequest
type StartSessionRequest struct {
	TestID string `json:"testId" binding:"required"`
}

// Start godoc
// @Summary 开始作答
// @Description 对已发布试卷建立会话并开始计时。同一试卷同时只允许一个在途会话。
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartSessionRequest true "试卷ID"
// @Success 201 {object} util.Response{data=service.SessionView} "会话已建立"
// @Failure 403 {object} util.Response "试卷未发布"
// @Failure 404 {object} util.Response "试卷不存在"
// @Failure 409 {object} util.Response "已存在在途会话"
// @Router /api/sessions [post]
func (c *SessionController) Start(ctx *gin.Context) {
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	view, err := c.SessionService.Start(claims.UserID, req.TestID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// Get godoc
// @Summary 会话状态
// @Description 当前题目、游标、剩余时间、作答进度
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	view, err := c.SessionService.Get(ctx.Param("id"), claims.UserID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Snapshot godoc
// @Summary 进度快照
// @Description 读取Redis中的作答进度，供前端断线恢复
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionSnapshot} "成功"
// @Failure 404 {object} util.Response "快照不存在"
// @Router /api/sessions/{id}/snapshot [get]
func (c *SessionController) Snapshot(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	snap, err := c.SessionService.Snapshot(ctx.Request.Context(), ctx.Param("id"), claims.UserID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// Answer godoc
// @Summary 作答
// @Description 写入或覆盖某题的作答，后写胜出
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   body body service.AnswerInput true "作答内容"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "会话已终结"
// @Router /api/sessions/{id}/answer [post]
func (c *SessionController) Answer(ctx *gin.Context) {
	var req service.AnswerInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	view, err := c.SessionService.Answer(ctx.Param("id"), claims.UserID, &req)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ClearAnswer godoc
// @Summary 清除作答
// @Description 清除后题目回到未作答状态
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   qid path string true "题目ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "会话已终结"
// @Router /api/sessions/{id}/answer/{qid} [delete]
func (c *SessionController) ClearAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	view, err := c.SessionService.ClearAnswer(ctx.Param("id"), claims.UserID, ctx.Param("qid"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ToggleFlag godoc
// @Summary 标记待复查
// @Description 翻转题目的待复查标记，标记与作答互不影响
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   qid path string true "题目ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 409 {object} util.Response "会话已终结"
// @Router /api/sessions/{id}/flag/{qid} [post]
func (c *SessionController) ToggleFlag(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	flagged, err := c.SessionService.ToggleFlag(ctx.Param("id"), claims.UserID, ctx.Param("qid"))
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"flagged": flagged})
}

// NavigateRequest 导航请求
// swagger:model NavigateRequest
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next previous goto"`
	Index     int    `json:"index"`
}

// Navigate godoc
// @Summary 题目导航
// @Description next/previous 越界时原地不动；goto 下标越界返回错误
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   body body NavigateRequest true "导航方向"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "下标越界或会话已终结"
// @Router /api/sessions/{id}/navigate [post]
func (c *SessionController) Navigate(ctx *gin.Context) {
	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	view, err := c.SessionService.Navigate(ctx.Param("id"), claims.UserID, req.Direction, req.Index)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Advance godoc
// @Summary 自适应前进
// @Description 依据近期表现决定跳题、顺序前进或插入补救题；序列耗尽时自动交卷
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.AdvanceResult} "成功"
// @Failure 409 {object} util.Response "会话已终结"
// @Router /api/sessions/{id}/advance [post]
func (c *SessionController) Advance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	out, err := c.SessionService.Advance(ctx.Param("id"), claims.UserID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// Submit godoc
// @Summary 交卷
// @Description 判分并落库。重复提交返回首次判分的结果，不报错。
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.ResultView} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{id}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	result, err := c.SessionService.Submit(ctx.Param("id"), claims.UserID)
	if err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Abandon godoc
// @Summary 放弃作答
// @Description 销毁会话，不判分不留档
// @Tags 会话
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{id} [delete]
func (c *SessionController) Abandon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.SessionService.Abandon(ctx.Param("id"), claims.UserID); err != nil {
		sessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
