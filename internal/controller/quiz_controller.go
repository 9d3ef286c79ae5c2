package controller

import (
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// MarkCorrectRequest 在题目草稿中设置唯一正确答案
type MarkCorrectRequest struct {
	Pergunta model.PerguntaDraft `json:"pergunta"`
	Index    int                 `json:"index"`
}

func sessionID(ctx *gin.Context) string {
	if sess := util.GetSessionFromContext(ctx); sess != nil {
		return sess.ID
	}
	return ""
}

// List godoc
// @Summary 课程测验列表
// @Description 带进度的列表，无权限时退回不含进度的列表
// @Tags 测验
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.QuizProgress}
// @Router /quiz/curso/{id} [get]
func (c *QuizController) List(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	progress, err := c.QuizService.List(ctx.Request.Context(), util.GetAPIFromContext(ctx), sessionID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// Open godoc
// @Summary 打开测验
// @Tags 测验
// @Produce json
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 401 {object} util.Response
// @Router /quiz/{quizId} [get]
func (c *QuizController) Open(ctx *gin.Context) {
	id, ok := paramID(ctx, "quizId")
	if !ok {
		return
	}
	quiz, err := c.QuizService.Open(ctx.Request.Context(), util.GetAPIFromContext(ctx), sessionID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// Submit godoc
// @Summary 提交答案
// @Description 成功后跳回课程测验列表；重复提交返回 409
// @Tags 测验
// @Accept json
// @Produce json
// @Param quizId path int true "测验ID"
// @Param body body model.QuizSubmission true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 401 {object} util.Response "会话过期"
// @Failure 403 {object} util.Response "未报名"
// @Failure 404 {object} util.Response "测验不存在"
// @Failure 409 {object} util.Response "已提交"
// @Router /quiz/{quizId}/resolver [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	id, ok := paramID(ctx, "quizId")
	if !ok {
		return
	}
	var sub model.QuizSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.QuizService.Submit(ctx.Request.Context(), util.GetAPIFromContext(ctx), sessionID(ctx), id, sub)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, result, result.Redirect)
}

// Create godoc
// @Summary 新建测验
// @Description 管理员与讲师共用，题目会先清洗
// @Tags 测验
// @Accept json
// @Produce json
// @Param id path int true "课程ID"
// @Param body body model.QuizDraft true "测验"
// @Success 201 {object} util.Response{data=service.CreateQuizResult}
// @Failure 400 {object} util.Response
// @Router /gestor/cursos/{id}/quizzes [post]
// @Router /formador/cursos/{id}/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var draft model.QuizDraft
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	role := util.GetAuthFromContext(ctx).EffectiveRole()
	result, err := c.QuizService.Create(ctx.Request.Context(), util.GetAPIFromContext(ctx), role, id, draft)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// NewDraft godoc
// @Summary 空白测验草稿
// @Tags 测验
// @Produce json
// @Success 200 {object} util.Response{data=model.QuizDraft}
// @Router /quiz/rascunho [get]
func (c *QuizController) NewDraft(ctx *gin.Context) {
	util.Success(ctx, service.NewQuizDraft())
}

// MarkCorrect godoc
// @Summary 设置正确答案
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body MarkCorrectRequest true "题目与答案下标"
// @Success 200 {object} util.Response{data=model.PerguntaDraft}
// @Router /quiz/rascunho/correta [post]
func (c *QuizController) MarkCorrect(ctx *gin.Context) {
	var req MarkCorrectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, err := service.MarkCorrect(req.Pergunta, req.Index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}
