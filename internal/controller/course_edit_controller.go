package controller

import (
	"encoding/json"
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const maxUploadMemory = 32 << 20

// CourseEditController 课程的创建与编辑：管理员 JSON 表单，讲师 multipart 表单
type CourseEditController struct {
	CourseEditService *service.CourseEditService
	QuizService       *service.QuizService
}

func NewCourseEditController(courseEditService *service.CourseEditService, quizService *service.QuizService) *CourseEditController {
	return &CourseEditController{CourseEditService: courseEditService, QuizService: quizService}
}

// DraftOpRequest 对课程草稿做一次本地编辑
type DraftOpRequest struct {
	Draft model.CursoDraft `json:"draft"`
	Mode  string           `json:"mode" binding:"required,oneof=gestor formador"`
	Op    service.DraftOp  `json:"op"`
}

type CreateModulesRequest struct {
	Modulos []model.ModuloDraft `json:"Modulos" binding:"required,min=1"`
}

// openFiles 打开 multipart 文件，调用方负责 close
func openFiles(headers []*multipart.FileHeader) ([]service.UploadFile, func(), error) {
	var closers []multipart.File
	closeAll := func() {
		for _, f := range closers {
			f.Close()
		}
	}
	out := make([]service.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errors.Wrapf(err, "open upload %s", h.Filename)
		}
		closers = append(closers, f)
		out = append(out, service.UploadFile{Name: h.Filename, Reader: f})
	}
	return out, closeAll, nil
}

// LoadGestor godoc
// @Summary 管理员编辑课程
// @Description 课程草稿与讲师列表
// @Tags 课程管理
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseEditView}
// @Router /gestor/cursos/{id} [get]
func (c *CourseEditController) LoadGestor(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.CourseEditService.LoadGestor(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Formadores godoc
// @Summary 讲师列表
// @Tags 课程管理
// @Produce json
// @Success 200 {object} util.Response{data=[]model.FormadorOpcao}
// @Router /gestor/formadores [get]
func (c *CourseEditController) Formadores(ctx *gin.Context) {
	list, err := c.CourseEditService.Formadores(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ApplyOp godoc
// @Summary 编辑课程草稿
// @Description 增删模块、课时、附件、目标与包含项，修改日期时返回校验提示
// @Tags 课程管理
// @Accept json
// @Produce json
// @Param body body DraftOpRequest true "草稿与操作"
// @Success 200 {object} util.Response{data=service.DraftResult}
// @Router /cursos/rascunho [post]
func (c *CourseEditController) ApplyOp(ctx *gin.Context) {
	var req DraftOpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := service.ApplyDraftOp(req.Draft, service.DraftMode(req.Mode), req.Op)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// SaveGestor godoc
// @Summary 保存课程
// @Description 异步课程同时保存模块树
// @Tags 课程管理
// @Accept json
// @Produce json
// @Param id path int true "课程ID"
// @Param body body model.CursoDraft true "课程草稿"
// @Success 200 {object} util.Response{data=service.SaveCourseResult}
// @Failure 400 {object} util.Response
// @Router /gestor/cursos/{id} [put]
func (c *CourseEditController) SaveGestor(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var draft model.CursoDraft
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.CourseEditService.SaveGestor(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, draft)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, result, result.Redirect)
}

// Create godoc
// @Summary 新建课程
// @Description 同步课程需要名额，异步课程可以同时创建测验
// @Tags 课程管理
// @Accept json
// @Produce json
// @Param body body service.CreateCourseRequest true "课程"
// @Success 201 {object} util.Response{data=service.CreateCourseResult}
// @Failure 400 {object} util.Response
// @Router /gestor/cursos [post]
func (c *CourseEditController) Create(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.CourseEditService.Create(ctx.Request.Context(), util.GetAPIFromContext(ctx), c.QuizService, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, util.Response{
		Code:     http.StatusCreated,
		Message:  "created",
		Data:     result,
		Redirect: result.Redirect,
	})
}

// CreateModules godoc
// @Summary 新建模块与课时
// @Tags 课程管理
// @Accept json
// @Produce json
// @Param id path int true "课程ID"
// @Param body body CreateModulesRequest true "模块"
// @Success 200 {object} util.Response
// @Router /gestor/cursos/{id}/modulos [post]
func (c *CourseEditController) CreateModules(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req CreateModulesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	redirect, err := c.CourseEditService.CreateModules(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req.Modulos)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, nil, redirect)
}

// Delete godoc
// @Summary 删除课程
// @Tags 课程管理
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /gestor/cursos/{id} [delete]
func (c *CourseEditController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseEditService.Delete(ctx.Request.Context(), util.GetAPIFromContext(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// UploadLessonFiles godoc
// @Summary 上传课时附件
// @Tags 课程管理
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "课时ID"
// @Param files formData file true "附件"
// @Success 200 {object} util.Response{data=[]model.Conteudo}
// @Router /gestor/aulas/{id}/upload [post]
func (c *CourseEditController) UploadLessonFiles(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		util.BadRequest(ctx, "Formulário inválido.")
		return
	}
	files, closeAll, err := openFiles(form.File["files"])
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer closeAll()

	anexos, err := c.CourseEditService.UploadLessonFiles(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, files)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, anexos)
}

// LoadFormador godoc
// @Summary 讲师编辑课程
// @Tags 课程管理
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseEditView}
// @Router /formador/cursos/{id} [get]
func (c *CourseEditController) LoadFormador(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.CourseEditService.LoadFormador(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SaveFormador godoc
// @Summary 讲师保存课程
// @Description curso 字段为课程草稿 JSON，新附件字段名为 files_<模块>_<课时>
// @Tags 课程管理
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "课程ID"
// @Param curso formData string true "课程草稿 JSON"
// @Success 200 {object} util.Response
// @Router /formador/cursos/{id} [put]
func (c *CourseEditController) SaveFormador(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := ctx.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		util.BadRequest(ctx, "Formulário inválido.")
		return
	}
	form := ctx.Request.MultipartForm

	var draft model.CursoDraft
	if err := json.Unmarshal([]byte(ctx.PostForm("curso")), &draft); err != nil {
		util.BadRequest(ctx, "Campo curso inválido.")
		return
	}

	files := map[string][]service.UploadFile{}
	var closers []func()
	defer func() {
		for _, fn := range closers {
			fn()
		}
	}()
	for key, headers := range form.File {
		if !strings.HasPrefix(key, "files_") {
			continue
		}
		list, closeAll, err := openFiles(headers)
		closers = append(closers, closeAll)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		files[key] = list
	}

	redirect, err := c.CourseEditService.SaveFormador(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, draft, files)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, nil, redirect)
}
