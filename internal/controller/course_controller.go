package controller

import (
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// Detail godoc
// @Summary 课程详情
// @Description 学员会同时确认是否已报名
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CursoDetailView}
// @Router /cursos/{id} [get]
func (c *CourseController) Detail(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.CourseService.Detail(ctx.Request.Context(), util.GetAPIFromContext(ctx), util.GetAuthFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Enrolled godoc
// @Summary 已报名课程的学习页
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CursoDetailView}
// @Router /cursosInscritos/{id} [get]
func (c *CourseController) Enrolled(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.CourseService.Enrolled(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Enroll godoc
// @Summary 报名课程
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /cursos/{id}/inscrever [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	redirect, err := c.CourseService.Enroll(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, nil, redirect)
}

// Ratings godoc
// @Summary 课程评分
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Param rating query number false "没有评分记录时显示的平均分"
// @Success 200 {object} util.Response{data=service.RatingView}
// @Router /cursos/{id}/avaliacoes [get]
func (c *CourseController) Ratings(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	fallback, err := strconv.ParseFloat(ctx.Query("rating"), 64)
	if err != nil || !(fallback >= 0 && fallback <= 5) {
		fallback = 0
	}
	util.Success(ctx, c.CourseService.Ratings(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, fallback, nil))
}

// Rate godoc
// @Summary 评分
// @Description 再次点击当前星级会取消评分
// @Tags 课程
// @Accept json
// @Produce json
// @Param id path int true "课程ID"
// @Param body body service.RateRequest true "评分"
// @Success 200 {object} util.Response{data=service.RatingView}
// @Failure 400 {object} util.Response
// @Router /cursos/{id}/avaliar [post]
func (c *CourseController) Rate(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "A avaliação deve estar entre 1 e 5.")
		return
	}
	view, err := c.CourseService.Rate(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Search godoc
// @Summary 搜索课程
// @Tags 课程
// @Produce json
// @Param q query string false "关键字"
// @Param tipo query string false "类型"
// @Param estado query string false "状态"
// @Param order query string false "排序"
// @Success 200 {object} util.Response{data=service.CourseListView}
// @Router /search [get]
func (c *CourseController) Search(ctx *gin.Context) {
	var q service.CourseQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.CourseService.Search(ctx.Request.Context(), util.GetAPIFromContext(ctx), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// TopicCourses godoc
// @Summary 主题下的课程
// @Tags 课程
// @Produce json
// @Param id path int true "主题ID"
// @Param tipo query string false "类型"
// @Param estado query string false "状态"
// @Param order query string false "排序"
// @Success 200 {object} util.Response{data=service.CourseListView}
// @Router /formando/topico/{id}/cursos [get]
func (c *CourseController) TopicCourses(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var q service.CourseQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.CourseService.TopicCourses(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
