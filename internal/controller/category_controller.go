package controller

import (
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	CategoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{CategoryService: categoryService}
}

// CategoryOpRequest 对未保存的分类树做一次本地编辑
type CategoryOpRequest struct {
	Categoria model.Categoria    `json:"categoria"`
	Op        service.CategoryOp `json:"op"`
}

// List godoc
// @Summary 分类树
// @Description 分类、区域、主题完整树
// @Tags 分类
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Categoria}
// @Router /gestor/categorias [get]
func (c *CategoryController) List(ctx *gin.Context) {
	categorias, err := c.CategoryService.List(ctx.Request.Context(), util.GetAPIFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, categorias)
}

// Get godoc
// @Summary 单个分类
// @Tags 分类
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} util.Response{data=model.Categoria}
// @Router /gestor/categorias/{id} [get]
func (c *CategoryController) Get(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	cat, err := c.CategoryService.Load(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, cat)
}

// Create godoc
// @Summary 新建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Param body body model.NovaCategoria true "分类"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /gestor/categorias [post]
func (c *CategoryController) Create(ctx *gin.Context) {
	var req model.NovaCategoria
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	redirect, err := c.CategoryService.Create(ctx.Request.Context(), util.GetAPIFromContext(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, nil, redirect)
}

// Save godoc
// @Summary 保存分类
// @Description 提交完整的分类树
// @Tags 分类
// @Accept json
// @Produce json
// @Param id path int true "分类ID"
// @Param body body model.Categoria true "分类树"
// @Success 200 {object} util.Response
// @Router /gestor/categorias/{id} [put]
func (c *CategoryController) Save(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var cat model.Categoria
	if err := ctx.ShouldBindJSON(&cat); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	redirect, err := c.CategoryService.Save(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, cat)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessRedirect(ctx, nil, redirect)
}

// Delete godoc
// @Summary 删除分类
// @Tags 分类
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} util.Response
// @Router /gestor/categorias/{id} [delete]
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CategoryService.Delete(ctx.Request.Context(), util.GetAPIFromContext(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Areas godoc
// @Summary 分类下的区域
// @Tags 分类
// @Produce json
// @Param categoriaId query int true "分类ID"
// @Success 200 {object} util.Response{data=[]model.Area}
// @Router /areas [get]
func (c *CategoryController) Areas(ctx *gin.Context) {
	id, ok := queryInt(ctx, "categoriaId")
	if !ok {
		return
	}
	areas, err := c.CategoryService.Areas(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, areas)
}

// Topicos godoc
// @Summary 区域下的主题
// @Tags 分类
// @Produce json
// @Param areaId query int true "区域ID"
// @Success 200 {object} util.Response{data=[]model.Topico}
// @Router /topicos [get]
func (c *CategoryController) Topicos(ctx *gin.Context) {
	id, ok := queryInt(ctx, "areaId")
	if !ok {
		return
	}
	topicos, err := c.CategoryService.Topicos(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, topicos)
}

// ApplyOp godoc
// @Summary 编辑分类草稿
// @Description addArea | removeArea | addTopico | removeTopico
// @Tags 分类
// @Accept json
// @Produce json
// @Param body body CategoryOpRequest true "草稿与操作"
// @Success 200 {object} util.Response{data=model.Categoria}
// @Router /gestor/categorias/rascunho [post]
func (c *CategoryController) ApplyOp(ctx *gin.Context) {
	var req CategoryOpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cat, err := service.ApplyCategoryOp(req.Categoria, req.Op)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, cat)
}
