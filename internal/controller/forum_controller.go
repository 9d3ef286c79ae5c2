package controller

import (
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type ForumController struct {
	ForumService *service.ForumService
}

func NewForumController(forumService *service.ForumService) *ForumController {
	return &ForumController{ForumService: forumService}
}

// Posts godoc
// @Summary 论坛帖子
// @Tags 论坛
// @Produce json
// @Param filter query string false "recent|popular|top"
// @Success 200 {object} util.Response{data=service.ForumView}
// @Router /forum [get]
func (c *ForumController) Posts(ctx *gin.Context) {
	view, err := c.ForumService.Posts(ctx.Request.Context(), util.GetAPIFromContext(ctx), ctx.Query("filter"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// CreatePost godoc
// @Summary 发帖
// @Description 发帖成功后按当前筛选重新加载列表
// @Tags 论坛
// @Accept json
// @Produce json
// @Param filter query string false "当前筛选"
// @Param body body model.NewPost true "帖子"
// @Success 201 {object} util.Response{data=service.ForumView}
// @Failure 400 {object} util.Response
// @Router /forum/posts [post]
func (c *ForumController) CreatePost(ctx *gin.Context) {
	var post model.NewPost
	if err := ctx.ShouldBindJSON(&post); err != nil {
		util.BadRequest(ctx, "Título e conteúdo são obrigatórios.")
		return
	}
	view, err := c.ForumService.CreatePost(ctx.Request.Context(), util.GetAPIFromContext(ctx), post, ctx.Query("filter"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// VotePost godoc
// @Summary 帖子投票
// @Description 请求中携带当前列表，只修补被投票的帖子
// @Tags 论坛
// @Accept json
// @Produce json
// @Param id path int true "帖子ID"
// @Param body body service.PostVoteRequest true "投票"
// @Success 200 {object} util.Response{data=service.PostVoteResult}
// @Router /forum/posts/{id}/vote [post]
func (c *ForumController) VotePost(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.PostVoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.ForumService.VotePost(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Comments godoc
// @Summary 帖子评论
// @Tags 论坛
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} util.Response{data=[]service.CommentView}
// @Router /forum/posts/{id}/comments [get]
func (c *ForumController) Comments(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	comments, err := c.ForumService.Comments(ctx.Request.Context(), util.GetAPIFromContext(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, comments)
}

// AddComment godoc
// @Summary 发表评论
// @Tags 论坛
// @Accept json
// @Produce json
// @Param id path int true "帖子ID"
// @Param body body model.NewComment true "评论"
// @Success 201 {object} util.Response{data=[]service.CommentView}
// @Failure 400 {object} util.Response
// @Router /forum/posts/{id}/comments [post]
func (c *ForumController) AddComment(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req model.NewComment
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	comments, err := c.ForumService.AddComment(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, comments)
}

// VoteComment godoc
// @Summary 评论投票
// @Tags 论坛
// @Accept json
// @Produce json
// @Param id path int true "评论ID"
// @Param body body service.CommentVoteRequest true "投票"
// @Success 200 {object} util.Response{data=service.CommentVoteResult}
// @Router /forum/comments/{id}/vote [post]
func (c *ForumController) VoteComment(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.CommentVoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.ForumService.VoteComment(ctx.Request.Context(), util.GetAPIFromContext(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
