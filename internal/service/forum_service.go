package service

import (
	"bytes"
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

const (
	FilterRecent  = "recent"
	FilterPopular = "popular"
	FilterTop     = "top"
)

// 未设置 WithUnsafe，内容中的原始 HTML 会被转义
var forumMarkdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderContent 将帖子或评论内容渲染为安全 HTML
func RenderContent(md string) string {
	var buf bytes.Buffer
	if err := forumMarkdown.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return buf.String()
}

// NormalizeFilter 未知筛选条件按 recent 处理
func NormalizeFilter(filter string) string {
	switch filter {
	case FilterRecent, FilterPopular, FilterTop:
		return filter
	}
	return FilterRecent
}

type PostView struct {
	model.ForumPost
	HTML   string `json:"html"`
	Quando string `json:"quando"`
}

type CommentView struct {
	model.ForumComment
	HTML    string        `json:"html"`
	Quando  string        `json:"quando"`
	Replies []CommentView `json:"replies"`
}

type ForumView struct {
	Filter string     `json:"filter"`
	Posts  []PostView `json:"posts"`
}

type ForumService struct {
	now func() time.Time
}

func NewForumService() *ForumService {
	return &ForumService{now: time.Now}
}

func (s *ForumService) Posts(ctx context.Context, api apiclient.API, filter string) (*ForumView, error) {
	filter = NormalizeFilter(filter)
	var posts []model.ForumPost
	if err := api.Get(ctx, "/forum/posts", &posts, apiclient.WithQuery("filter", filter)); err != nil {
		return nil, userFacing(err, "Erro ao carregar posts do fórum")
	}
	return &ForumView{Filter: filter, Posts: s.postViews(posts)}, nil
}

func (s *ForumService) postViews(posts []model.ForumPost) []PostView {
	now := s.now()
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostView{
			ForumPost: p,
			HTML:      RenderContent(p.Content),
			Quando:    util.ForumTimeLabel(now, p.CreatedAt),
		})
	}
	return out
}

// CreatePost 发帖后按当前筛选条件重新加载列表
func (s *ForumService) CreatePost(ctx context.Context, api apiclient.API, post model.NewPost, filter string) (*ForumView, error) {
	post.Title = strings.TrimSpace(post.Title)
	post.Content = strings.TrimSpace(post.Content)
	if post.Title == "" || post.Content == "" {
		return nil, util.BadInput("Título e conteúdo são obrigatórios.")
	}
	if err := api.Post(ctx, "/forum/posts", post, nil); err != nil {
		return nil, userFacing(err, "Erro ao criar post")
	}
	return s.Posts(ctx, api, filter)
}

type PostVoteRequest struct {
	VoteType string            `json:"voteType" binding:"required,oneof=up down"`
	Posts    []model.ForumPost `json:"posts"`
}

type PostVoteResult struct {
	Vote  model.VoteResult `json:"vote"`
	Posts []PostView       `json:"posts"`
}

// VotePost 投票后只修补被投票的帖子
func (s *ForumService) VotePost(ctx context.Context, api apiclient.API, postID int, req PostVoteRequest) (*PostVoteResult, error) {
	var vote model.VoteResult
	if err := api.Post(ctx, fmt.Sprintf("/forum/posts/%d/vote", postID), model.VoteRequest{VoteType: req.VoteType}, &vote); err != nil {
		return nil, userFacing(err, "Erro ao registrar voto")
	}
	return &PostVoteResult{Vote: vote, Posts: s.postViews(PatchPostVotes(req.Posts, postID, vote))}, nil
}

func PatchPostVotes(posts []model.ForumPost, postID int, vote model.VoteResult) []model.ForumPost {
	out := make([]model.ForumPost, len(posts))
	for i, p := range posts {
		if p.ID == postID {
			p.Upvotes = vote.Upvotes
			p.Downvotes = vote.Downvotes
			p.UserVote = vote.UserVote
		}
		out[i] = p
	}
	return out
}

func (s *ForumService) Comments(ctx context.Context, api apiclient.API, postID int) ([]CommentView, error) {
	var comments []model.ForumComment
	if err := api.Get(ctx, fmt.Sprintf("/forum/posts/%d/comments", postID), &comments); err != nil {
		return nil, userFacing(err, "Erro ao carregar comentários")
	}
	return s.commentViews(comments), nil
}

func (s *ForumService) commentViews(comments []model.ForumComment) []CommentView {
	now := s.now()
	var build func([]model.ForumComment) []CommentView
	build = func(cs []model.ForumComment) []CommentView {
		out := make([]CommentView, 0, len(cs))
		for _, c := range cs {
			out = append(out, CommentView{
				ForumComment: c,
				HTML:         RenderContent(c.Content),
				Quando:       util.ForumTimeLabel(now, c.CreatedAt),
				Replies:      build(c.Replies),
			})
		}
		return out
	}
	return build(comments)
}

// AddComment 添加评论或回复，成功后重新加载评论树
func (s *ForumService) AddComment(ctx context.Context, api apiclient.API, postID int, c model.NewComment) ([]CommentView, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return nil, util.BadInput("O comentário não pode estar vazio.")
	}
	if err := api.Post(ctx, fmt.Sprintf("/forum/posts/%d/comments", postID), c, nil); err != nil {
		logger.Log.Warn("add comment failed", zap.Int("postId", postID), zap.Error(err))
		return nil, userFacing(err, "Erro ao adicionar comentário")
	}
	return s.Comments(ctx, api, postID)
}

type CommentVoteRequest struct {
	VoteType string               `json:"voteType" binding:"required,oneof=up down"`
	Comments []model.ForumComment `json:"comments"`
}

type CommentVoteResult struct {
	Vote     model.VoteResult `json:"vote"`
	Comments []CommentView    `json:"comments"`
}

func (s *ForumService) VoteComment(ctx context.Context, api apiclient.API, commentID int, req CommentVoteRequest) (*CommentVoteResult, error) {
	var vote model.VoteResult
	if err := api.Post(ctx, fmt.Sprintf("/forum/comments/%d/vote", commentID), model.VoteRequest{VoteType: req.VoteType}, &vote); err != nil {
		return nil, userFacing(err, "Erro ao registrar voto")
	}
	return &CommentVoteResult{Vote: vote, Comments: s.commentViews(PatchCommentVotes(req.Comments, commentID, vote))}, nil
}

// PatchCommentVotes 深度优先查找目标评论并替换票数，其余节点保持不变
func PatchCommentVotes(comments []model.ForumComment, commentID int, vote model.VoteResult) []model.ForumComment {
	if comments == nil {
		return nil
	}
	out := make([]model.ForumComment, len(comments))
	for i, c := range comments {
		switch {
		case c.ID == commentID:
			c.Upvotes = vote.Upvotes
			c.Downvotes = vote.Downvotes
			c.UserVote = vote.UserVote
		case len(c.Replies) > 0:
			c.Replies = PatchCommentVotes(c.Replies, commentID, vote)
		}
		out[i] = c
	}
	return out
}
