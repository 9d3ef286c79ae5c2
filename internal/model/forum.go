package model

import "time"

const (
	VoteUp   = "up"
	VoteDown = "down"
)

type ForumPost struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	UserVote     string    `json:"userVote,omitempty"`
	CommentCount int       `json:"commentCount"`
}

type ForumComment struct {
	ID        int            `json:"id"`
	PostID    int            `json:"postId"`
	ParentID  *int           `json:"parentId,omitempty"`
	Content   string         `json:"content"`
	Author    string         `json:"author"`
	CreatedAt time.Time      `json:"createdAt"`
	Upvotes   int            `json:"upvotes"`
	Downvotes int            `json:"downvotes"`
	UserVote  string         `json:"userVote,omitempty"`
	Replies   []ForumComment `json:"replies,omitempty"`
}

// VoteResult 投票接口的返回，只用于修补对应节点
type VoteResult struct {
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	UserVote  string `json:"userVote"`
}

type NewPost struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type NewComment struct {
	Content  string `json:"content"`
	ParentID *int   `json:"parentId"`
}

type VoteRequest struct {
	VoteType string `json:"voteType" binding:"required,oneof=up down"`
}
