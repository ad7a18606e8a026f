package models

import (
	"time"

	"github.com/emilythestrangee/breadit/backend/internal/vote"
)

// Vote is one user's vote on a post. The composite primary key is the
// uniqueness constraint that keeps concurrent upserts from duplicating rows.
type Vote struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	PostID    string    `gorm:"primaryKey;type:varchar(36);index" json:"postId"`
	Type      vote.Type `gorm:"type:varchar(4);not null" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentVote is one user's vote on a comment.
type CommentVote struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	CommentID string    `gorm:"primaryKey;type:varchar(36);index" json:"commentId"`
	Type      vote.Type `gorm:"type:varchar(4);not null" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PostVoteRequest struct {
	PostID   string    `json:"postId" binding:"required"`
	VoteType vote.Type `json:"voteType" binding:"required,votetype"`
}

type CommentVoteRequest struct {
	CommentID string    `json:"commentId" binding:"required"`
	VoteType  vote.Type `json:"voteType" binding:"required,votetype"`
}
