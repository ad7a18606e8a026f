package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subreddit is a named community posts are submitted to.
type Subreddit struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatorID string    `gorm:"type:varchar(36);index" json:"creatorId"`
	Creator   User      `gorm:"foreignKey:CreatorID" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Subreddit) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Subscription links a user to a subreddit; at most one per pair.
type Subscription struct {
	UserID      string    `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	SubredditID string    `gorm:"primaryKey;type:varchar(36)" json:"subredditId"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Subreddit   Subreddit `gorm:"foreignKey:SubredditID" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateSubredditRequest struct {
	Name string `json:"name" binding:"required,min=3,max=21"`
}
