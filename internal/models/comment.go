package models

import "time"

// Comment is a discussion entry on a proposal. Replies point at their parent through
// ParentCommentID; the tree is assembled by the comment service, never stored as an object graph.
type Comment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ProposalID      uint      `json:"proposal_id" gorm:"index"`
	AuthorID        uint      `json:"author_id" gorm:"index"`
	ParentCommentID *uint     `json:"parent_comment_id,omitempty" gorm:"index"`
	Body            string    `json:"body" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CommentNode is a comment with its direct replies.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
