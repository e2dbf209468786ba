package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateCommentDTO for POST .../reviews/:review_id/comments
type CreateCommentDTO struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"review_id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}

func CommentFromModel(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:       c.ID,
		ReviewID: c.ReviewID,
		Author:   c.Author.Username,
		Text:     c.Text,
		PubDate:  c.PubDate,
	}
}
