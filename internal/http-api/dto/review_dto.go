package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateReviewDTO for POST /api/v1/titles/:title_id/reviews. Score is a
// pointer so 0 survives binding; the bounds check in the service then
// produces the field-named error.
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required"`
	Score *int   `json:"score" binding:"required"`
}

// UpdateReviewDTO for PATCH on a single review
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty"`
	Score *int    `json:"score,omitempty"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	TitleID int64     `json:"title_id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func ReviewFromModel(r models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		TitleID: r.TitleID,
		Author:  r.Author.Username,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}
