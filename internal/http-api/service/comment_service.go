package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
)

const maxCommentTextLen = 300

type CommentService interface {
	GetByReview(ctx context.Context, titleID, reviewID int64) ([]models.Comment, error)
	Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error)
	Create(ctx context.Context, actor access.Actor, titleID, reviewID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, actor access.Actor, titleID, reviewID, id int64, text string) (*models.Comment, error)
	Delete(ctx context.Context, actor access.Actor, titleID, reviewID, id int64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

func validateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return newValidationError("text", "must not be blank")
	}
	if len(text) > maxCommentTextLen {
		return newValidationError("text", "must be at most 300 characters")
	}
	return nil
}

func (s *commentService) GetByReview(ctx context.Context, titleID, reviewID int64) ([]models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByReview(ctx, reviewID)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Create(ctx context.Context, actor access.Actor, titleID, reviewID int64, text string) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateCommentText(text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, reviewID, comment.ID)
}

func (s *commentService) Update(ctx context.Context, actor access.Actor, titleID, reviewID, id int64, text string) (*models.Comment, error) {
	comment, err := s.Get(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	if !access.CanModifyContent(actor, comment.AuthorID) {
		return nil, ErrForbidden
	}
	if err := validateCommentText(text); err != nil {
		return nil, err
	}
	comment.Text = text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, reviewID, id)
}

func (s *commentService) Delete(ctx context.Context, actor access.Actor, titleID, reviewID, id int64) error {
	comment, err := s.Get(ctx, titleID, reviewID, id)
	if err != nil {
		return err
	}
	if !access.CanModifyContent(actor, comment.AuthorID) {
		return ErrForbidden
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}

// requireReview checks the review exists and belongs to the title the URL
// claims it does.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviewRepo.GetByID(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
