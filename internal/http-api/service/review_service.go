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

const maxReviewTextLen = 500

// ReviewUpdate carries the mutable review fields; pub_date is set once and
// never changes.
type ReviewUpdate struct {
	Text  *string
	Score *int
}

type ReviewService interface {
	GetByTitle(ctx context.Context, titleID int64) ([]models.Review, error)
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
	Create(ctx context.Context, actor access.Actor, titleID int64, text string, score int) (*models.Review, error)
	Update(ctx context.Context, actor access.Actor, titleID, id int64, update ReviewUpdate) (*models.Review, error)
	Delete(ctx context.Context, actor access.Actor, titleID, id int64) error
	// ComputeRating returns the mean review score for a title, nil when
	// the title has no reviews.
	ComputeRating(ctx context.Context, titleID int64) (*float64, error)
}

// TitleReader is the slice of the title repository the aggregator needs.
// *repository.TitleRepo satisfies it.
type TitleReader interface {
	GetByID(ctx context.Context, id int64) (*models.Title, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  TitleReader
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo TitleReader) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func validateReviewText(text string) error {
	if strings.TrimSpace(text) == "" {
		return newValidationError("text", "must not be blank")
	}
	if len(text) > maxReviewTextLen {
		return newValidationError("text", "must be at most 500 characters")
	}
	return nil
}

// The persisted check constraint enforces the same bounds; this is the
// friendly, field-named version of it.
func validateScore(score int) error {
	if score < 1 || score > 10 {
		return newValidationError("score", "must be an integer from 1 to 10")
	}
	return nil
}

func (s *reviewService) GetByTitle(ctx context.Context, titleID int64) ([]models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByTitle(ctx, titleID)
}

func (s *reviewService) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Create(ctx context.Context, actor access.Actor, titleID int64, text string, score int) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateReviewText(text); err != nil {
		return nil, err
	}
	if err := validateScore(score); err != nil {
		return nil, err
	}

	// Friendly pre-check; the unique index below remains the authority
	// under concurrent duplicate attempts.
	exists, err := s.reviewRepo.ExistsByTitleAndAuthor(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	return s.Get(ctx, titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, actor access.Actor, titleID, id int64, update ReviewUpdate) (*models.Review, error) {
	review, err := s.Get(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if !access.CanModifyContent(actor, review.AuthorID) {
		return nil, ErrForbidden
	}
	if update.Text != nil {
		if err := validateReviewText(*update.Text); err != nil {
			return nil, err
		}
		review.Text = *update.Text
	}
	if update.Score != nil {
		if err := validateScore(*update.Score); err != nil {
			return nil, err
		}
		review.Score = *update.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return s.Get(ctx, titleID, id)
}

func (s *reviewService) Delete(ctx context.Context, actor access.Actor, titleID, id int64) error {
	review, err := s.Get(ctx, titleID, id)
	if err != nil {
		return err
	}
	if !access.CanModifyContent(actor, review.AuthorID) {
		return ErrForbidden
	}
	return s.reviewRepo.Delete(ctx, review.ID)
}

func (s *reviewService) ComputeRating(ctx context.Context, titleID int64) (*float64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.reviewRepo.AverageScore(ctx, titleID)
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
