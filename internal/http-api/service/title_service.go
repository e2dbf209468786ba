package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
)

// TitleInput is the write shape for titles: category and genres arrive as
// slugs, the way clients know them.
type TitleInput struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   *[]string
}

type TitleService interface {
	GetAll(ctx context.Context) ([]models.Title, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, actor access.Actor, input TitleInput) (*models.Title, error)
	Update(ctx context.Context, actor access.Actor, id int64, input TitleInput) (*models.Title, error)
	Delete(ctx context.Context, actor access.Actor, id int64) error
}

// TitleStore, CategoryReader and GenreReader are the repository slices this
// service touches; the concrete repos satisfy them.
type TitleStore interface {
	GetAll(ctx context.Context) ([]models.Title, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title) error
	Update(ctx context.Context, t *models.Title) error
	ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error
	Delete(ctx context.Context, id int64) error
}

type CategoryReader interface {
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type GenreReader interface {
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
}

type titleService struct {
	titleRepo    TitleStore
	categoryRepo CategoryReader
	genreRepo    GenreReader
}

func NewTitleService(titleRepo TitleStore, categoryRepo CategoryReader, genreRepo GenreReader) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *titleService) GetAll(ctx context.Context) ([]models.Title, error) {
	return s.titleRepo.GetAll(ctx)
}

func (s *titleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return title, nil
}

func (s *titleService) Create(ctx context.Context, actor access.Actor, input TitleInput) (*models.Title, error) {
	if !access.CanManageCatalog(actor) {
		return nil, ErrForbidden
	}
	if input.Name == nil {
		return nil, newValidationError("name", "is required")
	}
	if input.Year == nil {
		return nil, newValidationError("year", "is required")
	}

	title := &models.Title{}
	if err := s.apply(ctx, title, input); err != nil {
		return nil, err
	}
	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	// Re-read so the response carries the category object and nil rating.
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, actor access.Actor, id int64, input TitleInput) (*models.Title, error) {
	if !access.CanManageCatalog(actor) {
		return nil, ErrForbidden
	}
	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, title, input); err != nil {
		return nil, err
	}
	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}
	if input.GenreSlugs != nil {
		genres, err := s.resolveGenres(ctx, *input.GenreSlugs)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	if !access.CanManageCatalog(actor) {
		return ErrForbidden
	}
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// apply copies validated input fields onto the model. Genre replacement on
// update is handled separately because it needs the row to exist first.
func (s *titleService) apply(ctx context.Context, title *models.Title, input TitleInput) error {
	if input.Name != nil {
		if err := validateCatalogName(*input.Name); err != nil {
			return err
		}
		title.Name = strings.TrimSpace(*input.Name)
	}
	if input.Year != nil {
		if *input.Year < 1 || *input.Year > time.Now().Year() {
			return newValidationError("year", "must be a past or current year")
		}
		title.Year = *input.Year
	}
	if input.Description != nil {
		title.Description = input.Description
	}
	if input.CategorySlug != nil {
		if *input.CategorySlug == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.categoryRepo.GetBySlug(ctx, *input.CategorySlug)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return newValidationError("category", "unknown category slug")
				}
				return err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}
	if input.GenreSlugs != nil && title.ID == 0 {
		genres, err := s.resolveGenres(ctx, *input.GenreSlugs)
		if err != nil {
			return err
		}
		title.Genres = genres
	}
	return nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		return nil, newValidationError("genre", "unknown genre slug")
	}
	return genres, nil
}
