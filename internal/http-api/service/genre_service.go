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

type GenreService interface {
	GetAll(ctx context.Context) ([]models.Genre, error)
	Create(ctx context.Context, actor access.Actor, name, slug string) (*models.Genre, error)
	Delete(ctx context.Context, actor access.Actor, slug string) error
}

type genreService struct {
	repo *repository.GenreRepo
}

func NewGenreService(r *repository.GenreRepo) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) GetAll(ctx context.Context) ([]models.Genre, error) {
	return s.repo.GetAll(ctx)
}

func (s *genreService) Create(ctx context.Context, actor access.Actor, name, slug string) (*models.Genre, error) {
	if !access.CanManageCatalog(actor) {
		return nil, ErrForbidden
	}
	if err := validateCatalogName(name); err != nil {
		return nil, err
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	g := &models.Genre{Name: strings.TrimSpace(name), Slug: slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}
	return g, nil
}

// Delete removes the genre; its title associations go with it, the titles
// stay.
func (s *genreService) Delete(ctx context.Context, actor access.Actor, slug string) error {
	if !access.CanManageCatalog(actor) {
		return ErrForbidden
	}
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
