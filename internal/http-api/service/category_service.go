package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
)

// slugRx matches URL-safe identifiers, same shape Django's SlugField allows.
var slugRx = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

const maxSlugLen = 256

func validateSlug(slug string) error {
	if slug == "" {
		return newValidationError("slug", "must not be blank")
	}
	if len(slug) > maxSlugLen {
		return newValidationError("slug", "must be at most 256 characters")
	}
	if !slugRx.MatchString(slug) {
		return newValidationError("slug", "may contain only letters, digits, hyphens and underscores")
	}
	return nil
}

func validateCatalogName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newValidationError("name", "must not be blank")
	}
	if len(name) > 256 {
		return newValidationError("name", "must be at most 256 characters")
	}
	return nil
}

type CategoryService interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, actor access.Actor, name, slug string) (*models.Category, error)
	Delete(ctx context.Context, actor access.Actor, slug string) error
}

type categoryService struct {
	repo *repository.CategoryRepo
}

func NewCategoryService(r *repository.CategoryRepo) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) GetAll(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *categoryService) Create(ctx context.Context, actor access.Actor, name, slug string) (*models.Category, error) {
	if !access.CanManageCatalog(actor) {
		return nil, ErrForbidden
	}
	if err := validateCatalogName(name); err != nil {
		return nil, err
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	c := &models.Category{Name: strings.TrimSpace(name), Slug: slug}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}
	return c, nil
}

// Delete removes the category; titles referencing it keep existing with the
// reference cleared by the storage constraint.
func (s *categoryService) Delete(ctx context.Context, actor access.Actor, slug string) error {
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
