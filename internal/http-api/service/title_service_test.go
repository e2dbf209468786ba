package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
)

// MockTitleStore mocks the TitleStore interface
type MockTitleStore struct {
	mock.Mock
}

func (m *MockTitleStore) GetAll(ctx context.Context) ([]models.Title, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Title), args.Error(1)
}

func (m *MockTitleStore) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleStore) Create(ctx context.Context, t *models.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTitleStore) Update(ctx context.Context, t *models.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTitleStore) ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error {
	args := m.Called(ctx, t, genres)
	return args.Error(0)
}

func (m *MockTitleStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCategoryReader mocks the CategoryReader interface
type MockCategoryReader struct {
	mock.Mock
}

func (m *MockCategoryReader) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

// MockGenreReader mocks the GenreReader interface
type MockGenreReader struct {
	mock.Mock
}

func (m *MockGenreReader) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	args := m.Called(ctx, slugs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

var catalogAdmin = access.Actor{ID: "admin-1", Username: "boss", Role: access.RoleAdmin}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestCreateTitle_Success(t *testing.T) {
	mockStore := new(MockTitleStore)
	mockCategories := new(MockCategoryReader)
	mockGenres := new(MockGenreReader)
	svc := NewTitleService(mockStore, mockCategories, mockGenres)

	category := &models.Category{ID: 3, Name: "Movies", Slug: "movies"}
	genres := []models.Genre{{ID: 1, Name: "Drama", Slug: "drama"}}

	mockCategories.On("GetBySlug", mock.Anything, "movies").Return(category, nil)
	mockGenres.On("FindBySlugs", mock.Anything, []string{"drama"}).Return(genres, nil)
	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*models.Title")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Title).ID = 5
		}).Return(nil)
	mockStore.On("GetByID", mock.Anything, int64(5)).
		Return(&models.Title{ID: 5, Name: "The Film", Year: 2001, Category: category, Genres: genres}, nil)

	title, err := svc.Create(context.Background(), catalogAdmin, TitleInput{
		Name:         strptr("The Film"),
		Year:         intptr(2001),
		CategorySlug: strptr("movies"),
		GenreSlugs:   &[]string{"drama"},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(5), title.ID)
	assert.Nil(t, title.Rating)
	mockStore.AssertExpectations(t)
}

func TestCreateTitle_Forbidden(t *testing.T) {
	svc := NewTitleService(new(MockTitleStore), new(MockCategoryReader), new(MockGenreReader))

	title, err := svc.Create(context.Background(), access.Actor{ID: "u1", Role: access.RoleModerator}, TitleInput{
		Name: strptr("x"),
		Year: intptr(2000),
	})

	assert.Equal(t, ErrForbidden, err)
	assert.Nil(t, title)
}

func TestCreateTitle_YearBounds(t *testing.T) {
	mockStore := new(MockTitleStore)
	svc := NewTitleService(mockStore, new(MockCategoryReader), new(MockGenreReader))

	thisYear := time.Now().Year()
	for _, year := range []int{0, thisYear + 1} {
		title, err := svc.Create(context.Background(), catalogAdmin, TitleInput{
			Name: strptr("Too Soon"),
			Year: intptr(year),
		})
		assert.Nil(t, title)
		ve, ok := AsValidation(err)
		assert.True(t, ok, "year %d should be rejected", year)
		assert.Equal(t, "year", ve.Field)
	}
	mockStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTitle_CurrentYearAllowed(t *testing.T) {
	mockStore := new(MockTitleStore)
	svc := NewTitleService(mockStore, new(MockCategoryReader), new(MockGenreReader))

	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*models.Title")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Title).ID = 1
		}).Return(nil)
	mockStore.On("GetByID", mock.Anything, int64(1)).
		Return(&models.Title{ID: 1, Name: "Fresh", Year: time.Now().Year()}, nil)

	title, err := svc.Create(context.Background(), catalogAdmin, TitleInput{
		Name: strptr("Fresh"),
		Year: intptr(time.Now().Year()),
	})

	assert.NoError(t, err)
	assert.NotNil(t, title)
}

func TestCreateTitle_UnknownCategory(t *testing.T) {
	mockCategories := new(MockCategoryReader)
	svc := NewTitleService(new(MockTitleStore), mockCategories, new(MockGenreReader))

	mockCategories.On("GetBySlug", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

	title, err := svc.Create(context.Background(), catalogAdmin, TitleInput{
		Name:         strptr("x"),
		Year:         intptr(2000),
		CategorySlug: strptr("nope"),
	})

	assert.Nil(t, title)
	ve, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "category", ve.Field)
}

func TestCreateTitle_UnknownGenre(t *testing.T) {
	mockGenres := new(MockGenreReader)
	svc := NewTitleService(new(MockTitleStore), new(MockCategoryReader), mockGenres)

	mockGenres.On("FindBySlugs", mock.Anything, []string{"drama", "nope"}).
		Return([]models.Genre{{ID: 1, Slug: "drama"}}, nil)

	title, err := svc.Create(context.Background(), catalogAdmin, TitleInput{
		Name:       strptr("x"),
		Year:       intptr(2000),
		GenreSlugs: &[]string{"drama", "nope"},
	})

	assert.Nil(t, title)
	ve, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "genre", ve.Field)
}

func TestUpdateTitle_ClearCategory(t *testing.T) {
	mockStore := new(MockTitleStore)
	svc := NewTitleService(mockStore, new(MockCategoryReader), new(MockGenreReader))

	catID := int64(3)
	existing := &models.Title{ID: 5, Name: "The Film", Year: 2001, CategoryID: &catID}
	mockStore.On("GetByID", mock.Anything, int64(5)).Return(existing, nil)
	mockStore.On("Update", mock.Anything, mock.MatchedBy(func(title *models.Title) bool {
		return title.CategoryID == nil
	})).Return(nil)

	_, err := svc.Update(context.Background(), catalogAdmin, 5, TitleInput{
		CategorySlug: strptr(""),
	})

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

func TestUpdateTitle_ReplacesGenres(t *testing.T) {
	mockStore := new(MockTitleStore)
	mockGenres := new(MockGenreReader)
	svc := NewTitleService(mockStore, new(MockCategoryReader), mockGenres)

	existing := &models.Title{ID: 5, Name: "The Film", Year: 2001}
	newGenres := []models.Genre{{ID: 2, Slug: "thriller"}}

	mockStore.On("GetByID", mock.Anything, int64(5)).Return(existing, nil)
	mockStore.On("Update", mock.Anything, mock.AnythingOfType("*models.Title")).Return(nil)
	mockGenres.On("FindBySlugs", mock.Anything, []string{"thriller"}).Return(newGenres, nil)
	mockStore.On("ReplaceGenres", mock.Anything, mock.AnythingOfType("*models.Title"), newGenres).Return(nil)

	_, err := svc.Update(context.Background(), catalogAdmin, 5, TitleInput{
		GenreSlugs: &[]string{"thriller"},
	})

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
	mockGenres.AssertExpectations(t)
}

func TestDeleteTitle_NotFound(t *testing.T) {
	mockStore := new(MockTitleStore)
	svc := NewTitleService(mockStore, new(MockCategoryReader), new(MockGenreReader))

	mockStore.On("Delete", mock.Anything, int64(404)).Return(gorm.ErrRecordNotFound)

	err := svc.Delete(context.Background(), catalogAdmin, 404)

	assert.Equal(t, ErrNotFound, err)
}
