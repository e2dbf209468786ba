package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"
)

type stubAuthService struct {
	mock.Mock
}

func (m *stubAuthService) Signup(username, email string) (*models.User, error) {
	args := m.Called(username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *stubAuthService) ObtainToken(username, confirmationCode string) (string, error) {
	args := m.Called(username, confirmationCode)
	return args.String(0), args.Error(1)
}

func (m *stubAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

type stubUserRepo struct {
	mock.Mock
}

func (m *stubUserRepo) Create(user *models.User) error { return m.Called(user).Error(0) }
func (m *stubUserRepo) Update(user *models.User) error { return m.Called(user).Error(0) }
func (m *stubUserRepo) Delete(user *models.User) error { return m.Called(user).Error(0) }

func (m *stubUserRepo) FindByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *stubUserRepo) FindByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *stubUserRepo) FindByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *stubUserRepo) GetAll() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func protectedRouter(auth *stubAuthService, users *stubUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(auth, users), func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": actor.Username, "role": string(actor.Role)})
	})
	return r
}

func TestAuthMiddleware_SetsActor(t *testing.T) {
	auth := new(stubAuthService)
	users := new(stubUserRepo)
	router := protectedRouter(auth, users)

	auth.On("ValidateToken", "good-token").
		Return(&service.Claims{UserID: "user-1", Username: "reader", Role: "user"}, nil)
	users.On("FindByID", "user-1").
		Return(&models.User{ID: "user-1", Username: "reader", Role: "moderator"}, nil)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// The role comes from the user row, not the token claim.
	assert.Contains(t, w.Body.String(), `"role":"moderator"`)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := protectedRouter(new(stubAuthService), new(stubUserRepo))

	req, _ := http.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router := protectedRouter(new(stubAuthService), new(stubUserRepo))

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "NotBearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	auth := new(stubAuthService)
	router := protectedRouter(auth, new(stubUserRepo))

	auth.On("ValidateToken", "bad-token").Return(nil, service.ErrInvalidToken)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// A token for a user that no longer exists is rejected.
func TestAuthMiddleware_DeletedUser(t *testing.T) {
	auth := new(stubAuthService)
	users := new(stubUserRepo)
	router := protectedRouter(auth, users)

	auth.On("ValidateToken", "orphan-token").
		Return(&service.Claims{UserID: "gone", Username: "ghost", Role: "user"}, nil)
	users.On("FindByID", "gone").Return(nil, gorm.ErrRecordNotFound)

	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer orphan-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentActor_Superuser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("actor", access.Actor{ID: "root", Role: access.RoleUser, Superuser: true})

	actor, ok := CurrentActor(c)

	assert.True(t, ok)
	assert.True(t, actor.IsAdmin())
}
