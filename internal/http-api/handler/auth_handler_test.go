package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(username, email string) (*models.User, error) {
	args := m.Called(username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ObtainToken(username, confirmationCode string) (string, error) {
	args := m.Called(username, confirmationCode)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignup_OK(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	user := &models.User{ID: "user-123", Username: "testuser", Email: "test@example.com"}
	mockAuth.On("Signup", "testuser", "test@example.com").Return(user, nil)

	w := postJSON(router, "/auth/signup", dto.SignupRequest{
		Username: "testuser",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.SignupResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "testuser", resp.Username)
	assert.Equal(t, "test@example.com", resp.Email)
	mockAuth.AssertExpectations(t)
}

func TestSignup_MissingFields(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	w := postJSON(router, "/auth/signup", gin.H{"username": "testuser"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockAuth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestSignup_UsernameConflict(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	mockAuth.On("Signup", "testuser", "other@example.com").Return(nil, service.ErrNameInUse)

	w := postJSON(router, "/auth/signup", dto.SignupRequest{
		Username: "testuser",
		Email:    "other@example.com",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_ReservedUsername(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	mockAuth.On("Signup", "me", "me@example.com").
		Return(nil, &service.ValidationError{Field: "username", Message: `"me" is not a valid username`})

	w := postJSON(router, "/auth/signup", dto.SignupRequest{
		Username: "me",
		Email:    "me@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "username", resp["field"])
}

func TestObtainToken_OK(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	mockAuth.On("ObtainToken", "testuser", "the-code").Return("signed.jwt.token", nil)

	w := postJSON(router, "/auth/token", dto.ObtainTokenRequest{
		Username:         "testuser",
		ConfirmationCode: "the-code",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.TokenResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "signed.jwt.token", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestObtainToken_WrongCode(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	mockAuth.On("ObtainToken", "testuser", "wrong").Return("", service.ErrInvalidCode)

	w := postJSON(router, "/auth/token", dto.ObtainTokenRequest{
		Username:         "testuser",
		ConfirmationCode: "wrong",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObtainToken_UnknownUser(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupRouter()
	NewAuthHandler(mockAuth).RegisterRoutes(router.Group("/auth"))

	mockAuth.On("ObtainToken", "ghost", "code").Return("", service.ErrNotFound)

	w := postJSON(router, "/auth/token", dto.ObtainTokenRequest{
		Username:         "ghost",
		ConfirmationCode: "code",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
