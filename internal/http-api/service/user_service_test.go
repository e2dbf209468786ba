package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
)

var (
	plainUser = access.Actor{ID: "user-1", Username: "plain", Role: access.RoleUser}
	adminUser = access.Actor{ID: "admin-1", Username: "boss", Role: access.RoleAdmin}
)

func TestGetMe(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("FindByID", "user-1").Return(&models.User{ID: "user-1", Username: "plain"}, nil)

	user, err := svc.GetMe(plainUser)

	assert.NoError(t, err)
	assert.Equal(t, "plain", user.Username)
}

func TestUpdateMe_ProfileFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	existing := &models.User{ID: "user-1", Username: "plain", Email: "plain@example.com", Role: "user"}
	mockRepo.On("FindByID", "user-1").Return(existing, nil)
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	bio := "I watch too many movies"
	user, err := svc.UpdateMe(plainUser, ProfileUpdate{Bio: &bio})

	assert.NoError(t, err)
	assert.Equal(t, bio, user.Bio)
	assert.Equal(t, "user", user.Role)
	mockRepo.AssertExpectations(t)
}

func TestUpdateMe_UsernameToMe(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	existing := &models.User{ID: "user-1", Username: "plain"}
	mockRepo.On("FindByID", "user-1").Return(existing, nil)

	me := "me"
	user, err := svc.UpdateMe(plainUser, ProfileUpdate{Username: &me})

	assert.Nil(t, user)
	ve, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "username", ve.Field)
}

func TestUpdateMe_UsernameTaken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	existing := &models.User{ID: "user-1", Username: "plain"}
	mockRepo.On("FindByID", "user-1").Return(existing, nil)
	mockRepo.On("FindByUsername", "taken").Return(&models.User{ID: "user-2", Username: "taken"}, nil)

	taken := "taken"
	user, err := svc.UpdateMe(plainUser, ProfileUpdate{Username: &taken})

	assert.Nil(t, user)
	assert.Equal(t, ErrNameInUse, err)
}

func TestListUsers_AdminOnly(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	users, err := svc.List(plainUser)
	assert.Equal(t, ErrForbidden, err)
	assert.Nil(t, users)

	users, err = svc.List(access.Actor{ID: "mod-1", Role: access.RoleModerator})
	assert.Equal(t, ErrForbidden, err)
	assert.Nil(t, users)

	mockRepo.On("GetAll").Return([]models.User{{Username: "a"}, {Username: "b"}}, nil)
	users, err = svc.List(adminUser)
	assert.NoError(t, err)
	assert.Len(t, users, 2)
}

// A superuser with a plain role still passes every admin gate.
func TestListUsers_SuperuserOverride(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("GetAll").Return([]models.User{}, nil)

	root := access.Actor{ID: "root-1", Role: access.RoleUser, Superuser: true}
	_, err := svc.List(root)

	assert.NoError(t, err)
}

func TestCreateUser_WithRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("FindByUsername", "newmod").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", "mod@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	role := "moderator"
	user, err := svc.Create(adminUser, "newmod", "mod@example.com", AdminUserInput{Role: &role})

	assert.NoError(t, err)
	assert.Equal(t, "moderator", user.Role)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_DuplicateRace(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("FindByUsername", "newmod").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", "mod@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(gorm.ErrDuplicatedKey)

	user, err := svc.Create(adminUser, "newmod", "mod@example.com", AdminUserInput{})

	assert.Equal(t, ErrNameInUse, err)
	assert.Nil(t, user)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("FindByUsername", "newuser").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)

	role := "overlord"
	user, err := svc.Create(adminUser, "newuser", "new@example.com", AdminUserInput{Role: &role})

	assert.Nil(t, user)
	ve, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, "role", ve.Field)
}

func TestUpdateUser_RoleChange(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	existing := &models.User{ID: "user-2", Username: "target", Role: "user"}
	mockRepo.On("FindByUsername", "target").Return(existing, nil)
	mockRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	role := "admin"
	user, err := svc.Update(adminUser, "target", AdminUserInput{Role: &role})

	assert.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
}

func TestUpdateUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("FindByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.Update(adminUser, "ghost", AdminUserInput{})

	assert.Equal(t, ErrNotFound, err)
	assert.Nil(t, user)
}

func TestDeleteUser_AdminOnly(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	err := svc.Delete(plainUser, "target")
	assert.Equal(t, ErrForbidden, err)

	existing := &models.User{ID: "user-2", Username: "target"}
	mockRepo.On("FindByUsername", "target").Return(existing, nil)
	mockRepo.On("Delete", existing).Return(nil)

	err = svc.Delete(adminUser, "target")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
