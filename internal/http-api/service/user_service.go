package service

import (
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
)

// ProfileUpdate carries the editable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

// AdminUserInput is the admin-facing shape: profile fields plus role.
type AdminUserInput struct {
	ProfileUpdate
	Role *string
}

type UserService interface {
	GetMe(actor access.Actor) (*models.User, error)
	UpdateMe(actor access.Actor, update ProfileUpdate) (*models.User, error)

	List(actor access.Actor) ([]models.User, error)
	Get(actor access.Actor, username string) (*models.User, error)
	Create(actor access.Actor, username, email string, input AdminUserInput) (*models.User, error)
	Update(actor access.Actor, username string, input AdminUserInput) (*models.User, error)
	Delete(actor access.Actor, username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetMe(actor access.Actor) (*models.User, error) {
	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateMe edits the actor's own profile. The role field is immutable on
// this path regardless of who asks.
func (s *userService) UpdateMe(actor access.Actor, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetMe(actor)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(user, update); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) List(actor access.Actor) ([]models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	return s.userRepo.GetAll()
}

func (s *userService) Get(actor access.Actor, username string) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	return s.findByUsername(username)
}

// Create lets an admin provision a user directly, confirmation flow
// bypassed. Role defaults to "user" when not given.
func (s *userService) Create(actor access.Actor, username, email string, input AdminUserInput) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrNameInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     string(access.RoleUser),
	}
	if err := s.applyProfile(user, input.ProfileUpdate); err != nil {
		return nil, err
	}
	if err := s.applyRole(actor, user, input.Role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if _, emailErr := s.userRepo.FindByEmail(email); emailErr == nil {
				return nil, ErrEmailInUse
			}
			return nil, ErrNameInUse
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(actor access.Actor, username string, input AdminUserInput) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	user, err := s.findByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(user, input.ProfileUpdate); err != nil {
		return nil, err
	}
	if err := s.applyRole(actor, user, input.Role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(actor access.Actor, username string) error {
	if !access.CanManageUsers(actor) {
		return ErrForbidden
	}
	user, err := s.findByUsername(username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(user)
}

func (s *userService) findByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) applyProfile(user *models.User, update ProfileUpdate) error {
	if update.Username != nil && *update.Username != user.Username {
		if err := validateUsername(*update.Username); err != nil {
			return err
		}
		if _, err := s.userRepo.FindByUsername(*update.Username); err == nil {
			return ErrNameInUse
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		user.Username = *update.Username
	}
	if update.Email != nil && *update.Email != user.Email {
		if err := validateEmail(*update.Email); err != nil {
			return err
		}
		if _, err := s.userRepo.FindByEmail(*update.Email); err == nil {
			return ErrEmailInUse
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		user.Email = *update.Email
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	return nil
}

func (s *userService) applyRole(actor access.Actor, user *models.User, role *string) error {
	if role == nil {
		return nil
	}
	if !access.CanChangeRole(actor) {
		return ErrForbidden
	}
	if !access.Role(*role).Valid() {
		return newValidationError("role", "must be one of user, moderator, admin")
	}
	user.Role = *role
	return nil
}
