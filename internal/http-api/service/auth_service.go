package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"reviewhub/internal/access"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/mailer"
)

// reservedUsername collides with the /users/me route and is rejected at
// every place a username can be set.
const reservedUsername = "me"

const maxUsernameLen = 150

// Same character class Django's username validator accepts.
var usernameRx = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims is the verified content of an access token.
type Claims struct {
	UserID   string
	Username string
	Role     string
}

type AuthService interface {
	// Signup creates or refreshes the confirmation code for the
	// (username, email) pair and delivers it out of band.
	Signup(username, email string) (*models.User, error)
	// ObtainToken exchanges a confirmation code for a bearer token.
	ObtainToken(username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	codeRepo       repository.ConfirmationCodeRepository
	mail           mailer.Mailer
	logger         *slog.Logger
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.ConfirmationCodeRepository,
	mail mailer.Mailer,
	logger *slog.Logger,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codeRepo:       codeRepo,
		mail:           mail,
		logger:         logger,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return newValidationError("username", "must not be blank")
	}
	if len(username) > maxUsernameLen {
		return newValidationError("username", "must be at most 150 characters")
	}
	if !usernameRx.MatchString(username) {
		return newValidationError("username", "may contain only letters, digits and @/./+/-/_")
	}
	if username == reservedUsername {
		return newValidationError("username", `"me" is not a valid username`)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return newValidationError("email", "must not be blank")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return newValidationError("email", "is not a valid address")
	}
	return nil
}

func (s *authService) Signup(username, email string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Fresh signup: the email must not belong to someone else.
		if _, err := s.userRepo.FindByEmail(email); err == nil {
			return nil, ErrEmailInUse
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     string(access.RoleUser),
		}
		if err := s.userRepo.Create(user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent signup past the
				// pre-checks; the unique index names the winner.
				if _, emailErr := s.userRepo.FindByEmail(email); emailErr == nil {
					return nil, ErrEmailInUse
				}
				return nil, ErrNameInUse
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		// Known username. Only the exact (username, email) pair may
		// re-signup to rotate the code.
		if user.Email != email {
			return nil, ErrNameInUse
		}
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if _, err := s.codeRepo.Rotate(user.ID, string(codeHash)); err != nil {
		return nil, err
	}

	// Best effort: the signup stands even when the relay is down. The
	// failure is surfaced in the log, and re-signup reissues the code.
	if err := s.mail.SendConfirmationCode(user.Email, user.Username, code); err != nil {
		s.logger.Error("confirmation code delivery failed",
			"username", user.Username,
			"email", user.Email,
			"error", err,
		)
	}

	return user, nil
}

func (s *authService) ObtainToken(username, confirmationCode string) (string, error) {
	if username == "" {
		return "", newValidationError("username", "must not be blank")
	}
	if confirmationCode == "" {
		return "", newValidationError("confirmation_code", "must not be blank")
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	code, err := s.codeRepo.FindByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCode
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(confirmationCode)); err != nil {
		return "", ErrInvalidCode
	}

	// Audit only. The code stays valid until the next signup rotates it.
	if err := s.codeRepo.MarkConsumed(code.ID); err != nil {
		s.logger.Warn("could not mark confirmation code consumed", "user_id", user.ID, "error", err)
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.accessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := mapClaims["user_id"].(string)
	username, _ := mapClaims["username"].(string)
	role, _ := mapClaims["role"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: userID, Username: username, Role: role}, nil
}

// generateConfirmationCode returns 24 random bytes as url-safe base64.
func generateConfirmationCode() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
