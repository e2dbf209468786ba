package repository

import (
	"errors"
	"time"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

// ConfirmationCodeRepository persists the signup credential separately from
// the user row. One active code per user; rotation overwrites in place.
type ConfirmationCodeRepository interface {
	Rotate(userID, codeHash string) (*models.ConfirmationCode, error)
	FindByUserID(userID string) (*models.ConfirmationCode, error)
	MarkConsumed(id int64) error
}

type confirmationCodeRepository struct {
	db *gorm.DB
}

func NewConfirmationCodeRepository(db *gorm.DB) ConfirmationCodeRepository {
	return &confirmationCodeRepository{db: db}
}

// Rotate stores a fresh code hash for the user, replacing any earlier one
// and clearing its consumed marker.
func (r *confirmationCodeRepository) Rotate(userID, codeHash string) (*models.ConfirmationCode, error) {
	var code models.ConfirmationCode
	err := r.db.Where("user_id = ?", userID).First(&code).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = models.ConfirmationCode{
			UserID:   userID,
			CodeHash: codeHash,
		}
		if err := r.db.Create(&code).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		code.CodeHash = codeHash
		code.IssuedAt = time.Now()
		code.ConsumedAt = nil
		if err := r.db.Save(&code).Error; err != nil {
			return nil, err
		}
	}
	return &code, nil
}

func (r *confirmationCodeRepository) FindByUserID(userID string) (*models.ConfirmationCode, error) {
	var code models.ConfirmationCode
	if err := r.db.Where("user_id = ?", userID).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// MarkConsumed records the first successful exchange. The code is not
// invalidated: it stays usable until the next signup rotates it.
func (r *confirmationCodeRepository) MarkConsumed(id int64) error {
	now := time.Now()
	return r.db.Model(&models.ConfirmationCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", &now).Error
}
