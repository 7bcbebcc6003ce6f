package repositories

import (
	"errors"

	"offerwise_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("student profile not found")
)

type ProfileRepository interface {
	GetProfile(id string) (*models.StudentProfile, error)
	CreateProfile(profile *models.StudentProfile) error
	UpdateProfile(profile *models.StudentProfile) error
}

type ProfileRepositoryImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

func (r *ProfileRepositoryImpl) GetProfile(id string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) CreateProfile(profile *models.StudentProfile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepositoryImpl) UpdateProfile(profile *models.StudentProfile) error {
	result := r.db.Model(&models.StudentProfile{}).
		Where("id = ?", profile.ID).
		Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
