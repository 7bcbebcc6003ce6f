package services

import (
	"errors"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type ProfileService interface {
	Get(id string) (*models.StudentProfile, error)
	Create(profile *models.StudentProfile) (*models.StudentProfile, error)
	Update(profile *models.StudentProfile) (*models.StudentProfile, error)
}

type profileService struct {
	repo repositories.ProfileRepository
}

func NewProfileService(repo repositories.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) Get(id string) (*models.StudentProfile, error) {
	profile, err := s.repo.GetProfile(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "profile", "Failed to load student profile", 500)
	}
	return profile, nil
}

func (s *profileService) Create(profile *models.StudentProfile) (*models.StudentProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if err := s.repo.CreateProfile(profile); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "profile", "Failed to create student profile", 500)
	}
	return profile, nil
}

func (s *profileService) Update(profile *models.StudentProfile) (*models.StudentProfile, error) {
	if err := s.repo.UpdateProfile(profile); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "profile", "Failed to update student profile", 500)
	}
	return s.repo.GetProfile(profile.ID)
}
