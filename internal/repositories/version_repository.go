package repositories

import (
	"errors"

	"offerwise_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrVersionNotFound = errors.New("recommendation version not found")
)

// VersionRepository is append-only: versions are never updated except for the
// adopted flag, which Adopt flips atomically.
type VersionRepository interface {
	Append(version *models.RecommendationVersion) error
	ListByStudent(studentID string) ([]models.RecommendationVersion, error)
	// Adopt marks versionID adopted and clears any previously adopted version
	// of the same student, in one transaction. Unknown id leaves the store
	// unchanged and returns ErrVersionNotFound.
	Adopt(versionID string) (*models.RecommendationVersion, error)
}

type VersionRepositoryImpl struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &VersionRepositoryImpl{db: db}
}

func (r *VersionRepositoryImpl) Append(version *models.RecommendationVersion) error {
	return r.db.Create(version).Error
}

func (r *VersionRepositoryImpl) ListByStudent(studentID string) ([]models.RecommendationVersion, error) {
	var versions []models.RecommendationVersion
	err := r.db.
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}

func (r *VersionRepositoryImpl) Adopt(versionID string) (*models.RecommendationVersion, error) {
	var adopted models.RecommendationVersion

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&adopted, "id = ?", versionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionNotFound
			}
			return err
		}

		if err := tx.Model(&models.RecommendationVersion{}).
			Where("student_id = ? AND adopted = ?", adopted.StudentID, true).
			Update("adopted", false).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.RecommendationVersion{}).
			Where("id = ?", versionID).
			Update("adopted", true).Error; err != nil {
			return err
		}

		adopted.Adopted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adopted, nil
}
