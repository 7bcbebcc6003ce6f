package repositories

import (
	"errors"
	"strings"

	"offerwise_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCandidateNotFound = errors.New("candidate program not found")
)

type CandidateRepository interface {
	ListByStudent(studentID string) ([]models.CandidateProgram, error)
	GetByID(id string) (*models.CandidateProgram, error)
	ExistsSchoolProgram(studentID, school, program string) (bool, error)
	Create(entry *models.CandidateProgram) error
	// Save overwrites the full record; callers supply the complete entry.
	Save(entry *models.CandidateProgram) error
}

type CandidateRepositoryImpl struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &CandidateRepositoryImpl{db: db}
}

func (r *CandidateRepositoryImpl) ListByStudent(studentID string) ([]models.CandidateProgram, error) {
	var entries []models.CandidateProgram
	err := r.db.
		Where("student_id = ?", studentID).
		Order("created_at").
		Find(&entries).Error
	return entries, err
}

func (r *CandidateRepositoryImpl) GetByID(id string) (*models.CandidateProgram, error) {
	var entry models.CandidateProgram
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *CandidateRepositoryImpl) ExistsSchoolProgram(studentID, school, program string) (bool, error) {
	var count int64
	err := r.db.Model(&models.CandidateProgram{}).
		Where("student_id = ? AND LOWER(school) = ? AND LOWER(program) = ?",
			studentID, strings.ToLower(school), strings.ToLower(program)).
		Count(&count).Error
	return count > 0, err
}

func (r *CandidateRepositoryImpl) Create(entry *models.CandidateProgram) error {
	return r.db.Create(entry).Error
}

func (r *CandidateRepositoryImpl) Save(entry *models.CandidateProgram) error {
	result := r.db.Save(entry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
