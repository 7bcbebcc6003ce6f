package repositories

import (
	"context"

	"offerwise_backend/internal/models"

	"gorm.io/gorm"
)

// ProgramRepository supplies the read-only program corpus. The pipeline only
// needs iteration plus a total count; pagination details stay behind this
// interface.
type ProgramRepository interface {
	CountPrograms(ctx context.Context) (int64, error)
	ListPrograms(ctx context.Context, offset, limit int) ([]models.Program, error)
}

type ProgramRepositoryImpl struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &ProgramRepositoryImpl{db: db}
}

func (r *ProgramRepositoryImpl) CountPrograms(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Program{}).Count(&total).Error
	return total, err
}

func (r *ProgramRepositoryImpl) ListPrograms(ctx context.Context, offset, limit int) ([]models.Program, error) {
	var programs []models.Program
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&programs).Error
	return programs, err
}
