package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type UnitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, unit *domain.Unit) (*domain.Unit, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Unit, error)
	ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*domain.Unit, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type unitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitRepo(db *gorm.DB, baseLog *logger.Logger) UnitRepo {
	return &unitRepo{db: db, log: baseLog.With("repo", "UnitRepo")}
}

func (r *unitRepo) Create(ctx context.Context, tx *gorm.DB, unit *domain.Unit) (*domain.Unit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *unitRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Unit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var unit domain.Unit
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*domain.Unit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var units []*domain.Unit
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("unit_number ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *unitRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&domain.Unit{}).Error
}
