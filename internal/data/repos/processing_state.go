package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type ProcessingStateRepo interface {
	// Ensure returns the state row for a unit, creating it in status
	// "empty" when missing.
	Ensure(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitProcessingState, error)
	GetByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitProcessingState, error)
	GetByUnitIDs(ctx context.Context, tx *gorm.DB, unitIDs []uuid.UUID) ([]*domain.UnitProcessingState, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, updates map[string]interface{}) error
}

type processingStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingStateRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingStateRepo {
	return &processingStateRepo{db: db, log: baseLog.With("repo", "ProcessingStateRepo")}
}

func (r *processingStateRepo) Ensure(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	state, err := r.GetByUnit(ctx, transaction, unitID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	state = &domain.UnitProcessingState{
		UnitID: unitID,
		Status: domain.UnitStatusEmpty,
	}
	if err := transaction.WithContext(ctx).Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (r *processingStateRepo) GetByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var state domain.UnitProcessingState
	if err := transaction.WithContext(ctx).Where("unit_id = ?", unitID).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *processingStateRepo) GetByUnitIDs(ctx context.Context, tx *gorm.DB, unitIDs []uuid.UUID) ([]*domain.UnitProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var states []*domain.UnitProcessingState
	if len(unitIDs) == 0 {
		return states, nil
	}
	if err := transaction.WithContext(ctx).Where("unit_id IN ?", unitIDs).Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (r *processingStateRepo) UpdateFields(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if unitID == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Model(&domain.UnitProcessingState{}).
		Where("unit_id = ?", unitID).
		Updates(updates).Error
}
