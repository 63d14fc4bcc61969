package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type SubjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, subject *domain.Subject) (*domain.Subject, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Subject, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Subject, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) Create(ctx context.Context, tx *gorm.DB, subject *domain.Subject) (*domain.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(subject).Error; err != nil {
		return nil, err
	}
	return subject, nil
}

func (r *subjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var subject domain.Subject
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var subjects []*domain.Subject
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&domain.Subject{}).Error
}
