package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type TopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, topic *domain.Topic) (*domain.Topic, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Topic, error)
	ListByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) ([]*domain.Topic, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Topic, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Create(ctx context.Context, tx *gorm.DB, topic *domain.Topic) (*domain.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

func (r *topicRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var topic domain.Topic
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepo) ListByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) ([]*domain.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var topics []*domain.Topic
	if err := transaction.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *topicRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var topics []*domain.Topic
	if len(ids) == 0 {
		return topics, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *topicRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&domain.Topic{}).Error
}
