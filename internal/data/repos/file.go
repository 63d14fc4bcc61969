package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type FileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *domain.File) (*domain.File, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.File, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.File, error)
	ListByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*domain.File, error)
	CountByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) (int64, error)
	CountReadyByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	return &fileRepo{db: db, log: baseLog.With("repo", "FileRepo")}
}

func (r *fileRepo) Create(ctx context.Context, tx *gorm.DB, file *domain.File) (*domain.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *fileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var file domain.File
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepo) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.File, error) {
	return r.ListByTopicIDs(ctx, tx, []uuid.UUID{topicID})
}

func (r *fileRepo) ListByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*domain.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var files []*domain.File
	if len(topicIDs) == 0 {
		return files, nil
	}
	if err := transaction.WithContext(ctx).
		Where("topic_id IN ?", topicIDs).
		Order("created_at ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepo) CountByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(topicIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.File{}).
		Where("topic_id IN ?", topicIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *fileRepo) CountReadyByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.File{}).
		Joins("JOIN topics ON topics.id = files.topic_id").
		Joins("JOIN units ON units.id = topics.unit_id").
		Joins("JOIN subjects ON subjects.id = units.subject_id").
		Where("subjects.user_id = ? AND files.status = ?", userID, domain.FileStatusReady).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *fileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Model(&domain.File{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *fileRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&domain.File{}).Error
}
