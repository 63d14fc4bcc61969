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

type TopicSummaryRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, summary *domain.TopicSummary) (*domain.TopicSummary, error)
	GetByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*domain.TopicSummary, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.TopicSummary, error)
	ListByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) ([]*domain.TopicSummary, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.TopicSummary, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type topicSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicSummaryRepo(db *gorm.DB, baseLog *logger.Logger) TopicSummaryRepo {
	return &topicSummaryRepo{db: db, log: baseLog.With("repo", "TopicSummaryRepo")}
}

func (r *topicSummaryRepo) Upsert(ctx context.Context, tx *gorm.DB, summary *domain.TopicSummary) (*domain.TopicSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.GetByTopic(ctx, transaction, summary.TopicID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing == nil {
		if err := transaction.WithContext(ctx).Create(summary).Error; err != nil {
			return nil, err
		}
		return summary, nil
	}
	updates := map[string]interface{}{
		"summary_text":       summary.SummaryText,
		"token_count":        summary.TokenCount,
		"source_chunk_count": summary.SourceChunkCount,
		"embedding_id":       summary.EmbeddingID,
		"updated_at":         time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).
		Model(&domain.TopicSummary{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByTopic(ctx, transaction, summary.TopicID)
}

func (r *topicSummaryRepo) GetByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*domain.TopicSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary domain.TopicSummary
	if err := transaction.WithContext(ctx).Where("topic_id = ?", topicID).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *topicSummaryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.TopicSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summaries []*domain.TopicSummary
	if len(ids) == 0 {
		return summaries, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *topicSummaryRepo) ListByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) ([]*domain.TopicSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summaries []*domain.TopicSummary
	if err := transaction.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *topicSummaryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.TopicSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summaries []*domain.TopicSummary
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *topicSummaryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.TopicSummary{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type UnitSummaryRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, summary *domain.UnitSummary) (*domain.UnitSummary, error)
	GetByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitSummary, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.UnitSummary, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.UnitSummary, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type unitSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitSummaryRepo(db *gorm.DB, baseLog *logger.Logger) UnitSummaryRepo {
	return &unitSummaryRepo{db: db, log: baseLog.With("repo", "UnitSummaryRepo")}
}

func (r *unitSummaryRepo) Upsert(ctx context.Context, tx *gorm.DB, summary *domain.UnitSummary) (*domain.UnitSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.GetByUnit(ctx, transaction, summary.UnitID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing == nil {
		if err := transaction.WithContext(ctx).Create(summary).Error; err != nil {
			return nil, err
		}
		return summary, nil
	}
	updates := map[string]interface{}{
		"summary_text":       summary.SummaryText,
		"token_count":        summary.TokenCount,
		"source_topic_count": summary.SourceTopicCount,
		"embedding_id":       summary.EmbeddingID,
		"updated_at":         time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).
		Model(&domain.UnitSummary{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByUnit(ctx, transaction, summary.UnitID)
}

func (r *unitSummaryRepo) GetByUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*domain.UnitSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary domain.UnitSummary
	if err := transaction.WithContext(ctx).Where("unit_id = ?", unitID).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *unitSummaryRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.UnitSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summaries []*domain.UnitSummary
	if len(ids) == 0 {
		return summaries, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *unitSummaryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.UnitSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summaries []*domain.UnitSummary
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *unitSummaryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.UnitSummary{}).
		Where("id = ?", id).
		Updates(updates).Error
}
