package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*domain.Chunk) ([]*domain.Chunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Chunk, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error)
	ListUnembeddedByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error)
	SetEmbeddingID(ctx context.Context, tx *gorm.DB, id uuid.UUID, embeddingID int64) error
	DeleteBySourceFile(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*domain.Chunk{}, nil
	}

	// Keep batches small because Text is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var chunks []*domain.Chunk
	if len(ids) == 0 {
		return chunks, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var chunks []*domain.Chunk
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("source_file_id, chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) ListUnembeddedByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var chunks []*domain.Chunk
	if err := transaction.WithContext(ctx).
		Where("topic_id = ? AND embedding_id IS NULL", topicID).
		Order("source_file_id, chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) SetEmbeddingID(ctx context.Context, tx *gorm.DB, id uuid.UUID, embeddingID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&domain.Chunk{}).
		Where("id = ?", id).
		Update("embedding_id", embeddingID).Error
}

func (r *chunkRepo) DeleteBySourceFile(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("source_file_id = ?", fileID).
		Delete(&domain.Chunk{}).Error
}
