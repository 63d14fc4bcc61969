package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one retrievable text segment. The scope columns are duplicated
// onto every chunk so retrieval can filter without joins, and EmbeddingID
// holds the packed vector handle once the chunk is embedded.
type Chunk struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubjectID    uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	UnitID       uuid.UUID `gorm:"type:uuid;not null;index" json:"unit_id"`
	TopicID      uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	SourceFileID uuid.UUID `gorm:"type:uuid;not null;index" json:"source_file_id"`

	ChunkIndex int    `gorm:"column:chunk_index;not null" json:"chunk_index"`
	Text       string `gorm:"column:text;not null" json:"text"`
	TokenCount int    `gorm:"column:token_count;not null" json:"token_count"`

	EmbeddingID *int64 `gorm:"column:embedding_id;index" json:"embedding_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Chunk) TableName() string { return "chunks" }
