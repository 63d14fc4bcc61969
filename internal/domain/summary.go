package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SummaryTypeTopic = "topic"
	SummaryTypeUnit  = "unit"
)

// TopicSummary is the concept-focused summary of one topic, regenerated
// whenever its chunks change. One row per topic.
type TopicSummary struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	UnitID    uuid.UUID `gorm:"type:uuid;not null;index" json:"unit_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"topic_id"`

	SummaryText      string `gorm:"column:summary_text;not null" json:"summary_text"`
	TokenCount       int    `gorm:"column:token_count;not null" json:"token_count"`
	SourceChunkCount int    `gorm:"column:source_chunk_count;not null" json:"source_chunk_count"`

	EmbeddingID *int64 `gorm:"column:embedding_id;index" json:"embedding_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TopicSummary) TableName() string { return "topic_summaries" }

// UnitSummary is the teaching-order summary of one unit, built from its
// topic summaries. One row per unit.
type UnitSummary struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	UnitID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"unit_id"`

	SummaryText      string `gorm:"column:summary_text;not null" json:"summary_text"`
	TokenCount       int    `gorm:"column:token_count;not null" json:"token_count"`
	SourceTopicCount int    `gorm:"column:source_topic_count;not null" json:"source_topic_count"`

	EmbeddingID *int64 `gorm:"column:embedding_id;index" json:"embedding_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UnitSummary) TableName() string { return "unit_summaries" }
