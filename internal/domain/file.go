package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusReady      = "ready"
	FileStatusFailed     = "failed"
)

// File is an uploaded document attached to a topic. ExtractedText is
// filled once by the pipeline and reused on reruns.
type File struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	Topic   *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"-"`

	Filename string `gorm:"column:filename;not null" json:"filename"`
	Filepath string `gorm:"column:filepath;not null" json:"-"`
	FileType string `gorm:"column:file_type;not null" json:"file_type"`
	FileSize int64  `gorm:"column:file_size" json:"file_size"`

	ExtractedText   *string `gorm:"column:extracted_text" json:"-"`
	Status          string  `gorm:"column:status;not null;default:'pending'" json:"status"`
	ProcessingError *string `gorm:"column:processing_error" json:"processing_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (File) TableName() string { return "files" }
