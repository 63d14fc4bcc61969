package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	UnitStatusEmpty      = "empty"
	UnitStatusUploaded   = "uploaded"
	UnitStatusProcessing = "processing"
	UnitStatusReady      = "ready"
	UnitStatusFailed     = "failed"
)

// UnitProcessingState is the single source of truth for a unit's chat
// readiness. The pipeline is the only writer once a run starts.
type UnitProcessingState struct {
	UnitID uuid.UUID `gorm:"type:uuid;primaryKey" json:"unit_id"`
	Unit   *Unit     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UnitID;references:ID" json:"-"`

	HasFiles        bool `gorm:"column:has_files;not null;default:false" json:"has_files"`
	TextExtracted   bool `gorm:"column:text_extracted;not null;default:false" json:"text_extracted"`
	ChunkCount      int  `gorm:"column:chunk_count;not null;default:0" json:"chunk_count"`
	EmbeddingsReady bool `gorm:"column:embeddings_ready;not null;default:false" json:"embeddings_ready"`

	Status    string  `gorm:"column:status;not null;default:'empty'" json:"status"`
	LastError *string `gorm:"column:last_error" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UnitProcessingState) TableName() string { return "unit_processing_states" }
