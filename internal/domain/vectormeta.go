package domain

import "github.com/google/uuid"

// ChunkMeta is the metadata stored beside each chunk vector. It carries
// the full retrieval scope so searches filter without touching the
// database.
type ChunkMeta struct {
	ChunkID      uuid.UUID `json:"chunk_id"`
	UserID       uuid.UUID `json:"user_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	UnitID       uuid.UUID `json:"unit_id"`
	TopicID      uuid.UUID `json:"topic_id"`
	SourceFileID uuid.UUID `json:"source_file_id"`
}

// SummaryMeta is the metadata stored beside each summary vector. TopicID
// is nil for unit summaries.
type SummaryMeta struct {
	SummaryID   uuid.UUID  `json:"summary_id"`
	SummaryType string     `json:"summary_type"`
	UserID      uuid.UUID  `json:"user_id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	TopicID     *uuid.UUID `json:"topic_id,omitempty"`
}

// ScopeFilter is an exact-match filter over vector metadata. Nil fields
// match everything; set fields must match exactly.
type ScopeFilter struct {
	UserID      *uuid.UUID
	SubjectID   *uuid.UUID
	UnitID      *uuid.UUID
	TopicID     *uuid.UUID
	SummaryType string
}

func (f ScopeFilter) MatchesChunk(m ChunkMeta) bool {
	if f.UserID != nil && *f.UserID != m.UserID {
		return false
	}
	if f.SubjectID != nil && *f.SubjectID != m.SubjectID {
		return false
	}
	if f.UnitID != nil && *f.UnitID != m.UnitID {
		return false
	}
	if f.TopicID != nil && *f.TopicID != m.TopicID {
		return false
	}
	return true
}

func (f ScopeFilter) MatchesSummary(m SummaryMeta) bool {
	if f.UserID != nil && *f.UserID != m.UserID {
		return false
	}
	if f.SubjectID != nil && *f.SubjectID != m.SubjectID {
		return false
	}
	if f.UnitID != nil && *f.UnitID != m.UnitID {
		return false
	}
	if f.TopicID != nil {
		if m.TopicID == nil || *f.TopicID != *m.TopicID {
			return false
		}
	}
	if f.SummaryType != "" && f.SummaryType != m.SummaryType {
		return false
	}
	return true
}
