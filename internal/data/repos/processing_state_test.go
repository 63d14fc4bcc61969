package repos

import (
	"context"
	"testing"

	"github.com/nisschay/Edu-Rag/internal/data/repos/testutil"
	"github.com/nisschay/Edu-Rag/internal/domain"
)

func TestProcessingStateEnsureIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	s := seedHierarchy(t, tx)
	repo := NewProcessingStateRepo(db, log)

	first, err := repo.Ensure(ctx, tx, s.unit.ID)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if first.Status != domain.UnitStatusEmpty {
		t.Fatalf("initial status: want=%s got=%s", domain.UnitStatusEmpty, first.Status)
	}

	second, err := repo.Ensure(ctx, tx, s.unit.ID)
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if second.UnitID != first.UnitID {
		t.Fatalf("Ensure created a second row")
	}
}

func TestProcessingStateUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	s := seedHierarchy(t, tx)
	repo := NewProcessingStateRepo(db, log)

	if _, err := repo.Ensure(ctx, tx, s.unit.ID); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := repo.UpdateFields(ctx, tx, s.unit.ID, map[string]interface{}{
		"status":      domain.UnitStatusProcessing,
		"has_files":   true,
		"chunk_count": 12,
		"last_error":  nil,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	state, err := repo.GetByUnit(ctx, tx, s.unit.ID)
	if err != nil {
		t.Fatalf("GetByUnit: %v", err)
	}
	if state.Status != domain.UnitStatusProcessing {
		t.Fatalf("status: want=%s got=%s", domain.UnitStatusProcessing, state.Status)
	}
	if !state.HasFiles || state.ChunkCount != 12 {
		t.Fatalf("flags: has_files=%v chunk_count=%d", state.HasFiles, state.ChunkCount)
	}
	if state.LastError != nil {
		t.Fatalf("last_error: want=nil got=%v", *state.LastError)
	}
}
