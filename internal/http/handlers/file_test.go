package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/data/repos/testutil"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/jobs"
	"github.com/nisschay/Edu-Rag/internal/storage"
)

type uploadFixture struct {
	user  *domain.User
	unit  *domain.Unit
	topic *domain.Topic
}

func seedUploadScope(t *testing.T, db *gorm.DB) uploadFixture {
	t.Helper()
	user := &domain.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	subject := &domain.Subject{UserID: user.ID, Name: "History"}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	unit := &domain.Unit{SubjectID: subject.ID, UnitNumber: 1, Title: "Antiquity"}
	if err := db.Create(unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	topic := &domain.Topic{UnitID: unit.ID, Title: "Rome"}
	if err := db.Create(topic).Error; err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	t.Cleanup(func() {
		db.Where("topic_id = ?", topic.ID).Delete(&domain.File{})
		db.Where("unit_id = ?", unit.ID).Delete(&domain.UnitProcessingState{})
		db.Where("id = ?", topic.ID).Delete(&domain.Topic{})
		db.Where("id = ?", unit.ID).Delete(&domain.Unit{})
		db.Where("id = ?", subject.ID).Delete(&domain.Subject{})
		db.Where("id = ?", user.ID).Delete(&domain.User{})
	})
	return uploadFixture{user: user, unit: unit, topic: topic}
}

func newUploadHandler(t *testing.T, db *gorm.DB) (*FileHandler, *jobs.Scheduler) {
	t.Helper()
	log := testutil.Logger(t)
	store, err := storage.NewLocalStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	scheduler := jobs.NewScheduler(context.Background(),
		func(ctx context.Context, unitID uuid.UUID) error { return nil }, log)
	scope := NewScopeResolver(
		repos.NewSubjectRepo(db, log),
		repos.NewUnitRepo(db, log),
		repos.NewTopicRepo(db, log),
	)
	fh := NewFileHandler(
		repos.NewFileRepo(db, log),
		repos.NewProcessingStateRepo(db, log),
		store, scheduler, scope, log,
	)
	return fh, scheduler
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/topics/x/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadContext(t *testing.T, fx uploadFixture, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: fx.topic.ID.String()}}
	c.Set("userID", fx.user.ID)
	return c, w
}

func TestUploadClearsStaleFailureState(t *testing.T) {
	db := testutil.DB(t)
	fx := seedUploadScope(t, db)

	// A prior run left the unit failed with an error message on record.
	stale := "Failed to extract ghost.pdf: file missing"
	state := &domain.UnitProcessingState{
		UnitID:    fx.unit.ID,
		Status:    domain.UnitStatusFailed,
		HasFiles:  true,
		LastError: &stale,
	}
	if err := db.Create(state).Error; err != nil {
		t.Fatalf("seed state: %v", err)
	}

	fh, scheduler := newUploadHandler(t, db)
	c, w := uploadContext(t, fx, uploadRequest(t, "notes.txt", "Rome was founded on the Tiber."))

	fh.Upload(c)
	scheduler.Wait()

	if w.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, w.Code, w.Body.String())
	}

	var got domain.UnitProcessingState
	if err := db.Where("unit_id = ?", fx.unit.ID).First(&got).Error; err != nil {
		t.Fatalf("load state: %v", err)
	}
	if got.Status != domain.UnitStatusUploaded {
		t.Fatalf("status: want=%s got=%s", domain.UnitStatusUploaded, got.Status)
	}
	if !got.HasFiles {
		t.Fatal("has_files should be true after upload")
	}
	if got.LastError != nil {
		t.Fatalf("last_error should be cleared on upload, got %q", *got.LastError)
	}

	var files []domain.File
	if err := db.Where("topic_id = ?", fx.topic.ID).Find(&files).Error; err != nil {
		t.Fatalf("load files: %v", err)
	}
	if len(files) != 1 || files[0].Status != domain.FileStatusPending {
		t.Fatalf("file rows: %+v", files)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	db := testutil.DB(t)
	fx := seedUploadScope(t, db)

	fh, _ := newUploadHandler(t, db)
	c, w := uploadContext(t, fx, uploadRequest(t, "notes.exe", "MZ"))

	fh.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusBadRequest, w.Code, w.Body.String())
	}
	var count int64
	db.Model(&domain.File{}).Where("topic_id = ?", fx.topic.ID).Count(&count)
	if count != 0 {
		t.Fatalf("no file row should exist, got %d", count)
	}
}
