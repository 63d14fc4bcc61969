package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
	"github.com/nisschay/Edu-Rag/internal/ingestion/extractor"
	"github.com/nisschay/Edu-Rag/internal/jobs"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/storage"
)

const maxUploadBytes = 20 << 20

type FileHandler struct {
	files     repos.FileRepo
	states    repos.ProcessingStateRepo
	store     storage.Store
	scheduler *jobs.Scheduler
	scope     *ScopeResolver
	log       *logger.Logger
}

func NewFileHandler(
	files repos.FileRepo,
	states repos.ProcessingStateRepo,
	store storage.Store,
	scheduler *jobs.Scheduler,
	scope *ScopeResolver,
	baseLog *logger.Logger,
) *FileHandler {
	return &FileHandler{
		files:     files,
		states:    states,
		store:     store,
		scheduler: scheduler,
		scope:     scope,
		log:       baseLog.With("handler", "FileHandler"),
	}
}

// Upload stores a study file under a topic, resets the unit's state to
// uploaded and queues a processing run.
func (fh *FileHandler) Upload(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topic, unit, err := fh.scope.Topic(c.Request.Context(), middleware.UserID(c), topicID)
	if err != nil {
		respondScopeError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if header.Size > maxUploadBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large",
			fmt.Errorf("file exceeds %d bytes", maxUploadBytes))
		return
	}
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !extractor.SupportedTypes[fileType] {
		response.RespondError(c, http.StatusBadRequest, "unsupported_file_type",
			fmt.Errorf("file type %q is not supported", fileType))
		return
	}

	src, err := header.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer src.Close()

	path, size, err := fh.store.Save(topic.ID, header.Filename, src)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}

	file, err := fh.files.Create(c.Request.Context(), nil, &domain.File{
		TopicID:  topic.ID,
		Filename: header.Filename,
		Filepath: path,
		FileType: fileType,
		FileSize: size,
		Status:   domain.FileStatusPending,
	})
	if err != nil {
		fh.store.Remove(path)
		response.RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}

	if _, err := fh.states.Ensure(c.Request.Context(), nil, unit.ID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "state_failed", err)
		return
	}
	if err := fh.states.UpdateFields(c.Request.Context(), nil, unit.ID, map[string]interface{}{
		"status":     domain.UnitStatusUploaded,
		"has_files":  true,
		"last_error": nil,
	}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "state_failed", err)
		return
	}
	fh.scheduler.Enqueue(unit.ID)
	fh.log.Info("file uploaded", "file_id", file.ID, "topic_id", topic.ID, "unit_id", unit.ID, "bytes", size)
	response.RespondCreated(c, file)
}

func (fh *FileHandler) Get(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	file, err := fh.files.GetByID(c.Request.Context(), nil, fileID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errNotFound)
		return
	}
	if _, _, err := fh.scope.Topic(c.Request.Context(), middleware.UserID(c), file.TopicID); err != nil {
		respondScopeError(c, err)
		return
	}
	response.RespondOK(c, file)
}

func (fh *FileHandler) ListByTopic(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, _, err := fh.scope.Topic(c.Request.Context(), middleware.UserID(c), topicID); err != nil {
		respondScopeError(c, err)
		return
	}
	files, err := fh.files.ListByTopic(c.Request.Context(), nil, topicID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, files)
}
