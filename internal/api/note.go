package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
	"github.com/lalith-99/studymate/internal/upload"
)

// multipartSlack covers the form fields and part headers that travel with
// the file.
const multipartSlack = 1 << 20

type NoteHandler struct {
	repo    repository.NoteRepository
	users   repository.UserRepository
	uploads *upload.Store
	logger  *zap.Logger
}

func NewNoteHandler(repo repository.NoteRepository, users repository.UserRepository, uploads *upload.Store, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{repo: repo, users: users, uploads: uploads, logger: logger}
}

type createNoteForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Subject     string `form:"subject" binding:"required,max=100"`
	Description string `form:"description" binding:"max=1000"`
}

type uploaderView struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

type noteView struct {
	models.Note
	Uploader *uploaderView `json:"uploader"`
}

// List handles GET /api/notes?subject=&title=
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.repo.List(c.Request.Context(), models.NoteFilter{
		Subject: c.Query("subject"),
		Title:   c.Query("title"),
	})
	if err != nil {
		internalError(c, h.logger, "failed to list notes", err)
		return
	}

	views, err := h.withUploaders(c.Request.Context(), notes)
	if err != nil {
		internalError(c, h.logger, "failed to list notes", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Create handles POST /api/notes (multipart: file, title, subject,
// description). The uploader is the caller.
func (h *NoteHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes()+multipartSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": upload.ErrFileTooLarge.Error()})
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			c.JSON(http.StatusBadRequest, gin.H{"error": upload.ErrNoFile.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		}
		return
	}

	var form createNoteForm
	if !bindForm(c, &form) {
		return
	}

	stored, err := h.uploads.Save(fh)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidFileType), errors.Is(err, upload.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			internalError(c, h.logger, "failed to store file", err)
		}
		return
	}

	note, err := h.repo.Create(c.Request.Context(), models.Note{
		Title:       form.Title,
		Subject:     form.Subject,
		Description: form.Description,
		FileName:    stored.Name,
		FileType:    stored.Type,
		FileSize:    stored.Size,
		FilePath:    stored.Path,
		UploadedBy:  middleware.GetUserID(c),
	})
	if err != nil {
		if rmErr := h.uploads.Remove(stored.Path); rmErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("path", stored.Path), zap.Error(rmErr))
		}
		internalError(c, h.logger, "failed to create note", err)
		return
	}

	h.logger.Info("note uploaded",
		zap.String("note_id", note.ID),
		zap.String("file_type", note.FileType),
		zap.Int64("file_size", note.FileSize),
	)
	c.JSON(http.StatusCreated, note)
}

// Get handles GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, h.logger, "failed to get note", err)
		return
	}
	if note == nil {
		notFound(c, "note")
		return
	}
	c.JSON(http.StatusOK, note)
}

// Download handles GET /api/notes/:id/download. The counter is bumped
// before the file is served.
func (h *NoteHandler) Download(c *gin.Context) {
	note, err := h.repo.UpdateStats(c.Request.Context(), c.Param("id"), models.NoteStatDownload)
	if err != nil {
		internalError(c, h.logger, "failed to download note", err)
		return
	}
	if note == nil {
		notFound(c, "note")
		return
	}
	if !h.uploads.Exists(note.FilePath) {
		h.logger.Warn("note file missing on disk", zap.String("note_id", note.ID), zap.String("path", note.FilePath))
		notFound(c, "file")
		return
	}
	c.FileAttachment(note.FilePath, note.FileName)
}

// Like handles POST /api/notes/:id/like
func (h *NoteHandler) Like(c *gin.Context) {
	note, err := h.repo.UpdateStats(c.Request.Context(), c.Param("id"), models.NoteStatLike)
	if err != nil {
		internalError(c, h.logger, "failed to like note", err)
		return
	}
	if note == nil {
		notFound(c, "note")
		return
	}
	c.JSON(http.StatusOK, note)
}

// ListByUser handles GET /api/notes/user/:userId
func (h *NoteHandler) ListByUser(c *gin.Context) {
	notes, err := h.repo.ListByUploader(c.Request.Context(), c.Param("userId"))
	if err != nil {
		internalError(c, h.logger, "failed to list notes", err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) withUploaders(ctx context.Context, notes []models.Note) ([]noteView, error) {
	uploaders := make(map[string]*uploaderView)
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		uploader, seen := uploaders[n.UploadedBy]
		if !seen {
			u, err := h.users.GetByID(ctx, n.UploadedBy)
			if err != nil {
				return nil, err
			}
			if u != nil {
				uploader = &uploaderView{FullName: u.FullName, Username: u.Username}
			}
			uploaders[n.UploadedBy] = uploader
		}
		views = append(views, noteView{Note: n, Uploader: uploader})
	}
	return views, nil
}
