package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/session"
	"github.com/templui/hydrate/internal/storage"
)

const maxSoundForm = 1 << 20

var errSoundMissing = apperror.Validation("sound_missing", "multipart field \"sound\" is required")

type SoundHandler struct {
	fileService *service.FileService
	sessions    *session.Manager
}

func NewSoundHandler(fileService *service.FileService, sessions *session.Manager) *SoundHandler {
	return &SoundHandler{
		fileService: fileService,
		sessions:    sessions,
	}
}

type soundResponse struct {
	FileID       string `json:"file_id"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
}

func (h *SoundHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSoundForm)
	file, header, err := r.FormFile("sound")
	if err != nil {
		WriteError(w, r, errSoundMissing)
		return
	}
	defer func() { _ = file.Close() }()

	uploaded, err := h.fileService.UploadSound(r.Context(), s.UserID(), file, header)
	if err != nil {
		WriteError(w, r, storageError(err))
		return
	}

	s.SetSound(&session.SoundRef{FileID: uploaded.ID, OriginalName: uploaded.OriginalName})
	slog.Info("sound uploaded", "user_id", s.UserID(), "file_id", uploaded.ID, "size", uploaded.Size)

	WriteJSON(w, http.StatusCreated, soundResponse{
		FileID:       uploaded.ID,
		OriginalName: uploaded.OriginalName,
		URL:          h.fileService.URL(r.Context(), uploaded),
	})
}

func (h *SoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	file, err := h.fileService.Sound(r.Context(), s.UserID())
	if errors.Is(err, repository.ErrFileNotFound) {
		WriteError(w, r, apperror.NotFound("sound_not_found", "no custom sound uploaded"))
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, soundResponse{
		FileID:       file.ID,
		OriginalName: file.OriginalName,
		URL:          h.fileService.URL(r.Context(), file),
	})
}

func (h *SoundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	err := h.fileService.DeleteSound(r.Context(), s.UserID())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.SetSound(nil)
	w.WriteHeader(http.StatusNoContent)
}

func storageError(err error) error {
	if errors.Is(err, storage.ErrNotConfigured) {
		return apperror.Storage("sound storage is not configured", err)
	}
	return err
}
