package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/repository"
	"github.com/templui/hydrate/internal/storage"
	"github.com/templui/hydrate/internal/validation"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

// NewFileService accepts a nil storage; uploads then fail with
// storage.ErrNotConfigured.
func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// Upload stores a file and creates its database record. Validation is the
// caller's job.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader, contentType string, isPublic bool) (*model.File, error) {
	if s.storage == nil {
		return nil, storage.ErrNotConfigured
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext

	prefix := "private"
	if isPublic {
		prefix = "public"
	}
	storagePath := path.Join(prefix, fileType+"s", filename) // sound -> sounds

	err := s.storage.Save(ctx, storagePath, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     contentType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       isPublic,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(ctx, fileModel)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return fileModel, nil
}

// UploadSound validates and stores a custom reminder sound, replacing the
// previous one.
func (s *FileService) UploadSound(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	if s.storage == nil {
		return nil, storage.ErrNotConfigured
	}

	err := validation.ValidateFile(header, validation.SoundConstraints)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, _ := file.Read(head)
	_, err = file.Seek(0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	contentType := validation.DetectContentType(head[:n])

	previous, err := s.Sound(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, err
	}

	uploaded, err := s.Upload(ctx, userID, model.OwnerTypeUser, userID, model.FileTypeSound, file, header, contentType, false)
	if err != nil {
		return nil, err
	}

	if previous != nil {
		err = s.Delete(ctx, previous.ID)
		if err != nil {
			slog.Warn("failed to delete previous sound", "user_id", userID, "file_id", previous.ID, "error", err)
		}
	}

	return uploaded, nil
}

func (s *FileService) Sound(ctx context.Context, userID string) (*model.File, error) {
	return s.fileRepo.FileByType(ctx, model.OwnerTypeUser, userID, model.FileTypeSound)
}

func (s *FileService) DeleteSound(ctx context.Context, userID string) error {
	file, err := s.Sound(ctx, userID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, file.ID)
}

// URL returns a fetchable URL for file, or "" without storage.
func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil || s.storage == nil {
		return ""
	}

	url, err := s.storage.URL(ctx, file.StoragePath, file.Public)
	if err != nil {
		slog.Warn("failed to presign file URL, using direct URL", "file_id", file.ID, "error", err)
	}
	return url
}

// Delete removes a file from storage (best effort) and the database.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	file, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	if s.storage != nil {
		delErr := s.storage.Delete(ctx, file.StoragePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
		}
	}

	err = s.fileRepo.Delete(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	if s.storage == nil {
		return nil
	}

	files, err := s.fileRepo.AllUserFiles(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}
	return nil
}
