package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"creditscope/internal/config"
	"creditscope/internal/domain"
)

// FileUploadInput is the DTO for one uploaded file.
type FileUploadInput struct {
	File         multipart.File
	Header       *multipart.FileHeader
	DocumentType string
}

// UploadService stores files for a later analysis request.
type UploadService interface {
	Upload(ctx context.Context, inputs []FileUploadInput) ([]domain.UploadedFile, error)
}

type uploadService struct {
	cfg *config.UploadConfig
}

// NewUploadService creates a new UploadService implementation.
func NewUploadService(cfg *config.UploadConfig) UploadService {
	return &uploadService{cfg: cfg}
}

// sniffedAliases lists detected content types that are acceptable for an
// extension besides its own mime type. Office formats are often only
// recognized as their container.
var sniffedAliases = map[string][]string{
	"xlsx": {"application/zip"},
	"docx": {"application/zip"},
	"xls":  {"application/x-ole-storage"},
	"doc":  {"application/x-ole-storage"},
	"csv":  {"text/plain"},
}

// Upload validates every file before storing any of them. If storing fails
// part way, files already written are removed.
func (s *uploadService) Upload(ctx context.Context, inputs []FileUploadInput) ([]domain.UploadedFile, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrNoFiles
	}
	if s.cfg.MaxFiles > 0 && len(inputs) > s.cfg.MaxFiles {
		return nil, domain.ErrTooManyFiles
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	exts := make([]string, len(inputs))
	for i, in := range inputs {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Header.Filename), "."))
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			return nil, fmt.Errorf("%s: %w", in.Header.Filename, domain.ErrUnsupportedFileType)
		}
		if maxBytes > 0 && in.Header.Size > maxBytes {
			return nil, fmt.Errorf("%s: %w", in.Header.Filename, domain.ErrFileTooLarge)
		}
		if err := checkContent(in.File, ext); err != nil {
			return nil, fmt.Errorf("%s: %w", in.Header.Filename, err)
		}
		exts[i] = ext
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	stored := make([]domain.UploadedFile, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			removeStored(stored)
			return nil, err
		}
		file, err := s.store(in, exts[i])
		if err != nil {
			log.Printf("uploadService.Upload: storing %s failed: %v", in.Header.Filename, err)
			removeStored(stored)
			return nil, err
		}
		stored = append(stored, *file)
	}
	log.Printf("uploadService.Upload: stored %d files", len(stored))
	return stored, nil
}

func (s *uploadService) store(in FileUploadInput, ext string) (*domain.UploadedFile, error) {
	id := uuid.New().String()
	path := filepath.Join(s.cfg.Dir, id+"."+ext)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	n, copyErr := io.Copy(out, in.File)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return nil, fmt.Errorf("writing %s: %w", path, copyErr)
		}
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}

	return &domain.UploadedFile{
		ID:           id,
		OriginalName: filepath.Base(in.Header.Filename),
		Path:         path,
		Size:         n,
		MimeType:     domain.AllowedExtensions[ext],
		DocumentType: domain.ParseDocumentType(in.DocumentType),
	}, nil
}

// checkContent sniffs the file and rejects content that does not match its
// extension. The reader is rewound afterwards.
func checkContent(f multipart.File, ext string) error {
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("detecting content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking file: %w", err)
	}

	expected := domain.AllowedExtensions[ext]
	got := strings.SplitN(detected.String(), ";", 2)[0]
	if got == expected {
		return nil
	}
	for _, alias := range sniffedAliases[ext] {
		if got == alias {
			return nil
		}
	}
	return fmt.Errorf("%w: content is %s, expected %s", domain.ErrUnsupportedFileType, got, expected)
}

func removeStored(files []domain.UploadedFile) {
	for _, f := range files {
		_ = os.Remove(f.Path)
	}
}
