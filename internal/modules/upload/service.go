package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxFileSize    = 10 * 1024 * 1024
	UploadsBaseDir = "./uploads"
	StaticURLBase  = "/static/uploads"
)

// AllowedMimeTypes covers product images, avatars and merchant documents.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type uploadRepo interface {
	Create(ctx context.Context, u *domain.Upload) error
	GetByID(ctx context.Context, id int64) (*domain.Upload, error)
	GetByUser(ctx context.Context, userID int64) ([]domain.Upload, error)
	Delete(ctx context.Context, id int64) error
}

// Service stores files on local disk and records them in the database.
type Service struct {
	repo       uploadRepo
	baseDir    string
	staticBase string
}

func NewService(repo uploadRepo, baseDir, staticBase string) *Service {
	if baseDir == "" {
		baseDir = UploadsBaseDir
	}
	if staticBase == "" {
		staticBase = StaticURLBase
	}
	return &Service{repo: repo, baseDir: baseDir, staticBase: staticBase}
}

func (s *Service) BaseDir() string { return s.baseDir }

// Upload saves a file to disk and records it. The MIME type is sniffed
// from the content, not trusted from the client.
func (s *Service) Upload(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (*domain.Upload, error) {
	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fileHeader.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]
	if !AllowedMimeTypes[mimeType] {
		return nil, ErrInvalidMimeType
	}

	if seeker, ok := file.(io.Seeker); ok {
		_, _ = seeker.Seek(0, io.SeekStart)
	}

	now := time.Now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = mimeToExt(mimeType)
	}
	filename := fmt.Sprintf("%s_%s%s", uuid.New().String(), sanitizeName(fileHeader.Filename), ext)

	absPath := filepath.Join(absDir, filename)
	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	relPath := filepath.Join(relDir, filename)
	record := &domain.Upload{
		UserID:     userID,
		FileName:   fileHeader.Filename,
		StoredPath: relPath,
		URL:        s.staticBase + "/" + strings.ReplaceAll(relPath, "\\", "/"),
		MimeType:   mimeType,
		SizeBytes:  fileHeader.Size,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("save upload record: %w", err)
	}

	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return u, nil
}

// Delete removes the physical file and the record. Only the owner may
// delete.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.UserID != userID {
		return ErrNotOwner
	}

	// File may already be gone; the record is what matters.
	_ = os.Remove(filepath.Join(s.baseDir, u.StoredPath))

	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Upload, error) {
	return s.repo.GetByUser(ctx, userID)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" {
		return "file"
	}
	return name
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
