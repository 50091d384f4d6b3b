package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const (
	DefaultMaxResumeSize = 5 * 1024 * 1024

	contentTypePDF  = "application/pdf"
	contentTypeDOC  = "application/msword"
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// oleHeader starts every legacy Word (.doc) file.
var oleHeader = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ResumeService stores candidate resumes and serves them back.
type ResumeService struct {
	resumes domain.ResumeRepository
	files   domain.FileStore
	maxSize int64
}

// NewResumeService creates a ResumeService. maxSize <= 0 selects 5MB.
func NewResumeService(resumes domain.ResumeRepository, files domain.FileStore, maxSize int64) *ResumeService {
	if maxSize <= 0 {
		maxSize = DefaultMaxResumeSize
	}
	return &ResumeService{resumes: resumes, files: files, maxSize: maxSize}
}

// MaxSize is the largest accepted upload in bytes.
func (s *ResumeService) MaxSize() int64 {
	return s.maxSize
}

// DetectResumeType returns the content type of a PDF, DOC or DOCX file, or
// "" when data is none of them.
func DetectResumeType(filename string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return contentTypePDF
	}
	if bytes.HasPrefix(data, oleHeader) {
		return contentTypeDOC
	}
	// DOCX is a zip archive; trust the extension once the zip magic matches.
	if http.DetectContentType(data) == "application/zip" && strings.EqualFold(filepath.Ext(filename), ".docx") {
		return contentTypeDOCX
	}
	return ""
}

// Upload validates and stores a resume for ownerEmail.
func (s *ResumeService) Upload(ctx context.Context, ownerEmail, filename string, data []byte) (*domain.Resume, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: resume file is empty", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: resume exceeds %dMB limit", domain.ErrInvalidInput, s.maxSize/(1024*1024))
	}
	contentType := DetectResumeType(filename, data)
	if contentType == "" {
		return nil, fmt.Errorf("%w: only PDF, DOC and DOCX resumes are accepted", domain.ErrInvalidInput)
	}

	key := "resumes/" + uuid.NewString()
	if err := s.files.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	resume := &domain.Resume{
		OwnerEmail:  ownerEmail,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		StorageKey:  key,
	}
	if err := s.resumes.Create(ctx, resume); err != nil {
		s.files.Delete(ctx, key)
		return nil, fmt.Errorf("create resume record: %w", err)
	}
	return resume, nil
}

// GetFile returns the resume metadata and bytes stored under key.
func (s *ResumeService) GetFile(ctx context.Context, key string) (*domain.Resume, []byte, error) {
	resume, err := s.resumes.GetByKey(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("get resume: %w", err)
	}
	data, err := s.files.Get(ctx, resume.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("get file: %w", err)
	}
	return resume, data, nil
}

// Delete removes a resume and its bytes.
func (s *ResumeService) Delete(ctx context.Context, key string) error {
	resume, err := s.resumes.GetByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("get resume: %w", err)
	}
	if err := s.resumes.Delete(ctx, resume.ID); err != nil {
		return fmt.Errorf("delete resume record: %w", err)
	}
	if err := s.files.Delete(ctx, resume.StorageKey); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// ResumeURL is the path the resume is served from.
func ResumeURL(r *domain.Resume) string {
	return "/" + r.StorageKey
}
