package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF")

func newTestResumeService(t *testing.T, maxSize int64) *service.ResumeService {
	t.Helper()
	db := newTestDB(t)
	return service.NewResumeService(db.Resumes(), db.FileStore(), maxSize)
}

func sampleDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	f.Write([]byte("<w:document/>"))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDetectResumeType(t *testing.T) {
	docx := sampleDOCX(t)
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{"pdf", "cv.pdf", samplePDF, "application/pdf"},
		{"doc", "cv.doc", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, "application/msword"},
		{"docx", "cv.DOCX", docx, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"zip without docx name", "cv.zip", docx, ""},
		{"text", "cv.pdf", []byte("plain text resume"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.DetectResumeType(tt.filename, tt.data); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResumeService_UploadAndGet(t *testing.T) {
	svc := newTestResumeService(t, 0)
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "rita@corp.test", "../jane-cv.pdf", samplePDF)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resume.Filename != "jane-cv.pdf" {
		t.Fatalf("expected base filename, got %q", resume.Filename)
	}
	if !strings.HasPrefix(resume.StorageKey, "resumes/") {
		t.Fatalf("unexpected key %q", resume.StorageKey)
	}
	if got := service.ResumeURL(resume); got != "/"+resume.StorageKey {
		t.Fatalf("unexpected url %q", got)
	}

	meta, data, err := svc.GetFile(ctx, resume.StorageKey)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if meta.ContentType != "application/pdf" || !bytes.Equal(data, samplePDF) {
		t.Fatalf("unexpected file %+v (%d bytes)", meta, len(data))
	}
}

func TestResumeService_UploadRejects(t *testing.T) {
	svc := newTestResumeService(t, 16)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too large", bytes.Repeat([]byte("%PDF-"), 10)},
		{"wrong type", []byte("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Upload(context.Background(), "rita@corp.test", "cv.pdf", tt.data); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestResumeService_Delete(t *testing.T) {
	svc := newTestResumeService(t, 0)
	ctx := context.Background()
	resume, _ := svc.Upload(ctx, "rita@corp.test", "cv.pdf", samplePDF)

	if err := svc.Delete(ctx, resume.StorageKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.GetFile(ctx, resume.StorageKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, resume.StorageKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
