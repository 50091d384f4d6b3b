package domain

import (
	"context"
	"time"
)

// Resume holds metadata about an uploaded candidate resume.
type Resume struct {
	ID          int64
	OwnerEmail  string
	Filename    string
	ContentType string
	Size        int64
	StorageKey  string
	CreatedAt   time.Time
}

// ResumeRepository handles resume metadata persistence.
type ResumeRepository interface {
	Create(ctx context.Context, resume *Resume) error
	GetByKey(ctx context.Context, key string) (*Resume, error)
	Delete(ctx context.Context, id int64) error
}

// FileStore abstracts raw file byte storage.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
