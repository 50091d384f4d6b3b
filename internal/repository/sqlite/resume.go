package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

// resumeRepo implements domain.ResumeRepository using SQLite.
type resumeRepo struct {
	db *sql.DB
}

func (r *resumeRepo) Create(ctx context.Context, resume *domain.Resume) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO resumes (owner_email, filename, content_type, size, storage_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		resume.OwnerEmail, resume.Filename, resume.ContentType, resume.Size, resume.StorageKey, now,
	)
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	resume.ID = id
	resume.CreatedAt = now
	return nil
}

func (r *resumeRepo) GetByKey(ctx context.Context, key string) (*domain.Resume, error) {
	res := &domain.Resume{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_email, filename, content_type, size, storage_key, created_at
		 FROM resumes WHERE storage_key = ?`, key,
	).Scan(&res.ID, &res.OwnerEmail, &res.Filename, &res.ContentType, &res.Size, &res.StorageKey, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query resume: %w", err)
	}
	return res, nil
}

func (r *resumeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM resumes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
