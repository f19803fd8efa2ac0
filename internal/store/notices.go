package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/immersive-lab/lab-api/internal/models"
)

// NoticeStore persists board posts and their attachments.
type NoticeStore struct {
	db *sql.DB
}

func NewNoticeStore(db *sql.DB) *NoticeStore {
	return &NoticeStore{db: db}
}

// List returns one page of notices, newest first, optionally filtered by
// category.
func (s *NoticeStore) List(ctx context.Context, category string, page, size int) (*models.NoticePage, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}

	where := ``
	args := []any{size, page * size}
	if category != "" {
		where = `WHERE category = $3`
		args = append(args, category)
	}

	var total int64
	countQuery := `SELECT count(*) FROM notices`
	if category != "" {
		if err := s.db.QueryRowContext(ctx, countQuery+` WHERE category = $1`, category).Scan(&total); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, author_id, category, pinned, created_at
		FROM notices `+where+`
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notices := []models.Notice{}
	for rows.Next() {
		var n models.Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.Category, &n.Pinned, &n.CreatedAt); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.NoticePage{
		Content:       notices,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Get returns the notice with its author view and attachments, or (nil, nil)
// when it does not exist.
func (s *NoticeStore) Get(ctx context.Context, id int64) (*models.NoticeDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT n.id, n.title, n.content, n.author_id, n.category, n.pinned, n.created_at,
			m.id, m.name, COALESCE(m.login_id,'')
		FROM notices n
		LEFT JOIN members m ON m.id = n.author_id
		WHERE n.id = $1
	`, id)

	var d models.NoticeDetail
	var authorID sql.NullInt64
	var authorName, authorLoginID sql.NullString
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.AuthorID, &d.Category, &d.Pinned, &d.CreatedAt,
		&authorID, &authorName, &authorLoginID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if authorID.Valid {
		d.Author = &models.NoticeAuthor{ID: authorID.Int64, Name: authorName.String, LoginID: authorLoginID.String}
	}

	attachments, err := s.attachmentsFor(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Attachments = attachments
	return &d, nil
}

func (s *NoticeStore) attachmentsFor(ctx context.Context, noticeID int64) ([]models.NoticeAttachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, notice_id, stored_path, original_name, content_type, size_bytes, COALESCE(file_key,''), created_at
		FROM notice_attachments
		WHERE notice_id = $1
		ORDER BY id ASC
	`, noticeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.NoticeAttachment{}
	for rows.Next() {
		var a models.NoticeAttachment
		if err := rows.Scan(&a.ID, &a.NoticeID, &a.StoredPath, &a.OriginalName, &a.ContentType, &a.SizeBytes, &a.FileKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a notice and its attachments in one transaction.
func (s *NoticeStore) Create(ctx context.Context, n *models.Notice, attachments []models.NoticeAttachment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO notices (title, content, author_id, category, pinned)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, n.Title, n.Content, n.AuthorID, n.Category, n.Pinned).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, a := range attachments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notice_attachments (notice_id, stored_path, original_name, content_type, size_bytes, file_key)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, a.StoredPath, a.OriginalName, a.ContentType, a.SizeBytes, a.FileKey); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

func (s *NoticeStore) Update(ctx context.Context, n *models.Notice) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notices SET title = $2, content = $3, category = $4, pinned = $5 WHERE id = $1
	`, n.ID, n.Title, n.Content, n.Category, n.Pinned)
	return err
}

// Delete removes the notice; attachments cascade.
func (s *NoticeStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	return err
}

// FindAttachmentByKey resolves a download key, (nil, nil) when unknown.
func (s *NoticeStore) FindAttachmentByKey(ctx context.Context, fileKey string) (*models.NoticeAttachment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, notice_id, stored_path, original_name, content_type, size_bytes, COALESCE(file_key,''), created_at
		FROM notice_attachments
		WHERE file_key = $1
	`, fileKey)

	var a models.NoticeAttachment
	err := row.Scan(&a.ID, &a.NoticeID, &a.StoredPath, &a.OriginalName, &a.ContentType, &a.SizeBytes, &a.FileKey, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
