package models

import "time"

// Notice is a board post. Author may be nil when the author was deleted.
type Notice struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  *int64    `json:"-"`
	Category  string    `json:"category"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}

// NoticeAttachment is a stored file hanging off a notice. FileKey is the
// opaque download handle; the stored path never reaches clients directly.
type NoticeAttachment struct {
	ID           int64     `json:"id"`
	NoticeID     int64     `json:"-"`
	StoredPath   string    `json:"-"`
	URL          string    `json:"url"`
	OriginalName string    `json:"name"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	FileKey      string    `json:"fileKey"`
	CreatedAt    time.Time `json:"-"`
}

// NoticeAuthor is the embedded author view on a notice detail
type NoticeAuthor struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LoginID string `json:"loginId"`
}

// NoticeDetail is the detail response: notice + author + attachments
type NoticeDetail struct {
	Notice
	Author      *NoticeAuthor      `json:"author"`
	Attachments []NoticeAttachment `json:"attachments"`
}

// NoticePage is a paginated notice listing
type NoticePage struct {
	Content       []Notice `json:"content"`
	Page          int      `json:"page"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
}
