package domain

import "time"

type Upload struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"index;not null"`

	FileName   string `json:"file_name" gorm:"size:255;not null"`
	StoredPath string `json:"-" gorm:"size:512;not null"`
	URL        string `json:"url" gorm:"size:512;not null"`
	MimeType   string `json:"mime_type" gorm:"size:128"`
	SizeBytes  int64  `json:"size_bytes"`

	CreatedAt time.Time `json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }
