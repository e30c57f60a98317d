package entity

import (
	"time"

	"github.com/lib/pq"
)

// Book statuses. New uploads go live immediately; pending exists for catalogs
// that want a moderation step.
const (
	BookStatusActive   = "active"
	BookStatusInactive = "inactive"
	BookStatusPending  = "pending"
)

// Book is one catalog entry. CoverKey and FileKey are storage keys resolved
// by the configured file storage backend, not raw paths.
type Book struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Author        string         `gorm:"size:255;not null" json:"author"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Genre         string         `gorm:"size:100;not null;index" json:"genre"`
	Price         float64        `gorm:"not null;check:price >= 0" json:"price"`
	PublishedDate *time.Time     `gorm:"type:date" json:"published_date,omitempty"`
	ISBN          string         `gorm:"size:20" json:"isbn,omitempty"`
	Language      string         `gorm:"size:50;not null;default:'English'" json:"language"`
	Pages         int            `json:"pages,omitempty"`
	Rating        float64        `gorm:"not null;default:0" json:"rating"`
	Tags          pq.StringArray `gorm:"type:text[]" json:"tags"`
	CoverKey      string         `gorm:"size:255;not null" json:"-"`
	FileKey       string         `gorm:"size:255;not null" json:"-"`
	UploadedBy    uint           `gorm:"index" json:"uploaded_by"`
	UploadedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"uploaded_at"`
	Status        string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Downloads     int64          `gorm:"not null;default:0" json:"downloads"`
	Views         int64          `gorm:"not null;default:0" json:"views"`
}

// TableName sets the table name for GORM.
func (Book) TableName() string {
	return "books"
}
