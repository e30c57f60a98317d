package dto

import (
	"fmt"
	"time"

	"github.com/yourusername/library-api/internal/domain/entity"
)

// BookResponse is the public shape of a catalog entry. Storage keys never
// leave the API; cover and file are exposed as API URLs instead.
type BookResponse struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	Genre         string     `json:"genre"`
	Price         float64    `json:"price"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
	Language      string     `json:"language"`
	Pages         int        `json:"pages,omitempty"`
	Rating        float64    `json:"rating"`
	Tags          []string   `json:"tags"`
	CoverURL      string     `json:"cover_url"`
	DownloadURL   string     `json:"download_url"`
	UploadedBy    uint       `json:"uploaded_by"`
	UploadedAt    time.Time  `json:"uploaded_at"`
	Status        string     `json:"status"`
	Downloads     int64      `json:"downloads"`
	Views         int64      `json:"views"`
}

// NewBookResponse converts a book entity to its API shape.
func NewBookResponse(book *entity.Book) BookResponse {
	return BookResponse{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		Description:   book.Description,
		Genre:         book.Genre,
		Price:         book.Price,
		PublishedDate: book.PublishedDate,
		ISBN:          book.ISBN,
		Language:      book.Language,
		Pages:         book.Pages,
		Rating:        book.Rating,
		Tags:          book.Tags,
		CoverURL:      fmt.Sprintf("/api/books/%d/cover", book.ID),
		DownloadURL:   fmt.Sprintf("/api/books/%d/download", book.ID),
		UploadedBy:    book.UploadedBy,
		UploadedAt:    book.UploadedAt,
		Status:        book.Status,
		Downloads:     book.Downloads,
		Views:         book.Views,
	}
}

// NewBookListResponse converts a page of book entities.
func NewBookListResponse(books []entity.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, NewBookResponse(&books[i]))
	}
	return out
}
