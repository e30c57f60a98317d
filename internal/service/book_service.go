package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/yourusername/library-api/internal/domain/entity"
	"github.com/yourusername/library-api/internal/domain/repository"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
	"github.com/yourusername/library-api/internal/storage"
)

// UploadFile is an uploaded multipart file handed down from the handler.
type UploadFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// BookUploadInput carries the metadata for a new book.
type BookUploadInput struct {
	Title         string
	Author        string
	Description   string
	Genre         string
	Price         float64
	PublishedDate *time.Time
	ISBN          string
	Language      string
	Pages         int
	Rating        float64
	Tags          []string
	UploadedBy    uint
}

// Pagination describes one page of a listed collection.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalBooks  int64 `json:"totalBooks"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// BookService manages the catalog: uploads, listing, downloads.
type BookService struct {
	bookRepo repository.BookRepository
	storage  storage.FileStorage
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, fileStorage storage.FileStorage) *BookService {
	return &BookService{
		bookRepo: bookRepo,
		storage:  fileStorage,
	}
}

// Upload stores the cover and book files, then the catalog record. If the
// record fails to persist the stored files are removed again.
func (s *BookService) Upload(ctx context.Context, input BookUploadInput, cover, file UploadFile) (*entity.Book, error) {
	if input.Title == "" || input.Author == "" {
		return nil, fmt.Errorf("%w: title and author are required", apperrors.ErrValidation)
	}
	if cover.Reader == nil || file.Reader == nil {
		return nil, fmt.Errorf("%w: cover image and book file are required", apperrors.ErrValidation)
	}

	coverKey, err := s.storage.Save(ctx, storage.KindCover, cover.Name, cover.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to store cover: %w", err)
	}
	fileKey, err := s.storage.Save(ctx, storage.KindBook, file.Name, file.Reader)
	if err != nil {
		s.cleanup(ctx, coverKey)
		return nil, fmt.Errorf("failed to store book file: %w", err)
	}

	language := input.Language
	if language == "" {
		language = "English"
	}

	book := &entity.Book{
		Title:         input.Title,
		Author:        input.Author,
		Description:   input.Description,
		Genre:         input.Genre,
		Price:         input.Price,
		PublishedDate: input.PublishedDate,
		ISBN:          input.ISBN,
		Language:      language,
		Pages:         input.Pages,
		Rating:        input.Rating,
		Tags:          pq.StringArray(input.Tags),
		CoverKey:      coverKey,
		FileKey:       fileKey,
		UploadedBy:    input.UploadedBy,
		UploadedAt:    time.Now(),
		Status:        entity.BookStatusActive,
	}
	if err := s.bookRepo.Create(book); err != nil {
		s.cleanup(ctx, coverKey, fileKey)
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	log.Printf("[BookService] book uploaded: id=%d title=%q", book.ID, book.Title)
	return book, nil
}

// List returns one page of active books with pagination metadata.
func (s *BookService) List(params repository.BookListParams) ([]entity.Book, Pagination, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 12
	}

	books, total, err := s.bookRepo.List(params)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	page := Pagination{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		TotalBooks:  total,
		HasNext:     params.Page < totalPages,
		HasPrev:     params.Page > 1,
	}
	return books, page, nil
}

// GetByID returns a single book and counts the view. A failed counter bump
// does not fail the read.
func (s *BookService) GetByID(ctx context.Context, id uint) (*entity.Book, error) {
	book, err := s.bookRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.bookRepo.IncrementViews(id); err != nil {
		log.Printf("[BookService] failed to count view for book %d: %v", id, err)
	} else {
		book.Views++
	}
	return book, nil
}

// Download resolves the book file for delivery and counts the download.
func (s *BookService) Download(ctx context.Context, id uint) (*entity.Book, storage.Location, error) {
	book, err := s.bookRepo.GetByID(id)
	if err != nil {
		return nil, storage.Location{}, err
	}

	location, err := s.storage.Resolve(ctx, book.FileKey)
	if err != nil {
		return nil, storage.Location{}, err
	}

	if err := s.bookRepo.IncrementDownloads(id); err != nil {
		log.Printf("[BookService] failed to count download for book %d: %v", id, err)
	}
	return book, location, nil
}

// ResolveCover resolves a book's cover image for delivery.
func (s *BookService) ResolveCover(ctx context.Context, id uint) (storage.Location, error) {
	book, err := s.bookRepo.GetByID(id)
	if err != nil {
		return storage.Location{}, err
	}
	return s.storage.Resolve(ctx, book.CoverKey)
}

// ListAll returns the full catalog regardless of status, for exports.
func (s *BookService) ListAll() ([]entity.Book, error) {
	return s.bookRepo.ListAll()
}

func (s *BookService) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Printf("[BookService] failed to remove orphaned file %s: %v", key, err)
		}
	}
}
