package repository

import "github.com/yourusername/library-api/internal/domain/entity"

// BookListParams are the supported catalog filters.
type BookListParams struct {
	Page   int
	Limit  int
	Genre  string // empty or "all" means no genre filter
	Search string // case-insensitive match over title/author/description
}

// BookRepository defines methods for working with the book catalog.
type BookRepository interface {
	Create(book *entity.Book) error
	GetByID(id uint) (*entity.Book, error)

	// List returns active books matching params, newest first, plus the
	// total count for pagination.
	List(params BookListParams) ([]entity.Book, int64, error)

	// ListAll returns every book regardless of status (admin export).
	ListAll() ([]entity.Book, error)

	IncrementViews(id uint) error
	IncrementDownloads(id uint) error
}
