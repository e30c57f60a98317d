package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/library-api/internal/domain/entity"
	"github.com/yourusername/library-api/internal/domain/repository"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

// BookRepo implements repository.BookRepository on PostgreSQL.
type BookRepo struct {
	db *gorm.DB
}

// NewBookRepo creates a new book repository.
func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db: db}
}

// Create inserts a new book record.
func (r *BookRepo) Create(book *entity.Book) error {
	return r.db.Create(book).Error
}

// GetByID returns the book with the given ID.
func (r *BookRepo) GetByID(id uint) (*entity.Book, error) {
	var book entity.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// List returns active books matching params plus the total count. Count and
// page run inside one transaction so pagination totals stay consistent.
func (r *BookRepo) List(params repository.BookListParams) ([]entity.Book, int64, error) {
	var books []entity.Book
	var total int64

	tx := r.db.Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	query := tx.Model(&entity.Book{}).Where("status = ?", entity.BookStatusActive)
	if params.Genre != "" && params.Genre != "all" {
		query = query.Where("genre = ?", params.Genre)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where(
			"title ILIKE ? OR author ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		tx.Rollback()
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	err := query.Order("uploaded_at DESC, id DESC").
		Limit(params.Limit).
		Offset(offset).
		Find(&books).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// ListAll returns every book regardless of status, newest first.
func (r *BookRepo) ListAll() ([]entity.Book, error) {
	var books []entity.Book
	err := r.db.Order("uploaded_at DESC, id DESC").Find(&books).Error
	return books, err
}

// IncrementViews bumps the view counter atomically in SQL.
func (r *BookRepo) IncrementViews(id uint) error {
	return r.db.Model(&entity.Book{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).
		Error
}

// IncrementDownloads bumps the download counter atomically in SQL.
func (r *BookRepo) IncrementDownloads(id uint) error {
	return r.db.Model(&entity.Book{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", 1)).
		Error
}
