package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/library-api/internal/domain/repository"
	"github.com/yourusername/library-api/internal/handler/dto"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
	"github.com/yourusername/library-api/internal/service"
)

// maxUploadSize caps a single multipart upload (cover plus book file).
const maxUploadSize = 50 << 20

// BookHandler handles catalog requests.
type BookHandler struct {
	bookService *service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// Upload handles POST /api/books. Metadata arrives as multipart form fields
// next to the "cover" and "file" parts.
func (h *BookHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(c, http.StatusBadRequest, "Upload too large or malformed")
		return
	}

	coverHeader, err := c.FormFile("cover")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Cover image is required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Book file is required")
		return
	}

	coverType := coverHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(coverType, "image/") {
		respondError(c, http.StatusBadRequest, "Cover must be an image")
		return
	}
	fileType := fileHeader.Header.Get("Content-Type")
	if fileType != "application/pdf" && fileType != "application/epub+zip" {
		respondError(c, http.StatusBadRequest, "Book file must be a PDF or EPUB")
		return
	}

	input, err := parseBookForm(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if userID, exists := c.Get("userID"); exists {
		input.UploadedBy = userID.(uint)
	}

	cover, err := coverHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read cover image")
		return
	}
	defer cover.Close()
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read book file")
		return
	}
	defer file.Close()

	book, err := h.bookService.Upload(c.Request.Context(), input,
		service.UploadFile{Name: coverHeader.Filename, ContentType: coverType, Reader: cover},
		service.UploadFile{Name: fileHeader.Filename, ContentType: fileType, Reader: file},
	)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			respondError(c, http.StatusBadRequest, "Title and author are required")
			return
		}
		log.Printf("[BookHandler] upload failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to upload book")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Book uploaded successfully",
		"book":    dto.NewBookResponse(book),
	})
}

// List handles GET /api/books with page, limit, genre and search query params.
func (h *BookHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	books, pagination, err := h.bookService.List(repository.BookListParams{
		Page:   page,
		Limit:  limit,
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
	})
	if err != nil {
		log.Printf("[BookHandler] list failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to load books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"books":      dto.NewBookListResponse(books),
		"pagination": pagination,
	})
}

// Get handles GET /api/books/:id.
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.bookService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Book not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to load book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "book": dto.NewBookResponse(book)})
}

// Download handles GET /api/books/:id/download. Local files stream directly;
// remote objects redirect to a presigned link.
func (h *BookHandler) Download(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, location, err := h.bookService.Download(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("[BookHandler] download failed for book %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Failed to download book")
		return
	}

	if location.URL != "" {
		c.Redirect(http.StatusTemporaryRedirect, location.URL)
		return
	}
	c.FileAttachment(location.Path, sanitizeFilename(book.Title)+".pdf")
}

// Cover handles GET /api/books/:id/cover.
func (h *BookHandler) Cover(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	location, err := h.bookService.ResolveCover(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Cover not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to load cover")
		return
	}

	if location.URL != "" {
		c.Redirect(http.StatusTemporaryRedirect, location.URL)
		return
	}
	c.File(location.Path)
}

// ExportXLSX handles GET /api/books/export. The whole catalog goes out as a
// spreadsheet via a stream writer.
func (h *BookHandler) ExportXLSX(c *gin.Context) {
	books, err := h.bookService.ListAll()
	if err != nil {
		log.Printf("[BookHandler] export failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to export catalog")
		return
	}

	filename := fmt.Sprintf("catalog_%s", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Catalog"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[BookHandler] failed to create stream writer: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to create export file")
		return
	}

	headers := []interface{}{"ID", "Title", "Author", "Genre", "Language", "Price", "Rating", "Status", "Views", "Downloads", "Uploaded"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[BookHandler] failed to write export headers: %v", err)
	}

	for i, b := range books {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			b.ID,
			sanitizeForExcel(b.Title),
			sanitizeForExcel(b.Author),
			sanitizeForExcel(b.Genre),
			b.Language,
			b.Price,
			b.Rating,
			b.Status,
			b.Views,
			b.Downloads,
			b.UploadedAt.Format("2006-01-02"),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[BookHandler] failed to write export row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[BookHandler] failed to flush export: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[BookHandler] failed to write export response: %v", err)
	}
}

func parseBookID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid book ID")
		return 0, false
	}
	return uint(id), true
}

func parseBookForm(c *gin.Context) (service.BookUploadInput, error) {
	input := service.BookUploadInput{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Author:      strings.TrimSpace(c.PostForm("author")),
		Description: c.PostForm("description"),
		Genre:       c.PostForm("genre"),
		ISBN:        c.PostForm("isbn"),
		Language:    c.PostForm("language"),
	}
	if input.Title == "" || input.Author == "" {
		return input, errors.New("Title and author are required")
	}

	if v := c.PostForm("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return input, errors.New("Price must be a non-negative number")
		}
		input.Price = price
	}
	if v := c.PostForm("pages"); v != "" {
		pages, err := strconv.Atoi(v)
		if err != nil || pages < 0 {
			return input, errors.New("Pages must be a non-negative number")
		}
		input.Pages = pages
	}
	if v := c.PostForm("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 5 {
			return input, errors.New("Rating must be between 0 and 5")
		}
		input.Rating = rating
	}
	if v := c.PostForm("publishedDate"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			return input, errors.New("Published date must be YYYY-MM-DD")
		}
		input.PublishedDate = &date
	}
	if v := c.PostForm("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				input.Tags = append(input.Tags, tag)
			}
		}
	}
	return input, nil
}

func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		s = "book"
	}
	return s
}

// sanitizeForExcel guards exported cells against formula injection.
func sanitizeForExcel(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
