package dto

import (
	"time"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

// BookCreateRequest describes the payload for cataloguing a book. At least one
// of the two circulation codes must be provided; the service enforces that.
type BookCreateRequest struct {
	Title  string  `json:"title" validate:"required,min=1,max=300"`
	Author string  `json:"author" validate:"omitempty,max=200"`
	SBIN   *string `json:"sbin" validate:"omitempty,min=1,max=100"`
	Stamp  *string `json:"stamp" validate:"omitempty,min=1,max=100"`
}

// BookUpdateRequest describes the payload for partially updating a book.
type BookUpdateRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=300"`
	Author *string `json:"author" validate:"omitempty,max=200"`
	SBIN   *string `json:"sbin" validate:"omitempty,min=1,max=100"`
	Stamp  *string `json:"stamp" validate:"omitempty,min=1,max=100"`
}

// BookResponse is the serialized representation returned to API clients.
type BookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	SBIN      *string   `json:"sbin,omitempty"`
	Stamp     *string   `json:"stamp,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBookResponse converts a model into a DTO.
func NewBookResponse(model models.Book) BookResponse {
	return BookResponse{
		ID:        model.ID,
		Title:     model.Title,
		Author:    model.Author,
		SBIN:      model.SBIN,
		Stamp:     model.Stamp,
		Available: model.Available,
		CreatedAt: model.CreatedAt,
	}
}

// NewBookResponseSlice converts a slice of models into DTOs.
func NewBookResponseSlice(books []models.Book) []BookResponse {
	responses := make([]BookResponse, 0, len(books))
	for _, book := range books {
		responses = append(responses, NewBookResponse(book))
	}

	return responses
}
