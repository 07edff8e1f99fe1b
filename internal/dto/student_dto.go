package dto

import (
	"time"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	AdmissionNumber string `json:"admission_number" validate:"required,len=6"`
	ClassName       string `json:"class_name" validate:"omitempty,max=50"`
	Section         string `json:"section" validate:"omitempty,max=50"`
	Contact         string `json:"contact" validate:"omitempty,max=100"`
}

// StudentUpdateRequest describes the payload for partially updating a student.
type StudentUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=200"`
	AdmissionNumber *string `json:"admission_number" validate:"omitempty,len=6"`
	ClassName       *string `json:"class_name" validate:"omitempty,max=50"`
	Section         *string `json:"section" validate:"omitempty,max=50"`
	Contact         *string `json:"contact" validate:"omitempty,max=100"`
}

// StudentResponse is the serialized representation returned to API clients.
type StudentResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AdmissionNumber string    `json:"admission_number"`
	ClassName       string    `json:"class_name,omitempty"`
	Section         string    `json:"section,omitempty"`
	Contact         string    `json:"contact,omitempty"`
	Warnings        int       `json:"warnings"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:              model.ID,
		Name:            model.Name,
		AdmissionNumber: model.AdmissionNumber,
		ClassName:       model.ClassName,
		Section:         model.Section,
		Contact:         model.Contact,
		Warnings:        model.Warnings,
		CreatedAt:       model.CreatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}
