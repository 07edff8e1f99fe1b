package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/biblioflow/biblioflow-api/internal/config"
	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/handler"
	"github.com/biblioflow/biblioflow-api/internal/models"
	"github.com/biblioflow/biblioflow-api/internal/repository"
	"github.com/biblioflow/biblioflow-api/internal/router"
	"github.com/biblioflow/biblioflow-api/internal/service"
)

func setupCirculationApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Book{}, &models.Borrow{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	studentRepo := repository.NewGormStudentRepository(db)
	bookRepo := repository.NewGormBookRepository(db)
	borrowRepo := repository.NewGormBorrowRepository(db)

	ledgerService := service.NewLedgerService(studentRepo, bookRepo, borrowRepo, validate, nil, logger)
	studentService := service.NewStudentService(studentRepo, borrowRepo, validate, nil, time.Minute, logger)
	bookService := service.NewBookService(bookRepo, borrowRepo, validate, nil, time.Minute, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		StudentHandler: handler.NewStudentHandler(studentService, logger),
		BookHandler:    handler.NewBookHandler(bookService, logger),
		LedgerHandler:  handler.NewLedgerHandler(ledgerService, logger),
	})

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func TestCirculationFlow(t *testing.T) {
	app := setupCirculationApp(t)

	resp := postJSON(t, app, "/api/students", dto.StudentCreateRequest{Name: "Asha Rao", AdmissionNumber: "ABC123"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var studentResp struct {
		Success bool                `json:"success"`
		Data    dto.StudentResponse `json:"data"`
	}
	decodeResponse(t, resp, &studentResp)
	require.True(t, studentResp.Success)
	require.NotEmpty(t, studentResp.Data.ID)

	sbin := "S1"
	resp = postJSON(t, app, "/api/books", dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var bookResp struct {
		Data dto.BookResponse `json:"data"`
	}
	decodeResponse(t, resp, &bookResp)
	require.True(t, bookResp.Data.Available)

	// Checkout succeeds and stamps a due date one week out.
	resp = postJSON(t, app, "/api/borrow", dto.BorrowRequest{StudentID: studentResp.Data.ID, BookCode: "S1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var borrowResp struct {
		Data dto.BorrowResponse `json:"data"`
	}
	decodeResponse(t, resp, &borrowResp)
	require.Equal(t, borrowResp.Data.BorrowDate.Add(models.LoanPeriod), borrowResp.Data.DueDate)

	// Second checkout of the same copy is rejected.
	resp = postJSON(t, app, "/api/borrow", dto.BorrowRequest{StudentID: studentResp.Data.ID, BookCode: "S1"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var conflictResp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &conflictResp)
	require.False(t, conflictResp.Success)
	require.Equal(t, "Book is not available", conflictResp.Message)

	// The book cannot be deleted while checked out.
	deleteReq := httptest.NewRequest(http.MethodDelete, "/api/books/"+bookResp.Data.ID, nil)
	deleteResp, err := app.Test(deleteReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, deleteResp.StatusCode)
	require.NoError(t, deleteResp.Body.Close())

	// Neither can the student.
	deleteReq = httptest.NewRequest(http.MethodDelete, "/api/students/"+studentResp.Data.ID, nil)
	deleteResp, err = app.Test(deleteReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, deleteResp.StatusCode)
	require.NoError(t, deleteResp.Body.Close())

	resp = postJSON(t, app, "/api/return", dto.ReturnRequest{BookCode: "S1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var returnResp struct {
		Data dto.BorrowResponse `json:"data"`
	}
	decodeResponse(t, resp, &returnResp)
	require.True(t, returnResp.Data.Returned)
	require.NotNil(t, returnResp.Data.ReturnDate)

	// Returning again is rejected: no open borrow remains.
	resp = postJSON(t, app, "/api/return", dto.ReturnRequest{BookCode: "S1"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decodeResponse(t, resp, &conflictResp)
	require.Equal(t, "No active borrow for this book", conflictResp.Message)

	// Closed loans only show up when history is requested explicitly.
	listReq := httptest.NewRequest(http.MethodGet, "/api/borrows?active=false", nil)
	listResp, err := app.Test(listReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var historyResp struct {
		Data []dto.BorrowResponse `json:"data"`
	}
	decodeResponse(t, listResp, &historyResp)
	require.Len(t, historyResp.Data, 1)
	require.True(t, historyResp.Data[0].Returned)
}

func TestListBorrowsDefaultsToOpenLoans(t *testing.T) {
	app := setupCirculationApp(t)

	resp := postJSON(t, app, "/api/students", dto.StudentCreateRequest{Name: "Asha Rao", AdmissionNumber: "JKL012"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var studentResp struct {
		Data dto.StudentResponse `json:"data"`
	}
	decodeResponse(t, resp, &studentResp)

	sbin := "S3"
	resp = postJSON(t, app, "/api/books", dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = postJSON(t, app, "/api/borrow", dto.BorrowRequest{StudentID: studentResp.Data.ID, BookCode: "S3"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = postJSON(t, app, "/api/return", dto.ReturnRequest{BookCode: "S3"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// With nothing checked out, the bare listing is empty.
	listReq := httptest.NewRequest(http.MethodGet, "/api/borrows", nil)
	listResp, err := app.Test(listReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var openResp struct {
		Data []dto.BorrowResponse `json:"data"`
	}
	decodeResponse(t, listResp, &openResp)
	require.Empty(t, openResp.Data)

	listReq = httptest.NewRequest(http.MethodGet, "/api/borrows?active=false", nil)
	listResp, err = app.Test(listReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var historyResp struct {
		Data []dto.BorrowResponse `json:"data"`
	}
	decodeResponse(t, listResp, &historyResp)
	require.Len(t, historyResp.Data, 1)
	require.True(t, historyResp.Data[0].Returned)
}

func TestCirculationUnknownRecords(t *testing.T) {
	app := setupCirculationApp(t)

	resp := postJSON(t, app, "/api/students", dto.StudentCreateRequest{Name: "Asha Rao", AdmissionNumber: "DEF456"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var studentResp struct {
		Data dto.StudentResponse `json:"data"`
	}
	decodeResponse(t, resp, &studentResp)

	resp = postJSON(t, app, "/api/borrow", dto.BorrowRequest{StudentID: "missing", BookCode: "S1"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var errResp struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &errResp)
	require.Equal(t, "Student not found", errResp.Message)

	resp = postJSON(t, app, "/api/borrow", dto.BorrowRequest{StudentID: studentResp.Data.ID, BookCode: "missing"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	decodeResponse(t, resp, &errResp)
	require.Equal(t, "Book not found", errResp.Message)
}

func TestCirculationDuplicateRegistrations(t *testing.T) {
	app := setupCirculationApp(t)

	resp := postJSON(t, app, "/api/students", dto.StudentCreateRequest{Name: "Asha Rao", AdmissionNumber: "GHI789"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = postJSON(t, app, "/api/students", dto.StudentCreateRequest{Name: "Bala Iyer", AdmissionNumber: "GHI789"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &errResp)
	require.Equal(t, "Admission number already exists", errResp.Message)

	sbin := "S2"
	resp = postJSON(t, app, "/api/books", dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = postJSON(t, app, "/api/books", dto.BookCreateRequest{Title: "Another Copy", Author: "Pike", SBIN: &sbin})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decodeResponse(t, resp, &errResp)
	require.Equal(t, "Duplicate SBIN or Stamp code", errResp.Message)

	resp = postJSON(t, app, "/api/books", dto.BookCreateRequest{Title: "No Codes", Author: "Pike"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decodeResponse(t, resp, &errResp)
	require.Equal(t, "Provide at least SBIN or Stamp code", errResp.Message)
}
