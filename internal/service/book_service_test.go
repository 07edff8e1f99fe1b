package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/models"
)

func newBookService(t *testing.T, books *memoryBookRepo, borrows *memoryBorrowRepo) BookService {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewBookService(books, borrows, validate, nil, time.Minute, testLogger())
}

func TestBookServiceCreateRequiresCirculationCode(t *testing.T) {
	svc := newBookService(t, newMemoryBookRepo(), newMemoryBorrowRepo())

	_, err := svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike"})
	require.ErrorIs(t, err, ErrBookCodeRequired)

	// Whitespace-only codes do not count.
	blank := "   "
	_, err = svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &blank})
	require.ErrorIs(t, err, ErrBookCodeRequired)

	stamp := "ST-77"
	created, err := svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", Stamp: &stamp})
	require.NoError(t, err)
	require.True(t, created.Available)
	require.Nil(t, created.SBIN)
	require.NotNil(t, created.Stamp)
}

func TestBookServiceCreateRejectsDuplicateCode(t *testing.T) {
	svc := newBookService(t, newMemoryBookRepo(), newMemoryBorrowRepo())

	sbin := "SB-100"
	_, err := svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.BookCreateRequest{Title: "Another", Author: "Thompson", SBIN: &sbin})
	require.ErrorIs(t, err, ErrDuplicateBookCode)
}

func TestBookServiceGetByCodeMatchesEitherCode(t *testing.T) {
	svc := newBookService(t, newMemoryBookRepo(), newMemoryBorrowRepo())

	sbin := "SB-100"
	stamp := "ST-77"
	created, err := svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin, Stamp: &stamp})
	require.NoError(t, err)

	bySBIN, err := svc.GetByCode(context.Background(), "SB-100")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySBIN.ID)

	byStamp, err := svc.GetByCode(context.Background(), "ST-77")
	require.NoError(t, err)
	require.Equal(t, created.ID, byStamp.ID)

	_, err = svc.GetByCode(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookServiceDeleteBlockedWhileOnLoan(t *testing.T) {
	books := newMemoryBookRepo()
	borrows := newMemoryBorrowRepo()
	svc := newBookService(t, books, borrows)

	sbin := "SB-100"
	created, err := svc.Create(context.Background(), dto.BookCreateRequest{Title: "Gopher Tales", Author: "Pike", SBIN: &sbin})
	require.NoError(t, err)

	borrow := models.Borrow{StudentID: "s1", BookID: created.ID, BorrowDate: time.Now()}
	require.NoError(t, borrows.Create(context.Background(), &borrow))

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrBookOnLoan)

	_, err = borrows.MarkReturned(context.Background(), borrow.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrBookNotFound)
}
