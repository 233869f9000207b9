package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", InsufficientStock("Remera", 2))

	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidRequest:    http.StatusBadRequest,
		KindInsufficientStock: http.StatusBadRequest,
		KindEmptyCart:         http.StatusBadRequest,
		KindDuplicateKey:      http.StatusBadRequest,
		KindNotFound:          http.StatusNotFound,
		KindUnauthorized:      http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), string(kind))
	}
}

func TestInsufficientStock_Details(t *testing.T) {
	err := InsufficientStock("Short running", 3)

	assert.Equal(t, 3, err.Details["stock_disponible"])
	assert.Equal(t, "Short running", err.Details["producto"])
	assert.Contains(t, err.Error(), "Short running")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: products.slug (2067)")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil, "x", "y"))
	assert.Equal(t, KindNotFound, KindOf(FromDB(gorm.ErrRecordNotFound, "Producto no encontrado", "slug")))
	assert.Equal(t, KindDuplicateKey, KindOf(FromDB(&pgconn.PgError{Code: "23505"}, "", "sku")))

	other := errors.New("connection reset")
	assert.Equal(t, other, FromDB(other, "", ""))
}
