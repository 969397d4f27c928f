package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// urlUUID parses the named URL parameter. On failure it writes a 400 naming
// label and returns false.
func urlUUID(w http.ResponseWriter, r *http.Request, key, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + label + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeStoreError maps a store error to 404 for a missing row, 409 for a
// unique violation and 500 otherwise.
func writeStoreError(w http.ResponseWriter, err error, op, notFound string) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound})
	case isUniqueViolation(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	default:
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
