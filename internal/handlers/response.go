// Package handlers implements the HTTP API on top of the domain services.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/inventory"
	"github.com/ukydev/autoserve/internal/jobcard"
	"github.com/ukydev/autoserve/internal/middleware"
	"github.com/ukydev/autoserve/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// claimsFrom returns the authenticated caller or writes a 401.
func claimsFrom(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token")
		return nil, false
	}
	return claims, true
}

// writeServiceError maps a service error to a status code. notFound is the message
// used for db.ErrNotFound; failure is the message of a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound, failure string) {
	var (
		jobErr *jobcard.ValidationError
		invErr *inventory.ValidationError
	)
	switch {
	case errors.As(err, &jobErr):
		writeMsg(w, http.StatusBadRequest, jobErr.Msg)
	case errors.As(err, &invErr):
		writeMsg(w, http.StatusBadRequest, invErr.Msg)
	case errors.Is(err, db.ErrNotFound), errors.Is(err, inventory.ErrPartNotFound):
		writeMsg(w, http.StatusNotFound, notFound)
	case errors.Is(err, db.ErrInvalidID):
		writeMsg(w, http.StatusBadRequest, "Invalid ID")
	case errors.Is(err, db.ErrVersionConflict):
		writeMsg(w, http.StatusConflict, "Job card was modified concurrently")
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(failure)
		writeMsg(w, http.StatusInternalServerError, failure)
	}
}
