package handlers

import (
	"context"
	"net/http"
	"strings"

	"moviemark/internal/models"
	"moviemark/internal/services"

	"github.com/sirupsen/logrus"
)

// MovieService is the upstream lookup the proxy handlers depend on.
type MovieService interface {
	SearchMovies(ctx context.Context, query string) (*models.UpstreamSearchResponse, error)
	GetMovie(ctx context.Context, id string) (*models.UpstreamMovie, error)
}

// SearchHandler serves GET /api/search?query=<text>.
//
// The query must be present exactly once and non-blank, otherwise the
// handler answers 400 without calling upstream.
func SearchHandler(svc MovieService, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, ok := r.URL.Query()["query"]
		if !ok || len(values) != 1 || strings.TrimSpace(values[0]) == "" {
			WriteError(w, http.StatusBadRequest, msgInvalidQuery)
			return
		}
		query := values[0]

		resp, err := svc.SearchMovies(r.Context(), query)
		if err != nil {
			writeUpstreamError(w, log.WithField("query", query), err)
			return
		}

		WriteJSON(w, http.StatusOK, models.NewSearchResults(resp.Search))
	}
}

// MovieHandler serves GET /api/movie/{id}.
func MovieHandler(svc MovieService, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if strings.TrimSpace(id) == "" {
			WriteError(w, http.StatusBadRequest, msgInvalidID)
			return
		}

		movie, err := svc.GetMovie(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, log.WithField("imdb_id", id), err)
			return
		}

		WriteJSON(w, http.StatusOK, models.NewMovieDetail(*movie))
	}
}

// HealthHandler reports that the process is serving.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeUpstreamError(w http.ResponseWriter, entry *logrus.Entry, err error) {
	if services.IsNotFound(err) {
		entry.WithError(err).Info("Movie not found upstream")
		WriteError(w, http.StatusNotFound, msgNotFound)
		return
	}

	entry.WithError(err).Error("Upstream lookup failed")
	WriteError(w, http.StatusInternalServerError, msgInternal)
}
