package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	return newCachingClient(t, handler, nil, 0)
}

func newCachingClient(t *testing.T, handler http.HandlerFunc, rdb *redis.Client, ttl time.Duration) (*Client, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:  server.URL + "/",
		Host:     "movie-database-alternative.p.rapidapi.com",
		Key:      "test-key",
		Logger:   logger,
		Redis:    rdb,
		CacheTTL: ttl,
	})
	return client, &calls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestSearchMovies(t *testing.T) {
	t.Run("Sends Query Parameters And Auth Headers", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "Avengers Endgame", r.URL.Query().Get("s"))
			assert.Equal(t, "json", r.URL.Query().Get("r"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			assert.Equal(t, "movie-database-alternative.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
			assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))

			writeJSON(w, http.StatusOK, map[string]any{
				"Response": "True",
				"Search": []map[string]string{
					{"imdbID": "tt4154796", "Title": "Avengers: Endgame", "Year": "2019", "Poster": "https://example.com/poster.jpg"},
				},
			})
		})

		resp, err := client.SearchMovies(context.Background(), "Avengers Endgame")
		require.NoError(t, err)
		require.Len(t, resp.Search, 1)
		assert.Equal(t, "tt4154796", resp.Search[0].ImdbID)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("Negative Response Is Not Found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
		})

		_, err := client.SearchMovies(context.Background(), "Nonexistent Movie")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("HTTP 404 Is Not Found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"Response": "False"})
		})

		_, err := client.SearchMovies(context.Background(), "Nonexistent Movie")
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.True(t, IsNotFound(err))
	})

	t.Run("HTTP 500 Is Not A Not Found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.SearchMovies(context.Background(), "Avengers")
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
	})

	t.Run("Malformed Body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		})

		_, err := client.SearchMovies(context.Background(), "Avengers")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode search response")
	})

	t.Run("Blank Query Makes No Call", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := client.SearchMovies(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrInvalidQuery)
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})
}

func TestGetMovie(t *testing.T) {
	t.Run("Sends Query Parameters", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tt4154796", r.URL.Query().Get("i"))
			assert.Equal(t, "json", r.URL.Query().Get("r"))
			assert.Equal(t, "full", r.URL.Query().Get("plot"))

			writeJSON(w, http.StatusOK, map[string]string{
				"Response": "True",
				"imdbID":   "tt4154796",
				"Title":    "Avengers: Endgame",
				"Year":     "2019",
				"Runtime":  "181 min",
				"Poster":   "https://example.com/poster.jpg",
				"Plot":     "Plot summary goes here.",
			})
		})

		movie, err := client.GetMovie(context.Background(), "tt4154796")
		require.NoError(t, err)
		assert.Equal(t, "Avengers: Endgame", movie.Title)
		assert.Equal(t, "181 min", movie.Runtime)
	})

	t.Run("Negative Response Is Not Found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Title": "ignored"})
		})

		_, err := client.GetMovie(context.Background(), "tt0000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Transport Failure", func(t *testing.T) {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		client := NewClientWithConfig(&ClientConfig{
			BaseURL: "http://127.0.0.1:1/",
			Logger:  logger,
		})

		_, err := client.GetMovie(context.Background(), "tt4154796")
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
	})

	t.Run("Blank ID", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := client.GetMovie(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidID)
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestResponseCache(t *testing.T) {
	found := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "" {
			writeJSON(w, http.StatusOK, map[string]string{"Response": "True", "imdbID": "tt4154796", "Title": "Avengers: Endgame"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"Response": "True",
			"Search":   []map[string]string{{"imdbID": "tt4154796", "Title": "Avengers: Endgame", "Year": "2019"}},
		})
	}

	t.Run("Search Hit Skips Upstream", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		client, calls := newCachingClient(t, found, rdb, time.Minute)

		first, err := client.SearchMovies(context.Background(), "avengers")
		require.NoError(t, err)
		second, err := client.SearchMovies(context.Background(), "avengers")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		assert.True(t, mr.Exists(searchCachePrefix+"avengers"))
		assert.Equal(t, time.Minute, mr.TTL(searchCachePrefix+"avengers"))
	})

	t.Run("Detail Hit Skips Upstream", func(t *testing.T) {
		_, rdb := newMiniRedis(t)
		client, calls := newCachingClient(t, found, rdb, time.Minute)

		for i := 0; i < 3; i++ {
			movie, err := client.GetMovie(context.Background(), "tt4154796")
			require.NoError(t, err)
			assert.Equal(t, "Avengers: Endgame", movie.Title)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("Negative Answers Are Not Cached", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		client, calls := newCachingClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
		}, rdb, time.Minute)

		for i := 0; i < 2; i++ {
			_, err := client.SearchMovies(context.Background(), "zzzz")
			assert.ErrorIs(t, err, ErrNotFound)
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		assert.Empty(t, mr.Keys())
	})

	t.Run("Status Errors Are Not Cached", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		client, _ := newCachingClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, rdb, time.Minute)

		_, err := client.GetMovie(context.Background(), "tt4154796")
		require.Error(t, err)
		assert.Empty(t, mr.Keys())
	})

	t.Run("Zero TTL Bypasses Cache", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		client, calls := newCachingClient(t, found, rdb, 0)

		for i := 0; i < 2; i++ {
			_, err := client.SearchMovies(context.Background(), "avengers")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		assert.Empty(t, mr.Keys())
	})

	t.Run("Corrupt Entry Falls Back To Upstream", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		client, calls := newCachingClient(t, found, rdb, time.Minute)
		require.NoError(t, mr.Set(detailsCachePrefix+"tt4154796", "{broken"))

		movie, err := client.GetMovie(context.Background(), "tt4154796")
		require.NoError(t, err)
		assert.Equal(t, "tt4154796", movie.ImdbID)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})
}
