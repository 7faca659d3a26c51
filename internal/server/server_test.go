package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moviemark/internal/config"
	"moviemark/internal/models"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct{}

func (fakeService) SearchMovies(ctx context.Context, query string) (*models.UpstreamSearchResponse, error) {
	return &models.UpstreamSearchResponse{
		Response: "True",
		Search:   []models.UpstreamItem{{ImdbID: "tt4154796", Title: "Avengers: Endgame", Year: "2019"}},
	}, nil
}

func (fakeService) GetMovie(ctx context.Context, id string) (*models.UpstreamMovie, error) {
	return &models.UpstreamMovie{Response: "True", ImdbID: id, Title: "Avengers: Endgame"}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	h := NewHandler(fakeService{}, config.Server{Port: "0"}, quietLogger())

	t.Run("Search", func(t *testing.T) {
		rec := get(h, "/api/search?query=avengers")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})

	t.Run("Detail", func(t *testing.T) {
		rec := get(h, "/api/movie/tt4154796")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"imdbID":"tt4154796"`)
	})

	t.Run("Detail Without ID", func(t *testing.T) {
		rec := get(h, "/api/movie/")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid movie ID"}`, rec.Body.String())
	})

	t.Run("Health", func(t *testing.T) {
		rec := get(h, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Unknown Path", func(t *testing.T) {
		rec := get(h, "/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
	})

	t.Run("Request ID Is Echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	router := NewRouter()
	router.Use(Recovery(quietLogger()))
	router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := get(router, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestPanicIsLoggedAsRequest(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	router := NewRouter()
	router.Use(RequestLogger(log), Recovery(log))
	router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := get(router, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var logged *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Request handled" {
			logged = entry
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, http.StatusInternalServerError, logged.Data["status"])
	assert.NotEmpty(t, logged.Data["request_id"])
}

func TestRecoveryAfterHeadersSent(t *testing.T) {
	router := NewRouter()
	router.Use(Recovery(quietLogger()))
	router.Handle(http.MethodGet, "/partial", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("partial"))
		panic("late")
	}))

	rec := get(router, "/partial")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestDefaultStackHasNoLimiter(t *testing.T) {
	h := NewHandler(fakeService{}, config.Server{Port: "0", RateBurst: 1}, quietLogger())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("Rejects Past Burst", func(t *testing.T) {
		router := NewRouter()
		router.Use(RateLimit(0.001, 1))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		assert.Equal(t, http.StatusNoContent, get(router, "/ping").Code)
		rec := get(router, "/ping")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	})

	t.Run("Disabled", func(t *testing.T) {
		router := NewRouter()
		router.Use(RateLimit(0, 0))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusNoContent, get(router, "/ping").Code)
		}
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(fakeService{}, config.Server{Port: "0"}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
