package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewDesk/internal/config"
	"ReviewDesk/internal/infrastructure/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBuildRegistryFollowsConfigOrder(t *testing.T) {
	t.Parallel()

	client := provider.NewClient("http://backend.invalid", "", time.Second)
	registry, err := BuildRegistry([]config.SourceConfig{
		{Name: "webinars"},
		{Name: "abstracts"},
		{Name: "careers", Disabled: true},
		{Name: "nonexistent"},
	}, client, nil)
	require.NoError(t, err)

	var names []string
	for _, a := range registry.Adapters() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"webinars", "abstracts"}, names)
}

func TestBuildRegistryRejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	client := provider.NewClient("http://backend.invalid", "", time.Second)

	_, err := BuildRegistry([]config.SourceConfig{{Name: "abstracts"}, {Name: "abstracts"}}, client, nil)
	assert.Error(t, err)

	_, err = BuildRegistry([]config.SourceConfig{{Name: "abstracts", Disabled: true}}, client, nil)
	assert.Error(t, err)
}

func TestOpenStoreValidatesDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	_, _, err := openStore(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown store driver")

	cfg.Store.Driver = config.StorePostgres
	_, _, err = openStore(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "requires a dsn")
}

func TestNewServesHealthAndFeed(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/abstracts":
			_, _ = w.Write([]byte(`[{"id":1,"title":"Soil carbon","submitted_at":"2024-05-01T10:00:00Z"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer backend.Close()

	cfg := config.Config{
		Backend: config.BackendConfig{BaseURL: backend.URL, Timeout: time.Second},
		Store:   config.StoreConfig{Driver: config.StoreREST},
		Feed:    config.FeedConfig{Limit: 10, SourceTimeout: time.Second},
		Sources: []config.SourceConfig{{Name: "abstracts"}},
	}
	application, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	h := application.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"abstracts-1"`)
}
