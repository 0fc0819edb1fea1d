package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const userHeader = "X-Sharer-User-Id"

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:"},
		Booking: config.BookingConfig{
			UserHeader:      userHeader,
			DefaultPageSize: 10,
			ExportBatchSize: 100,
		},
		API: config.APIConfig{
			Auth:      config.APIAuthConfig{HeaderAPIKey: "x-api-key"},
			RateLimit: config.APIRateLimitConfig{UserWindow: time.Minute},
		},
	}
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestServices(db *database.DB) Services {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	return Services{
		Bookings: service.NewBookingService(db, bus, &logger),
		Queries:  service.NewBookingQueryService(db, &logger),
		Items:    service.NewItemService(db, &logger),
		Comments: service.NewCommentService(db, bus, &logger),
		Users:    service.NewUserService(db, &logger),
	}
}

type testEnv struct {
	db      *database.DB
	server  *HTTPServer
	handler http.Handler
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	db := newTestDB(t)
	logger := zerolog.New(io.Discard)
	srv := NewHTTPServer(cfg, newTestServices(db), db, nil, &logger)
	return &testEnv{db: db, server: srv, handler: srv.Handler()}
}

// do sends a request as userID; zero sends no user header.
func (e *testEnv) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(userHeader, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func (e *testEnv) createUser(t *testing.T, name string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": name + "@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[models.User](t, rec).ID
}

func (e *testEnv) createItem(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/items", ownerID, map[string]any{
		"name":        name,
		"description": name + " for rent",
		"available":   true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[models.Item](t, rec).ID
}

// insertBooking stores a booking directly, bypassing the not-in-the-past
// request rule.
func (e *testEnv) insertBooking(t *testing.T, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) int64 {
	t.Helper()
	b := &models.Booking{Start: start, End: end, ItemID: itemID, BookerID: bookerID, Status: status}
	require.NoError(t, e.db.CreateBooking(context.Background(), b))
	return b.ID
}
