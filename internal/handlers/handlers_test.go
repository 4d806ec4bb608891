package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onemama/telehealth-ussd/internal/models"
	"github.com/onemama/telehealth-ussd/internal/services"
	"github.com/onemama/telehealth-ussd/internal/storage"
)

func newTestApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(5 * time.Minute)
	svc := services.NewUSSDService(store, services.NewMenuEngine(services.NewStaticDirectory()))

	app := fiber.New()
	ussd := NewUSSDHandler(svc)
	debug := NewSessionDebugHandler(store)
	app.Post("/api/ussd/session", ussd.HandleSession)
	app.Get("/api/ussd/sessions", debug.ListSessions)
	app.Get("/api/ussd/sessions/:id", debug.GetSession)
	app.Delete("/api/ussd/sessions/:id", debug.DeleteSession)
	return app, store
}

func postJSON(t *testing.T, app *fiber.App, body string) (*http.Response, models.USSDResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ussd/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out models.USSDResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHandleSession_JSON(t *testing.T) {
	app, store := newTestApp(t)

	resp, out := postJSON(t, app, `{"sessionId":"ATUid_1","phoneNumber":"+23276000001","text":"","serviceCode":"*384*123#"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(out.Response, "CON Welcome to TeleHealth Platform"))

	resp, out = postJSON(t, app, `{"sessionId":"ATUid_1","phoneNumber":"+23276000001","text":"3"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(out.Response, "END Emergency Contacts"))

	_, err := store.Get("ATUid_1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestHandleSession_Form(t *testing.T) {
	app, store := newTestApp(t)

	form := url.Values{}
	form.Set("sessionId", "ATUid_2")
	form.Set("phoneNumber", "+23276000002")
	form.Set("text", "")
	form.Set("serviceCode", "*384*123#")

	req := httptest.NewRequest(http.MethodPost, "/api/ussd/session", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.Header.Set("Accept", fiber.MIMETextPlain)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "CON Welcome to TeleHealth Platform"))

	s, err := store.Get("ATUid_2")
	require.NoError(t, err)
	assert.Equal(t, models.StepMainMenu, s.Step)
}

func TestHandleSession_MissingFields(t *testing.T) {
	app, store := newTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing phone", body: `{"sessionId":"ATUid_1","text":""}`},
		{name: "missing session", body: `{"phoneNumber":"+23276000001","text":""}`},
		{name: "malformed json", body: `{"sessionId":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postJSON(t, app, tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "END Invalid request. Missing sessionId or phoneNumber.", out.Response)
			assert.Equal(t, "Missing required parameters", out.Message)
		})
	}

	sessions, err := store.ListAll()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

type errDirectory struct{}

func (errDirectory) Appointments(context.Context, string) ([]models.Appointment, error) {
	return nil, errors.New("appointments service unavailable")
}

func (errDirectory) HealthTopics(context.Context) ([]models.HealthTopic, error) {
	return nil, errors.New("content service unavailable")
}

func TestHandleSession_InternalError(t *testing.T) {
	store := storage.NewMemoryStore(5 * time.Minute)
	svc := services.NewUSSDService(store, services.NewMenuEngine(errDirectory{}))
	app := fiber.New()
	app.Post("/api/ussd/session", NewUSSDHandler(svc).HandleSession)

	_, _ = postJSON(t, app, `{"sessionId":"s","phoneNumber":"+1","text":""}`)
	resp, out := postJSON(t, app, `{"sessionId":"s","phoneNumber":"+1","text":"2"}`)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "CON An error occurred. Please try again.\n\n1. Retry\n0. Exit", out.Response)
	assert.Contains(t, out.Error, "content service unavailable")
}

func TestSessionDebugRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	postJSON(t, app, `{"sessionId":"a","phoneNumber":"+1","text":""}`)
	postJSON(t, app, `{"sessionId":"b","phoneNumber":"+2","text":""}`)

	// list
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ussd/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list struct {
		Sessions map[string]models.USSDSession `json:"sessions"`
		Count    int                           `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "+2", list.Sessions["b"].PhoneNumber)

	// get
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ussd/sessions/a", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// delete
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/ussd/sessions/a", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var msg map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "Session cleared", msg["msg"])

	// delete again
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/ussd/sessions/a", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ussd/sessions/a", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// sweptStore loses every session between lookup and delete, as a concurrent sweep would
type sweptStore struct {
	*storage.MemoryStore
}

func (s sweptStore) Delete(id string) (bool, error) {
	_, _ = s.MemoryStore.Delete(id)
	return false, nil
}

func TestDeleteSession_SweptConcurrently(t *testing.T) {
	store := storage.NewMemoryStore(5 * time.Minute)
	_, _, err := store.GetOrCreate("a", "+1", time.Now())
	require.NoError(t, err)

	app := fiber.New()
	app.Delete("/api/ussd/sessions/:id", NewSessionDebugHandler(sweptStore{store}).DeleteSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/ussd/sessions/a", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "only a delete that removed the session reports it cleared")
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		ping     func() error
		wantCode int
		want     string
	}{
		{name: "memory store", ping: nil, wantCode: fiber.StatusOK, want: "ok"},
		{name: "database up", ping: func() error { return nil }, wantCode: fiber.StatusOK, want: "ok"},
		{name: "database down", ping: func() error { return errors.New("no route to host") }, wantCode: fiber.StatusServiceUnavailable, want: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{
				Version:        "test",
				StoreType:      "In-Memory",
				Ping:           tt.ping,
				ActiveSessions: func() int { return 3 },
			}
			app := fiber.New()
			app.Get("/health", h.Check)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body["status"])
			assert.EqualValues(t, 3, body["sessions"])
		})
	}
}
