package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/engine"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage/sqlite"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "api.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	handler, err := New(Config{
		Engine:    engine.New(store),
		BasePath:  "/v1",
		JWTSecret: testSecret,
		Today:     func() calendar.Date { return calendar.MustParse("2024-06-19") },
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv
}

func token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := IssueToken(testSecret, owner, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, method, url, tok string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func createActivity(t *testing.T, srv *httptest.Server, tok string, body map[string]any) ActivityResponse {
	t.Helper()
	res, data := doJSON(t, http.MethodPost, srv.URL+"/v1/activities", tok, body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create activity status %d: %s", res.StatusCode, data)
	}
	var created ActivityResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	return created
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/health", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, data)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name  string
		authz string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"bad signature", "Bearer " + mustSign(t, "other-secret", "alice")},
		{"no subject", "Bearer " + mustSign(t, testSecret, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/activities", nil)
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			res.Body.Close()
			if res.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", res.StatusCode)
			}
		})
	}
}

func mustSign(t *testing.T, secret, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestActivityLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice")

	created := createActivity(t, srv, alice, map[string]any{
		"title":          "Gym",
		"frequency_type": "WEEKLY",
		"scheduled_days": []string{"L", "X", "V"},
	})
	if created.OwnerID != "alice" || created.SourceType != "MANUAL" {
		t.Errorf("unexpected activity: %+v", created)
	}

	res, data := doJSON(t, http.MethodPatch, srv.URL+"/v1/activities/"+created.ID, alice, map[string]any{
		"title":     "Gym session",
		"domain_id": "health",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d: %s", res.StatusCode, data)
	}
	var updated ActivityResponse
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Gym session" || updated.DomainID == nil || *updated.DomainID != "health" {
		t.Errorf("patch not applied: %+v", updated)
	}

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/activities", alice, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, data)
	}
	var list []ActivityResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(list))
	}

	bob := token(t, "bob")
	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/activities/"+created.ID, bob, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("foreign get status = %d, want 403", res.StatusCode)
	}

	res, data = doJSON(t, http.MethodDelete, srv.URL+"/v1/activities/"+created.ID, alice, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d: %s", res.StatusCode, data)
	}
	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/activities/"+created.ID, alice, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", res.StatusCode)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice")
	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown frequency", map[string]any{"title": "Read", "frequency_type": "YEARLY"}},
		{"bad weekday", map[string]any{"title": "Read", "frequency_type": "WEEKLY", "scheduled_days": []string{"Q"}}},
		{"blank title", map[string]any{"title": "   ", "frequency_type": "DAILY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data := doJSON(t, http.MethodPost, srv.URL+"/v1/activities", alice, tt.body)
			if res.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", res.StatusCode, data)
			}
		})
	}
}

func TestToggleAndDue(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice")
	read := createActivity(t, srv, alice, map[string]any{"title": "Read", "frequency_type": "DAILY"})
	createActivity(t, srv, alice, map[string]any{"title": "Stretch", "frequency_type": "DAILY"})

	res, data := doJSON(t, http.MethodPost, srv.URL+"/v1/activities/"+read.ID+"/toggle", alice, map[string]any{"date": "2024-01-15"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", res.StatusCode, data)
	}
	var c CompletionResponse
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if !c.Completed || c.PeriodKey != "2024-01-15" || c.CompletedAt == nil {
		t.Errorf("unexpected completion: %+v", c)
	}

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/due?date=2024-01-15", alice, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("due status %d: %s", res.StatusCode, data)
	}
	var due DueResponse
	if err := json.Unmarshal(data, &due); err != nil {
		t.Fatal(err)
	}
	if due.Completed != 1 || due.Total != 2 {
		t.Errorf("rate = %d/%d, want 1/2", due.Completed, due.Total)
	}

	res, data = doJSON(t, http.MethodPost, srv.URL+"/v1/activities/"+read.ID+"/toggle", alice, map[string]any{"date": "2024-01-15"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second toggle status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if c.Completed || c.CompletedAt != nil {
		t.Errorf("second toggle should undo: %+v", c)
	}

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/activities/"+read.ID+"/toggle", alice, map[string]any{"date": "15/01/2024"})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed date status = %d, want 400", res.StatusCode)
	}
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/activities/missing/toggle", alice, map[string]any{"date": "2024-01-15"})
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("missing activity status = %d, want 404", res.StatusCode)
	}
}

func TestNotes(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice")
	journal := createActivity(t, srv, alice, map[string]any{"title": "Journal", "frequency_type": "DAILY"})

	res, data := doJSON(t, http.MethodPut, srv.URL+"/v1/activities/"+journal.ID+"/notes", alice, map[string]any{"notes": "felt good"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("notes status %d: %s", res.StatusCode, data)
	}
	var c CompletionResponse
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if c.Notes != "felt good" || c.Date != "2024-06-19" || c.Completed {
		t.Errorf("unexpected completion: %+v", c)
	}
}

func TestWindow(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice")
	createActivity(t, srv, alice, map[string]any{"title": "Gym", "frequency_type": "WEEKLY", "scheduled_days": []string{"L", "X", "V"}})
	once := createActivity(t, srv, alice, map[string]any{"title": "Passport", "frequency_type": "ONCE"})

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/window?mode=week&date=2024-06-19", alice, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("window status %d: %s", res.StatusCode, data)
	}
	var w WindowResponse
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatal(err)
	}
	if w.Start != "2024-06-17" || w.End != "2024-06-23" {
		t.Errorf("window bounds = %s..%s", w.Start, w.End)
	}
	if len(w.PeriodKeys) != 9 || len(w.Days) != 7 {
		t.Errorf("got %d keys and %d days", len(w.PeriodKeys), len(w.Days))
	}
	gym := 0
	for _, d := range w.Days {
		for _, item := range d.Items {
			if item.Activity.Title == "Gym" {
				gym++
			}
		}
	}
	if gym != 3 {
		t.Errorf("gym due %d times in week, want 3", gym)
	}

	doJSON(t, http.MethodPost, srv.URL+"/v1/activities/"+once.ID+"/toggle", alice, map[string]any{"date": "2024-06-18"})
	res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/window?mode=once", alice, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("once window status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatal(err)
	}
	if len(w.Days) != 1 || len(w.Days[0].Items) != 0 {
		t.Errorf("completed once activity should not be pending: %+v", w.Days)
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/window?mode=year", alice, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d, want 400", res.StatusCode)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("op", "bad"), http.StatusBadRequest},
		{apperr.NotFound("op", "missing"), http.StatusNotFound},
		{apperr.Unauthorized("op", "nope"), http.StatusForbidden},
		{apperr.Conflict("op", "raced"), http.StatusConflict},
		{apperr.Upstream("op", errors.New("db down")), http.StatusBadGateway},
		{errors.New("untyped"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := handleError(tt.err).GetStatus(); got != tt.want {
			t.Errorf("handleError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCompletionErrorCarriesStoredRow(t *testing.T) {
	saved := models.Completion{ID: "winner", ActivityID: "a1", PeriodKey: "ONCE", Completed: true}
	se := completionError(saved, apperr.Conflict("toggle completion", "raced"))
	ae, ok := se.(*apiError)
	if !ok || ae.status != http.StatusConflict {
		t.Fatalf("expected 409 apiError, got %#v", se)
	}
	c, ok := ae.Body.Details["completion"].(CompletionResponse)
	if !ok || c.ID != "winner" {
		t.Errorf("details.completion = %#v", ae.Body.Details["completion"])
	}
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without a JWT secret should fail")
	}
}
