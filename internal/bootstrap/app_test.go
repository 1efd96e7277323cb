package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docvault-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	app, err := Build(context.Background(), config.Config{
		CORSAllowOrigin: []string{"http://localhost:3000"},
		Env:             "dev",
		LocalStoreDir:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func signUp(t *testing.T, app *App, email string) string {
	t.Helper()
	w := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		GateState string `json:"gateState"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatalf("signup returned no token")
	}
	if resp.GateState != "Unlocked" {
		t.Fatalf("fresh account should be Unlocked, got %q", resp.GateState)
	}
	return resp.Token
}

func uploadDocument(t *testing.T, app *App, token, fileName, content, category string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if category != "" {
		if err := mw.WriteField("category", category); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", w.Code, w.Body.String())
	}
	var doc map[string]any
	decode(t, w, &doc)
	return doc
}

func TestSignupUploadListDownload(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "flow@example.com")
	content := "Patient: A. Nonym\nDiagnosis: healthy\n"

	doc := uploadDocument(t, app, token, "checkup.txt", content, "Medical")
	docID, _ := doc["id"].(string)
	if docID == "" {
		t.Fatalf("upload returned no id: %v", doc)
	}
	if doc["category"] != "Medical" {
		t.Fatalf("category mismatch: %v", doc["category"])
	}

	w := doJSON(t, app, http.MethodGet, "/api/v1/documents?search=check", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status %d: %s", w.Code, w.Body.String())
	}
	var list struct {
		Documents []map[string]any `json:"documents"`
	}
	decode(t, w, &list)
	if len(list.Documents) != 1 {
		t.Fatalf("expected 1 search hit, got %d", len(list.Documents))
	}

	w = doJSON(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/download", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download status %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != content {
		t.Fatalf("downloaded content differs:\nwant %q\ngot  %q", content, w.Body.String())
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, `checkup.txt`) {
		t.Fatalf("unexpected disposition %q", disposition)
	}

	w = doJSON(t, app, http.MethodDelete, "/api/v1/documents/"+docID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents/"+docID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestDocumentsAreUserScoped(t *testing.T) {
	app := newTestApp(t)
	owner := signUp(t, app, "owner@example.com")
	intruder := signUp(t, app, "intruder@example.com")

	doc := uploadDocument(t, app, owner, "secret.txt", "mine", "Personal")
	docID, _ := doc["id"].(string)

	w := doJSON(t, app, http.MethodGet, "/api/v1/documents/"+docID, intruder, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign document, got %d", w.Code)
	}
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/download", intruder, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign download, got %d", w.Code)
	}
}

func TestPinLockLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "pin@example.com")

	w := doJSON(t, app, http.MethodPut, "/api/v1/settings/pin", token, map[string]string{
		"pin": "4242", "confirmPin": "4242",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set pin status %d: %s", w.Code, w.Body.String())
	}

	// The current session stays unlocked; re-login re-locks.
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("current session locked out early: %d", w.Code)
	}

	w = doJSON(t, app, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status %d", w.Code)
	}
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token still accepted: %d", w.Code)
	}

	w = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "pin@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		Token     string `json:"token"`
		GateState string `json:"gateState"`
	}
	decode(t, w, &login)
	if login.GateState != "PinRequired" {
		t.Fatalf("expected PinRequired after re-login, got %q", login.GateState)
	}

	// Locked sessions cannot reach protected APIs.
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents", login.Token, nil)
	if w.Code != http.StatusLocked {
		t.Fatalf("expected 423 while locked, got %d: %s", w.Code, w.Body.String())
	}

	// Wrong PIN stays locked, right PIN unlocks.
	w = doJSON(t, app, http.MethodPost, "/api/v1/session/unlock", login.Token, map[string]string{"pin": "1234"})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status %d: %s", w.Code, w.Body.String())
	}
	var unlock struct {
		Matched bool   `json:"matched"`
		State   string `json:"state"`
	}
	decode(t, w, &unlock)
	if unlock.Matched || unlock.State != "PinRequired" {
		t.Fatalf("wrong PIN result: %+v", unlock)
	}

	w = doJSON(t, app, http.MethodPost, "/api/v1/session/unlock", login.Token, map[string]string{"pin": "4242"})
	decode(t, w, &unlock)
	if !unlock.Matched || unlock.State != "Unlocked" {
		t.Fatalf("correct PIN result: %+v", unlock)
	}

	w = doJSON(t, app, http.MethodGet, "/api/v1/documents", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("still locked after unlock: %d", w.Code)
	}
}

func TestUnlockAttemptsAreThrottled(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "throttle@example.com")

	w := doJSON(t, app, http.MethodPut, "/api/v1/settings/pin", token, map[string]string{
		"pin": "4242", "confirmPin": "4242",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set pin status %d", w.Code)
	}
	doJSON(t, app, http.MethodPost, "/api/v1/auth/logout", token, nil)

	w = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "throttle@example.com", "password": "hunter22",
	})
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	limited := false
	for i := 0; i < 10; i++ {
		w = doJSON(t, app, http.MethodPost, "/api/v1/session/unlock", login.Token, map[string]string{"pin": "0000"})
		if w.Code == http.StatusTooManyRequests {
			limited = true
			if w.Header().Get("Retry-After") == "" {
				t.Fatalf("429 without Retry-After")
			}
			break
		}
	}
	if !limited {
		t.Fatalf("unlock attempts were never rate limited")
	}
}

func TestSessionRouteGuard(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "routes@example.com")

	cases := []struct {
		token    string
		route    string
		state    string
		redirect string
	}{
		{"", "/dashboard", "Unauthenticated", "/"},
		{"", "/", "Unauthenticated", ""},
		{token, "/dashboard", "Unlocked", ""},
		{token, "/", "AuthenticatedRedirecting", "/dashboard"},
	}
	for _, tc := range cases {
		w := doJSON(t, app, http.MethodGet, "/api/v1/session?route="+tc.route, tc.token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("session status %d for route %s", w.Code, tc.route)
		}
		var d struct {
			State    string `json:"state"`
			Redirect string `json:"redirect"`
		}
		decode(t, w, &d)
		if d.State != tc.state || d.Redirect != tc.redirect {
			t.Fatalf("route %s (auth=%v): got %+v, want state=%s redirect=%q",
				tc.route, tc.token != "", d, tc.state, tc.redirect)
		}
	}
}

func TestQAWithoutProviderFailsGenerically(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "qa@example.com")
	doc := uploadDocument(t, app, token, "lease.txt", "Rent is $1200 per month.", "Legal")
	docID, _ := doc["id"].(string)

	w := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/documents/%s/qa", docID), token, map[string]string{
		"question": "How much is rent?",
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 without a provider, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decode(t, w, &resp)
	if resp.Error.Message != "failed to get an answer from the document" {
		t.Fatalf("internal detail leaked: %q", resp.Error.Message)
	}
}

func TestAccountErasure(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "erase@example.com")
	uploadDocument(t, app, token, "doc.txt", "content", "Other")

	w := doJSON(t, app, http.MethodDelete, "/api/v1/account", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("erase status %d: %s", w.Code, w.Body.String())
	}

	// Sessions are revoked with the account.
	w = doJSON(t, app, http.MethodGet, "/api/v1/documents", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("token outlived account: %d", w.Code)
	}

	w = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "erase@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("erased account can still log in: %d", w.Code)
	}
}
