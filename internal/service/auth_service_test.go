package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/listkeep/listkeep/internal/auth"
	"github.com/listkeep/listkeep/internal/middleware"
	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/storage/sqlite"
)

// setupTestServer starts an httptest server backed by a temp SQLite store
// with the same route layout as cmd/server.
func setupTestServer(t *testing.T) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "listkeep-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	authenticator := auth.NewPasswordAuthenticator(store)
	sessions := auth.NewSessionManager(store, "test-secret", 24*time.Hour)

	authSvc := NewAuthService(authenticator, sessions, false, slog.Default())
	listSvc := NewListService(store)
	friendSvc := NewFriendService(store)

	requireAuth := middleware.RequireAuth(sessions)
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", authSvc.HandleRegister)
	mux.HandleFunc("POST /login", authSvc.HandleLogin)
	mux.HandleFunc("POST /logout", authSvc.HandleLogout)
	mux.Handle("GET /lists", protected(listSvc.HandleLists))
	mux.Handle("GET /lists/{listId}", protected(listSvc.HandleGetList))
	mux.Handle("POST /lists", protected(listSvc.HandleCreate))
	mux.Handle("PUT /lists", protected(listSvc.HandleReconcile))
	mux.Handle("DELETE /lists/{listId}", protected(listSvc.HandleDeleteList))
	mux.Handle("DELETE /lists/{listId}/{itemId}", protected(listSvc.HandleDeleteItem))
	mux.Handle("GET /friends", protected(friendSvc.HandleFriends))
	mux.Handle("POST /friends", protected(friendSvc.HandleAction))

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return server.URL
}

// testClient is one browser: it keeps its own cookie jar so each client
// has an independent session.
type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, base string) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &testClient{t: t, base: base, http: &http.Client{Jar: jar}}
}

// do sends a JSON request and decodes the JSON response into out (when
// non-nil), returning the status code.
func (c *testClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reqBody)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// register creates an account and leaves the client logged in.
func (c *testClient) register(email, username, password string) *models.User {
	c.t.Helper()
	user := &models.User{}
	status := c.do("POST", "/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, user)
	if status != http.StatusOK {
		c.t.Fatalf("register %s: status %d", username, status)
	}
	if user.ID == "" {
		c.t.Fatalf("register %s: no user id in response", username)
	}
	return user
}

func TestRegisterImpliesLogin(t *testing.T) {
	base := setupTestServer(t)
	client := newTestClient(t, base)

	user := client.register("a@x.com", "alice", "password1")
	if user.Username != "alice" || user.Email != "a@x.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	// The register response set a session cookie; a protected endpoint
	// must work without a separate login.
	if status := client.do("GET", "/lists", nil, nil); status != http.StatusOK {
		t.Errorf("GET /lists after register: status %d, want 200", status)
	}
}

func TestLogin(t *testing.T) {
	base := setupTestServer(t)
	newTestClient(t, base).register("a@x.com", "alice", "password1")

	t.Run("correct credentials succeed", func(t *testing.T) {
		client := newTestClient(t, base)
		user := &models.User{}
		status := client.do("POST", "/login", map[string]string{
			"username": "alice",
			"password": "password1",
		}, user)
		if status != http.StatusOK {
			t.Fatalf("login status %d, want 200", status)
		}
		if user.Username != "alice" {
			t.Errorf("unexpected user: %+v", user)
		}
		if status := client.do("GET", "/lists", nil, nil); status != http.StatusOK {
			t.Errorf("GET /lists after login: status %d, want 200", status)
		}
	})

	t.Run("login by email works", func(t *testing.T) {
		client := newTestClient(t, base)
		status := client.do("POST", "/login", map[string]string{
			"username": "a@x.com",
			"password": "password1",
		}, nil)
		if status != http.StatusOK {
			t.Errorf("login by email status %d, want 200", status)
		}
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		client := newTestClient(t, base)

		badPassword := map[string]string{}
		status := client.do("POST", "/login", map[string]string{
			"username": "alice", "password": "wrong-password",
		}, &badPassword)
		if status != http.StatusUnauthorized {
			t.Errorf("wrong password status %d, want 401", status)
		}

		unknownUser := map[string]string{}
		status = client.do("POST", "/login", map[string]string{
			"username": "nobody", "password": "password1",
		}, &unknownUser)
		if status != http.StatusUnauthorized {
			t.Errorf("unknown user status %d, want 401", status)
		}

		// Same error message for both: no username enumeration.
		if badPassword["error"] != unknownUser["error"] {
			t.Errorf("error messages differ: %q vs %q", badPassword["error"], unknownUser["error"])
		}
	})
}

func TestRegisterDuplicates(t *testing.T) {
	base := setupTestServer(t)
	newTestClient(t, base).register("a@x.com", "alice", "password1")

	cases := []struct {
		name       string
		email      string
		username   string
		wantStatus int
	}{
		{"same email, new username", "a@x.com", "alice2", http.StatusBadRequest},
		{"new email, same username", "a2@x.com", "alice", http.StatusBadRequest},
		{"both new", "b@x.com", "bob", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, base)
			status := client.do("POST", "/register", map[string]string{
				"email": tc.email, "username": tc.username, "password": "password1",
			}, nil)
			if status != tc.wantStatus {
				t.Errorf("status %d, want %d", status, tc.wantStatus)
			}
		})
	}
}

func TestWeakPasswordRejected(t *testing.T) {
	base := setupTestServer(t)
	client := newTestClient(t, base)

	status := client.do("POST", "/register", map[string]string{
		"email": "a@x.com", "username": "alice", "password": "short",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("weak password status %d, want 400", status)
	}
}

func TestLogout(t *testing.T) {
	base := setupTestServer(t)
	client := newTestClient(t, base)
	client.register("a@x.com", "alice", "password1")

	if status := client.do("POST", "/logout", nil, nil); status != http.StatusOK {
		t.Fatalf("logout status %d, want 200", status)
	}

	// The session is destroyed server-side, not just the cookie.
	if status := client.do("GET", "/lists", nil, nil); status != http.StatusForbidden {
		t.Errorf("GET /lists after logout: status %d, want 403", status)
	}

	// Logging out twice must not error.
	if status := client.do("POST", "/logout", nil, nil); status != http.StatusOK {
		t.Errorf("second logout status %d, want 200", status)
	}
}

func TestProtectedEndpointsFailClosed(t *testing.T) {
	base := setupTestServer(t)
	client := newTestClient(t, base)

	protected := []struct {
		method string
		path   string
	}{
		{"GET", "/lists"},
		{"GET", "/lists/some-id"},
		{"POST", "/lists"},
		{"PUT", "/lists"},
		{"DELETE", "/lists/some-id"},
		{"DELETE", "/lists/some-id/some-item"},
		{"GET", "/friends"},
		{"POST", "/friends"},
	}

	for _, ep := range protected {
		t.Run(fmt.Sprintf("%s %s", ep.method, ep.path), func(t *testing.T) {
			if status := client.do(ep.method, ep.path, nil, nil); status != http.StatusForbidden {
				t.Errorf("status %d, want 403", status)
			}
		})
	}
}
